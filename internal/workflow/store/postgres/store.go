package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/internal/workflow"
	"certitrack/pkg/platform/sentinel"
)

// Store persists request records in PostgreSQL. This store is pure I/O; the
// transition table and the invariant checks belong to the workflow service.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const requestColumns = `
	id, current_state, priority, applicant_name, contact_email, note,
	submitted_by, submitted_at, payment_validated_by, payment_validated_at,
	processing_by, processing_at, issued_at, delivered_by, delivered_at,
	rejected_at, rejection_reason, payment_id, physical_document_id,
	certificate_id, created_at
`

func (s *Store) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		string(req.CurrentState),
		string(req.Priority),
		req.ApplicantName,
		req.ContactEmail,
		req.Note,
		req.SubmittedBy,
		req.SubmittedAt,
		req.PaymentValidatedBy,
		req.PaymentValidatedAt,
		req.ProcessingBy,
		req.ProcessingAt,
		req.IssuedAt,
		req.DeliveredBy,
		req.DeliveredAt,
		req.RejectedAt,
		nullString(req.RejectionReason),
		req.PaymentID,
		req.PhysicalDocumentID,
		req.CertificateID,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// ApplyTransition commits the state change and the trazabilidad stamps as
// one conditional UPDATE. Zero rows affected with an existing row means a
// concurrent caller won the race; the caller re-observes and reports
// accordingly.
func (s *Store) ApplyTransition(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.State,
	stamps workflow.Stamps,
	note *string,
) (*domain.Request, error) {
	query := `
		UPDATE requests SET
			current_state = $3,
			note = COALESCE($4, note),
			submitted_by = COALESCE($5, submitted_by),
			submitted_at = COALESCE($6, submitted_at),
			payment_validated_by = COALESCE($7, payment_validated_by),
			payment_validated_at = COALESCE($8, payment_validated_at),
			processing_by = COALESCE($9, processing_by),
			processing_at = COALESCE($10, processing_at),
			issued_at = COALESCE($11, issued_at),
			delivered_by = COALESCE($12, delivered_by),
			delivered_at = COALESCE($13, delivered_at),
			rejected_at = COALESCE($14, rejected_at),
			rejection_reason = COALESCE($15, rejection_reason)
		WHERE id = $1 AND current_state = $2
		RETURNING ` + requestColumns + `
	`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query,
		id,
		string(from),
		string(to),
		note,
		stamps.SubmittedBy,
		stamps.SubmittedAt,
		stamps.PaymentValidatedBy,
		stamps.PaymentValidatedAt,
		stamps.ProcessingBy,
		stamps.ProcessingAt,
		stamps.IssuedAt,
		stamps.DeliveredBy,
		stamps.DeliveredAt,
		stamps.RejectedAt,
		stamps.RejectionReason,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the row is gone or the state moved under us.
			var exists bool
			checkErr := s.db.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, id).Scan(&exists)
			if checkErr != nil {
				return nil, fmt.Errorf("check request existence: %w", checkErr)
			}
			if !exists {
				return nil, sentinel.ErrNotFound
			}
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	return req, nil
}

func (s *Store) AttachRefs(ctx context.Context, id uuid.UUID, refs workflow.LinkedRefs) (*domain.Request, error) {
	query := `
		UPDATE requests SET
			payment_id = COALESCE($2, payment_id),
			physical_document_id = COALESCE($3, physical_document_id),
			certificate_id = COALESCE($4, certificate_id)
		WHERE id = $1
		RETURNING ` + requestColumns + `
	`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query,
		id, refs.PaymentID, refs.PhysicalDocumentID, refs.CertificateID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("attach refs: %w", err)
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var (
		req             domain.Request
		currentState    string
		priority        string
		rejectionReason sql.NullString
	)
	err := row.Scan(
		&req.ID,
		&currentState,
		&priority,
		&req.ApplicantName,
		&req.ContactEmail,
		&req.Note,
		&req.SubmittedBy,
		&req.SubmittedAt,
		&req.PaymentValidatedBy,
		&req.PaymentValidatedAt,
		&req.ProcessingBy,
		&req.ProcessingAt,
		&req.IssuedAt,
		&req.DeliveredBy,
		&req.DeliveredAt,
		&req.RejectedAt,
		&rejectionReason,
		&req.PaymentID,
		&req.PhysicalDocumentID,
		&req.CertificateID,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.CurrentState = domain.State(currentState)
	req.Priority = domain.Priority(priority)
	if rejectionReason.Valid {
		req.RejectionReason = rejectionReason.String
	}
	return &req, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
