package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certitrack/internal/domain"
	"certitrack/pkg/platform/sentinel"
)

// Store reads and status-flips physical-document records in PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.PhysicalDocument, error) {
	query := `SELECT id, status, updated_at FROM physical_documents WHERE id = $1`
	var (
		doc    domain.PhysicalDocument
		status string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc.ID, &status, &doc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get physical document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	query := `UPDATE physical_documents SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, string(status), time.Now())
	if err != nil {
		return fmt.Errorf("set physical document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set physical document status: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
