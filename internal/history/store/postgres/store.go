package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// Store persists history entries in PostgreSQL. The request_history table is
// append-only; there are no update or delete paths by design.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal history metadata: %w", err)
		}
	}

	var fromState *string
	if entry.FromState != nil {
		v := string(*entry.FromState)
		fromState = &v
	}

	query := `
		INSERT INTO request_history (id, request_id, from_state, to_state, actor_id, role, note, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.RequestID,
		fromState,
		string(entry.ToState),
		entry.ActorID,
		string(entry.Role),
		entry.Note,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *Store) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, request_id, from_state, to_state, actor_id, role, note, metadata, created_at
		FROM request_history
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *Store) Latest(ctx context.Context, requestID uuid.UUID) (*domain.HistoryEntry, error) {
	query := `
		SELECT id, request_id, from_state, to_state, actor_id, role, note, metadata, created_at
		FROM request_history
		WHERE request_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest history entry: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.HistoryEntry, error) {
	var (
		entry     domain.HistoryEntry
		fromState sql.NullString
		actorID   uuid.NullUUID
		toState   string
		role      string
		metadata  []byte
	)
	err := row.Scan(
		&entry.ID,
		&entry.RequestID,
		&fromState,
		&toState,
		&actorID,
		&role,
		&entry.Note,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fromState.Valid {
		from := domain.State(fromState.String)
		entry.FromState = &from
	}
	if actorID.Valid {
		actor := actorID.UUID
		entry.ActorID = &actor
	}
	entry.ToState = domain.State(toState)
	entry.Role = domain.Role(role)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal history metadata: %w", err)
		}
	}
	return &entry, nil
}
