// Package history is the append-only audit trail of request transitions.
// It is infrastructure, not policy: appends never reject on business
// grounds, only on storage unavailability.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"certitrack/internal/domain"
)

// Store persists history entries. Implementations must keep entries
// immutable and return them ordered by creation time, oldest first.
type Store interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.HistoryEntry, error)
	// Latest returns the most recent entry for a request, or nil when the
	// request has no history.
	Latest(ctx context.Context, requestID uuid.UUID) (*domain.HistoryEntry, error)
}

// Publisher fans a committed entry out to downstream consumers (reporting,
// compliance). Implementations must be fire-and-forget: they log their own
// failures and never block the append path.
type Publisher interface {
	Publish(ctx context.Context, entry domain.HistoryEntry)
}

// Ledger wraps the store with id/timestamp assignment and optional
// downstream publishing.
type Ledger struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithPublisher attaches a downstream event publisher.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		l.publisher = p
	}
}

func NewLedger(store Store, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append persists the entry. Publishing to downstream consumers happens
// after a successful append and cannot fail the append.
func (l *Ledger) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := l.store.Append(ctx, entry); err != nil {
		return err
	}
	if l.publisher != nil {
		l.publisher.Publish(ctx, *entry)
	}
	return nil
}

// ListByRequest returns the ordered audit trail for a request.
func (l *Ledger) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.HistoryEntry, error) {
	return l.store.ListByRequest(ctx, requestID)
}

// Latest returns the most recent entry, or nil when no history exists.
func (l *Ledger) Latest(ctx context.Context, requestID uuid.UUID) (*domain.HistoryEntry, error) {
	return l.store.Latest(ctx, requestID)
}
