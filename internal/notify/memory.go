package notify

import (
	"context"
	"sync"
)

// MemoryNotifier records notifications in memory. Used by tests and by
// development mode when no Redis is configured.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// FailWith makes subsequent sends return err, for failure-isolation tests.
func (m *MemoryNotifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryNotifier) Send(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *MemoryNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification{}, m.sent...)
}
