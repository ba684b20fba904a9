package memory

import (
	"context"
	"sync"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/storage"
)

// DefaultRetention is the number of events kept when New is given zero.
const DefaultRetention = 1000

// Store implements storage.AuditStore in memory. Only the most recent
// events are kept; older ones are dropped as new ones arrive.
type Store struct {
	mu        sync.RWMutex
	retention int
	events    []*domain.AuditEvent // oldest first
}

var _ storage.AuditStore = (*Store)(nil)

// New creates a new in-memory store keeping at most retention events.
func New(retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{retention: retention}
}

func (s *Store) Close() error { return nil }

func (s *Store) RecordEvent(ctx context.Context, event *domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	s.events = append(s.events, &copied)
	if over := len(s.events) - s.retention; over > 0 {
		clear(s.events[:over])
		s.events = s.events[over:]
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]*domain.AuditEvent, error) {
	limit, offset = storage.ClampPage(limit, offset)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.events) {
		return []*domain.AuditEvent{}, nil
	}
	end := offset + limit
	if end > len(s.events) {
		end = len(s.events)
	}

	events := make([]*domain.AuditEvent, 0, end-offset)
	for i := offset; i < end; i++ {
		copied := *s.events[len(s.events)-1-i]
		events = append(events, &copied)
	}
	return events, nil
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
