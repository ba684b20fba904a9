package storage

import (
	"context"

	"github.com/bcnelson/firewall-ddns/internal/domain"
)

// DefaultListLimit is used when a caller asks for a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps a single page of events.
const MaxListLimit = 500

// AuditStore records update attempts for operators.
// Implementations must be safe for concurrent use.
type AuditStore interface {
	// Close releases the underlying resources.
	Close() error

	// RecordEvent appends one event.
	RecordEvent(ctx context.Context, event *domain.AuditEvent) error

	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, limit, offset int) ([]*domain.AuditEvent, error)
}

// ClampPage normalizes a limit/offset pair.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
