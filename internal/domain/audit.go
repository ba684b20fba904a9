package domain

import "time"

// Outcome classifies how an update attempt ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeUnauthorized  Outcome = "unauthorized"
	OutcomeUpdateError   Outcome = "update_error"
	OutcomeProviderError Outcome = "provider_error"
)

// AuditEvent records one update attempt that reached a provider.
// The provider token and the claimed address are never recorded.
type AuditEvent struct {
	ID         string    `json:"id" db:"id"`
	CallerIP   string    `json:"caller_ip" db:"caller_ip"`
	Provider   string    `json:"provider" db:"provider"`
	Hostname   string    `json:"hostname" db:"hostname"`
	Outcome    Outcome   `json:"outcome" db:"outcome"`
	Status     int       `json:"status" db:"status"`
	Message    string    `json:"message,omitempty" db:"message"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// APIError represents a JSON error response from the admin API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}
