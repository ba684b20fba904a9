package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
	"github.com/bcnelson/firewall-ddns/internal/provider"
	"github.com/bcnelson/firewall-ddns/internal/storage"
)

// Client-visible bodies for outcomes that carry no detail.
const (
	MessageSuccess       = "success"
	MessageUnauthorized  = "unauthorized"
	MessageInternalError = "Internal server error"
)

// Result is how a provider error is reported to the caller.
type Result struct {
	Outcome domain.Outcome
	Status  int
	Message string
}

// Classify maps the error returned by a provider onto the response the
// caller receives. A nil error is a success. Provider errors and anything
// unrecognized share one opaque message.
func Classify(err error) Result {
	if err == nil {
		return Result{Outcome: domain.OutcomeSuccess, Status: http.StatusOK, Message: MessageSuccess}
	}

	var updateErr *domain.UpdateError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return Result{Outcome: domain.OutcomeUnauthorized, Status: http.StatusUnauthorized, Message: MessageUnauthorized}
	case errors.As(err, &updateErr):
		return Result{Outcome: domain.OutcomeUpdateError, Status: http.StatusBadRequest, Message: updateErr.Message}
	default:
		return Result{Outcome: domain.OutcomeProviderError, Status: http.StatusInternalServerError, Message: MessageInternalError}
	}
}

// UpdateService runs one provider update and records how it went.
type UpdateService struct {
	store   storage.AuditStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUpdateService creates a new UpdateService. store and m may be nil.
func NewUpdateService(store storage.AuditStore, m *metrics.Metrics, logger *zap.Logger) *UpdateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateService{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Update points the firewall named by req.Hostname at req.IP through p.
// The provider error is returned unchanged; Classify turns it into a
// response.
func (s *UpdateService) Update(ctx context.Context, p provider.NamedProvider, req domain.UpdateRequest) error {
	logger := s.logger.With(
		zap.String("caller_ip", req.CallerIP),
		zap.String("provider", p.Name),
		zap.String("hostname", req.Hostname),
	)

	start := s.now()
	err := p.Provider.UpdateFirewall(ctx, req.Token, req.Hostname, req.IP)
	elapsed := s.now().Sub(start)

	result := Classify(err)
	switch result.Outcome {
	case domain.OutcomeSuccess:
		logger.Info("firewall updated", zap.Duration("duration", elapsed))
	case domain.OutcomeUnauthorized:
		logger.Info("provider rejected token", zap.Error(err))
	case domain.OutcomeUpdateError:
		logger.Info("firewall update refused", zap.Error(err))
	default:
		logger.Error("provider failure", zap.Error(err), zap.Duration("duration", elapsed))
	}

	if s.metrics != nil {
		s.metrics.Updates.WithLabelValues(p.Name, string(result.Outcome)).Inc()
		s.metrics.UpdateDuration.WithLabelValues(p.Name).Observe(elapsed.Seconds())
	}

	s.record(ctx, logger, &domain.AuditEvent{
		ID:         uuid.New().String(),
		CallerIP:   req.CallerIP,
		Provider:   p.Name,
		Hostname:   req.Hostname,
		Outcome:    result.Outcome,
		Status:     result.Status,
		Message:    auditMessage(result, err),
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start,
	})

	return err
}

// auditMessage keeps the update detail, which is already client visible,
// and reduces other failures to their outcome.
func auditMessage(result Result, err error) string {
	if result.Outcome == domain.OutcomeProviderError {
		var providerErr *domain.ProviderError
		if errors.As(err, &providerErr) {
			return providerErr.Message
		}
	}
	return result.Message
}

func (s *UpdateService) record(ctx context.Context, logger *zap.Logger, event *domain.AuditEvent) {
	if s.store == nil {
		return
	}
	// The update already happened, so a cancelled request must not lose its
	// audit row.
	if err := s.store.RecordEvent(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("failed to record audit event", zap.Error(err))
	}
}
