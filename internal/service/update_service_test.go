package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
	"github.com/bcnelson/firewall-ddns/internal/provider"
	"github.com/bcnelson/firewall-ddns/internal/storage/memory"
)

type fakeProvider struct {
	err   error
	calls []string
}

func (f *fakeProvider) UpdateFirewall(ctx context.Context, token, firewall, ip string) error {
	f.calls = append(f.calls, token+"|"+firewall+"|"+ip)
	return f.err
}

type failingStore struct{ memory.Store }

func (*failingStore) RecordEvent(ctx context.Context, event *domain.AuditEvent) error {
	return errors.New("disk full")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"nil", nil, Result{domain.OutcomeSuccess, http.StatusOK, "success"}},
		{"auth", &domain.AuthError{Status: 403}, Result{domain.OutcomeUnauthorized, http.StatusUnauthorized, "unauthorized"}},
		{"wrapped auth", fmt.Errorf("step: %w", &domain.AuthError{Status: 401}), Result{domain.OutcomeUnauthorized, http.StatusUnauthorized, "unauthorized"}},
		{"update", domain.NewUpdateError("Firewall not found: %s", "fw"), Result{domain.OutcomeUpdateError, http.StatusBadRequest, "Firewall not found: fw"}},
		{"provider", &domain.ProviderError{Message: "Failed to update firewall", Status: 500, Body: "secret detail"}, Result{domain.OutcomeProviderError, http.StatusInternalServerError, "Internal server error"}},
		{"other", errors.New("boom"), Result{domain.OutcomeProviderError, http.StatusInternalServerError, "Internal server error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestUpdateRecordsOutcome(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantOutcome domain.Outcome
		wantStatus  int
		wantMessage string
	}{
		{"success", nil, domain.OutcomeSuccess, 200, "success"},
		{"unauthorized", &domain.AuthError{Status: 401}, domain.OutcomeUnauthorized, 401, "unauthorized"},
		{"update error", domain.NewUpdateError("Firewall not found: fw"), domain.OutcomeUpdateError, 400, "Firewall not found: fw"},
		{"provider error", &domain.ProviderError{Message: "Failed to get firewall", Status: 502}, domain.OutcomeProviderError, 500, "Failed to get firewall"},
		{"unclassified", errors.New("boom"), domain.OutcomeProviderError, 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New(10)
			m := metrics.NewUnregistered()
			p := &fakeProvider{err: tt.err}
			svc := NewUpdateService(store, m, zap.NewNop())

			base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			ticks := []time.Time{base, base.Add(250 * time.Millisecond)}
			svc.now = func() time.Time {
				next := ticks[0]
				ticks = ticks[1:]
				return next
			}

			err := svc.Update(context.Background(), provider.NamedProvider{Name: "hetzner", Provider: p}, domain.UpdateRequest{
				CallerIP:     "203.0.113.9",
				Hostname:     "fw",
				IP:           "1.2.3.4",
				ProviderName: "hz",
				Token:        "secret-token",
			})
			assert.Equal(t, tt.err, err)
			assert.Equal(t, []string{"secret-token|fw|1.2.3.4"}, p.calls)

			events, listErr := store.ListEvents(context.Background(), 10, 0)
			require.NoError(t, listErr)
			require.Len(t, events, 1)
			e := events[0]
			assert.Len(t, e.ID, 36)
			assert.Equal(t, "203.0.113.9", e.CallerIP)
			assert.Equal(t, "hetzner", e.Provider)
			assert.Equal(t, "fw", e.Hostname)
			assert.Equal(t, tt.wantOutcome, e.Outcome)
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, tt.wantMessage, e.Message)
			assert.Equal(t, int64(250), e.DurationMS)
			assert.True(t, base.Equal(e.CreatedAt))
			assert.NotContains(t, e.Message, "secret-token")

			assert.Equal(t, 1.0, testutil.ToFloat64(m.Updates.WithLabelValues("hetzner", string(tt.wantOutcome))))
			assert.Equal(t, 1, testutil.CollectAndCount(m.UpdateDuration))
		})
	}
}

func TestUpdateLogsCallerIP(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewUpdateService(nil, nil, zap.New(core))

	err := svc.Update(context.Background(), provider.NamedProvider{Name: "digitalocean", Provider: &fakeProvider{}}, domain.UpdateRequest{
		CallerIP: "198.51.100.1",
		Hostname: "fw",
		IP:       "1.2.3.4",
		Token:    "secret-token",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("firewall updated").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "198.51.100.1", fields["caller_ip"])
	assert.Equal(t, "digitalocean", fields["provider"])
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, "secret-token", v)
		}
	}
}

func TestUpdateAuditFailureDoesNotFailRequest(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewUpdateService(&failingStore{}, nil, zap.New(core))

	err := svc.Update(context.Background(), provider.NamedProvider{Name: "digitalocean", Provider: &fakeProvider{}}, domain.UpdateRequest{Hostname: "fw", IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to record audit event").Len())
}
