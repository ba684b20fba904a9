package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"auth", &AuthError{Status: 403}, ErrUnauthorized, "unauthorized (status 403)"},
		{"auth without status", &AuthError{}, ErrUnauthorized, "unauthorized"},
		{"update", NewUpdateError("Firewall not found: %s", "web"), ErrUpdate, "Firewall not found: web"},
		{"provider", &ProviderError{Message: "Failed to update firewall", Status: 422, Body: `{"error":{}}`}, ErrProvider, `Failed to update firewall: 422 {"error":{}}`},
		{"provider status only", &ProviderError{Message: "Failed to get firewall", Status: 500}, ErrProvider, "Failed to get firewall: 500"},
		{"provider plain", NewProviderError("unexpected payload"), ErrProvider, "unexpected payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.message)
			}
			wrapped := fmt.Errorf("updating: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			for _, other := range []error{ErrUnauthorized, ErrUpdate, ErrProvider} {
				if other != tt.sentinel && errors.Is(wrapped, other) {
					t.Errorf("errors.Is(%v, %v) = true", wrapped, other)
				}
			}
		})
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	err := &ProviderError{Message: "GET /firewalls", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected wrapped error to be reachable")
	}
	if err.Error() != "GET /firewalls: unexpected EOF" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestSourceCIDR(t *testing.T) {
	if got := SourceCIDR("1.2.3.4"); got != "1.2.3.4/32" {
		t.Errorf("SourceCIDR = %q", got)
	}
}
