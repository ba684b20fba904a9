package handler

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPResolver(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", " 192.0.2.7 ", "", "2001:db8::/32"})
	if err != nil {
		t.Fatalf("NewClientIPResolver: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"peer only", "203.0.113.5:4321", nil, "203.0.113.5"},
		{"cloudflare header wins", "203.0.113.5:4321", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, "198.51.100.1"},
		{"forwarded from trusted prefix", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.1.2.3"}, "198.51.100.2"},
		{"forwarded from trusted address", "192.0.2.7:80", map[string]string{"X-Forwarded-For": "198.51.100.3"}, "198.51.100.3"},
		{"forwarded from trusted v6", "[2001:db8::1]:80", map[string]string{"X-Forwarded-For": "198.51.100.4"}, "198.51.100.4"},
		{"forwarded from untrusted peer", "203.0.113.5:4321", map[string]string{"X-Forwarded-For": "198.51.100.2"}, "203.0.113.5"},
		{"empty forwarded entry", "10.1.2.3:80", map[string]string{"X-Forwarded-For": " , 198.51.100.2"}, "10.1.2.3"},
		{"mapped v4 peer", "[::ffff:10.0.0.9]:80", map[string]string{"X-Forwarded-For": "198.51.100.5"}, "198.51.100.5"},
		{"peer without port", "203.0.113.5", nil, "203.0.113.5"},
		{"unparseable peer", "pipe", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/update", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := resolver.Resolve(req); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPResolverRejectsBadEntries(t *testing.T) {
	for _, entry := range []string{"not-an-ip", "10.0.0.0/33", "10.0.0/8"} {
		if _, err := NewClientIPResolver([]string{entry}); err == nil {
			t.Errorf("NewClientIPResolver(%q) succeeded, want error", entry)
		}
	}
}
