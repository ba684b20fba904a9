package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct{ id string }

func (s *stubProvider) UpdateFirewall(ctx context.Context, token, firewall, ip string) error {
	return nil
}

func TestRegistryLookup(t *testing.T) {
	do := &stubProvider{id: "do"}
	hz := &stubProvider{id: "hz"}

	r := NewRegistry()
	r.Register(do, "digitalocean", "do")
	r.Register(hz, "hetzner", "hz")

	tests := []struct {
		alias    string
		wantName string
		want     Provider
	}{
		{"digitalocean", "digitalocean", do},
		{"DigitalOcean", "digitalocean", do},
		{"do", "digitalocean", do},
		{"DO", "digitalocean", do},
		{"hetzner", "hetzner", hz},
		{"HETZNER", "hetzner", hz},
		{"hz", "hetzner", hz},
		{"Hz", "hetzner", hz},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, ok := r.Lookup(tt.alias)
			assert.True(t, ok)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Same(t, tt.want, got.Provider)
		})
	}

	for _, miss := range []string{"", "aws", "d o", "hetzner ", "digital-ocean"} {
		_, ok := r.Lookup(miss)
		assert.False(t, ok, "Lookup(%q)", miss)
	}

	assert.Equal(t, []string{"digitalocean", "do", "hetzner", "hz"}, r.Names())
}

func TestRegistryNamesIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{}, "one")
	names := r.Names()
	names[0] = "changed"
	assert.Equal(t, []string{"one"}, r.Names())
}

func TestRegisterWithoutAliases(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{})
	assert.Empty(t, r.Names())
}

func TestNewDefaultRegistry(t *testing.T) {
	do := &stubProvider{id: "do"}
	hz := &stubProvider{id: "hz"}
	r := NewDefaultRegistry(do, hz)

	got, ok := r.Lookup("Do")
	assert.True(t, ok)
	assert.Same(t, do, got.Provider)

	got, ok = r.Lookup("HZ")
	assert.True(t, ok)
	assert.Equal(t, "hetzner", got.Name)
	assert.Same(t, hz, got.Provider)

	assert.Equal(t, []string{"digitalocean", "do", "hetzner", "hz"}, r.Names())
}
