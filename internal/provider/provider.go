// Package provider defines the firewall update capability and the alias
// registry the request handler dispatches through.
package provider

import (
	"context"
	"strings"
)

// Provider updates a remote firewall so that its inbound rules only admit
// one address.
//
// Implementations return *domain.AuthError when the token is rejected,
// *domain.UpdateError for problems the caller can fix (unknown firewall,
// bad selector) and *domain.ProviderError for anything unexpected.
type Provider interface {
	UpdateFirewall(ctx context.Context, token, firewall, ip string) error
}

// NamedProvider pairs a Provider with its canonical name.
type NamedProvider struct {
	Name     string
	Provider Provider
}

// Registry maps case-insensitive aliases to providers. It is filled once at
// startup and only read afterwards.
type Registry struct {
	aliases []string
	entries map[string]NamedProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]NamedProvider)}
}

// Register adds p under every alias. The first alias is the canonical name.
func (r *Registry) Register(p Provider, aliases ...string) {
	if len(aliases) == 0 {
		return
	}
	named := NamedProvider{Name: strings.ToLower(aliases[0]), Provider: p}
	for _, alias := range aliases {
		alias = strings.ToLower(alias)
		if _, exists := r.entries[alias]; !exists {
			r.aliases = append(r.aliases, alias)
		}
		r.entries[alias] = named
	}
}

// Lookup finds the provider registered under name, ignoring case.
func (r *Registry) Lookup(name string) (NamedProvider, bool) {
	p, ok := r.entries[strings.ToLower(name)]
	return p, ok
}

// Names returns every registered alias in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.aliases))
	copy(names, r.aliases)
	return names
}

// NewDefaultRegistry registers digitalOcean as "digitalocean" and "do" and
// hetzner as "hetzner" and "hz".
func NewDefaultRegistry(digitalOcean, hetzner Provider) *Registry {
	r := NewRegistry()
	r.Register(digitalOcean, "digitalocean", "do")
	r.Register(hetzner, "hetzner", "hz")
	return r
}
