// Package digitalocean updates DigitalOcean cloud firewalls through the v2
// REST API.
package digitalocean

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
	"github.com/bcnelson/firewall-ddns/internal/provider/rest"
)

const (
	Name           = "digitalocean"
	DefaultBaseURL = "https://api.digitalocean.com/v2"

	listPageSize = 200
	maxListPages = 50
)

// firewall is the subset of a DigitalOcean firewall this package rewrites.
// Everything else is carried as raw JSON so it round-trips unchanged.
type firewall struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	InboundRules  []rule          `json:"inbound_rules"`
	OutboundRules json.RawMessage `json:"outbound_rules"`
	DropletIDs    json.RawMessage `json:"droplet_ids"`
	Tags          json.RawMessage `json:"tags"`
}

// rule keeps every field of an inbound rule as it was received.
type rule map[string]json.RawMessage

// firewallUpdate is the PUT body. DigitalOcean replaces the whole firewall,
// so every writable field is sent back.
type firewallUpdate struct {
	Name          string          `json:"name"`
	InboundRules  []rule          `json:"inbound_rules"`
	OutboundRules json.RawMessage `json:"outbound_rules,omitempty"`
	DropletIDs    json.RawMessage `json:"droplet_ids,omitempty"`
	Tags          json.RawMessage `json:"tags,omitempty"`
}

type listResponse struct {
	Firewalls []firewall `json:"firewalls"`
	Links     struct {
		Pages struct {
			Next string `json:"next"`
		} `json:"pages"`
	} `json:"links"`
}

type getResponse struct {
	Firewall *firewall `json:"firewall"`
}

// Provider implements provider.Provider for DigitalOcean.
type Provider struct {
	client  *rest.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a new DigitalOcean provider.
func New(s rest.Settings) *Provider {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	s.Logger = s.Logger.Named(Name)
	opts := append(s.Options(), rest.WithAuthStatuses(http.StatusUnauthorized))
	return &Provider{
		client:  rest.New(Name, s.BaseURL, opts...),
		logger:  s.Logger,
		metrics: s.Metrics,
	}
}

// looksLikeUUID reports whether value has the canonical 8-4-4-4-12 shape.
// uuid.Parse also accepts braced and urn forms, so the length is pinned.
func looksLikeUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// UpdateFirewall points every inbound rule of the firewall at ip/32.
// firewallNameOrID is used directly when it is UUID-shaped, otherwise it is
// looked up by exact name.
func (p *Provider) UpdateFirewall(ctx context.Context, token, firewallNameOrID, ip string) error {
	id, err := p.resolveFirewallID(ctx, token, firewallNameOrID)
	if err != nil {
		return err
	}

	path := "/firewalls/" + url.PathEscape(id)
	resp, err := p.client.Get(ctx, token, path, nil)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		return domain.NewUpdateError("Firewall not found: %s", firewallNameOrID)
	}
	if !resp.OK() {
		return &domain.ProviderError{Message: "Failed to get firewall", Status: resp.Status}
	}

	var data getResponse
	if err := resp.Decode(&data); err != nil {
		return err
	}
	if data.Firewall == nil {
		return domain.NewProviderError("Failed to get firewall: response has no firewall object")
	}

	update, err := rewriteInbound(data.Firewall, domain.SourceCIDR(ip))
	if err != nil {
		return err
	}

	putResp, err := p.client.Put(ctx, token, path, update)
	if err != nil {
		return err
	}
	if !putResp.OK() {
		return &domain.ProviderError{
			Message: "Failed to update firewall",
			Status:  putResp.Status,
			Body:    string(putResp.Body),
		}
	}

	p.logger.Info("updated firewall",
		zap.String("firewall_id", id),
		zap.String("firewall_name", data.Firewall.Name),
		zap.Int("inbound_rules", len(update.InboundRules)),
	)
	if p.metrics != nil {
		p.metrics.FirewallsUpdated.WithLabelValues(Name).Inc()
	}
	return nil
}

// resolveFirewallID returns nameOrID unchanged when it is UUID-shaped and
// otherwise pages through the account's firewalls for an exact name match.
func (p *Provider) resolveFirewallID(ctx context.Context, token, nameOrID string) (string, error) {
	if looksLikeUUID(nameOrID) {
		return nameOrID, nil
	}

	for page := 1; page <= maxListPages; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(listPageSize)},
		}
		resp, err := p.client.Get(ctx, token, "/firewalls", query)
		if err != nil {
			return "", err
		}
		if !resp.OK() {
			return "", &domain.ProviderError{Message: "Failed to list firewalls", Status: resp.Status}
		}

		var data listResponse
		if err := resp.Decode(&data); err != nil {
			return "", err
		}
		for _, fw := range data.Firewalls {
			if fw.Name == nameOrID {
				p.logger.Debug("resolved firewall by name",
					zap.String("firewall_name", fw.Name),
					zap.String("firewall_id", fw.ID),
				)
				return fw.ID, nil
			}
		}
		if data.Links.Pages.Next == "" {
			break
		}
	}

	return "", domain.NewUpdateError("Firewall not found: %s", nameOrID)
}

// rewriteInbound builds the PUT body with every inbound rule's
// sources.addresses replaced by cidr. Other source kinds (droplet_ids, tags,
// load_balancer_uids, kubernetes_ids) and every outbound rule are kept.
func rewriteInbound(fw *firewall, cidr string) (*firewallUpdate, error) {
	addresses, err := json.Marshal([]string{cidr})
	if err != nil {
		return nil, err
	}

	inbound := make([]rule, 0, len(fw.InboundRules))
	for _, r := range fw.InboundRules {
		sources := map[string]json.RawMessage{}
		if raw, ok := r["sources"]; ok && string(raw) != "null" {
			if err := json.Unmarshal(raw, &sources); err != nil {
				return nil, domain.NewProviderError("unexpected inbound rule sources: %v", err)
			}
		}
		sources["addresses"] = addresses

		encoded, err := json.Marshal(sources)
		if err != nil {
			return nil, err
		}

		updated := make(rule, len(r)+1)
		for k, v := range r {
			updated[k] = v
		}
		updated["sources"] = encoded
		inbound = append(inbound, updated)
	}

	return &firewallUpdate{
		Name:          fw.Name,
		InboundRules:  inbound,
		OutboundRules: fw.OutboundRules,
		DropletIDs:    fw.DropletIDs,
		Tags:          fw.Tags,
	}, nil
}
