// Package hetzner updates Hetzner Cloud firewalls through the v1 REST API.
//
// A label selector may match several firewalls. They are updated one after
// another and the first failure stops the run; firewalls updated before the
// failure keep their new rules. There is no rollback.
package hetzner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
	"github.com/bcnelson/firewall-ddns/internal/provider/rest"
	"github.com/bcnelson/firewall-ddns/internal/validation"
)

const (
	Name           = "hetzner"
	DefaultBaseURL = "https://api.hetzner.cloud/v1"

	listPageSize = 50
	maxListPages = 50
)

var labelPrefixes = []string{"label:", "l:"}

type firewallRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	Firewalls []firewallRef `json:"firewalls"`
	Meta      struct {
		Pagination struct {
			NextPage *int `json:"next_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

// rule keeps every field of a firewall rule as it was received.
type rule map[string]json.RawMessage

type getResponse struct {
	Firewall *struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Rules []rule `json:"rules"`
	} `json:"firewall"`
}

type setRulesRequest struct {
	Rules []rule `json:"rules"`
}

// Provider implements provider.Provider for Hetzner Cloud.
type Provider struct {
	client  *rest.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a new Hetzner provider.
func New(s rest.Settings) *Provider {
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	s.Logger = s.Logger.Named(Name)
	opts := append(s.Options(), rest.WithAuthStatuses(http.StatusUnauthorized, http.StatusForbidden))
	return &Provider{
		client:  rest.New(Name, s.BaseURL, opts...),
		logger:  s.Logger,
		metrics: s.Metrics,
	}
}

// UpdateFirewall rewrites the inbound source rules of every firewall that
// identifier resolves to.
func (p *Provider) UpdateFirewall(ctx context.Context, token, identifier, ip string) error {
	firewalls, err := p.resolveFirewalls(ctx, token, identifier)
	if err != nil {
		return err
	}

	cidr := domain.SourceCIDR(ip)
	for i, fw := range firewalls {
		if err := p.updateSingleFirewall(ctx, token, fw, cidr); err != nil {
			if i > 0 {
				p.logger.Warn("firewall update stopped partway, earlier firewalls keep their new rules",
					zap.String("failed_firewall", fw.Name),
					zap.Int("updated", i),
					zap.Int("matched", len(firewalls)),
				)
			}
			return err
		}
	}
	return nil
}

// ParseLabelSelector returns the selector after a "label:" or "l:" prefix.
// ok is false when identifier has neither prefix. A prefixed selector that
// does not match the allowed grammar yields an UpdateError.
func ParseLabelSelector(identifier string) (selector string, ok bool, err error) {
	for _, prefix := range labelPrefixes {
		if remainder, found := strings.CutPrefix(identifier, prefix); found {
			if verr := validation.ValidateLabelSelector(remainder); verr != nil {
				return "", true, &domain.UpdateError{Message: verr.Error()}
			}
			return remainder, true, nil
		}
	}
	return "", false, nil
}

func isNumericID(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

// resolveFirewalls turns identifier into the firewalls to update. Label
// selectors are checked before any request is made.
func (p *Provider) resolveFirewalls(ctx context.Context, token, identifier string) ([]domain.ResolvedFirewall, error) {
	selector, isLabel, err := ParseLabelSelector(identifier)
	if err != nil {
		return nil, err
	}

	if isLabel {
		refs, err := p.listFirewalls(ctx, token, url.Values{"label_selector": {selector}})
		if err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			return nil, domain.NewUpdateError("No firewalls found with label: %s", selector)
		}

		firewalls := make([]domain.ResolvedFirewall, 0, len(refs))
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			firewalls = append(firewalls, ref.resolved())
			names = append(names, ref.Name+" ("+strconv.FormatInt(ref.ID, 10)+")")
		}
		p.logger.Info("label selector matched firewalls",
			zap.String("selector", selector),
			zap.Int("count", len(firewalls)),
			zap.Strings("firewalls", names),
		)
		return firewalls, nil
	}

	if isNumericID(identifier) {
		id := identifier
		if n, err := strconv.ParseUint(identifier, 10, 64); err == nil {
			id = strconv.FormatUint(n, 10)
		}
		return []domain.ResolvedFirewall{{ID: id, Name: identifier}}, nil
	}

	refs, err := p.listFirewalls(ctx, token, url.Values{"name": {identifier}})
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Name == identifier {
			return []domain.ResolvedFirewall{ref.resolved()}, nil
		}
	}
	return nil, domain.NewUpdateError("Firewall not found: %s", identifier)
}

func (r firewallRef) resolved() domain.ResolvedFirewall {
	return domain.ResolvedFirewall{ID: strconv.FormatInt(r.ID, 10), Name: r.Name}
}

// listFirewalls pages through GET /firewalls with the given filter.
func (p *Provider) listFirewalls(ctx context.Context, token string, filter url.Values) ([]firewallRef, error) {
	var refs []firewallRef
	page := 1
	for n := 0; n < maxListPages; n++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(listPageSize)},
		}
		for k, v := range filter {
			query[k] = v
		}

		resp, err := p.client.Get(ctx, token, "/firewalls", query)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, &domain.ProviderError{Message: "Failed to list firewalls", Status: resp.Status}
		}

		var data listResponse
		if err := resp.Decode(&data); err != nil {
			return nil, err
		}
		refs = append(refs, data.Firewalls...)

		next := data.Meta.Pagination.NextPage
		if next == nil || *next <= page {
			break
		}
		page = *next
	}
	return refs, nil
}

// updateSingleFirewall fetches one firewall, rewrites its inbound source
// lists and posts the full rule list to the set_rules action.
func (p *Provider) updateSingleFirewall(ctx context.Context, token string, fw domain.ResolvedFirewall, cidr string) error {
	path := "/firewalls/" + url.PathEscape(fw.ID)

	resp, err := p.client.Get(ctx, token, path, nil)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		return domain.NewUpdateError("Firewall not found: %s", fw.Name)
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

	rules, rewritten, err := rewriteRules(data.Firewall.Rules, cidr)
	if err != nil {
		return err
	}

	postResp, err := p.client.Post(ctx, token, path+"/actions/set_rules", setRulesRequest{Rules: rules})
	if err != nil {
		return err
	}
	if !postResp.OK() {
		return &domain.ProviderError{
			Message: "Failed to update firewall",
			Status:  postResp.Status,
			Body:    string(postResp.Body),
		}
	}

	p.logger.Info("updated firewall",
		zap.String("firewall_id", fw.ID),
		zap.String("firewall_name", data.Firewall.Name),
		zap.Int("rules", len(rules)),
		zap.Int("rewritten", rewritten),
	)
	if p.metrics != nil {
		p.metrics.FirewallsUpdated.WithLabelValues(Name).Inc()
	}
	return nil
}

// rewriteRules replaces source_ips of every inbound rule that has one.
// Outbound rules and inbound rules without a source list pass through.
func rewriteRules(rules []rule, cidr string) ([]rule, int, error) {
	sourceIPs, err := json.Marshal([]string{cidr})
	if err != nil {
		return nil, 0, err
	}

	out := make([]rule, 0, len(rules))
	rewritten := 0
	for _, r := range rules {
		var direction string
		if raw, ok := r["direction"]; ok {
			if err := json.Unmarshal(raw, &direction); err != nil {
				return nil, 0, domain.NewProviderError("unexpected rule direction: %v", err)
			}
		}
		raw, hasSources := r["source_ips"]
		if direction != "in" || !hasSources || string(raw) == "null" {
			out = append(out, r)
			continue
		}

		updated := make(rule, len(r))
		for k, v := range r {
			updated[k] = v
		}
		updated["source_ips"] = sourceIPs
		out = append(out, updated)
		rewritten++
	}
	return out, rewritten, nil
}
