// Package fileshim is a stand-in for the remote firewall APIs that records
// updates in a local JSON file. It is meant for local testing.
package fileshim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/domain"
	"github.com/bcnelson/firewall-ddns/internal/provider"
)

// Record is the state the shim keeps for one firewall.
type Record struct {
	Provider       string    `json:"provider"`
	Firewall       string    `json:"firewall"`
	InboundSources []string  `json:"inbound_sources"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type document struct {
	Firewalls map[string]*Record `json:"firewalls"`
}

// FileShim writes firewall updates to a file instead of a provider API.
type FileShim struct {
	filePath string
	logger   *zap.Logger
	now      func() time.Time

	mu sync.Mutex
}

// New creates a new file-based shim.
func New(filePath string, logger *zap.Logger) *FileShim {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileShim{
		filePath: filePath,
		logger:   logger.Named("fileshim"),
		now:      time.Now,
	}
}

// Provider returns a provider.Provider that records updates under name.
func (f *FileShim) Provider(name string) provider.Provider {
	return &shimProvider{shim: f, name: name}
}

type shimProvider struct {
	shim *FileShim
	name string
}

func (p *shimProvider) UpdateFirewall(ctx context.Context, token, firewall, ip string) error {
	return p.shim.update(p.name, firewall, domain.SourceCIDR(ip))
}

func (f *FileShim) update(providerName, firewall, cidr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return &domain.ProviderError{Message: "reading shim file", Err: err}
	}

	doc.Firewalls[providerName+"/"+firewall] = &Record{
		Provider:       providerName,
		Firewall:       firewall,
		InboundSources: []string{cidr},
		UpdatedAt:      f.now().UTC(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling shim file: %w", err)
	}
	if err := os.WriteFile(f.filePath, data, 0644); err != nil {
		return &domain.ProviderError{Message: "writing shim file", Err: err}
	}

	f.logger.Info("recorded firewall update",
		zap.String("provider", providerName),
		zap.String("firewall", firewall),
		zap.String("file", f.filePath),
	)
	return nil
}

// Records returns every recorded firewall, ordered by provider and name.
func (f *FileShim) Records() ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(doc.Firewalls))
	for _, r := range doc.Firewalls {
		records = append(records, *r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Provider != records[j].Provider {
			return records[i].Provider < records[j].Provider
		}
		return records[i].Firewall < records[j].Firewall
	})
	return records, nil
}

// read loads the file. A missing file is an empty document.
func (f *FileShim) read() (*document, error) {
	doc := &document{}
	data, err := os.ReadFile(f.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading shim file: %w", err)
	default:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parsing shim file: %w", err)
		}
	}
	if doc.Firewalls == nil {
		doc.Firewalls = make(map[string]*Record)
	}
	return doc, nil
}
