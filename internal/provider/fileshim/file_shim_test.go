package fileshim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/firewall-ddns/internal/domain"
)

func TestFileShimRecordsUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firewalls.json")
	shim := New(path, nil)
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	shim.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, shim.Provider("hetzner").UpdateFirewall(ctx, "token", "l:env=prod", "1.2.3.4"))
	require.NoError(t, shim.Provider("digitalocean").UpdateFirewall(ctx, "token", "home", "1.2.3.4"))
	require.NoError(t, shim.Provider("digitalocean").UpdateFirewall(ctx, "token", "home", "5.6.7.8"))

	records, err := shim.Records()
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Provider: "digitalocean", Firewall: "home", InboundSources: []string{"5.6.7.8/32"}, UpdatedAt: fixed},
		{Provider: "hetzner", Firewall: "l:env=prod", InboundSources: []string{"1.2.3.4/32"}, UpdatedAt: fixed},
	}, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "token")
}

func TestFileShimMissingFileIsEmpty(t *testing.T) {
	shim := New(filepath.Join(t.TempDir(), "absent.json"), nil)
	records, err := shim.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileShimCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firewalls.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	err := New(path, nil).Provider("hetzner").UpdateFirewall(context.Background(), "token", "fw", "1.2.3.4")
	assert.True(t, errors.Is(err, domain.ErrProvider))
}
