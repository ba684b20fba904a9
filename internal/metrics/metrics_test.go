package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Updates.WithLabelValues("do", "success").Inc()
	m.ProviderRequests.WithLabelValues("hetzner", "GET", "200").Add(2)
	m.UpdateDuration.WithLabelValues("do").Observe(0.1)
	m.FirewallsUpdated.WithLabelValues("hetzner").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Updates.WithLabelValues("do", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("hetzner", "GET", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "firewall_ddns_updates_total")
	assert.Contains(t, names, "firewall_ddns_provider_requests_total")
	assert.Contains(t, names, "firewall_ddns_update_duration_seconds")
	assert.Contains(t, names, "firewall_ddns_firewalls_updated_total")
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
