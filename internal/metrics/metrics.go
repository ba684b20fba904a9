package metrics

import "github.com/prometheus/client_golang/prometheus"

const Namespace = "firewall_ddns"

func NewCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	if opts.Namespace == "" {
		opts.Namespace = Namespace
	}
	metric := prometheus.NewCounterVec(opts, labelNames)
	reg.MustRegister(metric)
	return metric
}

func NewHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	if opts.Namespace == "" {
		opts.Namespace = Namespace
	}
	metric := prometheus.NewHistogramVec(opts, labelNames)
	reg.MustRegister(metric)
	return metric
}

// Metrics holds every collector the service exports.
type Metrics struct {
	Updates          *prometheus.CounterVec
	UpdateDuration   *prometheus.HistogramVec
	ProviderRequests *prometheus.CounterVec
	FirewallsUpdated *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Updates: NewCounterVec(reg,
			prometheus.CounterOpts{
				Name: "updates_total",
				Help: "Update requests that reached a provider, by outcome.",
			},
			[]string{"provider", "outcome"},
		),
		UpdateDuration: NewHistogramVec(reg,
			prometheus.HistogramOpts{
				Name:    "update_duration_seconds",
				Help:    "Time spent inside a provider update.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		ProviderRequests: NewCounterVec(reg,
			prometheus.CounterOpts{
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Outbound requests to provider APIs, by response code.",
			},
			[]string{"provider", "method", "code"},
		),
		FirewallsUpdated: NewCounterVec(reg,
			prometheus.CounterOpts{
				Name: "firewalls_updated_total",
				Help: "Firewalls whose inbound sources were rewritten.",
			},
			[]string{"provider"},
		),
	}
}

// NewUnregistered creates collectors on a throwaway registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
