package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// subSecondTo10sBuckets covers the per-stage timeout budget spec §5 lays
// out (A/C ≤3s, AB ≤5s, D ≤4s, E per-step default 30s) with enough
// resolution below 1s to compute the p95/p99 SLO gates in spec §8.
var subSecondTo10sBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5, 7.5, 10,
}

// Metrics is the full set of Prometheus families spec §4.10 names. It is
// constructed once at startup and passed to every component that emits
// metrics, rather than relying on package-level globals, so tests can bind
// a fresh registry per case.
type Metrics struct {
	AIRequestsTotal       *prometheus.CounterVec
	AIRequestErrorsTotal  *prometheus.CounterVec
	AIRequestDuration     *prometheus.HistogramVec

	SelectorRequestsTotal   *prometheus.CounterVec
	SelectorRequestDuration prometheus.Histogram
	SelectorDBErrorsTotal   prometheus.Counter
	SelectorCacheEntries    prometheus.Gauge
	SelectorCacheTTLSeconds prometheus.Gauge
	SelectorBuildInfo       *prometheus.GaugeVec

	BudgetTruncationTotal prometheus.Counter
}

// NewMetrics registers every family named in spec §4.10 against reg. Pass
// prometheus.NewRegistry() in tests and prometheus.DefaultRegisterer (via
// promauto's default factory) in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total AI pipeline requests, by terminal status and tool.",
		}, []string{"status", "tool"}),

		AIRequestErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_request_errors_total",
			Help: "AI pipeline request errors, by reason and tool.",
		}, []string{"reason", "tool"}),

		AIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI pipeline request duration, by tool.",
			Buckets: subSecondTo10sBuckets,
		}, []string{"tool"}),

		SelectorRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selector_requests_total",
			Help: "Stage AB selection requests, by terminal status and candidate source.",
		}, []string{"status", "source"}),

		SelectorRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "selector_request_duration_seconds",
			Help:    "Stage AB end-to-end selection duration.",
			Buckets: subSecondTo10sBuckets,
		}),

		SelectorDBErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_db_errors_total",
			Help: "Tool index store errors encountered during selection.",
		}),

		SelectorCacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "selector_cache_entries",
			Help: "Current entry count in the Stage AB candidate cache.",
		}),

		SelectorCacheTTLSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "selector_cache_ttl_seconds",
			Help: "Configured TTL of the Stage AB candidate cache, in seconds.",
		}),

		SelectorBuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "selector_build_info",
			Help: "Always 1; labels carry build version/commit/timestamp.",
		}, []string{"version", "git_commit", "built_at"}),

		BudgetTruncationTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "budget_truncation_total",
			Help: "Times Stage AB truncated candidate rows to fit the token budget (spec §5 back-pressure).",
		}),
	}
}

// SetBuildInfo publishes the running binary's version/commit/build time as
// a constant 1-valued gauge, the standard Prometheus build-info idiom.
func (m *Metrics) SetBuildInfo(version, gitCommit, builtAt string) {
	m.SelectorBuildInfo.WithLabelValues(version, gitCommit, builtAt).Set(1)
}
