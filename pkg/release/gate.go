package release

import (
	"fmt"
	"sort"

	"github.com/opsconductor/core/pkg/config"
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// AlertLevel is the closed set of outcomes the burn-rate gate can raise
// (spec §8: "fast burn-rate (14.4×) fires a critical alert; slow burn-rate
// (6×) fires a warning").
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// GateResult is one evaluation of the metrics gate (spec §4.11: "a metrics
// gate validates error rate <1% and p95 latency <1s over rolling
// windows").
type GateResult struct {
	ErrorRate float64
	P95       float64
	P99       float64

	ErrorsOK bool
	P95OK    bool
	P99OK    bool

	// BurnRate is ErrorRate expressed as a multiple of the configured
	// threshold — the quantity the fast/slow burn-rate alert compares
	// against FastBurnRateMultiple/SlowBurnRateMultiple.
	BurnRate float64
	Alert    AlertLevel
}

// Pass reports whether every SLO the gate checks is currently satisfied.
func (r GateResult) Pass() bool {
	return r.ErrorsOK && r.P95OK && r.P99OK
}

// Evaluate computes the SLO gate from the ai_requests_total,
// ai_request_errors_total, and ai_request_duration_seconds families
// registered in reg (spec §8's rolling-5-minute-window gate, approximated
// here over the process's current counter state rather than a true
// windowed query — this service has no embedded time-series store to
// window over; an external scrape interval bounds how stale that
// approximation gets in practice).
func Evaluate(reg prometheus.Gatherer, cfg config.ReleaseConfig) (GateResult, error) {
	families, err := reg.Gather()
	if err != nil {
		return GateResult{}, fmt.Errorf("gather metrics: %w", err)
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	total := sumCounters(byName["ai_requests_total"])
	errs := sumCounters(byName["ai_request_errors_total"])

	var errorRate float64
	if total > 0 {
		errorRate = errs / total
	}

	p95 := histogramQuantile(byName["ai_request_duration_seconds"], 0.95)
	p99 := histogramQuantile(byName["ai_request_duration_seconds"], 0.99)

	result := GateResult{
		ErrorRate: errorRate,
		P95:       p95,
		P99:       p99,
		ErrorsOK:  errorRate < cfg.ErrorRateThreshold,
		P95OK:     p95 < cfg.P95ThresholdSeconds,
		P99OK:     p99 < cfg.P99ThresholdSeconds,
	}

	if cfg.ErrorRateThreshold > 0 {
		result.BurnRate = errorRate / cfg.ErrorRateThreshold
	}
	result.Alert = burnRateAlert(result.BurnRate, cfg)

	return result, nil
}

func burnRateAlert(burnRate float64, cfg config.ReleaseConfig) AlertLevel {
	switch {
	case burnRate >= cfg.FastBurnRateMultiple:
		return AlertCritical
	case burnRate >= cfg.SlowBurnRateMultiple:
		return AlertWarning
	default:
		return AlertNone
	}
}

func sumCounters(family *dto.MetricFamily) float64 {
	if family == nil {
		return 0
	}
	var total float64
	for _, m := range family.GetMetric() {
		if c := m.GetCounter(); c != nil {
			total += c.GetValue()
		}
	}
	return total
}

// histogramQuantile merges every label combination's bucket counts in
// family into one cumulative distribution and linearly interpolates the
// requested quantile within the bucket it falls in — the same
// merge-then-interpolate approach Prometheus's own histogram_quantile()
// function takes over a single vector's buckets.
func histogramQuantile(family *dto.MetricFamily, q float64) float64 {
	if family == nil {
		return 0
	}

	merged := map[float64]uint64{}
	var count uint64
	for _, m := range family.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		count += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			merged[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if count == 0 {
		return 0
	}

	bounds := make([]float64, 0, len(merged))
	for b := range merged {
		bounds = append(bounds, b)
	}
	sort.Float64s(bounds)

	target := q * float64(count)
	prevBound, prevCount := 0.0, uint64(0)
	for _, b := range bounds {
		c := merged[b]
		if float64(c) >= target {
			if c == prevCount {
				return b
			}
			frac := (target - float64(prevCount)) / float64(c-prevCount)
			return prevBound + frac*(b-prevBound)
		}
		prevBound, prevCount = b, c
	}
	// Quantile falls beyond the last finite bucket boundary: report that
	// boundary rather than +Inf.
	if len(bounds) > 0 {
		return bounds[len(bounds)-1]
	}
	return 0
}
