package release

import (
	"testing"

	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReleaseConfig() config.ReleaseConfig {
	return config.DefaultReleaseConfig()
}

func TestEvaluate_HealthyTraffic_PassesAllGates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	for i := 0; i < 1000; i++ {
		m.AIRequestsTotal.WithLabelValues("success", "echo").Inc()
		m.AIRequestDuration.WithLabelValues("echo").Observe(0.2)
	}

	result, err := Evaluate(reg, testReleaseConfig())
	require.NoError(t, err)
	assert.True(t, result.Pass())
	assert.Equal(t, AlertNone, result.Alert)
	assert.InDelta(t, 0.2, result.P95, 0.6)
}

func TestEvaluate_HighErrorRate_FailsAndFiresCritical(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	for i := 0; i < 100; i++ {
		m.AIRequestsTotal.WithLabelValues("success", "echo").Inc()
		m.AIRequestDuration.WithLabelValues("echo").Observe(0.1)
	}
	for i := 0; i < 50; i++ {
		m.AIRequestsTotal.WithLabelValues("error", "echo").Inc()
		m.AIRequestErrorsTotal.WithLabelValues("upstream_unreachable", "echo").Inc()
	}

	result, err := Evaluate(reg, testReleaseConfig())
	require.NoError(t, err)
	assert.False(t, result.ErrorsOK)
	assert.False(t, result.Pass())
	assert.Equal(t, AlertCritical, result.Alert)
}

func TestEvaluate_SlowLatency_FailsLatencyGates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	for i := 0; i < 100; i++ {
		m.AIRequestsTotal.WithLabelValues("success", "echo").Inc()
		m.AIRequestDuration.WithLabelValues("echo").Observe(5)
	}

	result, err := Evaluate(reg, testReleaseConfig())
	require.NoError(t, err)
	assert.False(t, result.P95OK)
	assert.False(t, result.P99OK)
	assert.True(t, result.ErrorsOK)
}

func TestEvaluate_NoTraffic_ZeroErrorRateAndPasses(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)

	result, err := Evaluate(reg, testReleaseConfig())
	require.NoError(t, err)
	assert.Equal(t, float64(0), result.ErrorRate)
	assert.True(t, result.ErrorsOK)
}
