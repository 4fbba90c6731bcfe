package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAnalysisMetrics(reg)

	m.ObserveRun("causal", "success", 1500*time.Millisecond)
	m.IncUnit("factor", "result")
	m.IncUnit("factor", "insufficient_data")
	m.IncUnit("factor", "insufficient_data")
	m.IncCache(true)
	m.IncCache(false)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "analysis_units_total", "outcome", "insufficient_data")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "analysis_runs_total", "status", "success")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "analysis_cache_lookups_total", "result", "hit")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	sum, err := fetchHistogramSum(mfs, "analysis_run_duration_seconds", "kind", "causal")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sum, 1e-9)
}

func TestJobMetricsSuccessAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.Observe("daily_analysis", 250*time.Millisecond, nil)
	m.Observe("daily_analysis", 100*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "job_success", "job", "daily_analysis")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "job_failure", "job", "daily_analysis")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var a *AnalysisMetrics
	var j *JobMetrics

	assert.NotPanics(t, func() {
		a.ObserveRun("causal", "success", time.Second)
		a.IncUnit("factor", "result")
		a.IncCache(true)
		j.Observe("job", time.Second, nil)
		NewAnalysisMetrics(nil).IncUnit("factor", "result")
	})
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
