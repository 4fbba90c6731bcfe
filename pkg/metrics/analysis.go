package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics records runs of the causal pipeline and the outcome of
// every analysis unit inside them. A nil *AnalysisMetrics is a no-op.
type AnalysisMetrics struct {
	runDuration *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	units       *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// NewAnalysisMetrics registers the analysis metrics on the provided registerer.
func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	if reg == nil {
		return &AnalysisMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_run_duration_seconds",
		Help:    "Duration of analysis runs in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_runs_total",
		Help: "Analysis runs by kind and status.",
	}, []string{"kind", "status"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_units_total",
		Help: "Analysis unit outcomes by component and outcome.",
	}, []string{"component", "outcome"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_cache_lookups_total",
		Help: "Analysis result cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(runDuration, runs, units, cache)
	return &AnalysisMetrics{
		runDuration: runDuration,
		runs:        runs,
		units:       units,
		cache:       cache,
	}
}

// ObserveRun records the duration and status of one run.
func (m *AnalysisMetrics) ObserveRun(kind, status string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	kind = normalizeLabel(kind)
	m.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.runs.WithLabelValues(kind, normalizeLabel(status)).Inc()
}

// IncUnit counts one unit outcome, e.g. ("factor", "insufficient_data").
func (m *AnalysisMetrics) IncUnit(component, outcome string) {
	if m == nil || m.units == nil {
		return
	}
	m.units.WithLabelValues(normalizeLabel(component), normalizeLabel(outcome)).Inc()
}

// IncCache counts a cache hit or miss.
func (m *AnalysisMetrics) IncCache(hit bool) {
	if m == nil || m.cache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
