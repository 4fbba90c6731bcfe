package causal

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/pkg/config"
	"github.com/umebot/insight/pkg/logger"
	"github.com/umebot/insight/pkg/metrics"
)

// OutcomeColumn is the outcome every effect is measured on
const OutcomeColumn = features.ColTotalRevenue

// Analyzer runs effect, interaction and heterogeneity analysis over an
// engineered panel. It holds no per-run state; every unit is failure-isolated.
// ⭐ SSOT: causal analysis entry point
type Analyzer struct {
	estimator contracts.Estimator
	cfg       config.AnalysisConfig
	logger    *logger.Logger
	metrics   *metrics.AnalysisMetrics
}

// NewAnalyzer creates an analyzer. m may be nil.
func NewAnalyzer(estimator contracts.Estimator, cfg config.AnalysisConfig, log *logger.Logger, m *metrics.AnalysisMetrics) *Analyzer {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Analyzer{
		estimator: estimator,
		cfg:       cfg,
		logger:    log.Component("causal"),
		metrics:   m,
	}
}

// AnalyzeAllFactors estimates every applicable factor and pair in the
// catalogue and the promotion heterogeneity. Output order follows the
// catalogue regardless of parallelism.
func (a *Analyzer) AnalyzeAllFactors(p *features.Panel) *contracts.FactorReport {
	var factors []Factor
	for _, f := range DefaultFactors {
		if p.Has(f.Name) {
			factors = append(factors, f)
		}
	}

	var pairs []Pair
	for _, pair := range DefaultPairs {
		if p.Has(pair.Factor1) && p.Has(pair.Factor2) {
			pairs = append(pairs, pair)
		}
	}

	report := &contracts.FactorReport{
		Factors:      make([]contracts.EffectOutcome, len(factors)),
		Interactions: make([]contracts.InteractionOutcome, len(pairs)),
	}

	a.forEach(len(factors), func(i int) {
		report.Factors[i] = a.EstimateEffect(p, factors[i].Name, factors[i].Confounders)
	})

	a.forEach(len(pairs), func(i int) {
		report.Interactions[i] = a.AnalyzeInteraction(p, pairs[i])
	})

	report.Heterogeneity = a.AnalyzeHeterogeneity(p)

	a.logger.WithFields(map[string]interface{}{
		"factors":      len(report.Factors),
		"interactions": len(report.Interactions),
		"stores":       len(report.Heterogeneity.PromotionByStore),
	}).Info("Factor analysis complete")

	return report
}

// forEach runs fn for 0..n-1 with at most cfg.Parallelism in flight
func (a *Analyzer) forEach(n int, fn func(i int)) {
	if a.cfg.Parallelism == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// record logs and counts one unit outcome
func (a *Analyzer) record(component, unit string, failure *contracts.Failure) {
	if failure == nil {
		a.metrics.IncUnit(component, "result")
		a.logger.WithField(component, unit).Debug("Analysis unit completed")
		return
	}

	a.metrics.IncUnit(component, string(failure.Kind))
	a.logger.WithFields(map[string]interface{}{
		component:     unit,
		"kind":        failure.Kind,
		"sample_size": failure.SampleSize,
		"reason":      failure.Message,
	}).Warn("Analysis unit unavailable")
}

func panicFailure(r interface{}) *contracts.Failure {
	return &contracts.Failure{Kind: contracts.FailureEstimation, Message: fmt.Sprintf("panic: %v", r)}
}
