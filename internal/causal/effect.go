package causal

import (
	"math"
	"math/rand"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
)

// approximateCIWidth is the relative half-width of the fallback interval
const approximateCIWidth = 0.1

// EstimateEffect estimates the effect of the binary treatment column on
// revenue adjusting for confounders. Rows with a NaN in any used column are
// dropped first.
func (a *Analyzer) EstimateEffect(p *features.Panel, treatment string, confounders []string) (out contracts.EffectOutcome) {
	out.Factor = treatment

	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Failure = panicFailure(r)
		}
		a.record("factor", treatment, out.Failure)
	}()

	result, failure := a.estimateEffect(p, treatment, confounders)
	out.Result, out.Failure = result, failure
	return out
}

func (a *Analyzer) estimateEffect(p *features.Panel, treatment string, confounders []string) (*contracts.EffectResult, *contracts.Failure) {
	columns := append([]string{treatment, OutcomeColumn}, confounders...)
	data := make([][]float64, len(columns))
	for j, name := range columns {
		col, ok := p.Column(name)
		if !ok {
			return nil, contracts.Failf(contracts.FailureMissingColumn, "column %q not in panel", name)
		}
		data[j] = col
	}

	var rows []int
	for i := 0; i < p.Len(); i++ {
		complete := true
		for j := range columns {
			if math.IsNaN(data[j][i]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}

	n := len(rows)
	if n < a.cfg.MinEffectSample {
		f := contracts.Failf(contracts.FailureInsufficientData, "need at least %d complete rows", a.cfg.MinEffectSample)
		f.SampleSize = n
		return nil, f
	}

	t := make([]float64, n)
	y := make([]float64, n)
	x := make([][]float64, n)
	var treatedSum, controlSum float64
	var treatedN, controlN int
	for r, i := range rows {
		t[r] = data[0][i]
		y[r] = data[1][i]
		x[r] = make([]float64, len(confounders))
		for j := range confounders {
			x[r][j] = data[j+2][i]
		}

		switch t[r] {
		case 1:
			treatedSum += y[r]
			treatedN++
		case 0:
			controlSum += y[r]
			controlN++
		default:
			f := contracts.Failf(contracts.FailureEstimation, "treatment %q is not binary (saw %v)", treatment, t[r])
			f.SampleSize = n
			return nil, f
		}
	}
	if treatedN == 0 || controlN == 0 {
		f := contracts.Failf(contracts.FailureEstimation, "treatment %q has no variation", treatment)
		f.SampleSize = n
		return nil, f
	}

	train, test := a.split(n)
	pick := func(idx []int) (yy, tt []float64, xx [][]float64) {
		for _, i := range idx {
			yy = append(yy, y[i])
			tt = append(tt, t[i])
			xx = append(xx, x[i])
		}
		return yy, tt, xx
	}
	yTrain, tTrain, xTrain := pick(train)
	_, _, xTest := pick(test)

	fail := func(err error) *contracts.Failure {
		return &contracts.Failure{Kind: contracts.FailureEstimation, Message: err.Error(), SampleSize: n}
	}

	fitted, err := a.estimator.Fit(yTrain, tTrain, xTrain)
	if err != nil {
		return nil, fail(err)
	}

	ate, err := fitted.ATE(xTest)
	if err != nil {
		return nil, fail(err)
	}
	if !isFinite(ate) {
		return nil, contracts.Failf(contracts.FailureEstimation, "non-finite effect estimate for %q", treatment)
	}

	result := &contracts.EffectResult{
		ATE:                ate,
		TreatmentRate:      float64(treatedN) / float64(n),
		TreatmentGroupMean: treatedSum / float64(treatedN),
		ControlGroupMean:   controlSum / float64(controlN),
		SampleSize:         n,
	}

	lower, upper, err := fitted.ATEInterval(xTest, a.cfg.CIAlpha)
	if err != nil || !isFinite(lower) || !isFinite(upper) {
		a.logger.WithField("factor", treatment).WithError(err).Debug("Interval unavailable, using approximate CI")
		half := 1.96 * math.Abs(ate) * approximateCIWidth
		lower, upper = ate-half, ate+half
		result.ApproximateCI = true
	}
	result.CILower, result.CIUpper = lower, upper
	result.Significant = contracts.ExcludesZero(lower, upper)

	return result, nil
}

// split holds out ceil(TestFraction·n) rows with a seeded shuffle
func (a *Analyzer) split(n int) (train, test []int) {
	rng := rand.New(rand.NewSource(a.cfg.Seed))
	perm := rng.Perm(n)
	nTest := int(math.Ceil(a.cfg.TestFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
