package estimation

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/umebot/insight/internal/contracts"
)

// LinearDML is a double machine learning estimator with a constant-plus-linear
// effect model θ(x) = β·[1, x]. Outcome and treatment nuisances are
// cross-fitted; the final stage regresses outcome residuals on treatment
// residuals times [1, x].
// ⭐ SSOT: the treatment-effect estimator behind contracts.Estimator
type LinearDML struct {
	Trees    int   // outcome forest size
	MaxDepth int   // outcome tree depth
	Folds    int   // cross-fitting folds
	Seed     int64 // folds and bootstrap draws
	C        float64
}

// NewLinearDML returns the default configuration: 100 trees of depth 5,
// 2 folds, L2 logistic propensity with C=1
func NewLinearDML(seed int64) *LinearDML {
	return &LinearDML{Trees: 100, MaxDepth: 5, Folds: 2, Seed: seed, C: 1}
}

var _ contracts.Estimator = (*LinearDML)(nil)

// Fit estimates the effect of binary t on y controlling for x
func (d *LinearDML) Fit(y, t []float64, x [][]float64) (contracts.FittedEstimator, error) {
	n := len(y)
	if len(t) != n || len(x) != n {
		return nil, fmt.Errorf("dml fit: length mismatch y=%d t=%d x=%d", n, len(t), len(x))
	}
	if n < 2*d.Folds {
		return nil, fmt.Errorf("dml fit: %d rows is too few for %d folds", n, d.Folds)
	}

	treated := 0
	for _, v := range t {
		switch v {
		case 1:
			treated++
		case 0:
		default:
			return nil, ErrNonBinaryTreatment
		}
	}
	if treated == 0 || treated == n {
		return nil, ErrNoTreatmentVariation
	}

	rng := rand.New(rand.NewSource(d.Seed))
	folds := stratifiedFolds(t, d.Folds, rng)

	yRes := make([]float64, n)
	tRes := make([]float64, n)
	for k, test := range folds {
		inTest := make(map[int]bool, len(test))
		for _, i := range test {
			inTest[i] = true
		}
		var trainX [][]float64
		var trainY, trainT []float64
		for i := 0; i < n; i++ {
			if !inTest[i] {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
				trainT = append(trainT, t[i])
			}
		}
		testX := make([][]float64, len(test))
		for j, i := range test {
			testX[j] = x[i]
		}

		forest := NewForest(d.Trees, d.MaxDepth, d.Seed+int64(k))
		if err := forest.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("outcome model fold %d: %w", k, err)
		}
		propensity := NewLogistic(d.C)
		if err := propensity.Fit(trainX, trainT); err != nil {
			return nil, fmt.Errorf("treatment model fold %d: %w", k, err)
		}

		yHat := forest.Predict(testX)
		tHat := propensity.PredictProba(testX)
		for j, i := range test {
			yRes[i] = y[i] - yHat[j]
			tRes[i] = t[i] - tHat[j]
		}
	}

	fit, err := finalStage(yRes, tRes, x)
	if err != nil {
		return nil, err
	}
	return fit, nil
}

// stratifiedFolds shuffles each treatment arm and deals its rows round-robin
func stratifiedFolds(t []float64, k int, rng *rand.Rand) [][]int {
	var control, treated []int
	for i, v := range t {
		if v == 1 {
			treated = append(treated, i)
		} else {
			control = append(control, i)
		}
	}

	folds := make([][]int, k)
	next := 0
	for _, arm := range [][]int{control, treated} {
		rng.Shuffle(len(arm), func(a, b int) { arm[a], arm[b] = arm[b], arm[a] })
		for _, i := range arm {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	return folds
}

// linearDMLFit is the final-stage OLS solution with HC1 covariance
type linearDMLFit struct {
	beta []float64
	cov  *mat.Dense // nil when the residual degrees of freedom are exhausted
}

func finalStage(yRes, tRes []float64, x [][]float64) (*linearDMLFit, error) {
	phi := withIntercept(x)
	n, k := phi.Dims()

	z := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			z.Set(i, j, tRes[i]*phi.At(i, j))
		}
	}

	zPinv, err := pinv(z)
	if err != nil {
		return nil, fmt.Errorf("final stage: %w", err)
	}

	yv := mat.NewVecDense(n, yRes)
	var beta mat.VecDense
	beta.MulVec(zPinv, yv)

	fit := &linearDMLFit{beta: make([]float64, k)}
	for j := range fit.beta {
		fit.beta[j] = beta.AtVec(j)
		if math.IsNaN(fit.beta[j]) || math.IsInf(fit.beta[j], 0) {
			return nil, fmt.Errorf("final stage: %w: non-finite coefficient", ErrSingular)
		}
	}

	if n <= k {
		return fit, nil
	}

	var fitted mat.VecDense
	fitted.MulVec(z, &beta)

	// Meat: Σ e_i² z_i z_iᵀ
	meat := mat.NewDense(k, k, nil)
	for i := 0; i < n; i++ {
		e := yRes[i] - fitted.AtVec(i)
		e2 := e * e
		for a := 0; a < k; a++ {
			za := z.At(i, a)
			for b := 0; b < k; b++ {
				meat.Set(a, b, meat.At(a, b)+e2*za*z.At(i, b))
			}
		}
	}

	var ztz mat.Dense
	ztz.Mul(z.T(), z)
	bread, err := pinv(&ztz)
	if err != nil {
		return fit, nil
	}

	var tmp, cov mat.Dense
	tmp.Mul(bread, meat)
	cov.Mul(&tmp, bread)
	cov.Scale(float64(n)/float64(n-k), &cov)
	fit.cov = &cov

	return fit, nil
}

// meanFeatures returns the column means of [1, x]
func (f *linearDMLFit) meanFeatures(x [][]float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no evaluation rows")
	}
	k := len(f.beta)
	m := make([]float64, k)
	m[0] = 1
	for _, row := range x {
		if len(row) != k-1 {
			return nil, fmt.Errorf("evaluation row has %d covariates, model has %d", len(row), k-1)
		}
		for j, v := range row {
			m[j+1] += v
		}
	}
	for j := 1; j < k; j++ {
		m[j] /= float64(len(x))
	}
	return m, nil
}

// ATE is the mean of θ(x) over the evaluation rows
func (f *linearDMLFit) ATE(x [][]float64) (float64, error) {
	m, err := f.meanFeatures(x)
	if err != nil {
		return 0, err
	}
	ate := 0.0
	for j, b := range f.beta {
		ate += b * m[j]
	}
	return ate, nil
}

// ATEInterval is ATE ± z·sqrt(m̄ᵀ Σ m̄)
func (f *linearDMLFit) ATEInterval(x [][]float64, alpha float64) (float64, float64, error) {
	if f.cov == nil {
		return 0, 0, ErrIntervalUnsupported
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, 0, fmt.Errorf("alpha must be in (0, 1), got %v", alpha)
	}

	ate, err := f.ATE(x)
	if err != nil {
		return 0, 0, err
	}
	m, _ := f.meanFeatures(x)

	mv := mat.NewVecDense(len(m), m)
	variance := mat.Inner(mv, f.cov, mv)
	if variance < 0 || math.IsNaN(variance) {
		return 0, 0, fmt.Errorf("%w: invalid variance %v", ErrIntervalUnsupported, variance)
	}

	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	se := math.Sqrt(variance)
	return ate - z*se, ate + z*se, nil
}
