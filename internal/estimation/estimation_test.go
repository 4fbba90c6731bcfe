package estimation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData draws y = 5 + 3·x0 - 2·x1 + effect·t + noise with
// treatment probability depending on x0
func syntheticData(n int, effect float64, seed int64) (y, t []float64, x [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	y = make([]float64, n)
	t = make([]float64, n)
	x = make([][]float64, n)
	for i := 0; i < n; i++ {
		x0 := rng.Float64()*4 - 2
		x1 := float64(rng.Intn(2))
		x[i] = []float64{x0, x1}
		if rng.Float64() < sigmoid(0.8*x0) {
			t[i] = 1
		}
		y[i] = 5 + 3*x0 - 2*x1 + effect*t[i] + rng.NormFloat64()
	}
	return y, t, x
}

func TestRegressionTree_StepFunction(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{10, 10, 10, 20, 20, 20}

	tree := &RegressionTree{MaxDepth: 3}
	tree.fit(x, y, []int{0, 1, 2, 3, 4, 5})

	assert.Equal(t, 10.0, tree.predict([]float64{2.5}))
	assert.Equal(t, 20.0, tree.predict([]float64{4.5}))
	assert.Equal(t, 3.5, tree.nodes[0].threshold)
}

func TestRegressionTree_DepthZeroIsMean(t *testing.T) {
	tree := &RegressionTree{MaxDepth: 0}
	tree.fit([][]float64{{1}, {2}}, []float64{1, 3}, []int{0, 1})
	assert.Equal(t, 2.0, tree.predict([]float64{100}))
}

func TestForest_Deterministic(t *testing.T) {
	y, _, x := syntheticData(200, 0, 1)

	a := NewForest(20, 5, 42)
	require.NoError(t, a.Fit(x, y))
	b := NewForest(20, 5, 42)
	require.NoError(t, b.Fit(x, y))

	assert.Equal(t, a.Predict(x), b.Predict(x))
}

func TestForest_FitErrors(t *testing.T) {
	assert.Error(t, NewForest(10, 5, 1).Fit(nil, nil))
	assert.Error(t, NewForest(0, 5, 1).Fit([][]float64{{1}}, []float64{1}))
}

func TestLogistic_Separates(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := -20; i <= 20; i++ {
		x = append(x, []float64{float64(i) / 10})
		y = append(y, indicator(i > 0))
	}
	// Overlap so the unpenalised optimum is finite
	y[18], y[22] = 1, 0

	model := NewLogistic(1)
	require.NoError(t, model.Fit(x, y))

	p := model.PredictProba([][]float64{{-2}, {0}, {2}})
	assert.Less(t, p[0], 0.3)
	assert.Greater(t, p[2], 0.7)
	assert.InDelta(t, 0.5, p[1], 0.15)
}

func TestLogistic_SingleClass(t *testing.T) {
	model := NewLogistic(1)
	require.NoError(t, model.Fit([][]float64{{1}, {2}}, []float64{1, 1}))
	assert.Equal(t, []float64{1}, model.PredictProba([][]float64{{5}}))
}

func TestLogistic_RegularisationShrinks(t *testing.T) {
	x := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = []float64{float64(i-20) / 5}
		if i >= 20 {
			y[i] = 1
		}
	}
	y[18], y[22] = 1, 0

	loose := NewLogistic(1)
	require.NoError(t, loose.Fit(x, y))
	tight := NewLogistic(0.01)
	require.NoError(t, tight.Fit(x, y))

	at := [][]float64{{3}}
	assert.Greater(t, loose.PredictProba(at)[0], tight.PredictProba(at)[0])
	assert.Greater(t, tight.PredictProba(at)[0], 0.5)
}

func TestLinearDML_RecoversEffect(t *testing.T) {
	y, tr, x := syntheticData(600, 10, 7)

	fitted, err := NewLinearDML(42).Fit(y, tr, x)
	require.NoError(t, err)

	ate, err := fitted.ATE(x)
	require.NoError(t, err)
	assert.InDelta(t, 10, ate, 1.5)

	lo, hi, err := fitted.ATEInterval(x, 0.05)
	require.NoError(t, err)
	assert.Less(t, lo, ate)
	assert.Greater(t, hi, ate)
	assert.Greater(t, lo, 0.0, "a strong effect must have an interval excluding zero")
}

func TestLinearDML_Deterministic(t *testing.T) {
	y, tr, x := syntheticData(200, 4, 3)

	first, err := NewLinearDML(42).Fit(y, tr, x)
	require.NoError(t, err)
	second, err := NewLinearDML(42).Fit(y, tr, x)
	require.NoError(t, err)

	a, _ := first.ATE(x)
	b, _ := second.ATE(x)
	assert.Equal(t, math.Float64bits(a), math.Float64bits(b))
}

func TestLinearDML_TreatmentValidation(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 2, 3, 4}

	_, err := NewLinearDML(1).Fit(y, []float64{1, 1, 1, 1}, x)
	assert.True(t, errors.Is(err, ErrNoTreatmentVariation))

	_, err = NewLinearDML(1).Fit(y, []float64{0, 1, 2, 1}, x)
	assert.True(t, errors.Is(err, ErrNonBinaryTreatment))

	_, err = NewLinearDML(1).Fit(y[:1], []float64{1}, x[:1])
	assert.Error(t, err)
}

func TestLinearDML_IntervalUnsupportedWithoutDegreesOfFreedom(t *testing.T) {
	fit := &linearDMLFit{beta: []float64{2, 0.5}}

	ate, err := fit.ATE([][]float64{{2}, {4}})
	require.NoError(t, err)
	assert.Equal(t, 3.5, ate)

	_, _, err = fit.ATEInterval([][]float64{{2}}, 0.05)
	assert.ErrorIs(t, err, ErrIntervalUnsupported)
}

func TestStratifiedFolds(t *testing.T) {
	tr := []float64{0, 0, 0, 0, 1, 1, 1, 1, 1, 0}
	folds := stratifiedFolds(tr, 2, rand.New(rand.NewSource(1)))
	require.Len(t, folds, 2)

	seen := map[int]bool{}
	for _, fold := range folds {
		treated := 0
		for _, i := range fold {
			assert.False(t, seen[i])
			seen[i] = true
			treated += int(tr[i])
		}
		assert.GreaterOrEqual(t, treated, 2)
		assert.Len(t, fold, 5)
	}
	assert.Len(t, seen, len(tr))
}

func TestPinv(t *testing.T) {
	a := withIntercept([][]float64{{1}, {2}, {3}})
	inv, err := pinv(a)
	require.NoError(t, err)

	r, c := inv.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)

	// pinv(A)·A = I for full column rank A
	var prod = make([]float64, 4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 3; k++ {
				prod[i*2+j] += inv.At(i, k) * a.At(k, j)
			}
		}
	}
	assert.InDelta(t, 1, prod[0], 1e-9)
	assert.InDelta(t, 0, prod[1], 1e-9)
	assert.InDelta(t, 0, prod[2], 1e-9)
	assert.InDelta(t, 1, prod[3], 1e-9)
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
