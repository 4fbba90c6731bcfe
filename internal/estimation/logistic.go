package estimation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Logistic is an L2-regularised logistic regression fitted by iteratively
// reweighted least squares. The intercept is not penalised.
type Logistic struct {
	C       float64 // inverse regularisation strength
	MaxIter int
	Tol     float64

	coef     []float64 // intercept first
	constant float64   // set when y has a single class
	single   bool
}

// NewLogistic creates a logistic model with inverse regularisation strength c
func NewLogistic(c float64) *Logistic {
	return &Logistic{C: c, MaxIter: 100, Tol: 1e-8}
}

// Fit estimates coefficients for binary y
func (l *Logistic) Fit(x [][]float64, y []float64) error {
	n := len(y)
	if n == 0 || len(x) != n {
		return fmt.Errorf("logistic fit: %d rows for %d targets", len(x), n)
	}

	p := stat.Mean(y, nil)
	if p == 0 || p == 1 {
		l.single, l.constant = true, p
		return nil
	}
	l.single = false

	design := withIntercept(x)
	_, k := design.Dims()
	lambda := 1 / l.C

	w := mat.NewVecDense(k, nil)
	w.SetVec(0, math.Log(p/(1-p)))

	prob := make([]float64, n)
	for iter := 0; iter < l.MaxIter; iter++ {
		var eta mat.VecDense
		eta.MulVec(design, w)

		grad := mat.NewVecDense(k, nil)
		hess := mat.NewDense(k, k, nil)
		for i := 0; i < n; i++ {
			prob[i] = sigmoid(eta.AtVec(i))
			r := prob[i] - y[i]
			s := prob[i] * (1 - prob[i])
			for a := 0; a < k; a++ {
				xa := design.At(i, a)
				grad.SetVec(a, grad.AtVec(a)+xa*r)
				for b := a; b < k; b++ {
					hess.Set(a, b, hess.At(a, b)+s*xa*design.At(i, b))
				}
			}
		}
		for a := 0; a < k; a++ {
			for b := 0; b < a; b++ {
				hess.Set(a, b, hess.At(b, a))
			}
			if a > 0 {
				grad.SetVec(a, grad.AtVec(a)+lambda*w.AtVec(a))
				hess.Set(a, a, hess.At(a, a)+lambda)
			}
		}

		inv, err := pinv(hess)
		if err != nil {
			return fmt.Errorf("logistic fit: %w", err)
		}
		var step mat.VecDense
		step.MulVec(inv, grad)
		w.SubVec(w, &step)

		if mat.Norm(&step, math.Inf(1)) < l.Tol {
			break
		}
	}

	l.coef = make([]float64, k)
	for i := range l.coef {
		l.coef[i] = w.AtVec(i)
		if math.IsNaN(l.coef[i]) || math.IsInf(l.coef[i], 0) {
			return fmt.Errorf("logistic fit: %w: non-finite coefficient", ErrSingular)
		}
	}
	return nil
}

// PredictProba returns P(y=1 | x) per row
func (l *Logistic) PredictProba(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		if l.single {
			out[i] = l.constant
			continue
		}
		z := l.coef[0]
		for j, v := range row {
			z += l.coef[j+1] * v
		}
		out[i] = sigmoid(z)
	}
	return out
}
