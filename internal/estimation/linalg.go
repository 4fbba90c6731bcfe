package estimation

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// pinv returns the Moore-Penrose pseudo-inverse of a
func pinv(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSingular
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)
	if len(s) == 0 {
		return nil, ErrSingular
	}

	r, c := a.Dims()
	tol := float64(max(r, c)) * s[0] * 2.220446049250313e-16

	inv := make([]float64, len(s))
	for i, sv := range s {
		if sv > tol {
			inv[i] = 1 / sv
		}
	}

	// V · diag(1/s) · Uᵀ
	var vs mat.Dense
	vs.Apply(func(_, j int, x float64) float64 { return x * inv[j] }, &v)

	var out mat.Dense
	out.Mul(&vs, u.T())
	return &out, nil
}

// withIntercept returns rows of [1, x...]
func withIntercept(x [][]float64) *mat.Dense {
	if len(x) == 0 {
		return nil
	}
	k := len(x[0]) + 1
	m := mat.NewDense(len(x), k, nil)
	for i, row := range x {
		m.Set(i, 0, 1)
		for j, v := range row {
			m.Set(i, j+1, v)
		}
	}
	return m
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
