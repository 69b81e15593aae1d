// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CorrelationMatrix is a CovarianceMatrix with unit diagonal and entries in
// [-1, 1]. Positive semi-definiteness is not enforced on every Set; call
// IsPositiveDefinite or Eigenvalues when it matters.
type CorrelationMatrix struct {
	*CovarianceMatrix
}

// NewCorrelationMatrix returns the n×n identity correlation.
func NewCorrelationMatrix(n int) (*CorrelationMatrix, error) {
	c, err := NewCovarianceMatrix(n)
	if err != nil {
		return nil, matrixErrorf(opCorr, err)
	}
	for i := 0; i < n; i++ {
		c.sym.SetSym(i, i, 1)
	}

	return &CorrelationMatrix{CovarianceMatrix: c}, nil
}

// NewCorrelationMatrixFrom copies and validates m: square, finite,
// symmetric and unit diagonal within eps, off-diagonal in [-1, 1].
//
// Errors: ErrNonSquare, ErrNaNInf, ErrAsymmetry, ErrNotUnitDiagonal,
// ErrInvalidArgument.
func NewCorrelationMatrixFrom(m mat.Matrix, opts ...Option) (*CorrelationMatrix, error) {
	o := gatherOptions(opts...)
	c, err := NewCovarianceMatrixFrom(m, opts...)
	if err != nil {
		return nil, matrixErrorf(opCorr, err)
	}
	if err = ValidateUnitDiagonal(c.sym, o.eps); err != nil {
		return nil, matrixErrorf(opCorr, err)
	}
	n := c.Dim()
	for i := 0; i < n; i++ {
		c.sym.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if math.Abs(c.sym.At(i, j)) > 1+o.eps {
				return nil, matrixErrorf(opCorr, fmt.Errorf("(%d,%d)=%g outside [-1,1]: %w", i, j, c.sym.At(i, j), ErrInvalidArgument))
			}
		}
	}

	return &CorrelationMatrix{CovarianceMatrix: c}, nil
}

// Set assigns an off-diagonal correlation. Diagonal writes other than 1
// yield ErrNotUnitDiagonal.
func (r *CorrelationMatrix) Set(i, j int, v float64) error {
	if i == j && v != 1 {
		return matrixErrorf(opSet, fmt.Errorf("(%d,%d)=%g: %w", i, j, v, ErrNotUnitDiagonal))
	}
	if math.Abs(v) > 1 {
		return matrixErrorf(opSet, fmt.Errorf("(%d,%d)=%g outside [-1,1]: %w", i, j, v, ErrInvalidArgument))
	}

	return r.CovarianceMatrix.Set(i, j, v)
}

// Clone returns a deep copy.
func (r *CorrelationMatrix) Clone() *CorrelationMatrix {
	return &CorrelationMatrix{CovarianceMatrix: r.CovarianceMatrix.Clone()}
}

// ScaleCorrelation returns diag(a)·R·diag(a).
// Errors: ErrDimensionMismatch when len(a) != R.Dim().
func ScaleCorrelation(a []float64, r *CorrelationMatrix) (*CovarianceMatrix, error) {
	n := r.Dim()
	if err := ValidateVecLen(a, n); err != nil {
		return nil, matrixErrorf("ScaleCorrelation", err)
	}
	c, _ := NewCovarianceMatrix(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c.sym.SetSym(i, j, a[i]*r.sym.At(i, j)*a[j])
		}
	}

	return c, nil
}

// SplitCovariance is the inverse of ScaleCorrelation: it returns the
// standard deviations a (sqrt of the diagonal) and the correlation R.
// Errors: ErrInvalidArgument when a diagonal entry is not > 0.
func SplitCovariance(c *CovarianceMatrix) ([]float64, *CorrelationMatrix, error) {
	if err := c.guard("SplitCovariance"); err != nil {
		return nil, nil, err
	}
	n := c.Dim()
	a := make([]float64, n)
	for i := range a {
		d := c.sym.At(i, i)
		if !(d > 0) {
			return nil, nil, matrixErrorf("SplitCovariance", fmt.Errorf("variance %d is %g: %w", i, d, ErrInvalidArgument))
		}
		a[i] = math.Sqrt(d)
	}
	r, _ := NewCorrelationMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := c.sym.At(i, j) / (a[i] * a[j])
			if math.Abs(v) > 1 {
				v = math.Copysign(1, v)
			}
			r.sym.SetSym(i, j, v)
		}
	}

	return a, r, nil
}
