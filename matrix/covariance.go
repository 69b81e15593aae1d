// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opNew      = "NewCovarianceMatrix"
	opAt       = "At"
	opSet      = "Set"
	opCholesky = "ComputeCholesky"
	opSolve    = "Solve"
	opEigen    = "Eigenvalues"
	opLU       = "LU"
	opTriSolve = "TriangularSolve"
	opTriMul   = "TriangularMul"
	opCorr     = "NewCorrelationMatrix"
)

// ZeroPivot is the sentinel for detecting a zero pivot in the LU kernel.
const ZeroPivot = 0.0

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// CovarianceMatrix is a symmetric dense n×n matrix with an optional cached
// lower Cholesky factor.
//
// Storage is a *mat.SymDense with stride n. Every mutation invalidates the
// cached factor. A destructive ComputeCholesky(false) hands the storage to
// the factor; the matrix then rejects every further access with ErrConsumed.
type CovarianceMatrix struct {
	sym      *mat.SymDense
	chol     *TriangularMatrix // lazily computed by ComputeCholesky(true)
	consumed bool
}

// NewCovarianceMatrix allocates an n×n zero covariance matrix.
// Errors: ErrDimensionMismatch when n < 0.
func NewCovarianceMatrix(n int) (*CovarianceMatrix, error) {
	if n < 0 {
		return nil, matrixErrorf(opNew, fmt.Errorf("order %d: %w", n, ErrDimensionMismatch))
	}
	if n == 0 {
		return &CovarianceMatrix{sym: &mat.SymDense{}}, nil
	}

	return &CovarianceMatrix{sym: mat.NewSymDense(n, nil)}, nil
}

// WrapSymDense takes ownership of s without copying. s must not be mutated by
// the caller afterwards.
func WrapSymDense(s *mat.SymDense) *CovarianceMatrix {
	if n := s.SymmetricDim(); n > 0 && s.RawSymmetric().Stride != n {
		compact := mat.NewSymDense(n, nil)
		compact.CopySym(s)
		s = compact
	}
	return &CovarianceMatrix{sym: s}
}

// NewCovarianceMatrixFrom copies a general matrix into a CovarianceMatrix.
// Implementation:
//   - Stage 1: validate square → finite (policy) → symmetric within eps.
//   - Stage 2: copy the upper triangle, averaging with the lower one when
//     symmetrize is enabled.
//
// Inputs:
//   - m: any square gonum matrix.
//   - opts: WithEpsilon, WithNoValidateNaNInf, WithoutSymmetrize.
//
// Returns:
//   - *CovarianceMatrix: an independent copy.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf, ErrAsymmetry (all wrapped with the op tag).
//
// Complexity:
//   - Time O(n²), Space O(n²).
func NewCovarianceMatrixFrom(m mat.Matrix, opts ...Option) (*CovarianceMatrix, error) {
	o := gatherOptions(opts...)
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opNew, err)
	}
	if o.validateNaNInf {
		if err := ValidateFinite(m); err != nil {
			return nil, matrixErrorf(opNew, err)
		}
	}
	if err := ValidateSymmetric(m, o.eps); err != nil {
		return nil, matrixErrorf(opNew, err)
	}

	n, _ := m.Dims()
	c, _ := NewCovarianceMatrix(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.At(i, j)
			if o.symmetrize && i != j {
				v = 0.5 * (v + m.At(j, i))
			}
			c.sym.SetSym(i, j, v)
		}
	}

	return c, nil
}

func (c *CovarianceMatrix) guard(tag string) error {
	if c == nil || c.sym == nil {
		return matrixErrorf(tag, ErrNilMatrix)
	}
	if c.consumed {
		return matrixErrorf(tag, ErrConsumed)
	}
	return nil
}

// Dim returns the matrix order n.
func (c *CovarianceMatrix) Dim() int {
	if c == nil || c.sym == nil {
		return 0
	}
	return c.sym.SymmetricDim()
}

// At returns A[i,j]; out-of-range indices yield ErrOutOfRange.
func (c *CovarianceMatrix) At(i, j int) (float64, error) {
	if err := c.guard(opAt); err != nil {
		return 0, err
	}
	n := c.Dim()
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0, matrixErrorf(opAt, fmt.Errorf("(%d,%d) of %d: %w", i, j, n, ErrOutOfRange))
	}

	return c.sym.At(i, j), nil
}

// Set assigns A[i,j] = A[j,i] = v and drops the cached factor.
func (c *CovarianceMatrix) Set(i, j int, v float64) error {
	if err := c.guard(opSet); err != nil {
		return err
	}
	n := c.Dim()
	if i < 0 || j < 0 || i >= n || j >= n {
		return matrixErrorf(opSet, fmt.Errorf("(%d,%d) of %d: %w", i, j, n, ErrOutOfRange))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return matrixErrorf(opSet, fmt.Errorf("(%d,%d): %w", i, j, ErrNaNInf))
	}
	c.sym.SetSym(i, j, v)
	c.chol = nil

	return nil
}

// AddDiagonal adds alpha to every diagonal entry.
func (c *CovarianceMatrix) AddDiagonal(alpha float64) error {
	if err := c.guard(opSet); err != nil {
		return err
	}
	for i := 0; i < c.Dim(); i++ {
		c.sym.SetSym(i, i, c.sym.At(i, i)+alpha)
	}
	c.chol = nil

	return nil
}

// Sym exposes the backing storage for read access (gonum interop).
// Callers must not mutate it; use Set instead.
func (c *CovarianceMatrix) Sym() *mat.SymDense { return c.sym }

// Dense returns a fresh full-storage copy.
func (c *CovarianceMatrix) Dense() *mat.Dense {
	n := c.Dim()
	if n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(n, n, nil)
	d.Copy(c.sym)
	return d
}

// Clone returns a deep copy without the cached factor.
func (c *CovarianceMatrix) Clone() *CovarianceMatrix {
	n := c.Dim()
	if n == 0 {
		return &CovarianceMatrix{sym: &mat.SymDense{}, consumed: c.consumed}
	}
	s := mat.NewSymDense(n, nil)
	s.CopySym(c.sym)
	return &CovarianceMatrix{sym: s, consumed: c.consumed}
}

// String implements fmt.Stringer.
func (c *CovarianceMatrix) String() string {
	if c.consumed {
		return "CovarianceMatrix(consumed)"
	}
	return fmt.Sprintf("CovarianceMatrix(%d)\n%v", c.Dim(), mat.Formatted(c.sym, mat.Squeeze()))
}

// ComputeCholesky returns the lower factor L with L·Lᵀ = A.
// Implementation:
//   - Stage 1: keepIntact=true → return the cached factor, or copy the lower
//     triangle into fresh storage; keepIntact=false → factor the backing
//     storage in place (upper form) and transpose it into lower form.
//   - Stage 2: blocked LAPACK dpotrf through lapack64.Potrf.
//
// Behavior highlights:
//   - keepIntact=false consumes the matrix: any further access returns ErrConsumed.
//   - The factor computed with keepIntact=true is cached until the next mutation.
//
// Returns:
//   - *TriangularMatrix: lower-triangular factor (shared with the cache when keepIntact).
//
// Errors:
//   - ErrNilMatrix, ErrConsumed; ErrNotPositiveDefinite when a pivot is ≤ 0.
//
// Complexity:
//   - Time O(n³/3), Space O(n²) (O(1) extra with keepIntact=false).
//
// AI-Hints:
//   - Use keepIntact=false for one-shot factorizations of freshly discretized
//     matrices to halve peak memory.
func (c *CovarianceMatrix) ComputeCholesky(keepIntact bool) (*TriangularMatrix, error) {
	if err := c.guard(opCholesky); err != nil {
		return nil, err
	}
	n := c.Dim()
	if keepIntact && c.chol != nil {
		return c.chol, nil
	}
	if n == 0 {
		return &TriangularMatrix{tri: &mat.TriDense{}}, nil
	}

	if !keepIntact {
		raw := c.sym.RawSymmetric()
		c.consumed = true
		if _, ok := lapack64.Potrf(raw); !ok {
			return nil, matrixErrorf(opCholesky, fmt.Errorf("order %d: %w", n, ErrNotPositiveDefinite))
		}
		data := raw.Data
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				data[j*n+i] = data[i*n+j]
				data[i*n+j] = 0
			}
		}
		return &TriangularMatrix{tri: mat.NewTriDense(n, mat.Lower, data)}, nil
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			data[i*n+j] = c.sym.At(i, j)
		}
	}
	lower := blas64.Symmetric{Uplo: blas.Lower, N: n, Stride: n, Data: data}
	if _, ok := lapack64.Potrf(lower); !ok {
		return nil, matrixErrorf(opCholesky, fmt.Errorf("order %d: %w", n, ErrNotPositiveDefinite))
	}
	c.chol = &TriangularMatrix{tri: mat.NewTriDense(n, mat.Lower, data)}

	return c.chol, nil
}

// IsPositiveDefinite reports whether a Cholesky factorization succeeds.
// The successful factor is cached.
func (c *CovarianceMatrix) IsPositiveDefinite() bool {
	_, err := c.ComputeCholesky(true)
	return err == nil
}

// Solve returns x with A·x = b using the cached Cholesky factor.
// Errors: ErrDimensionMismatch, ErrNotPositiveDefinite.
// Complexity: O(n²) once the factor exists, O(n³) otherwise.
func (c *CovarianceMatrix) Solve(b []float64) ([]float64, error) {
	if err := ValidateVecLen(b, c.Dim()); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	l, err := c.ComputeCholesky(true)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	y, err := l.Solve(b, false)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}

	return l.Solve(y, true)
}

// SolveMatrix solves A·X = B column by column through the cached factor.
func (c *CovarianceMatrix) SolveMatrix(b mat.Matrix) (*mat.Dense, error) {
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	if r, _ := b.Dims(); r != c.Dim() {
		return nil, matrixErrorf(opSolve, fmt.Errorf("rhs rows %d, want %d: %w", r, c.Dim(), ErrDimensionMismatch))
	}
	l, err := c.ComputeCholesky(true)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	y, err := l.SolveMatrix(b, false)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}

	return l.SolveMatrix(y, true)
}

// Eigenvalues returns the eigenvalues in ascending order.
// Errors: ErrConsumed, ErrNilMatrix; ErrInvalidArgument when LAPACK fails to converge.
func (c *CovarianceMatrix) Eigenvalues() ([]float64, error) {
	if err := c.guard(opEigen); err != nil {
		return nil, err
	}
	if c.Dim() == 0 {
		return nil, nil
	}
	var es mat.EigenSym
	if ok := es.Factorize(c.sym, false); !ok {
		return nil, matrixErrorf(opEigen, fmt.Errorf("no convergence: %w", ErrInvalidArgument))
	}

	return es.Values(nil), nil
}
