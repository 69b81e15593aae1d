// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// TriangularMatrix is a lower-triangular dense matrix, typically a Cholesky
// factor L with L·Lᵀ = A.
type TriangularMatrix struct {
	tri *mat.TriDense
}

// NewTriangularMatrix wraps a lower *mat.TriDense without copying.
// Errors: ErrNilMatrix, ErrInvalidArgument for an upper-triangular input.
func NewTriangularMatrix(t *mat.TriDense) (*TriangularMatrix, error) {
	if t == nil {
		return nil, matrixErrorf(opTriSolve, ErrNilMatrix)
	}
	if _, kind := t.Triangle(); kind != mat.Lower && !t.IsEmpty() {
		return nil, matrixErrorf(opTriSolve, fmt.Errorf("upper triangle: %w", ErrInvalidArgument))
	}
	return &TriangularMatrix{tri: t}, nil
}

// Dim returns the order n.
func (l *TriangularMatrix) Dim() int {
	n, _ := l.tri.Triangle()
	return n
}

// At returns L[i,j] (zero above the diagonal).
func (l *TriangularMatrix) At(i, j int) (float64, error) {
	n := l.Dim()
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0, matrixErrorf(opAt, fmt.Errorf("(%d,%d) of %d: %w", i, j, n, ErrOutOfRange))
	}
	return l.tri.At(i, j), nil
}

// Tri exposes the backing *mat.TriDense (gonum interop, read only).
func (l *TriangularMatrix) Tri() *mat.TriDense { return l.tri }

// Dense returns a full-storage copy of L.
func (l *TriangularMatrix) Dense() *mat.Dense {
	n := l.Dim()
	if n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(n, n, nil)
	d.Copy(l.tri)
	return d
}

// Product returns L·Lᵀ.
// Complexity: O(n³).
func (l *TriangularMatrix) Product() *CovarianceMatrix {
	n := l.Dim()
	if n == 0 {
		return &CovarianceMatrix{sym: &mat.SymDense{}}
	}
	s := mat.NewSymDense(n, nil)
	s.SymOuterK(1, l.tri)
	return &CovarianceMatrix{sym: s}
}

// LogDeterminant returns log det(L·Lᵀ) = 2·Σ log L[i,i].
func (l *TriangularMatrix) LogDeterminant() float64 {
	var s float64
	for i := 0; i < l.Dim(); i++ {
		s += math.Log(l.tri.At(i, i))
	}
	return 2 * s
}

// Solve returns x with op(L)·x = b, op(L) = Lᵀ when trans.
// Implementation:
//   - Stage 1: validate len(b) == n; copy b.
//   - Stage 2: blas64.Trsv forward (L) or backward (Lᵀ) substitution.
//
// Errors:
//   - ErrDimensionMismatch; ErrNotPositiveDefinite for a zero diagonal entry.
//
// Complexity:
//   - Time O(n²), Space O(n).
func (l *TriangularMatrix) Solve(b []float64, trans bool) ([]float64, error) {
	n := l.Dim()
	if err := ValidateVecLen(b, n); err != nil {
		return nil, matrixErrorf(opTriSolve, err)
	}
	if err := l.checkDiagonal(); err != nil {
		return nil, err
	}
	x := make([]float64, n)
	copy(x, b)
	if n == 0 {
		return x, nil
	}
	blas64.Trsv(transpose(trans), l.tri.RawTriangular(), blas64.Vector{N: n, Inc: 1, Data: x})

	return x, nil
}

// SolveMatrix returns X with op(L)·X = B for several right-hand sides.
// Complexity: O(n²·k) for k columns.
func (l *TriangularMatrix) SolveMatrix(b mat.Matrix, trans bool) (*mat.Dense, error) {
	n := l.Dim()
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opTriSolve, err)
	}
	r, k := b.Dims()
	if r != n {
		return nil, matrixErrorf(opTriSolve, fmt.Errorf("rhs rows %d, want %d: %w", r, n, ErrDimensionMismatch))
	}
	if err := l.checkDiagonal(); err != nil {
		return nil, err
	}
	x := mat.DenseCopyOf(b)
	if n == 0 || k == 0 {
		return x, nil
	}
	blas64.Trsm(blas.Left, transpose(trans), 1, l.tri.RawTriangular(), x.RawMatrix())

	return x, nil
}

// MulVec returns L·z, the map used to draw correlated samples from white noise.
// Complexity: O(n²).
func (l *TriangularMatrix) MulVec(z []float64) ([]float64, error) {
	n := l.Dim()
	if err := ValidateVecLen(z, n); err != nil {
		return nil, matrixErrorf(opTriMul, err)
	}
	x := make([]float64, n)
	copy(x, z)
	if n == 0 {
		return x, nil
	}
	blas64.Trmv(blas.NoTrans, l.tri.RawTriangular(), blas64.Vector{N: n, Inc: 1, Data: x})

	return x, nil
}

func (l *TriangularMatrix) checkDiagonal() error {
	for i := 0; i < l.Dim(); i++ {
		if l.tri.At(i, i) == ZeroPivot {
			return matrixErrorf(opTriSolve, fmt.Errorf("zero diagonal at %d: %w", i, ErrNotPositiveDefinite))
		}
	}
	return nil
}

func transpose(trans bool) blas.Transpose {
	if trans {
		return blas.Trans
	}
	return blas.NoTrans
}
