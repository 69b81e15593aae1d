// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// LUInPlace overwrites a with its Doolittle factorization A = L*U (no pivoting):
// U on and above the diagonal, the strictly lower part of the unit-diagonal L below it.
// Implementation:
//   - Stage 1: Validate a (not nil, square).
//   - Stage 2: For i=0..n-1, build row i of U and then column i of L in fixed order,
//     reading each original entry exactly once before overwriting it.
//
// Behavior highlights:
//   - Deterministic loops; direct flat indexing on the raw row-major storage; zero-pivot guard.
//
// Inputs:
//   - a: square *mat.Dense (n×n), overwritten.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrSingular (if U[i,i] is zero or not finite).
//
// Determinism:
//   - Fixed i→{j≥i} for U, then {j>i}→i for L.
//
// Complexity:
//   - Time O(n^3), Space O(1) extra.
//
// Notes:
//   - On error a holds a partially factored matrix; callers must discard it.
//
// AI-Hints:
//   - Dense leaves of a hierarchical LU are diagonally dominant after a nugget
//     or identity shift; without that, prefer the Cholesky path.
func LUInPlace(a *mat.Dense) error {
	if a == nil {
		return matrixErrorf(opLU, ErrNilMatrix)
	}
	if err := ValidateSquare(a); err != nil {
		return matrixErrorf(opLU, err)
	}
	n, _ := a.Dims()
	if n == 0 {
		return nil
	}
	raw := a.RawMatrix()
	data, s := raw.Data, raw.Stride

	var i, j, k int
	var sum, pivot float64
	for i = 0; i < n; i++ {
		// Row i of U.
		for j = i; j < n; j++ {
			sum = 0
			for k = 0; k < i; k++ {
				sum += data[i*s+k] * data[k*s+j]
			}
			data[i*s+j] -= sum
		}

		pivot = data[i*s+i]
		if pivot == ZeroPivot || math.IsNaN(pivot) || math.IsInf(pivot, 0) {
			return matrixErrorf(opLU, fmt.Errorf("pivot %d is %g: %w", i, pivot, ErrSingular))
		}

		// Column i of L.
		for j = i + 1; j < n; j++ {
			sum = 0
			for k = 0; k < i; k++ {
				sum += data[j*s+k] * data[k*s+i]
			}
			data[j*s+i] = (data[j*s+i] - sum) / pivot
		}
	}

	return nil
}

// UnitLower views the L factor stored by LUInPlace as a BLAS triangle.
func UnitLower(lu *mat.Dense) blas64.Triangular {
	raw := lu.RawMatrix()
	return blas64.Triangular{Uplo: blas.Lower, Diag: blas.Unit, N: raw.Rows, Stride: raw.Stride, Data: raw.Data}
}

// Upper views the U factor stored by LUInPlace as a BLAS triangle.
func Upper(lu *mat.Dense) blas64.Triangular {
	raw := lu.RawMatrix()
	return blas64.Triangular{Uplo: blas.Upper, Diag: blas.NonUnit, N: raw.Rows, Stride: raw.Stride, Data: raw.Data}
}
