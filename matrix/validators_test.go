// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the matrix validators.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/matrix"
)

// TestValidateSquare covers nil inputs, square and non-square cases.
func TestValidateSquare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    mat.Matrix
		want error
	}{
		{"nil", nil, matrix.ErrNilMatrix},
		{"1x1", mat.NewDense(1, 1, nil), nil},
		{"3x3", mat.NewDense(3, 3, nil), nil},
		{"2x3", mat.NewDense(2, 3, nil), matrix.ErrNonSquare},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := matrix.ValidateSquare(tc.m)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// TestValidateSymmetric covers tolerance handling and the SymDense shortcut.
func TestValidateSymmetric(t *testing.T) {
	t.Parallel()

	a := mat.NewDense(2, 2, []float64{1, 2, 2 + 1e-10, 1})
	require.NoError(t, matrix.ValidateSymmetric(a, 1e-9))
	require.NoError(t, matrix.ValidateSymmetric(a, -1e-9))

	err := matrix.ValidateSymmetric(a, 1e-12)
	require.ErrorIs(t, err, matrix.ErrAsymmetry)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)

	require.ErrorIs(t, matrix.ValidateSymmetric(a, math.NaN()), matrix.ErrNaNInf)
	require.NoError(t, matrix.ValidateSymmetric(mat.NewSymDense(3, nil), 0))
}

func TestValidateUnitDiagonalAndFinite(t *testing.T) {
	t.Parallel()

	require.NoError(t, matrix.ValidateUnitDiagonal(mat.NewDiagDense(3, []float64{1, 1, 1}), 0))
	require.ErrorIs(t, matrix.ValidateUnitDiagonal(mat.NewDiagDense(2, []float64{1, 2}), 1e-9), matrix.ErrNotUnitDiagonal)

	require.NoError(t, matrix.ValidateFinite(mat.NewDense(1, 2, []float64{1, 2})))
	require.ErrorIs(t, matrix.ValidateFinite(mat.NewDense(1, 2, []float64{1, math.Inf(-1)})), matrix.ErrNaNInf)
}

func TestValidateVecLen(t *testing.T) {
	t.Parallel()

	require.NoError(t, matrix.ValidateVecLen([]float64{1, 2}, 2))
	require.NoError(t, matrix.ValidateVecLen(nil, 0))
	require.ErrorIs(t, matrix.ValidateVecLen(nil, 2), matrix.ErrNilMatrix)
	require.ErrorIs(t, matrix.ValidateVecLen([]float64{1}, 2), hcov.ErrInvalidDimension)
}
