// SPDX-License-Identifier: MIT
package matrix_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/matrix"
)

const tol = 1e-12

// spd3 returns a small SPD matrix with a known Cholesky factor:
// L = [[2,0,0],[1,3,0],[0.5,-1,1]].
func spd3(t *testing.T) (*matrix.CovarianceMatrix, *mat.Dense) {
	t.Helper()
	l := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		1, 3, 0,
		0.5, -1, 1,
	})
	var a mat.Dense
	a.Mul(l, l.T())
	c, err := matrix.NewCovarianceMatrixFrom(&a)
	require.NoError(t, err)
	return c, l
}

func TestNewCovarianceMatrixFrom_Rejects(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 3, nil))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
	require.ErrorIs(t, err, hcov.ErrInvalidDimension)

	_, err = matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 2, []float64{1, 0.5, 0.4, 1}))
	require.ErrorIs(t, err, matrix.ErrAsymmetry)

	_, err = matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 2, []float64{1, 0.5, 0.4, 1}), matrix.WithEpsilon(0.2))
	require.NoError(t, err)

	_, err = matrix.NewCovarianceMatrixFrom(mat.NewDense(1, 1, []float64{math.NaN()}))
	require.ErrorIs(t, err, matrix.ErrNaNInf)

	_, err = matrix.NewCovarianceMatrix(-1)
	require.ErrorIs(t, err, hcov.ErrInvalidDimension)
}

func TestCovarianceMatrix_SetAndAt(t *testing.T) {
	t.Parallel()

	c, err := matrix.NewCovarianceMatrix(2)
	require.NoError(t, err)
	require.NoError(t, c.Set(0, 1, 3))
	v, err := c.At(1, 0)
	require.NoError(t, err)
	require.Equal(t, 3.0, v)

	_, err = c.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, c.Set(0, 0, math.Inf(1)), matrix.ErrNaNInf)
}

func TestComputeCholesky_KeepIntact(t *testing.T) {
	t.Parallel()

	c, want := spd3(t)
	l, err := c.ComputeCholesky(true)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(want, l.Dense(), tol))

	again, err := c.ComputeCholesky(true)
	require.NoError(t, err)
	require.Same(t, l, again, "factor must be cached")

	require.True(t, mat.EqualApprox(c.Sym(), l.Product().Sym(), 1e-12))
	require.InDelta(t, 2*(math.Log(2)+math.Log(3)), l.LogDeterminant(), tol)

	// A mutation drops the cache.
	require.NoError(t, c.AddDiagonal(1))
	fresh, err := c.ComputeCholesky(true)
	require.NoError(t, err)
	require.NotSame(t, l, fresh)
}

func TestComputeCholesky_Destructive(t *testing.T) {
	t.Parallel()

	c, want := spd3(t)
	l, err := c.ComputeCholesky(false)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(want, l.Dense(), tol))

	_, err = c.At(0, 0)
	require.ErrorIs(t, err, matrix.ErrConsumed)
	_, err = c.ComputeCholesky(true)
	require.ErrorIs(t, err, matrix.ErrConsumed)
}

func TestComputeCholesky_NotPositiveDefinite(t *testing.T) {
	t.Parallel()

	c, err := matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 2, []float64{1, 2, 2, 1}))
	require.NoError(t, err)
	require.False(t, c.IsPositiveDefinite())

	_, err = c.ComputeCholesky(true)
	require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)
	require.ErrorIs(t, err, hcov.ErrNotPositiveDefinite)

	_, err = c.Solve([]float64{1, 1})
	require.ErrorIs(t, err, hcov.ErrNotPositiveDefinite)
}

func TestCovarianceMatrix_Solve(t *testing.T) {
	t.Parallel()

	c, _ := spd3(t)
	b := []float64{1, -2, 0.5}
	x, err := c.Solve(b)
	require.NoError(t, err)

	var got mat.VecDense
	got.MulVec(c.Sym(), mat.NewVecDense(3, x))
	if diff := cmp.Diff(b, got.RawVector().Data, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("A·x != b (-want +got):\n%s", diff)
	}

	B := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 2, 3})
	X, err := c.SolveMatrix(B)
	require.NoError(t, err)
	var AX mat.Dense
	AX.Mul(c.Sym(), X)
	require.True(t, mat.EqualApprox(B, &AX, 1e-12))

	_, err = c.Solve([]float64{1})
	require.ErrorIs(t, err, hcov.ErrInvalidDimension)
}

func TestCovarianceMatrix_Eigenvalues(t *testing.T) {
	t.Parallel()

	c, err := matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 2, []float64{2, 1, 1, 2}))
	require.NoError(t, err)
	ev, err := c.Eigenvalues()
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1, 3}, ev, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("eigenvalues (-want +got):\n%s", diff)
	}
}

func TestTriangularMatrix_SolveAndMul(t *testing.T) {
	t.Parallel()

	c, l := spd3(t)
	factor, err := c.ComputeCholesky(true)
	require.NoError(t, err)

	z := []float64{1, 2, 3}
	y, err := factor.MulVec(z)
	require.NoError(t, err)
	var want mat.VecDense
	want.MulVec(l, mat.NewVecDense(3, z))
	require.InDeltaSlice(t, want.RawVector().Data, y, tol)

	back, err := factor.Solve(y, false)
	require.NoError(t, err)
	require.InDeltaSlice(t, z, back, tol)

	// Lᵀ·x = z
	xt, err := factor.Solve(z, true)
	require.NoError(t, err)
	var check mat.VecDense
	check.MulVec(l.T(), mat.NewVecDense(3, xt))
	require.InDeltaSlice(t, z, check.RawVector().Data, tol)

	X, err := factor.SolveMatrix(mat.NewDense(3, 1, z), true)
	require.NoError(t, err)
	require.InDeltaSlice(t, xt, mat.Col(nil, 0, X), tol)

	_, err = matrix.NewTriangularMatrix(mat.NewTriDense(2, mat.Upper, nil))
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
}

func TestCorrelationMatrix(t *testing.T) {
	t.Parallel()

	r, err := matrix.NewCorrelationMatrix(3)
	require.NoError(t, err)
	require.NoError(t, r.Set(0, 2, 0.5))
	require.ErrorIs(t, r.Set(1, 1, 2), matrix.ErrNotUnitDiagonal)
	require.ErrorIs(t, r.Set(0, 1, 1.5), hcov.ErrInvalidArgument)

	c, err := matrix.ScaleCorrelation([]float64{2, 1, 3}, r)
	require.NoError(t, err)
	v, _ := c.At(0, 2)
	require.InDelta(t, 3.0, v, tol)
	v, _ = c.At(0, 0)
	require.InDelta(t, 4.0, v, tol)

	a, back, err := matrix.SplitCovariance(c)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{2, 1, 3}, a, tol)
	require.True(t, mat.EqualApprox(r.Sym(), back.Sym(), tol))

	_, err = matrix.NewCorrelationMatrixFrom(mat.NewDense(2, 2, []float64{2, 0, 0, 1}))
	require.ErrorIs(t, err, matrix.ErrNotUnitDiagonal)

	clone := r.Clone()
	require.NoError(t, clone.Set(0, 2, -0.1))
	orig, _ := r.At(0, 2)
	require.Equal(t, 0.5, orig)
}
