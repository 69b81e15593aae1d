// SPDX-License-Identifier: MIT
package hmat_test

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/geom"
	"github.com/katalvlaran/hcov/hmat"
	"github.com/katalvlaran/hcov/metrics"
)

// shiftedKernel is expKernel minus c on the diagonal: positive definite
// only after a shift of at least c - λmin(K).
func shiftedKernel(pts geom.Vertices, c float64) hmat.AssemblyFunc {
	return expKernel(pts, 0.3, -c)
}

func TestRegularizedFactorize_ConvergesWithinBound(t *testing.T) {
	pts := randomPoints(t, 60, 2, 30)
	const c, start = 0.5, 1e-3
	f := shiftedKernel(pts, c)
	h := assembled(t, pts, f, true, testParams(hmat.CompressionSvd))

	before := testutil.ToFloat64(metrics.RegularizationRetries)
	shift, err := h.RegularizedFactorize(hmat.FactorizationLLt, start, 1e5)
	require.NoError(t, err)
	require.Equal(t, hmat.StateFactorized, h.State())
	require.Positive(t, shift)

	// The required shift is at most c, so at most ⌈log₂(c/start)⌉+1 retries.
	retries := testutil.ToFloat64(metrics.RegularizationRetries) - before
	require.LessOrEqual(t, retries, math.Ceil(math.Log2(c/start))+1)

	a := denseOf(f, 60)
	for i := 0; i < 60; i++ {
		a.Set(i, i, a.At(i, i)+shift)
	}
	b := make([]float64, 60)
	for i := range b {
		b[i] = 1
	}
	x, err := h.Solve(b, false)
	require.NoError(t, err)
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(60, x))
	require.Less(t, vecRelErr(ax.RawVector().Data, b), 1e-6)
}

func TestRegularizedFactorize_NoShiftNeeded(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 40, 2, 31)
	h := assembled(t, pts, expKernel(pts, 0.3, 0.1), true, testParams(hmat.CompressionSvd))
	shift, err := h.RegularizedFactorize(hmat.FactorizationLLt, 1e-13, 1e5)
	require.NoError(t, err)
	require.Zero(t, shift)
}

func TestRegularizedFactorize_CapExceeded(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 30, 2, 32)
	h := assembled(t, pts, shiftedKernel(pts, 10), true, testParams(hmat.CompressionSvd))
	_, err := h.RegularizedFactorize(hmat.FactorizationLLt, 1e-3, 1)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
	require.ErrorIs(t, err, hcov.ErrNotPositiveDefinite)
	require.Equal(t, hmat.StateAssembled, h.State(), "failed attempts work on copies")
}

func TestRegularizedFactorize_NearlyCoincidentPoints(t *testing.T) {
	t.Parallel()

	pts, err := geom.SampleFromValues(0, 1e-3, 2e-3, 3e-3, 4e-3)
	require.NoError(t, err)
	const scale = 1e3
	gauss := hmat.AssemblyFunc(func(i, j int) float64 {
		r := pts.Vertex(i)[0] - pts.Vertex(j)[0]
		return math.Exp(-r * r / (2 * scale * scale))
	})
	h := assembled(t, pts, gauss, true, hmat.DefaultParameters())

	shift, err := h.RegularizedFactorize("", 1e-13, 1e5)
	require.NoError(t, err)
	require.LessOrEqual(t, shift, 1e5)
	_, err = h.Solve([]float64{1, 2, 3, 4, 5}, false)
	require.NoError(t, err)
}

func TestRegularizedFactorize_Arguments(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 10, 1, 33)
	h, err := hmat.Build(pts, 1, true, testParams(hmat.CompressionSvd))
	require.NoError(t, err)

	_, err = h.RegularizedFactorize(hmat.FactorizationLLt, 0, 1)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
	_, err = h.RegularizedFactorize(hmat.FactorizationLLt, 1e-3, 1)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument, "not assembled")
}
