// SPDX-License-Identifier: MIT

package specfunc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/specfunc"
)

func TestBesselKReferenceValues(t *testing.T) {
	cases := []struct {
		nu, x, want float64
	}{
		{0, 1, 0.42102443824070834},
		{1, 1, 0.6019072301972346},
		{2, 2, 0.2537597545660559},
		{0.5, 2, math.Sqrt(math.Pi/4) * math.Exp(-2)},
		{1.5, 1, math.Sqrt(math.Pi/2) * math.Exp(-1) * 2},
		{0, 0.01, 4.721244730161099},
	}
	for _, c := range cases {
		got, err := specfunc.BesselK(c.nu, c.x)
		require.NoError(t, err)
		require.InEpsilon(t, c.want, got, 1e-10, "K_%g(%g)", c.nu, c.x)
	}
}

func TestBesselKSymmetricInOrder(t *testing.T) {
	a, err := specfunc.BesselK(-1.7, 0.8)
	require.NoError(t, err)
	b, err := specfunc.BesselK(1.7, 0.8)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestBesselKRejectsNonPositive(t *testing.T) {
	_, err := specfunc.BesselK(1, 0)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
	_, err = specfunc.BesselK(1, -2)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
}

func TestMaternClosedFormsMatchIntegral(t *testing.T) {
	// 1.5 and 2.5 have closed forms; nudging ν by 1e-9 forces the quadrature path.
	for _, nu := range []float64{1.5, 2.5} {
		for _, x := range []float64{0.1, 1, 3.7, 12} {
			closed, err := specfunc.MaternCorrelation(nu, x)
			require.NoError(t, err)
			numeric, err := specfunc.MaternCorrelation(nu+1e-9, x)
			require.NoError(t, err)
			require.InDelta(t, closed, numeric, 1e-7, "nu=%g x=%g", nu, x)

			dClosed, err := specfunc.MaternDerivative(nu, x)
			require.NoError(t, err)
			dNumeric, err := specfunc.MaternDerivative(nu+1e-9, x)
			require.NoError(t, err)
			require.InDelta(t, dClosed, dNumeric, 1e-7, "nu=%g x=%g", nu, x)
		}
	}
}

func TestMaternDerivativeMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	for _, nu := range []float64{0.7, 1.2, 3.3} {
		for _, x := range []float64{0.4, 2, 5} {
			up, err := specfunc.MaternCorrelation(nu, x+h)
			require.NoError(t, err)
			down, err := specfunc.MaternCorrelation(nu, x-h)
			require.NoError(t, err)
			d, err := specfunc.MaternDerivative(nu, x)
			require.NoError(t, err)
			require.InDelta(t, (up-down)/(2*h), d, 1e-6, "nu=%g x=%g", nu, x)
		}
	}
}

func TestMaternAtZero(t *testing.T) {
	v, err := specfunc.MaternCorrelation(1.3, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)

	small, err := specfunc.MaternCorrelation(1.3, 1e-8)
	require.NoError(t, err)
	require.InDelta(t, 1.0, small, 1e-6)

	_, err = specfunc.MaternCorrelation(0, 1)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
}
