// SPDX-License-Identifier: MIT
package covariance_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/covariance"
)

func roundTrip(t *testing.T, m covariance.Model) covariance.Model {
	t.Helper()
	a := covariance.NewAttributes()
	require.NoError(t, m.Save(a))
	var buf bytes.Buffer
	require.NoError(t, a.Encode(&buf))
	decoded, err := covariance.DecodeAttributes(&buf)
	require.NoError(t, err)
	var out covariance.Model
	require.NoError(t, out.Load(decoded))
	return out
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	must := func(m covariance.Model, err error) covariance.Model {
		t.Helper()
		require.NoError(t, err)
		return m
	}
	matern := must(covariance.NewMatern([]float64{0.3, 0.8}, []float64{1.5, 0.7}, 2.5,
		covariance.WithCorrelation(correlation2(t, -0.35)),
		covariance.WithNugget(1e-3),
		covariance.WithScaleParametrization(covariance.LogInverse),
		covariance.WithActiveParameter(0, 4, 6)))
	inner := must(covariance.NewSquaredExponential([]float64{0.5, 0.5}, []float64{1}))
	e := must(covariance.NewExponential([]float64{0.5}, []float64{1}))
	g := must(covariance.NewGeneralizedExponential([]float64{0.2}, []float64{1}, 1.2))
	eta := mat.NewDense(2, 2, []float64{0, 0.1, -0.1, 0})
	noActive := must(covariance.NewSpherical([]float64{1, 1}, []float64{1}, 2,
		covariance.WithActiveParameter()))

	models := []namedModel{
		{"Matern", matern},
		{"Kronecker", must(covariance.NewKronecker(inner, covariance2(t)))},
		{"Product", must(covariance.NewProduct([]covariance.Model{e, g}))},
		{"FractionalBrownianMotion", must(covariance.NewFractionalBrownianMotion(1.3, []float64{1, 2}, []float64{0.3, 0.7}, eta))},
		{"Dirac", must(covariance.NewDirac(2, []float64{1.1}, covariance.WithNugget(0.2)))},
		{"EmptyActiveSet", noActive},
	}
	s, u := []float64{0.1, 0.2}, []float64{0.4, 0.9}
	for _, tc := range models {
		t.Run(tc.name, func(t *testing.T) {
			got := roundTrip(t, tc.model)
			require.Equal(t, tc.model.Kind(), got.Kind())
			require.Equal(t, tc.model.InputDimension(), got.InputDimension())
			require.Equal(t, tc.model.OutputDimension(), got.OutputDimension())
			require.Equal(t, tc.model.FullParameter(), got.FullParameter())
			require.Equal(t, tc.model.FullParameterDescription(), got.FullParameterDescription())
			require.Equal(t, tc.model.ActiveParameter(), got.ActiveParameter())
			require.Equal(t, tc.model.ScaleParametrization(), got.ScaleParametrization())
			require.Equal(t, tc.model.NuggetFactor(), got.NuggetFactor())

			dim := tc.model.InputDimension()
			want, err := tc.model.Evaluate(s[:dim], u[:dim])
			require.NoError(t, err)
			have, err := got.Evaluate(s[:dim], u[:dim])
			require.NoError(t, err)
			require.True(t, mat.Equal(want, have))
		})
	}
}

func TestSave_StationaryFunctionalUnsupported(t *testing.T) {
	t.Parallel()

	m, err := covariance.NewStationaryFunctional([]float64{1}, []float64{1}, gaussian, true)
	require.NoError(t, err)
	require.ErrorIs(t, m.Save(covariance.NewAttributes()), hcov.ErrNotYetImplemented)

	k, err := covariance.NewKronecker(m, covariance2(t))
	require.NoError(t, err)
	require.ErrorIs(t, k.Save(covariance.NewAttributes()), hcov.ErrNotYetImplemented)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	m, err := covariance.NewExponential([]float64{1}, []float64{1})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(a *covariance.Attributes)
	}{
		{"missing kind", func(a *covariance.Attributes) { delete(a.Strings, covariance.AttrKind) }},
		{"unknown kind", func(a *covariance.Attributes) { a.SetStrings(covariance.AttrKind, "Banana") }},
		{"missing scale", func(a *covariance.Attributes) { delete(a.Floats, covariance.AttrScale) }},
		{"negative scale", func(a *covariance.Attributes) { a.SetFloats(covariance.AttrScale, -1) }},
		{"correlation size", func(a *covariance.Attributes) { a.SetFloats(covariance.AttrOutputCorrelation, 1, 0) }},
		{"missing nugget", func(a *covariance.Attributes) { delete(a.Floats, covariance.AttrNuggetFactor) }},
		{"bad parametrization", func(a *covariance.Attributes) { a.SetStrings(covariance.AttrScaleParametrization, "LOG") }},
		{"active out of range", func(a *covariance.Attributes) { a.SetInts(covariance.AttrActiveParameter, 9) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := covariance.NewAttributes()
			require.NoError(t, m.Save(a))
			tc.mutate(a)
			target := m
			err := target.Load(a)
			require.Error(t, err)
			require.Equal(t, m.FullParameter(), target.FullParameter(), "failed Load leaves the model unchanged")
		})
	}

	var target covariance.Model
	require.ErrorIs(t, target.Load(nil), hcov.ErrInvalidArgument)
	_, err = covariance.DecodeAttributes(strings.NewReader("floats: [1, 2"))
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)
}
