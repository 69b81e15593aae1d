// SPDX-License-Identifier: MIT
package covariance_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/covariance"
	"github.com/katalvlaran/hcov/geom"
	"github.com/katalvlaran/hcov/matrix"
)

// randomSample returns n reproducible points in [0, 1]^dim.
func randomSample(t *testing.T, n, dim int, seed int64) *geom.Sample {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for k := range rows[i] {
			rows[i][k] = r.Float64()
		}
	}
	s, err := geom.SampleFromRows(rows)
	require.NoError(t, err)
	return s
}

func correlation2(t *testing.T, r01 float64) *matrix.CorrelationMatrix {
	t.Helper()
	r, err := matrix.NewCorrelationMatrix(2)
	require.NoError(t, err)
	require.NoError(t, r.Set(0, 1, r01))
	return r
}

func covariance2(t *testing.T) *matrix.CovarianceMatrix {
	t.Helper()
	c, err := matrix.NewCovarianceMatrixFrom(mat.NewDense(2, 2, []float64{4, 1.2, 1.2, 1}))
	require.NoError(t, err)
	return c
}

func gaussian(tau []float64) float64 {
	var s float64
	for _, v := range tau {
		s += v * v
	}
	return math.Exp(-0.5 * s)
}

type namedModel struct {
	name  string
	model covariance.Model
}

// models2D returns one model of every kind acting on 2-D points.
func models2D(t *testing.T) []namedModel {
	t.Helper()
	must := func(m covariance.Model, err error) covariance.Model {
		t.Helper()
		require.NoError(t, err)
		return m
	}
	scale := []float64{0.4, 0.7}
	se := must(covariance.NewSquaredExponential(scale, []float64{1}))
	e1 := must(covariance.NewExponential([]float64{0.5}, []float64{1.5}))
	m1 := must(covariance.NewMatern([]float64{0.3}, []float64{2}, 2.5))
	return []namedModel{
		{"Exponential", must(covariance.NewExponential(scale, []float64{2}))},
		{"SquaredExponential", se},
		{"Matern1.5", must(covariance.NewMatern(scale, []float64{1.5}, 1.5))},
		{"Matern2.2", must(covariance.NewMatern(scale, []float64{1}, 2.2))},
		{"Spherical", must(covariance.NewSpherical(scale, []float64{1}, 1))},
		{"Dirac", must(covariance.NewDirac(2, []float64{1.3}))},
		{"DampedCosine", must(covariance.NewExponentiallyDampedCosine(scale, []float64{1}, 0.1))},
		{"AbsoluteExponential", must(covariance.NewAbsoluteExponential(scale, []float64{1}))},
		{"GeneralizedExponential", must(covariance.NewGeneralizedExponential(scale, []float64{1}, 1.5))},
		{"Kronecker", must(covariance.NewKronecker(se, covariance2(t)))},
		{"Product", must(covariance.NewProduct([]covariance.Model{e1, m1}))},
		{"StationaryFunctional", must(covariance.NewStationaryFunctional(scale, []float64{1}, gaussian, true))},
		{"MultiOutputMatern", must(covariance.NewMatern(scale, []float64{1, 2}, 1.5,
			covariance.WithCorrelation(correlation2(t, 0.4)), covariance.WithNugget(1e-3)))},
	}
}
