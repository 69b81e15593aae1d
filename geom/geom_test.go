// SPDX-License-Identifier: MIT

package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hcov/geom"
)

func TestSampleFromRows(t *testing.T) {
	s, err := geom.SampleFromRows([][]float64{{0, 1}, {2, 3}, {4, 5}})
	require.NoError(t, err)
	require.Equal(t, 3, s.Size())
	require.Equal(t, 2, s.Dimension())
	require.Equal(t, []float64{2, 3}, s.Vertex(1))

	_, err = geom.SampleFromRows([][]float64{{0, 1}, {2}})
	require.ErrorIs(t, err, geom.ErrInvalidDimension)

	_, err = geom.SampleFromRows([][]float64{{math.NaN()}})
	require.ErrorIs(t, err, geom.ErrInvalidArgument)

	_, err = geom.SampleFromRows(nil)
	require.ErrorIs(t, err, geom.ErrInvalidDimension)
}

func TestSampleSet(t *testing.T) {
	s, err := geom.NewSample(2, 3)
	require.NoError(t, err)
	require.NoError(t, s.Set(1, []float64{1, 2, 3}))
	require.Equal(t, []float64{1, 2, 3}, s.Vertex(1))
	require.ErrorIs(t, s.Set(2, []float64{1, 2, 3}), geom.ErrInvalidArgument)
	require.ErrorIs(t, s.Set(0, []float64{1}), geom.ErrInvalidDimension)
}

func TestMeshValidatesSimplices(t *testing.T) {
	v, err := geom.SampleFromValues(0, 1, 2)
	require.NoError(t, err)
	m, err := geom.NewMesh(v, [][]int{{0, 1}, {1, 2}})
	require.NoError(t, err)
	require.Equal(t, 3, m.Size())
	require.Len(t, m.Simplices(), 2)

	_, err = geom.NewMesh(v, [][]int{{0, 3}})
	require.ErrorIs(t, err, geom.ErrInvalidArgument)
}

func TestRegularGrid(t *testing.T) {
	g, err := geom.NewRegularGrid(1.0, 0.5, 4)
	require.NoError(t, err)
	require.Equal(t, 4, g.Size())
	require.Equal(t, 1, g.Dimension())
	require.Equal(t, []float64{2.5}, g.Vertex(3))

	_, err = geom.NewRegularGrid(0, 0, 4)
	require.ErrorIs(t, err, geom.ErrInvalidArgument)

	copied := geom.CopyVertices(g)
	require.Equal(t, []float64{1.5}, copied.Vertex(1))
}

func TestBoundingBox(t *testing.T) {
	s, err := geom.SampleFromRows([][]float64{{0, 0}, {3, 1}, {1, 4}, {10, 10}})
	require.NoError(t, err)

	a := geom.BoxOf(s, []int{0, 1, 2})
	require.Equal(t, []float64{0, 0}, a.Lower)
	require.Equal(t, []float64{3, 4}, a.Upper)
	require.InDelta(t, 5.0, a.Diameter(), 1e-15)

	axis, extent := a.LongestAxis()
	require.Equal(t, 1, axis)
	require.Equal(t, 4.0, extent)
	require.Equal(t, 2.0, a.Center(1))

	b := geom.BoxOf(s, []int{3})
	require.InDelta(t, math.Hypot(7, 6), a.Distance(b), 1e-12)
	require.Equal(t, 0.0, a.Distance(a))
}
