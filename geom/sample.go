// SPDX-License-Identifier: MIT

package geom

import (
	"fmt"
	"math"

	"github.com/katalvlaran/hcov"
)

// Aliases of the shared error kinds returned by this package.
var (
	ErrInvalidArgument  = hcov.ErrInvalidArgument
	ErrInvalidDimension = hcov.ErrInvalidDimension
)

// Vertices is an ordered sequence of points of one fixed dimension.
type Vertices interface {
	// Size returns the number of points.
	Size() int
	// Dimension returns the coordinate count of every point.
	Dimension() int
	// Vertex returns point i. The slice may alias internal storage.
	Vertex(i int) []float64
}

// Sample is a row-major table of Size() points in Dimension() coordinates.
type Sample struct {
	dim  int
	data []float64 // len == size*dim
}

var (
	_ Vertices = (*Sample)(nil)
	_ Vertices = (*Mesh)(nil)
	_ Vertices = (*RegularGrid)(nil)
)

// NewSample allocates n zero points of dimension dim.
// Errors: ErrInvalidDimension when dim < 1 or n < 0.
func NewSample(n, dim int) (*Sample, error) {
	if dim < 1 || n < 0 {
		return nil, hcov.Errorf("geom.NewSample", ErrInvalidDimension, "size=%d dimension=%d", n, dim)
	}

	return &Sample{dim: dim, data: make([]float64, n*dim)}, nil
}

// SampleFromRows copies rows into a new Sample. Every row must have the
// same, positive length and hold finite values.
func SampleFromRows(rows [][]float64) (*Sample, error) {
	if len(rows) == 0 {
		return nil, hcov.Errorf("geom.SampleFromRows", ErrInvalidDimension, "no rows")
	}
	dim := len(rows[0])
	s, err := NewSample(len(rows), dim)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != dim {
			return nil, hcov.Errorf("geom.SampleFromRows", ErrInvalidDimension, "row %d has %d coordinates, want %d", i, len(r), dim)
		}
		for _, x := range r {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, hcov.Errorf("geom.SampleFromRows", ErrInvalidArgument, "row %d is not finite", i)
			}
		}
		copy(s.data[i*dim:(i+1)*dim], r)
	}

	return s, nil
}

// SampleFromValues builds a 1-D Sample, one point per value.
func SampleFromValues(values ...float64) (*Sample, error) {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return SampleFromRows(rows)
}

// CopyVertices materializes any Vertices into a Sample.
func CopyVertices(v Vertices) *Sample {
	s := &Sample{dim: v.Dimension(), data: make([]float64, v.Size()*v.Dimension())}
	for i := 0; i < v.Size(); i++ {
		copy(s.data[i*s.dim:(i+1)*s.dim], v.Vertex(i))
	}
	return s
}

// Size returns the number of points.
func (s *Sample) Size() int { return len(s.data) / s.dim }

// Dimension returns the number of coordinates per point.
func (s *Sample) Dimension() int { return s.dim }

// Vertex returns a view on point i.
func (s *Sample) Vertex(i int) []float64 { return s.data[i*s.dim : (i+1)*s.dim : (i+1)*s.dim] }

// Set overwrites point i.
func (s *Sample) Set(i int, p []float64) error {
	if i < 0 || i >= s.Size() {
		return hcov.Errorf("geom.Sample.Set", ErrInvalidArgument, "index %d out of [0,%d)", i, s.Size())
	}
	if len(p) != s.dim {
		return hcov.Errorf("geom.Sample.Set", ErrInvalidDimension, "point has %d coordinates, want %d", len(p), s.dim)
	}
	copy(s.data[i*s.dim:], p)
	return nil
}

// String implements fmt.Stringer.
func (s *Sample) String() string {
	return fmt.Sprintf("Sample(size=%d, dimension=%d)", s.Size(), s.dim)
}

// Mesh is a vertex set with an optional simplicial topology. Simplices are
// kept for callers; nothing here interprets them.
type Mesh struct {
	*Sample
	simplices [][]int
}

// NewMesh wraps vertices and validates that every simplex index is in range.
func NewMesh(vertices *Sample, simplices [][]int) (*Mesh, error) {
	if vertices == nil {
		return nil, hcov.Errorf("geom.NewMesh", ErrInvalidArgument, "nil vertices")
	}
	n := vertices.Size()
	for k, simplex := range simplices {
		for _, idx := range simplex {
			if idx < 0 || idx >= n {
				return nil, hcov.Errorf("geom.NewMesh", ErrInvalidArgument, "simplex %d references vertex %d of %d", k, idx, n)
			}
		}
	}

	return &Mesh{Sample: vertices, simplices: simplices}, nil
}

// Simplices returns the topology as given at construction.
func (m *Mesh) Simplices() [][]int { return m.simplices }

// RegularGrid is the 1-D grid start, start+step, ..., start+(n-1)*step.
type RegularGrid struct {
	start, step float64
	n           int
}

// NewRegularGrid validates step > 0 and n >= 1.
func NewRegularGrid(start, step float64, n int) (*RegularGrid, error) {
	if !(step > 0) || n < 1 || math.IsInf(start, 0) || math.IsNaN(start) {
		return nil, hcov.Errorf("geom.NewRegularGrid", ErrInvalidArgument, "start=%g step=%g n=%d", start, step, n)
	}
	return &RegularGrid{start: start, step: step, n: n}, nil
}

// Start returns the first grid value.
func (g *RegularGrid) Start() float64 { return g.start }

// Step returns the grid spacing.
func (g *RegularGrid) Step() float64 { return g.step }

// Size returns the number of grid points.
func (g *RegularGrid) Size() int { return g.n }

// Dimension is always 1.
func (g *RegularGrid) Dimension() int { return 1 }

// Vertex returns grid value i as a fresh 1-element slice.
func (g *RegularGrid) Vertex(i int) []float64 { return []float64{g.start + float64(i)*g.step} }
