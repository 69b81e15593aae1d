// SPDX-License-Identifier: MIT

package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BoundingBox is an axis-aligned box [Lower, Upper].
type BoundingBox struct {
	Lower, Upper []float64
}

// BoxOf returns the bounding box of the points v.Vertex(idx[k]).
// An empty idx yields a degenerate box at the origin.
func BoxOf(v Vertices, idx []int) BoundingBox {
	d := v.Dimension()
	lo := make([]float64, d)
	hi := make([]float64, d)
	if len(idx) == 0 {
		return BoundingBox{Lower: lo, Upper: hi}
	}
	copy(lo, v.Vertex(idx[0]))
	copy(hi, lo)
	for _, i := range idx[1:] {
		p := v.Vertex(i)
		for k := 0; k < d; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}

	return BoundingBox{Lower: lo, Upper: hi}
}

// Dimension returns the number of axes.
func (b BoundingBox) Dimension() int { return len(b.Lower) }

// Diameter is the Euclidean length of the box diagonal.
func (b BoundingBox) Diameter() float64 {
	return floats.Distance(b.Upper, b.Lower, 2)
}

// Distance is the Euclidean distance between two boxes (0 if they touch).
func (b BoundingBox) Distance(o BoundingBox) float64 {
	var s float64
	for k := range b.Lower {
		var gap float64
		switch {
		case o.Lower[k] > b.Upper[k]:
			gap = o.Lower[k] - b.Upper[k]
		case b.Lower[k] > o.Upper[k]:
			gap = b.Lower[k] - o.Upper[k]
		}
		s += gap * gap
	}

	return math.Sqrt(s)
}

// LongestAxis returns the axis of maximal extent and that extent.
// Ties resolve to the lowest axis.
func (b BoundingBox) LongestAxis() (axis int, extent float64) {
	extent = -1
	for k := range b.Lower {
		if e := b.Upper[k] - b.Lower[k]; e > extent {
			axis, extent = k, e
		}
	}
	return axis, extent
}

// Center returns the midpoint of the box along axis.
func (b BoundingBox) Center(axis int) float64 {
	return 0.5 * (b.Lower[axis] + b.Upper[axis])
}
