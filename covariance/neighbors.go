// SPDX-License-Identifier: MIT

package covariance

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/katalvlaran/hcov/geom"
)

// indexedPoint is a vertex that remembers its position in the point set.
type indexedPoint struct {
	idx int
	x   []float64
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(indexedPoint).x[d]
}

func (p indexedPoint) Dims() int { return len(p.x) }

// Distance is the squared Euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	var sum float64
	for k := range p.x {
		d := p.x[k] - q.x[k]
		sum += d * d
	}
	return sum
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	plane := pointPlane{indexedPoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, 100))
}

// pointPlane sorts indexedPoints along one axis.
type pointPlane struct {
	indexedPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	return p.indexedPoints[i].x[p.Dim] < p.indexedPoints[j].x[p.Dim]
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{indexedPoints: p.indexedPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// coincidentPairs calls fn(i, j) for every ordered pair of vertices at
// Euclidean distance ≤ eps, including i == j.
func coincidentPairs(points geom.Vertices, eps float64, fn func(i, j int)) {
	n := points.Size()
	pts := make(indexedPoints, n)
	for i := range pts {
		pts[i] = indexedPoint{idx: i, x: points.Vertex(i)}
	}
	queries := make(indexedPoints, n)
	copy(queries, pts)
	tree := kdtree.New(pts, false)

	for _, q := range queries {
		keeper := kdtree.NewDistKeeper(eps * eps)
		tree.NearestSet(keeper, q)
		for _, c := range keeper.Heap {
			if c.Comparable == nil {
				continue
			}
			fn(q.idx, c.Comparable.(indexedPoint).idx)
		}
	}
}
