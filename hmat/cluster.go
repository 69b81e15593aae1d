// SPDX-License-Identifier: MIT

package hmat

import (
	"cmp"
	"slices"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/geom"
)

// ClusterNode is a contiguous range of the cluster-ordered points.
type ClusterNode struct {
	// Offset and Size delimit the node's points in ClusterTree.Perm.
	Offset, Size int
	Box          geom.BoundingBox
	Left, Right  *ClusterNode
	Depth        int
}

// IsLeaf reports whether the node has no children.
func (n *ClusterNode) IsLeaf() bool { return n.Left == nil }

// Diameter is the diagonal length of the node's bounding box.
func (n *ClusterNode) Diameter() float64 { return n.Box.Diameter() }

// Distance is the distance between the bounding boxes of n and o.
func (n *ClusterNode) Distance(o *ClusterNode) float64 { return n.Box.Distance(o.Box) }

func (n *ClusterNode) children() []*ClusterNode {
	if n.IsLeaf() {
		return nil
	}
	return []*ClusterNode{n.Left, n.Right}
}

// ClusterTree is a binary partition of point indices.
type ClusterTree struct {
	Root *ClusterNode
	// Perm[k] is the original index of the point at cluster position k.
	Perm []int
	// Inverse[i] is the cluster position of original point i.
	Inverse []int
}

// Size returns the number of points.
func (t *ClusterTree) Size() int { return len(t.Perm) }

// Leaves returns the leaves in cluster order.
func (t *ClusterTree) Leaves() []*ClusterNode {
	var out []*ClusterNode
	var walk func(n *ClusterNode)
	walk = func(n *ClusterNode) {
		if n.IsLeaf() {
			out = append(out, n)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(t.Root)
	return out
}

// Depth returns the maximal node depth.
func (t *ClusterTree) Depth() int {
	depth := 0
	for _, l := range t.Leaves() {
		depth = max(depth, l.Depth)
	}
	return depth
}

func (t *ClusterTree) clone() *ClusterTree {
	var dup func(n *ClusterNode) *ClusterNode
	dup = func(n *ClusterNode) *ClusterNode {
		if n == nil {
			return nil
		}
		c := *n
		c.Box = geom.BoundingBox{Lower: slices.Clone(n.Box.Lower), Upper: slices.Clone(n.Box.Upper)}
		c.Left, c.Right = dup(n.Left), dup(n.Right)
		return &c
	}
	return &ClusterTree{Root: dup(t.Root), Perm: slices.Clone(t.Perm), Inverse: slices.Clone(t.Inverse)}
}

// BuildClusterTree recursively bisects points until every leaf holds at most
// maxLeafSize points.
//
// Splitting rules:
//   - median: sort along the axis of largest extent, split at the median
//     position. Children differ in size by at most one.
//   - geometric: split at the midpoint of the longest bounding-box axis.
//   - hybrid: geometric, unless the smaller child holds less than
//     balanceRatio of the node; then median.
//
// Coincident points cannot be separated geometrically; such nodes always
// fall back to the median rule, which still splits by position.
func BuildClusterTree(points geom.Vertices, algorithm string, maxLeafSize int, balanceRatio float64) (*ClusterTree, error) {
	if points == nil || points.Size() == 0 {
		return nil, hmatErrorf(opBuild, ErrInvalidDimension)
	}
	if maxLeafSize < 1 {
		maxLeafSize = 1
	}
	switch algorithm {
	case ClusteringMedian, ClusteringGeometric, ClusteringHybrid:
	default:
		return nil, hcov.Errorf(opBuild, ErrInvalidArgument, "unknown clustering algorithm %q", algorithm)
	}

	n := points.Size()
	t := &ClusterTree{Perm: make([]int, n), Inverse: make([]int, n)}
	for i := range t.Perm {
		t.Perm[i] = i
	}

	var build func(offset, size, depth int) *ClusterNode
	build = func(offset, size, depth int) *ClusterNode {
		idx := t.Perm[offset : offset+size]
		node := &ClusterNode{Offset: offset, Size: size, Box: geom.BoxOf(points, idx), Depth: depth}
		if size <= maxLeafSize {
			return node
		}
		split := splitNode(points, idx, node.Box, algorithm, balanceRatio)
		node.Left = build(offset, split, depth+1)
		node.Right = build(offset+split, size-split, depth+1)
		return node
	}
	t.Root = build(0, n, 0)
	for k, i := range t.Perm {
		t.Inverse[i] = k
	}

	return t, nil
}

// splitNode reorders idx in place and returns the size of the left child,
// always in [1, len(idx)-1].
func splitNode(points geom.Vertices, idx []int, box geom.BoundingBox, algorithm string, balanceRatio float64) int {
	axis, extent := box.LongestAxis()
	slices.SortStableFunc(idx, func(a, b int) int {
		if c := cmp.Compare(points.Vertex(a)[axis], points.Vertex(b)[axis]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	median := len(idx) / 2
	if algorithm == ClusteringMedian || extent == 0 {
		return median
	}

	mid := box.Center(axis)
	split, _ := slices.BinarySearchFunc(idx, mid, func(i int, target float64) int {
		return cmp.Compare(points.Vertex(i)[axis], target)
	})
	if split == 0 || split == len(idx) {
		return median
	}
	if algorithm == ClusteringHybrid {
		smaller := min(split, len(idx)-split)
		if float64(smaller) < balanceRatio*float64(len(idx)) {
			return median
		}
	}

	return split
}
