// SPDX-License-Identifier: MIT

package hmat

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type blockKind uint8

const (
	kindFull blockKind = iota
	kindRk
	kindHier
)

// block is one node of the block tree: the interaction of a row cluster with
// a column cluster. Dof ranges are in cluster order.
//
// A full block stores its entries in full. An rk block stores M ≈ u·vᵀ with
// u (rowLen×k) and v (colLen×k); both are nil for rank 0. A hierarchical block
// owns nr×nc children in row-major order.
type block struct {
	rows, cols     *ClusterNode
	rowOff, rowLen int
	colOff, colLen int

	kind     blockKind
	full     *mat.Dense
	u, v     *mat.Dense
	children []*block
	nr, nc   int
}

// admissible implements the standard criterion
// min(diam A, diam B) ≤ η·dist(A, B) with dist > 0.
func admissible(a, b *ClusterNode, eta float64) bool {
	dist := a.Distance(b)
	if dist <= 0 {
		return false
	}
	return math.Min(a.Diameter(), b.Diameter()) <= eta*dist
}

// newBlockTree lays out the block tree for rows×cols with d dofs per point.
// Admissible pairs become rk leaves, inadmissible pairs with a leaf side
// become full leaves, everything else is subdivided.
func newBlockTree(rows, cols *ClusterNode, eta float64, d int) *block {
	b := &block{
		rows: rows, cols: cols,
		rowOff: rows.Offset * d, rowLen: rows.Size * d,
		colOff: cols.Offset * d, colLen: cols.Size * d,
	}
	switch {
	case admissible(rows, cols, eta):
		b.kind = kindRk
	case rows.IsLeaf() || cols.IsLeaf():
		b.kind = kindFull
	default:
		b.kind = kindHier
		rk, ck := rows.children(), cols.children()
		b.nr, b.nc = len(rk), len(ck)
		b.children = make([]*block, 0, b.nr*b.nc)
		for _, r := range rk {
			for _, c := range ck {
				b.children = append(b.children, newBlockTree(r, c, eta, d))
			}
		}
	}

	return b
}

func (b *block) child(i, j int) *block { return b.children[i*b.nc+j] }

func (b *block) isLeaf() bool { return b.kind != kindHier }

func (b *block) isDiagonal() bool {
	return b.rowOff == b.colOff && b.rowLen == b.colLen
}

// isStrictlyLower reports a block entirely below the diagonal.
func (b *block) isStrictlyLower() bool { return b.rowOff >= b.colOff+b.colLen }

// isStrictlyUpper reports a block entirely above the diagonal.
func (b *block) isStrictlyUpper() bool { return b.colOff >= b.rowOff+b.rowLen }

func (b *block) rank() int {
	if b.kind != kindRk || b.u == nil {
		return 0
	}
	_, k := b.u.Dims()
	return k
}

// walkLeaves visits leaves in row-major block order.
func (b *block) walkLeaves(fn func(*block)) {
	if b.isLeaf() {
		fn(b)
		return
	}
	for _, c := range b.children {
		c.walkLeaves(fn)
	}
}

// clone deep-copies the block, remapping cluster nodes through nodes.
func (b *block) clone(nodes map[*ClusterNode]*ClusterNode) *block {
	c := *b
	c.rows, c.cols = nodes[b.rows], nodes[b.cols]
	if b.full != nil {
		c.full = mat.DenseCopyOf(b.full)
	}
	if b.u != nil {
		c.u, c.v = mat.DenseCopyOf(b.u), mat.DenseCopyOf(b.v)
	}
	if b.children != nil {
		c.children = make([]*block, len(b.children))
		for i, ch := range b.children {
			c.children[i] = ch.clone(nodes)
		}
	}
	return &c
}

// scale multiplies every stored entry by alpha.
func (b *block) scale(alpha float64) {
	switch b.kind {
	case kindFull:
		if b.full != nil {
			b.full.Scale(alpha, b.full)
		}
	case kindRk:
		if b.u != nil {
			b.u.Scale(alpha, b.u)
		}
	default:
		for _, c := range b.children {
			c.scale(alpha)
		}
	}
}

// transpose replaces the block by its transpose in place.
func (b *block) transpose() {
	b.rows, b.cols = b.cols, b.rows
	b.rowOff, b.colOff = b.colOff, b.rowOff
	b.rowLen, b.colLen = b.colLen, b.rowLen
	switch b.kind {
	case kindFull:
		if b.full != nil {
			b.full = mat.DenseCopyOf(b.full.T())
		}
	case kindRk:
		b.u, b.v = b.v, b.u
	default:
		kids := make([]*block, len(b.children))
		for i := 0; i < b.nr; i++ {
			for j := 0; j < b.nc; j++ {
				c := b.child(i, j)
				c.transpose()
				kids[j*b.nr+i] = c
			}
		}
		b.children = kids
		b.nr, b.nc = b.nc, b.nr
	}
}

// addIdentity adds alpha to the diagonal of every diagonal full leaf.
func (b *block) addIdentity(alpha float64) {
	if !b.isDiagonal() {
		return
	}
	switch b.kind {
	case kindFull:
		for i := 0; i < b.rowLen; i++ {
			b.full.Set(i, i, b.full.At(i, i)+alpha)
		}
	case kindHier:
		for k := 0; k < min(b.nr, b.nc); k++ {
			b.child(k, k).addIdentity(alpha)
		}
	}
}

// toDense expands the block into a fresh rowLen×colLen matrix.
func (b *block) toDense() *mat.Dense {
	d := mat.NewDense(b.rowLen, b.colLen, nil)
	b.writeDense(d)
	return d
}

// writeDense stores the block into dst (rowLen×colLen view).
func (b *block) writeDense(dst *mat.Dense) {
	switch b.kind {
	case kindFull:
		dst.Copy(b.full)
	case kindRk:
		if b.u == nil {
			dst.Zero()
			return
		}
		dst.Mul(b.u, b.v.T())
	default:
		for _, c := range b.children {
			c.writeDense(subView(dst, c.rowOff-b.rowOff, c.colOff-b.colOff, c.rowLen, c.colLen))
		}
	}
}

// frobenius2 returns the squared Frobenius norm of the stored block.
func (b *block) frobenius2() float64 {
	switch b.kind {
	case kindFull:
		n := mat.Norm(b.full, 2)
		return n * n
	case kindRk:
		if b.u == nil {
			return 0
		}
		// ‖U·Vᵀ‖² = trace((UᵀU)(VᵀV))
		var uu, vv mat.Dense
		uu.Mul(b.u.T(), b.u)
		vv.Mul(b.v.T(), b.v)
		var s float64
		_, k := uu.Dims()
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				s += uu.At(i, j) * vv.At(j, i)
			}
		}
		return math.Max(s, 0)
	default:
		var s float64
		for _, c := range b.children {
			s += c.frobenius2()
		}
		return s
	}
}

// storage returns (full entries, low-rank entries) held by the block.
func (b *block) storage() (full, rk int) {
	b.walkLeaves(func(l *block) {
		switch l.kind {
		case kindFull:
			full += l.rowLen * l.colLen
		case kindRk:
			rk += l.rank() * (l.rowLen + l.colLen)
		}
	})
	return full, rk
}

// subView returns the r×c view of m starting at (i, j).
func subView(m *mat.Dense, i, j, r, c int) *mat.Dense {
	return m.Slice(i, i+r, j, j+c).(*mat.Dense)
}

// rowsView returns rows [i, i+r) of m.
func rowsView(m *mat.Dense, i, r int) *mat.Dense {
	_, c := m.Dims()
	return subView(m, i, 0, r, c)
}
