// SPDX-License-Identifier: MIT

package hmat

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// part selects which stored triangle a product uses.
type part uint8

const (
	partAll part = iota
	partLower
	partUnitLower
	partUpper
)

func blasTrans(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// mulMat computes y += alpha·op(P(b))·x, where P selects the part of b.
// x has op(b).cols rows, y has op(b).rows rows; both share a column count.
func (b *block) mulMat(trans bool, p part, alpha float64, x, y *mat.Dense) {
	if p != partAll && !b.isDiagonal() {
		lower := b.isStrictlyLower()
		if (p == partUpper) == lower {
			return
		}
	}
	switch b.kind {
	case kindFull:
		f := b.full
		if p != partAll && b.isDiagonal() {
			f = maskTriangle(f, p)
		}
		blas64.Gemm(blasTrans(trans), blas.NoTrans, alpha, f.RawMatrix(), x.RawMatrix(), 1, y.RawMatrix())
	case kindRk:
		if b.u == nil {
			return
		}
		left, right := b.u, b.v
		if trans {
			left, right = b.v, b.u
		}
		_, k := left.Dims()
		_, c := x.Dims()
		t := mat.NewDense(k, c, nil)
		t.Mul(right.T(), x)
		blas64.Gemm(blas.NoTrans, blas.NoTrans, alpha, left.RawMatrix(), t.RawMatrix(), 1, y.RawMatrix())
	default:
		for _, ch := range b.children {
			xo, xl := ch.colOff-b.colOff, ch.colLen
			yo, yl := ch.rowOff-b.rowOff, ch.rowLen
			if trans {
				xo, xl, yo, yl = yo, yl, xo, xl
			}
			ch.mulMat(trans, p, alpha, rowsView(x, xo, xl), rowsView(y, yo, yl))
		}
	}
}

// maskTriangle copies the selected triangle of a square leaf.
func maskTriangle(f *mat.Dense, p part) *mat.Dense {
	n, _ := f.Dims()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		src, dst := f.RawRowView(i), out.RawRowView(i)
		switch p {
		case partUpper:
			copy(dst[i:], src[i:])
		case partLower:
			copy(dst[:i+1], src[:i+1])
		case partUnitLower:
			copy(dst[:i], src[:i])
			dst[i] = 1
		}
	}
	return out
}

// product returns op(P(b))·x as a new matrix.
func (b *block) product(trans bool, p part, x *mat.Dense) *mat.Dense {
	rows := b.rowLen
	if trans {
		rows = b.colLen
	}
	_, c := x.Dims()
	y := mat.NewDense(rows, c, nil)
	b.mulMat(trans, p, 1, x, y)
	return y
}

// addDense performs b += alpha·d, d having the block's shape.
func (b *block) addDense(alpha float64, d *mat.Dense, eps float64) {
	switch b.kind {
	case kindFull:
		for i := 0; i < b.rowLen; i++ {
			floats.AddScaled(b.full.RawRowView(i), alpha, d.RawRowView(i))
		}
	case kindRk:
		lr := truncatedSVD(d, eps)
		if lr.u != nil {
			b.addRk(alpha, lr.u, lr.v, eps)
		}
	default:
		for _, ch := range b.children {
			ch.addDense(alpha, subView(d, ch.rowOff-b.rowOff, ch.colOff-b.colOff, ch.rowLen, ch.colLen), eps)
		}
	}
}

// addRk performs b += alpha·u·vᵀ with u (rowLen×k) and v (colLen×k).
func (b *block) addRk(alpha float64, u, v *mat.Dense, eps float64) {
	if u == nil {
		return
	}
	switch b.kind {
	case kindFull:
		blas64.Gemm(blas.NoTrans, blas.Trans, alpha, u.RawMatrix(), v.RawMatrix(), 1, b.full.RawMatrix())
	case kindRk:
		cu, cv := concatRk(b.u, b.v, alpha, u, v)
		lr := recompress(cu, cv, eps)
		b.u, b.v = lr.u, lr.v
	default:
		for _, ch := range b.children {
			ch.addRk(alpha,
				rowsView(u, ch.rowOff-b.rowOff, ch.rowLen),
				rowsView(v, ch.colOff-b.colOff, ch.colLen), eps)
		}
	}
}

// opRanges returns the row and column dof ranges of op(b).
func opRanges(b *block, trans bool) (rowOff, rowLen, colOff, colLen int) {
	if trans {
		return b.colOff, b.colLen, b.rowOff, b.rowLen
	}
	return b.rowOff, b.rowLen, b.colOff, b.colLen
}

// opChild returns child (i, j) of op(b).
func opChild(b *block, trans bool, i, j int) *block {
	if trans {
		return b.child(j, i)
	}
	return b.child(i, j)
}

func opGrid(b *block, trans bool) (nr, nc int) {
	if trans {
		return b.nc, b.nr
	}
	return b.nr, b.nc
}

// addProduct performs b += alpha·op(x)·op(y).
//
// Low-rank operands produce a low-rank update. Three hierarchical blocks on
// matching grids recurse; any other mix goes through a dense product.
func (b *block) addProduct(alpha float64, x *block, tx bool, y *block, ty bool, eps float64) {
	switch {
	case x.kind == kindRk:
		if x.u == nil {
			return
		}
		p, q := x.u, x.v
		if tx {
			p, q = x.v, x.u
		}
		// op(x)·op(y) = p·(op(y)ᵀ·q)ᵀ
		b.addRk(alpha, p, y.product(!ty, partAll, q), eps)
		return
	case y.kind == kindRk:
		if y.u == nil {
			return
		}
		p, q := y.u, y.v
		if ty {
			p, q = y.v, y.u
		}
		b.addRk(alpha, x.product(tx, partAll, p), q, eps)
		return
	case b.kind == kindHier && x.kind == kindHier && y.kind == kindHier && gridsAlign(b, x, tx, y, ty):
		xnr, xnc := opGrid(x, tx)
		_, ync := opGrid(y, ty)
		for i := 0; i < xnr; i++ {
			for j := 0; j < ync; j++ {
				bij := b.child(i, j)
				for k := 0; k < xnc; k++ {
					bij.addProduct(alpha, opChild(x, tx, i, k), tx, opChild(y, ty, k, j), ty, eps)
				}
			}
		}
		return
	}

	if b.rowLen <= b.colLen {
		// op(x)·op(y) = (op(y)ᵀ·op(x)ᵀ)ᵀ with op(x) expanded.
		xd := x.toDense()
		if !tx {
			xd = mat.DenseCopyOf(xd.T())
		}
		dt := y.product(!ty, partAll, xd)
		b.addDense(alpha, mat.DenseCopyOf(dt.T()), eps)
		return
	}
	yd := y.toDense()
	if ty {
		yd = mat.DenseCopyOf(yd.T())
	}
	b.addDense(alpha, x.product(tx, partAll, yd), eps)
}

// gridsAlign reports whether the children of op(a) and op(bb) tile the
// children of c.
func gridsAlign(c, a *block, ta bool, bb *block, tb bool) bool {
	anr, anc := opGrid(a, ta)
	bnr, bnc := opGrid(bb, tb)
	if anr != c.nr || bnc != c.nc || anc != bnr {
		return false
	}
	for i := 0; i < c.nr; i++ {
		for k := 0; k < anc; k++ {
			ro, rl, co, cl := opRanges(opChild(a, ta, i, k), ta)
			bro, brl, _, _ := opRanges(opChild(bb, tb, k, 0), tb)
			cr := c.child(i, 0)
			if ro != cr.rowOff || rl != cr.rowLen || co != bro || cl != brl {
				return false
			}
		}
	}
	for j := 0; j < c.nc; j++ {
		_, _, co, cl := opRanges(opChild(bb, tb, 0, j), tb)
		cc := c.child(0, j)
		if co != cc.colOff || cl != cc.colLen {
			return false
		}
	}
	return true
}
