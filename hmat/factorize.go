// SPDX-License-Identifier: MIT

package hmat

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/matrix"
)

// llt overwrites the diagonal block b with its Cholesky factor L. The
// strictly upper part of diagonal leaves is cleared; strictly upper
// off-diagonal blocks are left untouched and never read afterwards.
func (b *block) llt(eps float64) error {
	switch b.kind {
	case kindFull:
		raw := b.full.RawMatrix()
		sym := blas64.Symmetric{Uplo: blas.Lower, N: raw.Rows, Stride: raw.Stride, Data: raw.Data}
		if _, ok := lapack64.Potrf(sym); !ok {
			return fmt.Errorf("leaf at dof %d: %w", b.rowOff, ErrNotPositiveDefinite)
		}
		for i := 0; i < raw.Rows; i++ {
			row := b.full.RawRowView(i)
			for j := i + 1; j < raw.Cols; j++ {
				row[j] = 0
			}
		}
		return nil
	case kindRk:
		return fmt.Errorf("low-rank diagonal block at dof %d: %w", b.rowOff, ErrNotFactorizable)
	}

	n := b.nr
	for k := 0; k < n; k++ {
		lkk := b.child(k, k)
		if err := lkk.llt(eps); err != nil {
			return err
		}
		for i := k + 1; i < n; i++ {
			b.child(i, k).solveRightLowerTrans(lkk, eps)
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j <= i; j++ {
				b.child(i, j).addProduct(-1, b.child(i, k), false, b.child(j, k), true, eps)
			}
		}
	}

	return nil
}

// lu overwrites the diagonal block b with its unpivoted factors: unit
// lower L below the diagonal, U on and above it.
func (b *block) lu(eps float64) error {
	switch b.kind {
	case kindFull:
		if err := matrix.LUInPlace(b.full); err != nil {
			return fmt.Errorf("leaf at dof %d: %w", b.rowOff, err)
		}
		return nil
	case kindRk:
		return fmt.Errorf("low-rank diagonal block at dof %d: %w", b.rowOff, ErrNotFactorizable)
	}

	n := b.nr
	for k := 0; k < n; k++ {
		dkk := b.child(k, k)
		if err := dkk.lu(eps); err != nil {
			return err
		}
		for i := k + 1; i < n; i++ {
			b.child(i, k).solveRightUpper(dkk, eps)
		}
		for j := k + 1; j < n; j++ {
			b.child(k, j).solveLeftUnitLower(dkk, eps)
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j < n; j++ {
				b.child(i, j).addProduct(-1, b.child(i, k), false, b.child(k, j), false, eps)
			}
		}
	}

	return nil
}

// lowerSolve overwrites x with op(L)⁻¹·x, L being the lower triangle of the
// diagonal block l (unit diagonal when unit is set).
func lowerSolve(l *block, x *mat.Dense, unit, trans bool) {
	if l.kind == kindFull {
		tri := matrix.UnitLower(l.full)
		if !unit {
			tri.Diag = blas.NonUnit
		}
		blas64.Trsm(blas.Left, blasTrans(trans), 1, tri, x.RawMatrix())
		return
	}

	n := l.nr
	view := func(k int) *mat.Dense {
		c := l.child(k, k)
		return rowsView(x, c.rowOff-l.rowOff, c.rowLen)
	}
	if !trans {
		for k := 0; k < n; k++ {
			xk := view(k)
			for j := 0; j < k; j++ {
				l.child(k, j).mulMat(false, partAll, -1, view(j), xk)
			}
			lowerSolve(l.child(k, k), xk, unit, false)
		}
		return
	}
	for k := n - 1; k >= 0; k-- {
		xk := view(k)
		for i := k + 1; i < n; i++ {
			l.child(i, k).mulMat(true, partAll, -1, view(i), xk)
		}
		lowerSolve(l.child(k, k), xk, unit, true)
	}
}

// upperSolve overwrites x with op(U)⁻¹·x, U being the upper triangle of the
// diagonal block u.
func upperSolve(u *block, x *mat.Dense, trans bool) {
	if u.kind == kindFull {
		blas64.Trsm(blas.Left, blasTrans(trans), 1, matrix.Upper(u.full), x.RawMatrix())
		return
	}

	n := u.nr
	view := func(k int) *mat.Dense {
		c := u.child(k, k)
		return rowsView(x, c.rowOff-u.rowOff, c.rowLen)
	}
	if !trans {
		for k := n - 1; k >= 0; k-- {
			xk := view(k)
			for j := k + 1; j < n; j++ {
				u.child(k, j).mulMat(false, partAll, -1, view(j), xk)
			}
			upperSolve(u.child(k, k), xk, false)
		}
		return
	}
	for k := 0; k < n; k++ {
		xk := view(k)
		for i := 0; i < k; i++ {
			u.child(i, k).mulMat(true, partAll, -1, view(i), xk)
		}
		upperSolve(u.child(k, k), xk, true)
	}
}

// solveRightLowerTrans overwrites b with b·L⁻ᵀ, L being the lower factor
// held by the diagonal block l.
func (b *block) solveRightLowerTrans(l *block, eps float64) {
	switch b.kind {
	case kindRk:
		if b.u != nil {
			lowerSolve(l, b.v, false, false)
		}
	case kindFull:
		t := mat.DenseCopyOf(b.full.T())
		lowerSolve(l, t, false, false)
		b.full = mat.DenseCopyOf(t.T())
	default:
		if l.kind != kindHier {
			b.solveRightDense(func(t *mat.Dense) { lowerSolve(l, t, false, false) }, eps)
			return
		}
		// X_ij·L_jjᵀ = B_ij − Σ_{m<j} X_im·L_jmᵀ
		for j := 0; j < b.nc; j++ {
			for i := 0; i < b.nr; i++ {
				bij := b.child(i, j)
				for m := 0; m < j; m++ {
					bij.addProduct(-1, b.child(i, m), false, l.child(j, m), true, eps)
				}
				bij.solveRightLowerTrans(l.child(j, j), eps)
			}
		}
	}
}

// solveRightUpper overwrites b with b·U⁻¹, U being the upper factor held by
// the diagonal block u.
func (b *block) solveRightUpper(u *block, eps float64) {
	switch b.kind {
	case kindRk:
		if b.u != nil {
			upperSolve(u, b.v, true)
		}
	case kindFull:
		t := mat.DenseCopyOf(b.full.T())
		upperSolve(u, t, true)
		b.full = mat.DenseCopyOf(t.T())
	default:
		if u.kind != kindHier {
			b.solveRightDense(func(t *mat.Dense) { upperSolve(u, t, true) }, eps)
			return
		}
		// X_ij·U_jj = B_ij − Σ_{m<j} X_im·U_mj
		for j := 0; j < b.nc; j++ {
			for i := 0; i < b.nr; i++ {
				bij := b.child(i, j)
				for m := 0; m < j; m++ {
					bij.addProduct(-1, b.child(i, m), false, u.child(m, j), false, eps)
				}
				bij.solveRightUpper(u.child(j, j), eps)
			}
		}
	}
}

// solveLeftUnitLower overwrites b with L⁻¹·b, L being the unit lower factor
// held by the diagonal block l.
func (b *block) solveLeftUnitLower(l *block, eps float64) {
	switch b.kind {
	case kindRk:
		if b.u != nil {
			lowerSolve(l, b.u, true, false)
		}
	case kindFull:
		lowerSolve(l, b.full, true, false)
	default:
		if l.kind != kindHier {
			d := b.toDense()
			lowerSolve(l, d, true, false)
			b.replaceDense(d, eps)
			return
		}
		// L_ii·X_ij = B_ij − Σ_{m<i} L_im·X_mj
		for i := 0; i < b.nr; i++ {
			for j := 0; j < b.nc; j++ {
				bij := b.child(i, j)
				for m := 0; m < i; m++ {
					bij.addProduct(-1, l.child(i, m), false, b.child(m, j), false, eps)
				}
				bij.solveLeftUnitLower(l.child(i, i), eps)
			}
		}
	}
}

// solveRightDense applies a right solve through an expanded copy; solve
// receives bᵀ and overwrites it.
func (b *block) solveRightDense(solve func(t *mat.Dense), eps float64) {
	t := mat.DenseCopyOf(b.toDense().T())
	solve(t)
	b.replaceDense(mat.DenseCopyOf(t.T()), eps)
}

// replaceDense overwrites the stored content of b with d.
func (b *block) replaceDense(d *mat.Dense, eps float64) {
	b.walkLeaves(func(l *block) {
		switch l.kind {
		case kindFull:
			l.full.Zero()
		case kindRk:
			l.u, l.v = nil, nil
		}
	})
	b.addDense(1, d, eps)
}
