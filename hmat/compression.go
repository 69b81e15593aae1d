// SPDX-License-Identifier: MIT

package hmat

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// lowRank is an rk factor pair U·Vᵀ; nil factors mean rank 0.
type lowRank struct {
	u, v *mat.Dense
}

// fromColumns stacks the given vectors as matrix columns.
func fromColumns(rows int, cols [][]float64) *mat.Dense {
	if len(cols) == 0 {
		return nil
	}
	m := mat.NewDense(rows, len(cols), nil)
	for j, c := range cols {
		m.SetCol(j, c)
	}
	return m
}

// compressBlock approximates the generator block rowPts×colPts.
func compressBlock(g generator, rowPts, colPts []int, d int, p Parameters) lowRank {
	var lr lowRank
	switch p.CompressionMethod {
	case CompressionAcaPartial:
		lr = acaPartial(g, rowPts, colPts, d, p.AssemblyEpsilon)
	case CompressionAcaFull:
		dense := mat.NewDense(len(rowPts)*d, len(colPts)*d, nil)
		g.fill(dense, rowPts, colPts)
		lr = acaFull(dense, p.AssemblyEpsilon)
	default:
		dense := mat.NewDense(len(rowPts)*d, len(colPts)*d, nil)
		g.fill(dense, rowPts, colPts)
		lr = truncatedSVD(dense, p.AssemblyEpsilon)
	}
	if lr.u == nil {
		return lr
	}

	return recompress(lr.u, lr.v, p.RecompressionEpsilon)
}

// acaPartial runs adaptive cross approximation with partial pivoting. Only
// the pivot rows and columns are generated; point rows and columns are
// cached since one generator call yields d dof rows or columns.
//
// A step is small when ‖u_k‖‖v_k‖ ≤ eps·‖S_k‖_F, with ‖S_k‖_F updated
// incrementally. A small step only ends the iteration once the residual
// rows of every component of the pivot point, and of one further unvisited
// point, are below eps·‖S_k‖_F as well; otherwise the first offending row
// becomes the next pivot. Column pivots are never reused.
func acaPartial(g generator, rowPts, colPts []int, d int, eps float64) lowRank {
	m, n := len(rowPts)*d, len(colPts)*d
	maxRank := min(m, n)

	rowCache := make(map[int]*mat.Dense)
	colCache := make(map[int]*mat.Dense)
	row := func(i int) []float64 {
		p := i / d
		buf, ok := rowCache[p]
		if !ok {
			buf = mat.NewDense(d, n, nil)
			g.fill(buf, rowPts[p:p+1], colPts)
			rowCache[p] = buf
		}
		return mat.Row(nil, i%d, buf)
	}
	col := func(j int) []float64 {
		q := j / d
		buf, ok := colCache[q]
		if !ok {
			buf = mat.NewDense(m, d, nil)
			g.fill(buf, rowPts, colPts[q:q+1])
			colCache[q] = buf
		}
		return mat.Col(nil, j%d, buf)
	}

	var us, vs [][]float64
	residualRow := func(i int) []float64 {
		r := row(i)
		for l := range us {
			floats.AddScaled(r, -us[l][i], vs[l])
		}
		return r
	}

	usedRow := make([]bool, m)
	usedCol := make([]bool, n)
	cursor := 0
	// unconverged returns an unused row among the pivot point's components
	// and the next unvisited point whose residual norm exceeds tol, or -1.
	unconverged := func(pivot int, tol float64) int {
		candidates := make([]int, 0, 2*d)
		base := pivot / d * d
		for a := 0; a < d; a++ {
			if !usedRow[base+a] {
				candidates = append(candidates, base+a)
			}
		}
		for k := 0; k < len(rowPts); k++ {
			q := (cursor + k) % len(rowPts)
			if q == pivot/d || usedRow[q*d] {
				continue
			}
			for a := 0; a < d; a++ {
				if !usedRow[q*d+a] {
					candidates = append(candidates, q*d+a)
				}
			}
			cursor = q + 1
			break
		}
		for _, i := range candidates {
			if floats.Norm(residualRow(i), 2) > tol {
				return i
			}
		}
		return -1
	}

	var norm2 float64
	pivot := 0
	for len(us) < maxRank && pivot >= 0 {
		r := residualRow(pivot)
		usedRow[pivot] = true

		jmax, best := -1, 0.0
		for j, x := range r {
			if !usedCol[j] && math.Abs(x) > best {
				jmax, best = j, math.Abs(x)
			}
		}
		if jmax < 0 {
			pivot = nextUnused(usedRow)
			continue
		}
		usedCol[jmax] = true
		floats.Scale(1/r[jmax], r)
		v := r

		u := col(jmax)
		for l := range us {
			floats.AddScaled(u, -vs[l][jmax], us[l])
		}

		uu, vv := floats.Dot(u, u), floats.Dot(v, v)
		var cross float64
		for l := range us {
			cross += floats.Dot(u, us[l]) * floats.Dot(v, vs[l])
		}
		norm2 += uu*vv + 2*cross
		us, vs = append(us, u), append(vs, v)

		tol := eps * math.Sqrt(math.Abs(norm2))
		if math.Sqrt(uu*vv) <= tol {
			pivot = unconverged(pivot, tol)
			continue
		}

		pivot = -1
		best = -1.0
		for i, ok := range usedRow {
			if !ok && math.Abs(u[i]) > best {
				pivot, best = i, math.Abs(u[i])
			}
		}
	}

	return lowRank{u: fromColumns(m, us), v: fromColumns(n, vs)}
}

func absInto(dst, src []float64) []float64 {
	for i, x := range src {
		dst[i] = math.Abs(x)
	}
	return dst
}

func nextUnused(used []bool) int {
	for i, ok := range used {
		if !ok {
			return i
		}
	}
	return -1
}

// acaFull runs cross approximation with full pivoting on an explicit block
// until ‖R‖_F ≤ eps·‖A‖_F. a is consumed.
func acaFull(a *mat.Dense, eps float64) lowRank {
	m, n := a.Dims()
	normA := mat.Norm(a, 2)
	if normA == 0 {
		return lowRank{}
	}
	raw := a.RawMatrix()
	var us, vs [][]float64
	for len(us) < min(m, n) {
		if mat.Norm(a, 2) <= eps*normA {
			break
		}
		imax, jmax, best := 0, 0, -1.0
		for i := 0; i < m; i++ {
			rowData := raw.Data[i*raw.Stride : i*raw.Stride+n]
			j := floats.MaxIdx(absInto(make([]float64, n), rowData))
			if math.Abs(rowData[j]) > best {
				imax, jmax, best = i, j, math.Abs(rowData[j])
			}
		}
		if best == 0 {
			break
		}
		u := mat.Col(nil, jmax, a)
		v := mat.Row(nil, imax, a)
		floats.Scale(1/v[jmax], v)
		blas64.Ger(-1, blas64.Vector{N: m, Inc: 1, Data: u}, blas64.Vector{N: n, Inc: 1, Data: v}, raw)
		us, vs = append(us, u), append(vs, v)
	}

	return lowRank{u: fromColumns(m, us), v: fromColumns(n, vs)}
}

// truncatedSVD keeps the singular triplets with σ_i > eps·σ_0, folding Σ
// into U.
func truncatedSVD(a mat.Matrix, eps float64) lowRank {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return lowRank{u: mat.DenseCopyOf(a), v: identity(a)}
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 {
		return lowRank{}
	}
	r := 0
	for r < len(s) && s[r] > eps*s[0] {
		r++
	}
	var uf, vf mat.Dense
	svd.UTo(&uf)
	svd.VTo(&vf)
	m, _ := uf.Dims()
	n, _ := vf.Dims()
	u := mat.DenseCopyOf(uf.Slice(0, m, 0, r))
	for i := 0; i < m; i++ {
		floats.Mul(u.RawRowView(i), s[:r])
	}

	return lowRank{u: u, v: mat.DenseCopyOf(vf.Slice(0, n, 0, r))}
}

// identity returns the n×n identity for the column count of a.
func identity(a mat.Matrix) *mat.Dense {
	_, n := a.Dims()
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// recompress reduces U·Vᵀ to the smallest rank keeping σ_i > eps·σ_0 via
// U = Qu·Ru, V = Qv·Rv and an SVD of the small Ru·Rvᵀ.
func recompress(u, v *mat.Dense, eps float64) lowRank {
	if u == nil {
		return lowRank{}
	}
	m, k := u.Dims()
	n, _ := v.Dims()
	if k >= m || k >= n {
		var prod mat.Dense
		prod.Mul(u, v.T())
		return truncatedSVD(&prod, eps)
	}

	qu, ru := thinQR(u)
	qv, rv := thinQR(v)
	var core mat.Dense
	core.Mul(ru, rv.T())
	small := truncatedSVD(&core, eps)
	if small.u == nil {
		return lowRank{}
	}
	var nu, nv mat.Dense
	nu.Mul(qu, small.u)
	nv.Mul(qv, small.v)

	return lowRank{u: &nu, v: &nv}
}

// thinQR returns Q (m×k, orthonormal columns) and R (k×k) of a (m×k, m ≥ k).
func thinQR(a *mat.Dense) (*mat.Dense, *mat.Dense) {
	_, k := a.Dims()
	q := mat.DenseCopyOf(a)
	raw := q.RawMatrix()
	tau := make([]float64, k)

	work := make([]float64, 1)
	lapack64.Geqrf(raw, tau, work, -1)
	work = make([]float64, max(1, int(work[0])))
	lapack64.Geqrf(raw, tau, work, len(work))

	r := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			r.Set(i, j, raw.Data[i*raw.Stride+j])
		}
	}

	lapack64.Orgqr(raw, tau, work, -1)
	if need := int(work[0]); need > len(work) {
		work = make([]float64, need)
	}
	lapack64.Orgqr(raw, tau, work, len(work))

	return q, r
}

// concatRk returns [u1 | alpha·u2], [v1 | v2]; either pair may be rank 0.
func concatRk(u1, v1 *mat.Dense, alpha float64, u2, v2 *mat.Dense) (*mat.Dense, *mat.Dense) {
	if u1 == nil {
		u := mat.DenseCopyOf(u2)
		u.Scale(alpha, u)
		return u, mat.DenseCopyOf(v2)
	}
	m, k1 := u1.Dims()
	n, _ := v1.Dims()
	_, k2 := u2.Dims()
	u := mat.NewDense(m, k1+k2, nil)
	v := mat.NewDense(n, k1+k2, nil)
	subView(u, 0, 0, m, k1).Copy(u1)
	subView(v, 0, 0, n, k1).Copy(v1)
	us := subView(u, 0, k1, m, k2)
	us.Scale(alpha, u2)
	subView(v, 0, k1, n, k2).Copy(v2)

	return u, v
}
