// SPDX-License-Identifier: MIT
package hmat_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/geom"
	"github.com/katalvlaran/hcov/hmat"
	"github.com/katalvlaran/hcov/matrix"
)

const accuracy = 1e-7

func testParams(compression string) hmat.Parameters {
	p := hmat.DefaultParameters()
	p.AssemblyEpsilon = 1e-10
	p.RecompressionEpsilon = 1e-10
	p.AdmissibilityFactor = 2
	p.MaxLeafSize = 8
	p.CompressionMethod = compression
	p.Workers = 4
	return p
}

// expKernel is exp(-r/scale) plus nugget on the diagonal.
func expKernel(pts geom.Vertices, scale, nugget float64) hmat.AssemblyFunc {
	return func(i, j int) float64 {
		v := math.Exp(-floats.Distance(pts.Vertex(i), pts.Vertex(j), 2) / scale)
		if i == j {
			v += nugget
		}
		return v
	}
}

// skewKernel is non-symmetric with a positive definite symmetric part.
func skewKernel(pts geom.Vertices) hmat.AssemblyFunc {
	return func(i, j int) float64 {
		xi, xj := pts.Vertex(i), pts.Vertex(j)
		v := math.Exp(-floats.Distance(xi, xj, 2)) * (1 + 0.5*math.Tanh(xi[0]-xj[0]))
		if i == j {
			v += 2
		}
		return v
	}
}

func denseOf(f hmat.AssemblyFunction, n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, f.Coefficient(i, j))
		}
	}
	return d
}

func relErr(got, want mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(got, want)
	return mat.Norm(&diff, 2) / mat.Norm(want, 2)
}

func vecRelErr(got, want []float64) float64 {
	return floats.Distance(got, want, 2) / floats.Norm(want, 2)
}

func assembled(t *testing.T, pts geom.Vertices, f hmat.AssemblyFunction, symmetric bool, p hmat.Parameters) *hmat.HMatrix {
	t.Helper()
	h, err := hmat.Build(pts, 1, symmetric, p)
	require.NoError(t, err)
	require.Equal(t, hmat.StateEmpty, h.State())
	require.NoError(t, h.Assemble(f))
	require.Equal(t, hmat.StateAssembled, h.State())
	return h
}

func TestAssemble_MatchesDense(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 150, 2, 10)
	want := denseOf(expKernel(pts, 0.5, 0), 150)
	for _, method := range []string{hmat.CompressionAcaPartial, hmat.CompressionAcaFull, hmat.CompressionSvd} {
		for _, symmetric := range []bool{true, false} {
			method, symmetric := method, symmetric
			t.Run(method, func(t *testing.T) {
				t.Parallel()
				h := assembled(t, pts, expKernel(pts, 0.5, 0), symmetric, testParams(method))
				_, rk := h.LeafKinds()
				require.Positive(t, rk, "expected compressed blocks")

				got, err := h.Dense()
				require.NoError(t, err)
				require.Less(t, relErr(got, want), accuracy)
			})
		}
	}
}

// gaussKernel is exp(-r²/(2·scale²)).
func gaussKernel(pts geom.Vertices, scale float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		r := floats.Distance(pts.Vertex(i), pts.Vertex(j), 2) / scale
		return math.Exp(-0.5 * r * r)
	}
}

// coregionalized returns 2×2 point blocks B1·k1 + B2·k2 with B1 of rank one,
// so each output component has its own spatial structure.
func coregionalized(pts geom.Vertices) hmat.TensorAssemblyFunc {
	k1, k2 := gaussKernel(pts, 0.3), gaussKernel(pts, 0.6)
	b1 := [4]float64{1, 0.5, 0.5, 0.25}
	b2 := [4]float64{0.1, 0, 0, 1}
	return func(i, j int, out []float64) {
		c1, c2 := k1(i, j), k2(i, j)
		for a := range b1 {
			out[a] = b1[a]*c1 + b2[a]*c2
		}
	}
}

// strongCoupling is Σ·k with Σ = [[4, 1.8], [1.8, 1]] and a smooth k.
func strongCoupling(pts geom.Vertices) hmat.TensorAssemblyFunc {
	k := gaussKernel(pts, 0.4)
	sigma := [4]float64{4, 1.8, 1.8, 1}
	return func(i, j int, out []float64) {
		c := k(i, j)
		for a := range sigma {
			out[a] = sigma[a] * c
		}
	}
}

func TestAssembleTensor_MatchesScalar(t *testing.T) {
	t.Parallel()

	const d = 2
	pts := randomPoints(t, 80, 2, 11)
	kernels := map[string]hmat.TensorAssemblyFunc{
		"coregionalized": coregionalized(pts),
		"strong coupling": strongCoupling(pts),
	}
	for name, tensor := range kernels {
		tensor := tensor
		scalar := hmat.AssemblyFunc(func(i, j int) float64 {
			buf := make([]float64, d*d)
			tensor(i/d, j/d, buf)
			return buf[(i%d)*d+j%d]
		})
		want := denseOf(scalar, 160)
		for _, method := range []string{hmat.CompressionAcaPartial, hmat.CompressionAcaFull, hmat.CompressionSvd} {
			for _, clustering := range []string{hmat.ClusteringMedian, hmat.ClusteringGeometric, hmat.ClusteringHybrid} {
				p := testParams(method)
				p.ClusteringAlgorithm = clustering
				t.Run(name+"/"+method+"/"+clustering, func(t *testing.T) {
					t.Parallel()
					h, err := hmat.Build(pts, d, true, p)
					require.NoError(t, err)
					require.Equal(t, 160, h.Dim())
					require.Equal(t, d, h.OutputDimension())
					require.NoError(t, h.AssembleTensor(tensor))

					g, err := hmat.Build(pts, d, true, p)
					require.NoError(t, err)
					require.NoError(t, g.Assemble(scalar))

					for _, m := range []*hmat.HMatrix{h, g} {
						got, err := m.Dense()
						require.NoError(t, err)
						require.Less(t, relErr(got, want), accuracy)
					}
				})
			}
		}
	}
}

func TestGemv(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 120, 2, 12)
	f := skewKernel(pts)
	h := assembled(t, pts, f, false, testParams(hmat.CompressionAcaPartial))
	a := denseOf(f, 120)

	x := make([]float64, 120)
	y0 := make([]float64, 120)
	for i := range x {
		x[i] = math.Sin(float64(i))
		y0[i] = math.Cos(float64(i))
	}
	for _, trans := range []bool{false, true} {
		y := append([]float64(nil), y0...)
		require.NoError(t, h.Gemv(trans, 2, x, 0.5, y))

		want := mat.NewVecDense(120, append([]float64(nil), y0...))
		want.ScaleVec(0.5, want)
		var ax mat.VecDense
		if trans {
			ax.MulVec(a.T(), mat.NewVecDense(120, x))
		} else {
			ax.MulVec(a, mat.NewVecDense(120, x))
		}
		want.AddScaledVec(want, 2, &ax)
		require.Less(t, vecRelErr(y, want.RawVector().Data), accuracy)
	}

	require.ErrorIs(t, h.Gemv(false, 1, x[:3], 0, y0), hcov.ErrInvalidDimension)
}

func TestFactorizeLLt_Solve(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 200, 2, 13)
	f := expKernel(pts, 0.3, 1e-2)
	a := denseOf(f, 200)
	for _, method := range []string{hmat.CompressionAcaPartial, hmat.CompressionSvd} {
		method := method
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			h := assembled(t, pts, f, true, testParams(method))
			require.NoError(t, h.Factorize(hmat.FactorizationLLt))
			require.Equal(t, hmat.StateFactorized, h.State())
			require.Equal(t, hmat.FactorizationLLt, h.Factorization())

			b := make([]float64, 200)
			for i := range b {
				b[i] = 1 + float64(i%7)
			}
			x, err := h.Solve(b, false)
			require.NoError(t, err)
			var ax mat.VecDense
			ax.MulVec(a, mat.NewVecDense(200, x))
			require.Less(t, vecRelErr(ax.RawVector().Data, b), 1e-5)

			bm := mat.NewDense(200, 3, nil)
			for i := 0; i < 200; i++ {
				bm.SetRow(i, []float64{b[i], float64(i), -1})
			}
			xm, err := h.SolveMatrix(bm, false)
			require.NoError(t, err)
			var axm mat.Dense
			axm.Mul(a, xm)
			require.Less(t, relErr(&axm, bm), 1e-5)
		})
	}
}

func TestFactorizeLLt_LowerFactor(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 100, 2, 14)
	f := expKernel(pts, 0.3, 1e-2)
	h := assembled(t, pts, f, true, testParams(hmat.CompressionAcaPartial))
	require.NoError(t, h.Factorize(""))

	id := mat.NewDense(100, 100, nil)
	for i := 0; i < 100; i++ {
		id.Set(i, i, 1)
	}
	l, err := h.MulMatrix(false, id)
	require.NoError(t, err)
	var llt mat.Dense
	llt.Mul(l, l.T())
	require.Less(t, relErr(&llt, denseOf(f, 100)), 1e-6)

	b := make([]float64, 100)
	for i := range b {
		b[i] = float64(i%5) - 2
	}
	for _, trans := range []bool{false, true} {
		z, err := h.SolveLower(b, trans)
		require.NoError(t, err)
		back := make([]float64, 100)
		require.NoError(t, h.Gemv(trans, 1, z, 0, back))
		require.Less(t, vecRelErr(back, b), 1e-8)
	}
}

func TestFactorizeLU_Solve(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 150, 2, 15)
	f := skewKernel(pts)
	a := denseOf(f, 150)
	p := testParams(hmat.CompressionAcaPartial)
	p.FactorizationMethod = hmat.FactorizationLU
	h := assembled(t, pts, f, false, p)
	require.NoError(t, h.Factorize(""))
	require.Equal(t, hmat.FactorizationLU, h.Factorization())

	b := make([]float64, 150)
	for i := range b {
		b[i] = math.Cos(0.1 * float64(i))
	}
	for _, trans := range []bool{false, true} {
		x, err := h.Solve(b, trans)
		require.NoError(t, err)
		var ax mat.VecDense
		if trans {
			ax.MulVec(a.T(), mat.NewVecDense(150, x))
		} else {
			ax.MulVec(a, mat.NewVecDense(150, x))
		}
		require.Less(t, vecRelErr(ax.RawVector().Data, b), 1e-6)

		// Gemv on LU factors applies L·U, which reproduces A.
		y := make([]float64, 150)
		require.NoError(t, h.Gemv(trans, 1, x, 0, y))
		require.Less(t, vecRelErr(y, b), 1e-6)
	}

	z, err := h.SolveLower(b, false)
	require.NoError(t, err)
	require.Len(t, z, 150)
}

func TestFactorize_StateErrors(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 30, 1, 16)
	p := testParams(hmat.CompressionSvd)

	h, err := hmat.Build(pts, 1, false, p)
	require.NoError(t, err)
	require.ErrorIs(t, h.Factorize(hmat.FactorizationLU), hcov.ErrInvalidArgument, "not assembled")
	_, err = h.Solve(make([]float64, 30), false)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable, "empty")
	require.ErrorIs(t, h.Scale(2), hcov.ErrInvalidArgument)

	require.NoError(t, h.Assemble(skewKernel(pts)))
	b := make([]float64, 30)
	_, err = h.Solve(b, false)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable, "assembled")
	_, err = h.SolveMatrix(mat.NewDense(30, 2, nil), true)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
	_, err = h.SolveLower(b, false)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
	_, err = h.SolveLowerMatrix(mat.NewDense(30, 2, nil), false)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
	require.ErrorIs(t, h.Factorize(hmat.FactorizationLLt), hcov.ErrInvalidArgument, "LLt on non-symmetric")
	require.ErrorIs(t, h.Factorize("QR"), hcov.ErrInvalidArgument)
	require.Equal(t, hmat.StateAssembled, h.State())

	require.NoError(t, h.Factorize(hmat.FactorizationLU))
	require.ErrorIs(t, h.Factorize(hmat.FactorizationLU), hcov.ErrInvalidArgument, "already factorized")
	require.ErrorIs(t, h.Transpose(), hcov.ErrInvalidArgument)
}

func TestFactorize_NotPositiveDefinite(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 40, 2, 17)
	k := expKernel(pts, 0.3, 0)
	neg := hmat.AssemblyFunc(func(i, j int) float64 { return -k(i, j) })
	h := assembled(t, pts, neg, true, testParams(hmat.CompressionSvd))

	err := h.Factorize(hmat.FactorizationLLt)
	require.ErrorIs(t, err, hcov.ErrNotPositiveDefinite)
	require.Equal(t, hmat.StateFailed, h.State())

	require.ErrorIs(t, h.Gemv(false, 1, make([]float64, 40), 0, make([]float64, 40)), hcov.ErrNotFactorizable)
	_, err = h.Solve(make([]float64, 40), false)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
	require.ErrorIs(t, h.Factorize(hmat.FactorizationLLt), hcov.ErrNotFactorizable)
	_, err = h.Norm()
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
}

func TestFactorizeLU_Singular(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 20, 1, 18)
	p := testParams(hmat.CompressionSvd)
	p.MaxLeafSize = 32
	h := assembled(t, pts, hmat.AssemblyFunc(func(i, j int) float64 { return 1 }), false, p)

	err := h.Factorize(hmat.FactorizationLU)
	require.ErrorIs(t, err, hcov.ErrNotFactorizable)
	require.ErrorIs(t, err, matrix.ErrSingular)
	require.Contains(t, err.Error(), "leaf at dof 0")
	require.Equal(t, hmat.StateFailed, h.State())
}

func TestCopy_Independent(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 80, 2, 19)
	h := assembled(t, pts, expKernel(pts, 0.5, 0), true, testParams(hmat.CompressionAcaPartial))
	before, err := h.Dense()
	require.NoError(t, err)

	c := h.Copy()
	require.NoError(t, c.Scale(3))
	require.NoError(t, c.AddIdentity(1))
	require.NotSame(t, h.ClusterTree(), c.ClusterTree())

	after, err := h.Dense()
	require.NoError(t, err)
	require.True(t, mat.Equal(before, after), "copy must not alias the original")

	scaled, err := c.Dense()
	require.NoError(t, err)
	want := mat.DenseCopyOf(before)
	want.Scale(3, want)
	for i := 0; i < 80; i++ {
		want.Set(i, i, want.At(i, i)+1)
	}
	require.Less(t, relErr(scaled, want), 1e-12)
}

func TestTranspose(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 90, 2, 20)
	f := skewKernel(pts)
	h := assembled(t, pts, f, false, testParams(hmat.CompressionAcaFull))
	require.NoError(t, h.Transpose())

	got, err := h.Dense()
	require.NoError(t, err)
	want := mat.DenseCopyOf(denseOf(f, 90).T())
	require.Less(t, relErr(got, want), accuracy)
}

func TestGemm(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 100, 2, 21)
	fa, fb := skewKernel(pts), expKernel(pts, 0.4, 0.5)
	p := testParams(hmat.CompressionAcaPartial)
	a := assembled(t, pts, fa, false, p)
	b := assembled(t, pts, fb, true, p)
	c := assembled(t, pts, expKernel(pts, 0.2, 0), true, p)

	require.NoError(t, c.Gemm(false, true, 0.5, a, b, 2))
	require.False(t, c.Symmetric())

	var want mat.Dense
	want.Mul(denseOf(fa, 100), denseOf(fb, 100).T())
	want.Scale(0.5, &want)
	cd := denseOf(expKernel(pts, 0.2, 0), 100)
	cd.Scale(2, cd)
	want.Add(&want, cd)

	got, err := c.Dense()
	require.NoError(t, err)
	require.Less(t, relErr(got, &want), 1e-6)

	require.ErrorIs(t, c.Gemm(false, false, 1, c, b, 0), hcov.ErrInvalidArgument)
}

func TestDiagonalNormAndRatios(t *testing.T) {
	t.Parallel()

	pts := randomPoints(t, 300, 1, 22)
	f := expKernel(pts, 0.2, 0.1)
	p := testParams(hmat.CompressionAcaPartial)
	p.MaxLeafSize = 16
	h := assembled(t, pts, f, true, p)
	a := denseOf(f, 300)

	diag, err := h.Diagonal()
	require.NoError(t, err)
	for i, v := range diag {
		require.InDelta(t, a.At(i, i), v, 1e-12)
	}

	norm, err := h.Norm()
	require.NoError(t, err)
	require.InEpsilon(t, mat.Norm(a, 2), norm, 1e-6)

	compressed, uncompressed := h.CompressionRatio()
	require.Equal(t, 300*300, uncompressed)
	require.Less(t, compressed, uncompressed)
	full, rk := h.FullRkRatio()
	require.Equal(t, compressed, full+rk)
	require.Positive(t, rk)
	require.Contains(t, h.String(), "assembled")
}

func TestBuild_Errors(t *testing.T) {
	pts := randomPoints(t, 10, 2, 23)
	p := testParams(hmat.CompressionSvd)

	_, err := hmat.Build(pts, 0, true, p)
	require.ErrorIs(t, err, hcov.ErrInvalidDimension)

	bad := p
	bad.AssemblyEpsilon = 0
	_, err = hmat.Build(pts, 1, true, bad)
	require.ErrorIs(t, err, hcov.ErrInvalidArgument)

	restore := hmat.SetBackendAvailable(false)
	defer restore()
	require.False(t, hmat.IsAvailable())
	_, err = hmat.Build(pts, 1, true, p)
	require.ErrorIs(t, err, hcov.ErrNotYetImplemented)
}

func TestParameters_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, hmat.DefaultParameters().Validate())
	tests := []struct {
		name   string
		mutate func(*hmat.Parameters)
	}{
		{"assembly epsilon", func(p *hmat.Parameters) { p.AssemblyEpsilon = -1 }},
		{"recompression epsilon", func(p *hmat.Parameters) { p.RecompressionEpsilon = math.Inf(1) }},
		{"admissibility", func(p *hmat.Parameters) { p.AdmissibilityFactor = math.NaN() }},
		{"leaf size", func(p *hmat.Parameters) { p.MaxLeafSize = 0 }},
		{"balance ratio", func(p *hmat.Parameters) { p.HybridBalanceRatio = 0.5 }},
		{"clustering", func(p *hmat.Parameters) { p.ClusteringAlgorithm = "kd" }},
		{"compression", func(p *hmat.Parameters) { p.CompressionMethod = "Random" }},
		{"factorization", func(p *hmat.Parameters) { p.FactorizationMethod = "QR" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := hmat.DefaultParameters()
			tc.mutate(&p)
			require.ErrorIs(t, p.Validate(), hcov.ErrInvalidArgument)
		})
	}
}
