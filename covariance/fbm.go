// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// fbm is the multivariate fractional Brownian motion of Amblard and
// Coeurjolly on a 1-D input. For outputs i and j with H = H_i + H_j and
// scaled times s, t:
//
//	C_ij = σ_iσ_j/2·[(ρ_ij + η_ij·sgn s)|s|^H + (ρ_ij − η_ij·sgn t)|t|^H − (ρ_ij − η_ij·sgn(t−s))|t−s|^H]
//
// and, when H = 1,
//
//	C_ij = σ_iσ_j/2·[ρ_ij(|s| + |t| − |t−s|) + η_ij(t·log|t| − s·log|s| − (t−s)·log|t−s|)].
//
// η is antisymmetric; ρ is the output correlation.
type fbm struct {
	exponent []float64
	eta      *mat.Dense
}

const fbmLogCaseTolerance = 1e-12

func (fbm) kind() string     { return KindFractionalBrownianMotion }
func (fbm) stationary() bool { return false }
func (fbm) parallel() bool   { return true }

func (k fbm) extras() []float64 { return append([]float64(nil), k.exponent...) }

func (k fbm) extraNames() []string {
	names := make([]string, len(k.exponent))
	for i := range names {
		names[i] = fmt.Sprintf("exponent_%d", i)
	}
	return names
}

func (k fbm) withExtras(p []float64) (kernel, error) {
	if len(p) != len(k.exponent) {
		return nil, fmt.Errorf("%s takes %d exponents, got %d: %w", KindFractionalBrownianMotion, len(k.exponent), len(p), ErrInvalidArgument)
	}
	for i, h := range p {
		if !(h > 0 && h < 1) {
			return nil, fmt.Errorf("%s exponent %d=%g outside (0,1): %w", KindFractionalBrownianMotion, i, h, ErrInvalidArgument)
		}
	}
	return fbm{exponent: append([]float64(nil), p...), eta: k.eta}, nil
}

// rho is the normalized first component: ½(|s|^{2H} + |t|^{2H} − |t−s|^{2H}).
func (k fbm) rho(s, t, scale []float64) float64 {
	return k.component(0, 0, 1, 0, s[0]/scale[0], t[0]/scale[0])
}

func (k fbm) evaluate(m *implementation, s, t, out []float64) {
	d := m.outputDim
	x, y := s[0]/m.scale[0], t[0]/m.scale[0]
	r := m.corr.Sym()
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = m.amplitude[i] * m.amplitude[j] * k.component(i, j, r.At(i, j), k.eta.At(i, j), x, y)
		}
	}
}

func (k fbm) component(i, j int, rho, eta, s, t float64) float64 {
	h := k.exponent[i] + k.exponent[j]
	if math.Abs(h-1) < fbmLogCaseTolerance {
		return 0.5 * (rho*(math.Abs(s)+math.Abs(t)-math.Abs(t-s)) +
			eta*(xlogx(t)-xlogx(s)-xlogx(t-s)))
	}
	return 0.5 * ((rho+eta*sign(s))*math.Pow(math.Abs(s), h) +
		(rho-eta*sign(t))*math.Pow(math.Abs(t), h) -
		(rho-eta*sign(t-s))*math.Pow(math.Abs(t-s), h))
}

func xlogx(x float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(math.Abs(x))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
