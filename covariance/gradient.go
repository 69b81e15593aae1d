// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/config"
)

func fdStep() float64 { return config.Default().Float(config.CovarianceFiniteDifferenceStep) }

// flatten writes the row-major d×d block c into dst column-major.
func flatten(dst, c []float64, d int) {
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			dst[i+j*d] = c[i*d+j]
		}
	}
}

func (m *implementation) gradientGuard(op string, s, t []float64) error {
	if err := m.checkPoint(op, s); err != nil {
		return err
	}
	if err := m.checkPoint(op, t); err != nil {
		return err
	}
	if _, ok := m.k.(dirac); ok {
		return covErrorf(op, fmt.Errorf("%s has no gradient: %w", KindDirac, ErrNotYetImplemented))
	}
	return nil
}

// separable reports whether C = Σ·ρ, with ρ radial when r is non-nil.
func (m *implementation) separable() (r radial, ok bool) {
	if _, ev := m.k.(evaluator); ev {
		return nil, false
	}
	r, _ = asRadial(m.k)
	return r, true
}

// PartialGradient returns ∂C/∂s as an inputDim × outputDim² matrix; row k
// holds ∂C(s,t)/∂s_k flattened column-major. Radial kernels are
// differentiated analytically (0 at s = t), other kernels by centered
// finite differences.
func (m Model) PartialGradient(s, t []float64) (*mat.Dense, error) {
	impl := m.impl
	if err := impl.gradientGuard(opPartialGradient, s, t); err != nil {
		return nil, err
	}
	n, d := impl.inputDim, impl.outputDim
	grad := mat.NewDense(n, d*d, nil)
	block := make([]float64, d*d)

	if rad, ok := impl.separable(); ok && rad != nil {
		r := scaledNorm(s, t, impl.scale)
		if r == 0 {
			return grad, nil
		}
		g := rad.slope(r) / r
		// unit-ρ block: Σ
		impl.evalSigma(block)
		for k := 0; k < n; k++ {
			dk := g * (s[k] - t[k]) / (impl.scale[k] * impl.scale[k])
			row := grad.RawRowView(k)
			flatten(row, block, d)
			for c := range row {
				row[c] *= dk
			}
		}
		return grad, nil
	}

	h := fdStep()
	x := slices.Clone(s)
	plus, minus := make([]float64, d*d), make([]float64, d*d)
	for k := 0; k < n; k++ {
		step := h * math.Max(1, math.Abs(s[k]))
		x[k] = s[k] + step
		impl.eval(x, t, plus)
		x[k] = s[k] - step
		impl.eval(x, t, minus)
		x[k] = s[k]
		for c := range block {
			block[c] = (plus[c] - minus[c]) / (2 * step)
		}
		flatten(grad.RawRowView(k), block, d)
	}
	return grad, nil
}

// evalSigma writes Σ row-major into out.
func (m *implementation) evalSigma(out []float64) {
	d := m.outputDim
	sig := m.outputCovariance().Sym()
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = sig.At(i, j)
		}
	}
}

// ParameterGradient returns ∂C(s,t)/∂p for the active parameters as an
// activeDim × outputDim² matrix, rows ordered as ActiveParameter and
// columns flattened column-major. Scale, amplitude and correlation rows are
// analytic for separable radial kernels; the nugget row is zero; everything
// else uses centered finite differences on the full parameter vector.
func (m Model) ParameterGradient(s, t []float64) (*mat.Dense, error) {
	impl := m.impl
	if err := impl.gradientGuard(opParameterGradient, s, t); err != nil {
		return nil, err
	}
	if len(impl.active) == 0 {
		return &mat.Dense{}, nil
	}
	d := impl.outputDim
	grad := mat.NewDense(len(impl.active), d*d, nil)

	rad, separable := impl.separable()
	rho := impl.k.rho(s, t, impl.scale)
	block := make([]float64, d*d)
	corr := impl.corr.Sym()
	amp := impl.amplitude
	nScale, nAmp := impl.inputDim, impl.outputDim
	nCorr := impl.corrCount()

	for row, idx := range impl.active {
		clear(block)
		switch {
		case idx == impl.nuggetIndex():
			// the nugget never enters C(s,t)
		case idx < nScale && separable && rad != nil:
			r := scaledNorm(s, t, impl.scale)
			if r > 0 {
				th := impl.scale[idx]
				tau := s[idx] - t[idx]
				drho := rad.slope(r) * (-tau * tau / (th * th * th * r)) * impl.param.jacobian(th)
				impl.evalSigma(block)
				for c := range block {
					block[c] *= drho
				}
			}
		case idx >= nScale && idx < nScale+nAmp && separable:
			a := idx - nScale
			for i := 0; i < d; i++ {
				for j := 0; j < d; j++ {
					var v float64
					if i == a {
						v += amp[j]
					}
					if j == a {
						v += amp[i]
					}
					block[i*d+j] = v * corr.At(i, j) * rho
				}
			}
		case idx >= nScale+nAmp && idx < nScale+nAmp+nCorr && separable:
			a, b := upperPair(idx-nScale-nAmp, d)
			v := amp[a] * amp[b] * rho
			block[a*d+b], block[b*d+a] = v, v
		default:
			if err := impl.fdParameter(idx, s, t, block); err != nil {
				return nil, covErrorf(opParameterGradient, err)
			}
		}
		flatten(grad.RawRowView(row), block, d)
	}
	return grad, nil
}

// upperPair maps a row-major strict-upper index to (i, j), i < j < d.
func upperPair(k, d int) (int, int) {
	for i := 0; i < d; i++ {
		n := d - 1 - i
		if k < n {
			return i, i + 1 + k
		}
		k -= n
	}
	return -1, -1
}

// fdParameter writes ∂C/∂p_idx into out by finite differences, falling back
// to one-sided differences at the boundary of the parameter domain.
func (m *implementation) fdParameter(idx int, s, t, out []float64) error {
	p := m.full()
	step := fdStep() * math.Max(1, math.Abs(p[idx]))
	shifted := func(delta float64, dst []float64) bool {
		q := slices.Clone(p)
		q[idx] += delta
		c := m.clone()
		if c.setFull(q) != nil {
			return false
		}
		c.eval(s, t, dst)
		return true
	}
	d2 := len(out)
	plus, minus := make([]float64, d2), make([]float64, d2)
	okPlus, okMinus := shifted(step, plus), shifted(-step, minus)
	den := 2 * step
	switch {
	case okPlus && okMinus:
	case okPlus:
		m.eval(s, t, minus)
		den = step
	case okMinus:
		m.eval(s, t, plus)
		den = step
	default:
		return fmt.Errorf("no admissible step around %s=%g: %w", m.fullDescription()[idx], p[idx], ErrInvalidArgument)
	}
	for c := range out {
		out[c] = (plus[c] - minus[c]) / den
	}
	return nil
}
