// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/hcov/matrix"
)

func (m *implementation) corrCount() int { return m.outputDim * (m.outputDim - 1) / 2 }

func (m *implementation) nuggetIndex() int { return m.inputDim + m.outputDim + m.corrCount() }

func (m *implementation) fullDim() int { return m.nuggetIndex() + 1 + len(m.k.extras()) }

func (p ScaleParametrization) forward(theta float64) float64 {
	switch p {
	case Inverse:
		return 1 / theta
	case LogInverse:
		return -math.Log(theta)
	}
	return theta
}

func (p ScaleParametrization) backward(v float64) float64 {
	switch p {
	case Inverse:
		return 1 / v
	case LogInverse:
		return math.Exp(-v)
	}
	return v
}

// jacobian returns dθ/dv at θ.
func (p ScaleParametrization) jacobian(theta float64) float64 {
	switch p {
	case Inverse:
		return -theta * theta
	case LogInverse:
		return -theta
	}
	return 1
}

func (m *implementation) full() []float64 {
	p := make([]float64, 0, m.fullDim())
	for _, th := range m.scale {
		p = append(p, m.param.forward(th))
	}
	p = append(p, m.amplitude...)
	r := m.corr.Sym()
	for i := 0; i < m.outputDim; i++ {
		for j := i + 1; j < m.outputDim; j++ {
			p = append(p, r.At(i, j))
		}
	}
	p = append(p, m.nugget)
	return append(p, m.k.extras()...)
}

func (m *implementation) fullDescription() []string {
	names := make([]string, 0, m.fullDim())
	for i := range m.scale {
		names = append(names, fmt.Sprintf("scale_%d", i))
	}
	for i := range m.amplitude {
		names = append(names, fmt.Sprintf("amplitude_%d", i))
	}
	for i := 0; i < m.outputDim; i++ {
		for j := i + 1; j < m.outputDim; j++ {
			names = append(names, fmt.Sprintf("R_%d_%d", i, j))
		}
	}
	names = append(names, "nuggetFactor")
	return append(names, m.k.extraNames()...)
}

// setFull overwrites every parameter of m from p. m must be a fresh clone.
func (m *implementation) setFull(p []float64) error {
	if len(p) != m.fullDim() {
		return fmt.Errorf("parameter has %d entries, want %d: %w", len(p), m.fullDim(), ErrInvalidArgument)
	}
	off := 0
	scale := make([]float64, m.inputDim)
	for i := range scale {
		// A value equal to the exposed one keeps θ, so that
		// SetParameter(Parameter()) is exact under INVERSE and LOGINVERSE.
		if v := p[off+i]; v == m.param.forward(m.scale[i]) {
			scale[i] = m.scale[i]
		} else {
			scale[i] = m.param.backward(v)
		}
	}
	if err := validPositive("scale", scale, m.inputDim); err != nil {
		return err
	}
	off += m.inputDim
	amplitude := slices.Clone(p[off : off+m.outputDim])
	if err := validPositive("amplitude", amplitude, m.outputDim); err != nil {
		return err
	}
	off += m.outputDim
	corr, _ := matrix.NewCorrelationMatrix(m.outputDim)
	for i := 0; i < m.outputDim; i++ {
		for j := i + 1; j < m.outputDim; j++ {
			if err := corr.Set(i, j, p[off]); err != nil {
				return err
			}
			off++
		}
	}
	if err := validNugget(p[off]); err != nil {
		return err
	}
	nugget := p[off]
	off++
	k, err := m.k.withExtras(p[off:])
	if err != nil {
		return err
	}

	m.scale, m.amplitude, m.corr, m.nugget, m.k = scale, amplitude, corr, nugget, k
	return nil
}

func (m *implementation) validActive(idx []int) error {
	n := m.fullDim()
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("active index %d outside [0,%d): %w", i, n, ErrInvalidArgument)
		}
		if seen[i] {
			return fmt.Errorf("duplicate active index %d: %w", i, ErrInvalidArgument)
		}
		seen[i] = true
	}
	return nil
}

// FullParameter returns the flat parameter vector:
// scale | amplitude | R strict upper (row-major) | nugget | extras.
// Scale entries follow ScaleParametrization.
func (m Model) FullParameter() []float64 { return m.impl.full() }

// FullParameterDescription names each entry of FullParameter.
func (m Model) FullParameterDescription() []string { return m.impl.fullDescription() }

// SetFullParameter replaces every parameter.
func (m *Model) SetFullParameter(p []float64) error {
	return m.mutate(func(c *implementation) error {
		if err := c.setFull(p); err != nil {
			return covErrorf(opSetFullParameter, err)
		}
		return nil
	})
}

// Parameter returns the active entries of FullParameter.
func (m Model) Parameter() []float64 {
	full := m.impl.full()
	p := make([]float64, len(m.impl.active))
	for k, i := range m.impl.active {
		p[k] = full[i]
	}
	return p
}

// ParameterDescription names each entry of Parameter.
func (m Model) ParameterDescription() []string {
	full := m.impl.fullDescription()
	names := make([]string, len(m.impl.active))
	for k, i := range m.impl.active {
		names[k] = full[i]
	}
	return names
}

// SetParameter writes p into the active entries; inactive entries keep
// their value.
func (m *Model) SetParameter(p []float64) error {
	return m.mutate(func(c *implementation) error {
		if len(p) != len(c.active) {
			return covErrorf(opSetParameter, fmt.Errorf("parameter has %d entries, want %d: %w", len(p), len(c.active), ErrInvalidArgument))
		}
		full := c.full()
		for k, i := range c.active {
			full[i] = p[k]
		}
		if err := c.setFull(full); err != nil {
			return covErrorf(opSetParameter, err)
		}
		return nil
	})
}

// ActiveParameter returns the indices of the active entries.
func (m Model) ActiveParameter() []int { return slices.Clone(m.impl.active) }

// SetActiveParameter replaces the active set. Indices must be unique and
// below len(FullParameter()).
func (m *Model) SetActiveParameter(idx []int) error {
	return m.mutate(func(c *implementation) error {
		if err := c.validActive(idx); err != nil {
			return covErrorf(opSetActive, err)
		}
		c.active = slices.Clone(idx)
		return nil
	})
}

// ScaleParametrization returns how scale enters the parameter vector.
func (m Model) ScaleParametrization() ScaleParametrization { return m.impl.param }

// SetScaleParametrization changes the parametrization; the scale itself is
// unchanged.
func (m *Model) SetScaleParametrization(p ScaleParametrization) error {
	if !p.valid() {
		return covErrorf(opSetParametrization, fmt.Errorf("%v: %w", p, ErrInvalidArgument))
	}
	return m.mutate(func(c *implementation) error {
		c.param = p
		return nil
	})
}
