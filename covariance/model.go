// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/config"
	"github.com/katalvlaran/hcov/matrix"
)

// implementation is never mutated once a Model holds it. Setters work on a
// clone, whose caches start empty.
type implementation struct {
	k         kernel
	inputDim  int
	outputDim int
	scale     []float64
	amplitude []float64
	corr      *matrix.CorrelationMatrix
	nugget    float64
	active    []int
	param     ScaleParametrization

	covOnce  sync.Once
	cov      *matrix.CovarianceMatrix
	cholOnce sync.Once
	chol     *matrix.TriangularMatrix
	cholErr  error
}

func (m *implementation) clone() *implementation {
	return &implementation{
		k:         m.k,
		inputDim:  m.inputDim,
		outputDim: m.outputDim,
		scale:     slices.Clone(m.scale),
		amplitude: slices.Clone(m.amplitude),
		corr:      m.corr.Clone(),
		nugget:    m.nugget,
		active:    slices.Clone(m.active),
		param:     m.param,
	}
}

// outputCovariance is diag(a)·R·diag(a), computed once.
func (m *implementation) outputCovariance() *matrix.CovarianceMatrix {
	m.covOnce.Do(func() {
		// lengths agree by construction
		m.cov, _ = matrix.ScaleCorrelation(m.amplitude, m.corr)
	})
	return m.cov
}

func (m *implementation) outputCholesky() (*matrix.TriangularMatrix, error) {
	m.cholOnce.Do(func() {
		m.chol, m.cholErr = m.outputCovariance().Clone().ComputeCholesky(false)
	})
	return m.chol, m.cholErr
}

// eval writes C(s,t) row-major into out (len outputDim²). No nugget.
func (m *implementation) eval(s, t, out []float64) {
	if e, ok := m.k.(evaluator); ok {
		e.evaluate(m, s, t, out)
		return
	}
	r := m.k.rho(s, t, m.scale)
	d := m.outputDim
	if d == 1 {
		out[0] = m.amplitude[0] * m.amplitude[0] * r
		return
	}
	sig := m.outputCovariance().Sym()
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = sig.At(i, j) * r
		}
	}
}

func (m *implementation) checkPoint(op string, p []float64) error {
	if len(p) != m.inputDim {
		return covErrorf(op, fmt.Errorf("point dimension %d, want %d: %w", len(p), m.inputDim, ErrInvalidDimension))
	}
	return nil
}

// Model is a covariance model handle. Copies are cheap and independent:
// setters never affect other copies. The zero Model is not usable; build
// one with a New* constructor.
type Model struct {
	impl *implementation
}

// mutate applies fn to a private clone and installs it on success.
func (m *Model) mutate(fn func(c *implementation) error) error {
	c := m.impl.clone()
	if err := fn(c); err != nil {
		return err
	}
	m.impl = c
	return nil
}

func validPositive(name string, v []float64, n int) error {
	if len(v) != n || n == 0 {
		return fmt.Errorf("%s has %d entries, want %d > 0: %w", name, len(v), n, ErrInvalidArgument)
	}
	for i, x := range v {
		if !(x > 0) || math.IsInf(x, 1) {
			return fmt.Errorf("%s[%d]=%g must be positive: %w", name, i, x, ErrInvalidArgument)
		}
	}
	return nil
}

func validNugget(v float64) error {
	if !(v >= 0) || math.IsInf(v, 1) {
		return fmt.Errorf("nugget factor %g must be non-negative: %w", v, ErrInvalidArgument)
	}
	return nil
}

func defaultActive(inputDim, outputDim int) []int {
	idx := make([]int, inputDim+outputDim)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// newModel validates every argument and option and builds the handle.
func newModel(k kernel, scale, amplitude []float64, opts ...Option) (Model, error) {
	o := gatherOptions(opts...)
	if err := validPositive("scale", scale, len(scale)); err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	corr := o.correlation
	if o.covariance != nil {
		if len(amplitude) != 0 || corr != nil {
			return Model{}, covErrorf(opNew, fmt.Errorf("covariance excludes amplitude and correlation: %w", ErrInvalidArgument))
		}
		a, r, err := matrix.SplitCovariance(o.covariance)
		if err != nil {
			return Model{}, covErrorf(opNew, err)
		}
		amplitude, corr = a, r
	}
	if err := validPositive("amplitude", amplitude, len(amplitude)); err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	d := len(amplitude)
	if corr == nil {
		corr, _ = matrix.NewCorrelationMatrix(d)
	} else if corr.Dim() != d {
		return Model{}, covErrorf(opNew, fmt.Errorf("correlation order %d, want %d: %w", corr.Dim(), d, ErrInvalidDimension))
	} else {
		corr = corr.Clone()
	}
	if err := validNugget(o.nugget); err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	if !o.param.valid() {
		return Model{}, covErrorf(opNew, fmt.Errorf("%v: %w", o.param, ErrInvalidArgument))
	}

	impl := &implementation{
		k:         k,
		inputDim:  len(scale),
		outputDim: d,
		scale:     slices.Clone(scale),
		amplitude: slices.Clone(amplitude),
		corr:      corr,
		nugget:    o.nugget,
		param:     o.param,
	}
	impl.active = defaultActive(impl.inputDim, d)
	if o.active != nil {
		if err := impl.validActive(o.active); err != nil {
			return Model{}, covErrorf(opNew, err)
		}
		impl.active = o.active
	}

	return Model{impl: impl}, nil
}

// NewExponential returns ρ(r) = e^{−r}, r = ‖(s−t)/scale‖.
func NewExponential(scale, amplitude []float64, opts ...Option) (Model, error) {
	return newModel(exponential{}, scale, amplitude, opts...)
}

// NewSquaredExponential returns ρ(r) = e^{−r²/2}.
func NewSquaredExponential(scale, amplitude []float64, opts ...Option) (Model, error) {
	return newModel(squaredExponential{}, scale, amplitude, opts...)
}

// NewMatern returns the Matérn kernel of smoothness nu > 0.
func NewMatern(scale, amplitude []float64, nu float64, opts ...Option) (Model, error) {
	k, err := matern{}.withExtras([]float64{nu})
	if err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	return newModel(k, scale, amplitude, opts...)
}

// NewSpherical returns the spherical kernel supported on r < radius.
func NewSpherical(scale, amplitude []float64, radius float64, opts ...Option) (Model, error) {
	k, err := spherical{}.withExtras([]float64{radius})
	if err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	return newModel(k, scale, amplitude, opts...)
}

// NewExponentiallyDampedCosine returns ρ(r) = e^{−r}·cos(2π·frequency·r).
func NewExponentiallyDampedCosine(scale, amplitude []float64, frequency float64, opts ...Option) (Model, error) {
	k, err := dampedCosine{}.withExtras([]float64{frequency})
	if err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	return newModel(k, scale, amplitude, opts...)
}

// NewGeneralizedExponential returns ρ(r) = exp(−r^p), p ∈ (0, 2].
func NewGeneralizedExponential(scale, amplitude []float64, p float64, opts ...Option) (Model, error) {
	k, err := generalizedExponential{}.withExtras([]float64{p})
	if err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	return newModel(k, scale, amplitude, opts...)
}

// NewAbsoluteExponential returns ρ = exp(−Σ_k |s_k−t_k|/scale_k).
func NewAbsoluteExponential(scale, amplitude []float64, opts ...Option) (Model, error) {
	return newModel(absoluteExponential{}, scale, amplitude, opts...)
}

// NewDirac returns the white-noise kernel: Σ on coincident points (within
// CovarianceModel-DiracEpsilon), 0 elsewhere. Its scale is fixed to ones.
func NewDirac(inputDim int, amplitude []float64, opts ...Option) (Model, error) {
	if inputDim < 1 {
		return Model{}, covErrorf(opNew, fmt.Errorf("input dimension %d: %w", inputDim, ErrInvalidDimension))
	}
	scale := make([]float64, inputDim)
	for i := range scale {
		scale[i] = 1
	}
	eps := config.Default().Float(config.CovarianceDiracEpsilon)
	return newModel(dirac{eps: eps}, scale, amplitude, opts...)
}

// NewKronecker returns Σ·ρ(s,t) where ρ is the correlation of the scalar
// model rho and Σ is covariance. Scale, extras and the scale
// parametrization come from rho; its amplitude and nugget are dropped.
func NewKronecker(rho Model, covariance *matrix.CovarianceMatrix, opts ...Option) (Model, error) {
	if rho.impl == nil || rho.impl.outputDim != 1 {
		return Model{}, covErrorf(opNew, fmt.Errorf("kronecker needs a scalar correlation model: %w", ErrInvalidArgument))
	}
	switch rho.impl.k.(type) {
	case fbm, kronecker:
		return Model{}, covErrorf(opNew, fmt.Errorf("%s cannot be the inner model: %w", rho.Kind(), ErrInvalidArgument))
	}
	if covariance == nil {
		return Model{}, covErrorf(opNew, fmt.Errorf("nil covariance: %w", ErrInvalidArgument))
	}
	opts = append([]Option{WithCovariance(covariance), WithScaleParametrization(rho.impl.param)}, opts...)
	return newModel(kronecker{inner: rho.impl.k}, rho.impl.scale, nil, opts...)
}

// NewFractionalBrownianMotion returns the multivariate fractional Brownian
// motion on a 1-D input with Hurst exponents in (0,1), one per output, and
// an antisymmetric dissymmetry matrix eta (nil means zero). The output
// correlation is passed with WithCorrelation.
func NewFractionalBrownianMotion(scale float64, amplitude, exponent []float64, eta *mat.Dense, opts ...Option) (Model, error) {
	if err := validPositive("amplitude", amplitude, len(amplitude)); err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	d := len(amplitude)
	if eta == nil {
		eta = mat.NewDense(d, d, nil)
	}
	if r, c := eta.Dims(); r != d || c != d {
		return Model{}, covErrorf(opNew, fmt.Errorf("eta is %dx%d, want %dx%d: %w", r, c, d, d, ErrInvalidDimension))
	}
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			if eta.At(i, j) != -eta.At(j, i) {
				return Model{}, covErrorf(opNew, fmt.Errorf("eta is not antisymmetric at (%d,%d): %w", i, j, ErrInvalidArgument))
			}
		}
	}
	k, err := fbm{exponent: make([]float64, d), eta: mat.DenseCopyOf(eta)}.withExtras(exponent)
	if err != nil {
		return Model{}, covErrorf(opNew, err)
	}
	return newModel(k, []float64{scale}, amplitude, opts...)
}

// NewProduct returns the tensor product of scalar separable models acting on
// consecutive groups of input coordinates. The scale is the concatenation of
// the children scales and the amplitude is the product of their amplitudes.
func NewProduct(children []Model, opts ...Option) (Model, error) {
	if len(children) == 0 {
		return Model{}, covErrorf(opNew, fmt.Errorf("no child model: %w", ErrInvalidArgument))
	}
	k := product{children: make([]kernel, len(children)), dims: make([]int, len(children))}
	var scale []float64
	amplitude := 1.0
	for i, c := range children {
		if c.impl == nil || c.impl.outputDim != 1 {
			return Model{}, covErrorf(opNew, fmt.Errorf("child %d is not scalar: %w", i, ErrInvalidArgument))
		}
		switch c.impl.k.(type) {
		case fbm, kronecker, product:
			return Model{}, covErrorf(opNew, fmt.Errorf("child %d (%s) is not an elementary kernel: %w", i, c.Kind(), ErrInvalidArgument))
		}
		k.children[i] = c.impl.k
		k.dims[i] = c.impl.inputDim
		scale = append(scale, c.impl.scale...)
		amplitude *= c.impl.amplitude[0]
	}
	return newModel(k, scale, []float64{amplitude}, opts...)
}

// NewStationaryFunctional returns a model whose correlation is rho evaluated
// on the scaled separation (s−t)/scale. rho must satisfy rho(0) = 1 and be
// positive definite; parallelSafe declares whether it may be called
// concurrently.
func NewStationaryFunctional(scale, amplitude []float64, rho func(tau []float64) float64, parallelSafe bool, opts ...Option) (Model, error) {
	if rho == nil {
		return Model{}, covErrorf(opNew, fmt.Errorf("nil correlation function: %w", ErrInvalidArgument))
	}
	return newModel(stationaryFunctional{fn: rho, safe: parallelSafe}, scale, amplitude, opts...)
}

// InputDimension returns the dimension of the points.
func (m Model) InputDimension() int { return m.impl.inputDim }

// OutputDimension returns the dimension of the process values.
func (m Model) OutputDimension() int { return m.impl.outputDim }

// Kind returns the kernel kind, e.g. "Matern".
func (m Model) Kind() string { return m.impl.k.kind() }

// IsStationary reports whether C(s,t) depends only on s−t.
func (m Model) IsStationary() bool { return m.impl.k.stationary() }

// IsParallel reports whether the model may be evaluated concurrently.
func (m Model) IsParallel() bool { return m.impl.k.parallel() }

// Scale returns a copy of the correlation lengths.
func (m Model) Scale() []float64 { return slices.Clone(m.impl.scale) }

// SetScale replaces the correlation lengths.
func (m *Model) SetScale(scale []float64) error {
	return m.mutate(func(c *implementation) error {
		if err := validPositive("scale", scale, c.inputDim); err != nil {
			return covErrorf(opSetScale, err)
		}
		c.scale = slices.Clone(scale)
		return nil
	})
}

// Amplitude returns a copy of the marginal standard deviations.
func (m Model) Amplitude() []float64 { return slices.Clone(m.impl.amplitude) }

// SetAmplitude replaces the marginal standard deviations.
func (m *Model) SetAmplitude(amplitude []float64) error {
	return m.mutate(func(c *implementation) error {
		if err := validPositive("amplitude", amplitude, c.outputDim); err != nil {
			return covErrorf(opSetAmplitude, err)
		}
		c.amplitude = slices.Clone(amplitude)
		return nil
	})
}

// OutputCorrelation returns a copy of R.
func (m Model) OutputCorrelation() *matrix.CorrelationMatrix { return m.impl.corr.Clone() }

// SetOutputCorrelation replaces R.
func (m *Model) SetOutputCorrelation(r *matrix.CorrelationMatrix) error {
	return m.mutate(func(c *implementation) error {
		if r == nil {
			return covErrorf(opSetCorrelation, fmt.Errorf("nil correlation: %w", ErrInvalidArgument))
		}
		if r.Dim() != c.outputDim {
			return covErrorf(opSetCorrelation, fmt.Errorf("correlation order %d, want %d: %w", r.Dim(), c.outputDim, ErrInvalidDimension))
		}
		c.corr = r.Clone()
		return nil
	})
}

// OutputCovariance returns a copy of Σ = diag(a)·R·diag(a).
func (m Model) OutputCovariance() *matrix.CovarianceMatrix { return m.impl.outputCovariance().Clone() }

// OutputCovarianceCholesky returns the lower Cholesky factor of Σ. The
// factor is shared; do not modify it.
func (m Model) OutputCovarianceCholesky() (*matrix.TriangularMatrix, error) {
	l, err := m.impl.outputCholesky()
	if err != nil {
		return nil, covErrorf(opOutputCovarianceChol, err)
	}
	return l, nil
}

// SetOutputCovariance replaces amplitude and R by the split of cov.
func (m *Model) SetOutputCovariance(cov *matrix.CovarianceMatrix) error {
	return m.mutate(func(c *implementation) error {
		if cov.Dim() != c.outputDim {
			return covErrorf(opSetCovariance, fmt.Errorf("covariance order %d, want %d: %w", cov.Dim(), c.outputDim, ErrInvalidDimension))
		}
		a, r, err := matrix.SplitCovariance(cov)
		if err != nil {
			return covErrorf(opSetCovariance, err)
		}
		c.amplitude, c.corr = a, r
		return nil
	})
}

// NuggetFactor returns the value added to the dof diagonal.
func (m Model) NuggetFactor() float64 { return m.impl.nugget }

// SetNuggetFactor replaces the nugget factor (≥ 0).
func (m *Model) SetNuggetFactor(v float64) error {
	return m.mutate(func(c *implementation) error {
		if err := validNugget(v); err != nil {
			return covErrorf(opSetNugget, err)
		}
		c.nugget = v
		return nil
	})
}

// Evaluate returns the outputDim×outputDim covariance C(s,t). The nugget is
// not included: it belongs to the diagonal of discretized matrices.
func (m Model) Evaluate(s, t []float64) (*mat.Dense, error) {
	if err := m.impl.checkPoint(opEvaluate, s); err != nil {
		return nil, err
	}
	if err := m.impl.checkPoint(opEvaluate, t); err != nil {
		return nil, err
	}
	d := m.impl.outputDim
	out := make([]float64, d*d)
	m.impl.eval(s, t, out)
	return mat.NewDense(d, d, out), nil
}

// StandardRepresentative returns the normalized correlation ρ(s,t).
// ρ(s,s) = 1 for stationary kernels.
func (m Model) StandardRepresentative(s, t []float64) (float64, error) {
	if err := m.impl.checkPoint(opEvaluate, s); err != nil {
		return 0, err
	}
	if err := m.impl.checkPoint(opEvaluate, t); err != nil {
		return 0, err
	}
	return m.impl.k.rho(s, t, m.impl.scale), nil
}

// String implements fmt.Stringer.
func (m Model) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(scale=%v, amplitude=%v", m.Kind(), m.impl.scale, m.impl.amplitude)
	names := m.impl.k.extraNames()
	for i, v := range m.impl.k.extras() {
		fmt.Fprintf(&b, ", %s=%g", names[i], v)
	}
	if m.impl.nugget > 0 {
		fmt.Fprintf(&b, ", nugget=%g", m.impl.nugget)
	}
	b.WriteByte(')')
	return b.String()
}
