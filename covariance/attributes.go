// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/hcov/matrix"
)

// Attribute names written by Save.
const (
	AttrKind                 = "kind_"
	AttrInputDimension       = "inputDimension_"
	AttrOutputDimension      = "outputDimension_"
	AttrScale                = "scale_"
	AttrAmplitude            = "amplitude_"
	AttrOutputCorrelation    = "outputCorrelation_"
	AttrNuggetFactor         = "nuggetFactor_"
	AttrActiveParameter      = "activeParameter_"
	AttrScaleParametrization = "scaleParametrization_"
	AttrExtras               = "extras_"
	AttrInnerKind            = "innerKind_"
	AttrChildKinds           = "childKinds_"
	AttrChildDimensions      = "childInputDimensions_"
	AttrEta                  = "eta_"
	AttrEpsilon              = "epsilon_"
)

// Attributes is a named key/value store for persistence. It marshals to
// YAML; float64 values survive a round trip exactly.
type Attributes struct {
	Floats  map[string][]float64 `yaml:"floats,omitempty"`
	Ints    map[string][]int     `yaml:"ints,omitempty"`
	Strings map[string][]string  `yaml:"strings,omitempty"`
}

// NewAttributes returns an empty store.
func NewAttributes() *Attributes {
	return &Attributes{
		Floats:  map[string][]float64{},
		Ints:    map[string][]int{},
		Strings: map[string][]string{},
	}
}

// SetFloats stores v under key.
func (a *Attributes) SetFloats(key string, v ...float64) { a.Floats[key] = append([]float64{}, v...) }

// SetInts stores v under key.
func (a *Attributes) SetInts(key string, v ...int) { a.Ints[key] = append([]int{}, v...) }

// SetStrings stores v under key.
func (a *Attributes) SetStrings(key string, v ...string) { a.Strings[key] = append([]string{}, v...) }

func (a *Attributes) floats(key string) ([]float64, error) {
	v, ok := a.Floats[key]
	if !ok {
		return nil, fmt.Errorf("missing attribute %q: %w", key, ErrInvalidArgument)
	}
	return v, nil
}

func (a *Attributes) ints(key string) ([]int, error) {
	v, ok := a.Ints[key]
	if !ok {
		return nil, fmt.Errorf("missing attribute %q: %w", key, ErrInvalidArgument)
	}
	return v, nil
}

func (a *Attributes) str(key string) (string, error) {
	v, ok := a.Strings[key]
	if !ok || len(v) != 1 {
		return "", fmt.Errorf("missing attribute %q: %w", key, ErrInvalidArgument)
	}
	return v[0], nil
}

// Encode writes a as YAML.
func (a *Attributes) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("covariance.Attributes.Encode: %w", err)
	}
	return enc.Close()
}

// DecodeAttributes reads a YAML document written by Encode.
func DecodeAttributes(r io.Reader) (*Attributes, error) {
	a := NewAttributes()
	if err := yaml.NewDecoder(r).Decode(a); err != nil {
		return nil, fmt.Errorf("covariance.DecodeAttributes: %v: %w", err, ErrInvalidArgument)
	}
	if a.Floats == nil {
		a.Floats = map[string][]float64{}
	}
	if a.Ints == nil {
		a.Ints = map[string][]int{}
	}
	if a.Strings == nil {
		a.Strings = map[string][]string{}
	}
	return a, nil
}

// Save writes every attribute needed to rebuild m into a.
// StationaryFunctional models cannot be saved.
func (m Model) Save(a *Attributes) error {
	impl := m.impl
	if a == nil {
		return covErrorf(opSave, fmt.Errorf("nil attributes: %w", ErrInvalidArgument))
	}
	if err := saveKernel(a, impl.k); err != nil {
		return covErrorf(opSave, err)
	}
	d := impl.outputDim
	a.SetInts(AttrInputDimension, impl.inputDim)
	a.SetInts(AttrOutputDimension, d)
	a.SetFloats(AttrScale, impl.scale...)
	a.SetFloats(AttrAmplitude, impl.amplitude...)
	r := impl.corr.Sym()
	corr := make([]float64, 0, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			corr = append(corr, r.At(i, j))
		}
	}
	a.SetFloats(AttrOutputCorrelation, corr...)
	a.SetFloats(AttrNuggetFactor, impl.nugget)
	a.SetInts(AttrActiveParameter, impl.active...)
	a.SetStrings(AttrScaleParametrization, impl.param.String())
	a.SetFloats(AttrExtras, impl.k.extras()...)
	return nil
}

func saveKernel(a *Attributes, k kernel) error {
	a.SetStrings(AttrKind, k.kind())
	switch k := k.(type) {
	case stationaryFunctional:
		return fmt.Errorf("%s: %w", KindStationaryFunctional, ErrNotYetImplemented)
	case dirac:
		a.SetFloats(AttrEpsilon, k.eps)
	case kronecker:
		if _, ok := k.inner.(stationaryFunctional); ok {
			return fmt.Errorf("%s: %w", KindStationaryFunctional, ErrNotYetImplemented)
		}
		a.SetStrings(AttrInnerKind, k.inner.kind())
	case product:
		kinds := make([]string, len(k.children))
		for i, c := range k.children {
			if _, ok := c.(stationaryFunctional); ok {
				return fmt.Errorf("%s: %w", KindStationaryFunctional, ErrNotYetImplemented)
			}
			kinds[i] = c.kind()
		}
		a.SetStrings(AttrChildKinds, kinds...)
		a.SetInts(AttrChildDimensions, k.dims...)
	case fbm:
		r, c := k.eta.Dims()
		eta := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			eta = append(eta, k.eta.RawRowView(i)...)
		}
		a.SetFloats(AttrEta, eta...)
	}
	return nil
}

// prototype returns a kernel of the given kind whose extras have the right
// length; withExtras fills in the values.
func prototype(kind string, a *Attributes, outputDim int) (kernel, error) {
	switch kind {
	case KindExponential:
		return exponential{}, nil
	case KindSquaredExponential:
		return squaredExponential{}, nil
	case KindMatern:
		return matern{}, nil
	case KindSpherical:
		return spherical{}, nil
	case KindExponentiallyDampedCosine:
		return dampedCosine{}, nil
	case KindGeneralizedExponential:
		return generalizedExponential{}, nil
	case KindAbsoluteExponential:
		return absoluteExponential{}, nil
	case KindDirac:
		eps, err := a.floats(AttrEpsilon)
		if err != nil || len(eps) != 1 {
			return nil, fmt.Errorf("dirac epsilon: %w", ErrInvalidArgument)
		}
		return dirac{eps: eps[0]}, nil
	case KindKronecker:
		inner, err := a.str(AttrInnerKind)
		if err != nil {
			return nil, err
		}
		if inner == KindKronecker || inner == KindFractionalBrownianMotion {
			return nil, fmt.Errorf("kronecker inner kind %q: %w", inner, ErrInvalidArgument)
		}
		k, err := prototype(inner, a, 1)
		if err != nil {
			return nil, err
		}
		return kronecker{inner: k}, nil
	case KindProduct:
		kinds, ok := a.Strings[AttrChildKinds]
		dims, err := a.ints(AttrChildDimensions)
		if !ok || err != nil || len(kinds) != len(dims) || len(kinds) == 0 {
			return nil, fmt.Errorf("product children: %w", ErrInvalidArgument)
		}
		p := product{children: make([]kernel, len(kinds)), dims: dims}
		for i, ck := range kinds {
			if ck == KindProduct || ck == KindKronecker || ck == KindFractionalBrownianMotion {
				return nil, fmt.Errorf("product child kind %q: %w", ck, ErrInvalidArgument)
			}
			c, err := prototype(ck, a, 1)
			if err != nil {
				return nil, err
			}
			p.children[i] = c
		}
		return p, nil
	case KindFractionalBrownianMotion:
		eta, err := a.floats(AttrEta)
		if err != nil || len(eta) != outputDim*outputDim {
			return nil, fmt.Errorf("fbm eta: %w", ErrInvalidArgument)
		}
		return fbm{exponent: make([]float64, outputDim), eta: mat.NewDense(outputDim, outputDim, eta)}, nil
	}
	return nil, fmt.Errorf("unknown kind %q: %w", kind, ErrInvalidArgument)
}

// Load replaces m by the model saved in a.
func (m *Model) Load(a *Attributes) error {
	if a == nil {
		return covErrorf(opLoad, fmt.Errorf("nil attributes: %w", ErrInvalidArgument))
	}
	impl, err := load(a)
	if err != nil {
		return covErrorf(opLoad, err)
	}
	m.impl = impl
	return nil
}

func load(a *Attributes) (*implementation, error) {
	kind, err := a.str(AttrKind)
	if err != nil {
		return nil, err
	}
	scale, err := a.floats(AttrScale)
	if err != nil {
		return nil, err
	}
	amplitude, err := a.floats(AttrAmplitude)
	if err != nil {
		return nil, err
	}
	d := len(amplitude)
	proto, err := prototype(kind, a, d)
	if err != nil {
		return nil, err
	}
	k, err := proto.withExtras(a.Floats[AttrExtras])
	if err != nil {
		return nil, err
	}
	if p, ok := k.(product); ok {
		total := 0
		for _, n := range p.dims {
			total += n
		}
		if total != len(scale) {
			return nil, fmt.Errorf("product dimensions sum to %d, scale has %d: %w", total, len(scale), ErrInvalidDimension)
		}
	}

	raw, err := a.floats(AttrOutputCorrelation)
	if err != nil {
		return nil, err
	}
	if len(raw) != d*d {
		return nil, fmt.Errorf("correlation has %d entries, want %d: %w", len(raw), d*d, ErrInvalidDimension)
	}
	var corr *matrix.CorrelationMatrix
	if d > 0 {
		corr, err = matrix.NewCorrelationMatrixFrom(mat.NewDense(d, d, raw))
		if err != nil {
			return nil, err
		}
	}
	nugget, err := a.floats(AttrNuggetFactor)
	if err != nil || len(nugget) != 1 {
		return nil, fmt.Errorf("nugget factor: %w", ErrInvalidArgument)
	}
	pname, err := a.str(AttrScaleParametrization)
	if err != nil {
		return nil, err
	}
	param, err := ParseScaleParametrization(pname)
	if err != nil {
		return nil, err
	}
	active, err := a.ints(AttrActiveParameter)
	if err != nil {
		return nil, err
	}

	m, err := newModel(k, scale, amplitude,
		WithCorrelation(corr),
		WithNugget(nugget[0]),
		WithScaleParametrization(param),
		WithActiveParameter(active...))
	if err != nil {
		return nil, err
	}
	if dims, ok := a.Ints[AttrInputDimension]; ok && (len(dims) != 1 || dims[0] != m.impl.inputDim) {
		return nil, fmt.Errorf("input dimension %v, scale has %d: %w", dims, m.impl.inputDim, ErrInvalidDimension)
	}
	return m.impl, nil
}
