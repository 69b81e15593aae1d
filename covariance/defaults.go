// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"

	"github.com/katalvlaran/hcov/config"
)

// NewDefault returns a scalar model of the given kind on inputDim
// coordinates with unit scale and amplitude. Kernel extras (ν, radius, p,
// frequency) come from config.Default(). Kinds that need more than extras
// to be defined (Kronecker, Product, FractionalBrownianMotion,
// StationaryFunctional) are rejected with ErrInvalidArgument.
func NewDefault(kind string, inputDim int, opts ...Option) (Model, error) {
	if inputDim < 1 {
		return Model{}, covErrorf(opNew, fmt.Errorf("input dimension %d: %w", inputDim, ErrInvalidDimension))
	}
	scale := make([]float64, inputDim)
	for i := range scale {
		scale[i] = 1
	}
	amplitude := []float64{1}
	r := config.Default()
	switch kind {
	case KindExponential:
		return NewExponential(scale, amplitude, opts...)
	case KindSquaredExponential:
		return NewSquaredExponential(scale, amplitude, opts...)
	case KindAbsoluteExponential:
		return NewAbsoluteExponential(scale, amplitude, opts...)
	case KindMatern:
		return NewMatern(scale, amplitude, r.Float(config.MaternDefaultNu), opts...)
	case KindSpherical:
		return NewSpherical(scale, amplitude, r.Float(config.SphericalDefaultRadius), opts...)
	case KindGeneralizedExponential:
		return NewGeneralizedExponential(scale, amplitude, r.Float(config.GeneralizedExponentialDefaultP), opts...)
	case KindExponentiallyDampedCosine:
		return NewExponentiallyDampedCosine(scale, amplitude, r.Float(config.DampedCosineDefaultFrequency), opts...)
	case KindDirac:
		return NewDirac(inputDim, amplitude, opts...)
	}
	return Model{}, covErrorf(opNew, fmt.Errorf("no default for kind %q: %w", kind, ErrInvalidArgument))
}
