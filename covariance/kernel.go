// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Kernel kinds, as reported by Model.Kind and persisted under "kind_".
const (
	KindExponential               = "Exponential"
	KindSquaredExponential        = "SquaredExponential"
	KindMatern                    = "Matern"
	KindSpherical                 = "Spherical"
	KindDirac                     = "Dirac"
	KindKronecker                 = "Kronecker"
	KindFractionalBrownianMotion  = "FractionalBrownianMotion"
	KindExponentiallyDampedCosine = "ExponentiallyDampedCosine"
	KindAbsoluteExponential       = "AbsoluteExponential"
	KindGeneralizedExponential    = "GeneralizedExponential"
	KindProduct                   = "Product"
	KindStationaryFunctional      = "StationaryFunctional"
)

// kernel is the capability set every variant provides. Implementations are
// immutable values; withExtras returns a new one.
type kernel interface {
	kind() string
	stationary() bool
	// parallel reports whether rho may be called from several goroutines.
	parallel() bool
	// rho is the scalar correlation of s and t under the given scale.
	rho(s, t, scale []float64) float64
	// extras are the model-specific trailing entries of the full parameter.
	extras() []float64
	extraNames() []string
	withExtras(p []float64) (kernel, error)
}

// radial kernels depend on s and t only through r = ‖(s−t)/θ‖₂.
type radial interface {
	profile(r float64) float64
	// slope is d profile / dr.
	slope(r float64) float64
}

// evaluator kernels combine the output components themselves instead of
// the separable Σ·ρ form.
type evaluator interface {
	evaluate(m *implementation, s, t, out []float64)
}

// asRadial unwraps composite kernels that keep the radial structure.
func asRadial(k kernel) (radial, bool) {
	if kr, ok := k.(kronecker); ok {
		k = kr.inner
	}
	r, ok := k.(radial)
	return r, ok
}

// scaledNorm returns ‖(s−t)/θ‖₂.
func scaledNorm(s, t, scale []float64) float64 {
	var sum float64
	for k := range s {
		d := (s[k] - t[k]) / scale[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func noExtras(kind string, p []float64) error {
	if len(p) != 0 {
		return fmt.Errorf("%s takes no extra parameter, got %d: %w", kind, len(p), ErrInvalidArgument)
	}
	return nil
}

func oneExtra(kind, name string, p []float64, valid func(float64) bool) (float64, error) {
	if len(p) != 1 {
		return 0, fmt.Errorf("%s takes 1 extra parameter, got %d: %w", kind, len(p), ErrInvalidArgument)
	}
	if !valid(p[0]) {
		return 0, fmt.Errorf("%s %s=%g: %w", kind, name, p[0], ErrInvalidArgument)
	}
	return p[0], nil
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

// separation writes s−t into dst.
func separation(dst, s, t []float64) []float64 {
	dst = dst[:len(s)]
	floats.SubTo(dst, s, t)
	return dst
}
