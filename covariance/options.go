// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"

	"github.com/katalvlaran/hcov/matrix"
)

// ScaleParametrization selects how the scale enters the parameter vector.
type ScaleParametrization int

const (
	// Standard exposes θ.
	Standard ScaleParametrization = iota
	// Inverse exposes 1/θ.
	Inverse
	// LogInverse exposes −log θ.
	LogInverse
)

// String implements fmt.Stringer.
func (p ScaleParametrization) String() string {
	switch p {
	case Standard:
		return "STANDARD"
	case Inverse:
		return "INVERSE"
	case LogInverse:
		return "LOGINVERSE"
	}
	return fmt.Sprintf("ScaleParametrization(%d)", int(p))
}

// ParseScaleParametrization is the inverse of String.
func ParseScaleParametrization(s string) (ScaleParametrization, error) {
	for _, p := range []ScaleParametrization{Standard, Inverse, LogInverse} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("scale parametrization %q: %w", s, ErrInvalidArgument)
}

func (p ScaleParametrization) valid() bool { return p >= Standard && p <= LogInverse }

// Option customizes a model at construction. Values are validated by the
// constructor, which reports ErrInvalidArgument.
type Option func(*options)

type options struct {
	correlation *matrix.CorrelationMatrix
	covariance  *matrix.CovarianceMatrix
	nugget      float64
	param       ScaleParametrization
	active      []int
}

// WithCorrelation sets the output correlation R. Its order must equal the
// amplitude length.
func WithCorrelation(r *matrix.CorrelationMatrix) Option {
	return func(o *options) { o.correlation = r }
}

// WithCovariance sets the output covariance Σ; the amplitude argument of the
// constructor is then replaced by sqrt(diag Σ). Pass a nil amplitude.
func WithCovariance(c *matrix.CovarianceMatrix) Option {
	return func(o *options) { o.covariance = c }
}

// WithNugget sets the nugget factor (≥ 0).
func WithNugget(nugget float64) Option {
	return func(o *options) { o.nugget = nugget }
}

// WithScaleParametrization sets the scale parametrization.
func WithScaleParametrization(p ScaleParametrization) Option {
	return func(o *options) { o.param = p }
}

// WithActiveParameter replaces the default active set (scale and amplitude).
func WithActiveParameter(idx ...int) Option {
	return func(o *options) { o.active = append([]int{}, idx...) }
}

func gatherOptions(opts ...Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
