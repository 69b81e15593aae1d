// SPDX-License-Identifier: MIT

package specfunc

import (
	"math"

	"github.com/katalvlaran/hcov"
)

// halfInteger reports whether nu is one of the smoothness values with an
// elementary closed form.
func halfInteger(nu float64) bool {
	return nu == 0.5 || nu == 1.5 || nu == 2.5
}

// MaternCorrelation returns ρ_ν(x) = 2^{1-ν}/Γ(ν)·x^ν·K_ν(x) for x ≥ 0,
// with ρ_ν(0) = 1. ν must be > 0.
func MaternCorrelation(nu, x float64) (float64, error) {
	if !(nu > 0) || x < 0 || math.IsNaN(x) {
		return 0, hcov.Errorf("specfunc.MaternCorrelation", hcov.ErrInvalidArgument, "nu=%g x=%g", nu, x)
	}
	if x == 0 {
		return 1, nil
	}
	if math.IsInf(x, 1) {
		return 0, nil
	}
	switch nu {
	case 0.5:
		return math.Exp(-x), nil
	case 1.5:
		return (1 + x) * math.Exp(-x), nil
	case 2.5:
		return (1 + x + x*x/3) * math.Exp(-x), nil
	}
	logK, err := LogBesselK(nu, x)
	if err != nil {
		return 0, err
	}
	lg, _ := math.Lgamma(nu)
	v := math.Exp((1-nu)*math.Ln2 - lg + nu*math.Log(x) + logK)
	if v > 1 {
		// rounding near x -> 0
		v = 1
	}

	return v, nil
}

// MaternDerivative returns dρ_ν/dx = -2^{1-ν}/Γ(ν)·x^ν·K_{ν-1}(x).
// The derivative is 0 at x = 0 for ν > 1/2 and -1 for ν = 1/2.
func MaternDerivative(nu, x float64) (float64, error) {
	if !(nu > 0) || x < 0 || math.IsNaN(x) {
		return 0, hcov.Errorf("specfunc.MaternDerivative", hcov.ErrInvalidArgument, "nu=%g x=%g", nu, x)
	}
	if math.IsInf(x, 1) {
		return 0, nil
	}
	if halfInteger(nu) {
		e := math.Exp(-x)
		switch nu {
		case 0.5:
			return -e, nil
		case 1.5:
			return -x * e, nil
		default:
			return -x * (1 + x) * e / 3, nil
		}
	}
	if x == 0 {
		if nu < 0.5 {
			return math.Inf(-1), nil
		}
		return 0, nil
	}
	logK, err := LogBesselK(nu-1, x)
	if err != nil {
		return 0, err
	}
	lg, _ := math.Lgamma(nu)

	return -math.Exp((1-nu)*math.Ln2 - lg + nu*math.Log(x) + logK), nil
}
