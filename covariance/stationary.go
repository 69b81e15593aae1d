// SPDX-License-Identifier: MIT

package covariance

import (
	"math"

	"github.com/katalvlaran/hcov/specfunc"
)

type exponential struct{}

func (exponential) kind() string                        { return KindExponential }
func (exponential) stationary() bool                    { return true }
func (exponential) parallel() bool                      { return true }
func (k exponential) rho(s, t, scale []float64) float64 { return k.profile(scaledNorm(s, t, scale)) }
func (exponential) profile(r float64) float64           { return math.Exp(-r) }
func (exponential) slope(r float64) float64             { return -math.Exp(-r) }
func (exponential) extras() []float64                   { return nil }
func (exponential) extraNames() []string                { return nil }
func (k exponential) withExtras(p []float64) (kernel, error) {
	return k, noExtras(KindExponential, p)
}

type squaredExponential struct{}

func (squaredExponential) kind() string     { return KindSquaredExponential }
func (squaredExponential) stationary() bool { return true }
func (squaredExponential) parallel() bool   { return true }
func (k squaredExponential) rho(s, t, scale []float64) float64 {
	return k.profile(scaledNorm(s, t, scale))
}
func (squaredExponential) profile(r float64) float64 { return math.Exp(-0.5 * r * r) }
func (squaredExponential) slope(r float64) float64   { return -r * math.Exp(-0.5*r*r) }
func (squaredExponential) extras() []float64         { return nil }
func (squaredExponential) extraNames() []string      { return nil }
func (k squaredExponential) withExtras(p []float64) (kernel, error) {
	return k, noExtras(KindSquaredExponential, p)
}

// matern is ρ(r) = 2^{1-ν}/Γ(ν)·(√(2ν)r)^ν·K_ν(√(2ν)r).
type matern struct {
	nu float64
}

func (matern) kind() string                        { return KindMatern }
func (matern) stationary() bool                    { return true }
func (matern) parallel() bool                      { return true }
func (k matern) rho(s, t, scale []float64) float64 { return k.profile(scaledNorm(s, t, scale)) }

func (k matern) profile(r float64) float64 {
	v, err := specfunc.MaternCorrelation(k.nu, math.Sqrt(2*k.nu)*r)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (k matern) slope(r float64) float64 {
	c := math.Sqrt(2 * k.nu)
	v, err := specfunc.MaternDerivative(k.nu, c*r)
	if err != nil {
		return math.NaN()
	}
	return c * v
}

func (k matern) extras() []float64  { return []float64{k.nu} }
func (matern) extraNames() []string { return []string{"nu"} }
func (matern) withExtras(p []float64) (kernel, error) {
	nu, err := oneExtra(KindMatern, "nu", p, positive)
	return matern{nu: nu}, err
}

// spherical is compactly supported on r < radius.
type spherical struct {
	radius float64
}

func (spherical) kind() string                        { return KindSpherical }
func (spherical) stationary() bool                    { return true }
func (spherical) parallel() bool                      { return true }
func (k spherical) rho(s, t, scale []float64) float64 { return k.profile(scaledNorm(s, t, scale)) }

func (k spherical) profile(r float64) float64 {
	if r >= k.radius {
		return 0
	}
	x := r / k.radius
	return 1 - 1.5*x + 0.5*x*x*x
}

func (k spherical) slope(r float64) float64 {
	if r >= k.radius {
		return 0
	}
	x := r / k.radius
	return 1.5 * (x*x - 1) / k.radius
}

func (k spherical) extras() []float64  { return []float64{k.radius} }
func (spherical) extraNames() []string { return []string{"radius"} }
func (spherical) withExtras(p []float64) (kernel, error) {
	r, err := oneExtra(KindSpherical, "radius", p, positive)
	return spherical{radius: r}, err
}

// dampedCosine is e^{-r}·cos(2πfr).
type dampedCosine struct {
	frequency float64
}

func (dampedCosine) kind() string     { return KindExponentiallyDampedCosine }
func (dampedCosine) stationary() bool { return true }
func (dampedCosine) parallel() bool   { return true }
func (k dampedCosine) rho(s, t, scale []float64) float64 {
	return k.profile(scaledNorm(s, t, scale))
}

func (k dampedCosine) profile(r float64) float64 {
	return math.Exp(-r) * math.Cos(2*math.Pi*k.frequency*r)
}

func (k dampedCosine) slope(r float64) float64 {
	w := 2 * math.Pi * k.frequency
	return -math.Exp(-r) * (math.Cos(w*r) + w*math.Sin(w*r))
}

func (k dampedCosine) extras() []float64  { return []float64{k.frequency} }
func (dampedCosine) extraNames() []string { return []string{"frequency"} }
func (dampedCosine) withExtras(p []float64) (kernel, error) {
	f, err := oneExtra(KindExponentiallyDampedCosine, "frequency", p, positive)
	return dampedCosine{frequency: f}, err
}

// generalizedExponential is exp(−r^p), p ∈ (0, 2].
type generalizedExponential struct {
	p float64
}

func (generalizedExponential) kind() string     { return KindGeneralizedExponential }
func (generalizedExponential) stationary() bool { return true }
func (generalizedExponential) parallel() bool   { return true }
func (k generalizedExponential) rho(s, t, scale []float64) float64 {
	return k.profile(scaledNorm(s, t, scale))
}

func (k generalizedExponential) profile(r float64) float64 { return math.Exp(-math.Pow(r, k.p)) }

func (k generalizedExponential) slope(r float64) float64 {
	if r == 0 {
		switch {
		case k.p < 1:
			return math.Inf(-1)
		case k.p == 1:
			return -1
		}
		return 0
	}
	rp := math.Pow(r, k.p)
	return -k.p * rp / r * math.Exp(-rp)
}

func (k generalizedExponential) extras() []float64  { return []float64{k.p} }
func (generalizedExponential) extraNames() []string { return []string{"p"} }
func (generalizedExponential) withExtras(p []float64) (kernel, error) {
	v, err := oneExtra(KindGeneralizedExponential, "p", p, func(x float64) bool { return x > 0 && x <= 2 })
	return generalizedExponential{p: v}, err
}

// absoluteExponential uses the L1 norm of the scaled separation.
type absoluteExponential struct{}

func (absoluteExponential) kind() string     { return KindAbsoluteExponential }
func (absoluteExponential) stationary() bool { return true }
func (absoluteExponential) parallel() bool   { return true }

func (absoluteExponential) rho(s, t, scale []float64) float64 {
	var sum float64
	for k := range s {
		sum += math.Abs(s[k]-t[k]) / scale[k]
	}
	return math.Exp(-sum)
}

func (absoluteExponential) extras() []float64    { return nil }
func (absoluteExponential) extraNames() []string { return nil }
func (k absoluteExponential) withExtras(p []float64) (kernel, error) {
	return k, noExtras(KindAbsoluteExponential, p)
}

// stationaryFunctional evaluates a caller supplied ρ on the scaled
// separation (s−t)/θ.
type stationaryFunctional struct {
	fn   func(tau []float64) float64
	safe bool
}

func (stationaryFunctional) kind() string         { return KindStationaryFunctional }
func (stationaryFunctional) stationary() bool     { return true }
func (k stationaryFunctional) parallel() bool     { return k.safe }
func (stationaryFunctional) extras() []float64    { return nil }
func (stationaryFunctional) extraNames() []string { return nil }

func (k stationaryFunctional) rho(s, t, scale []float64) float64 {
	tau := make([]float64, len(s))
	for i := range s {
		tau[i] = (s[i] - t[i]) / scale[i]
	}
	return k.fn(tau)
}

func (k stationaryFunctional) withExtras(p []float64) (kernel, error) {
	return k, noExtras(KindStationaryFunctional, p)
}
