// SPDX-License-Identifier: MIT

// Package specfunc evaluates the special functions behind the Matérn family:
// the modified Bessel function of the second kind K_ν and the normalized
// Matérn correlation 2^{1-ν}/Γ(ν)·x^ν·K_ν(x).
//
// K_ν is computed from the integral representation
//
//	K_ν(x) = ∫₀^∞ exp(-x·cosh t)·cosh(ν t) dt,  x > 0,
//
// in log space: the exponent -x·cosh t + ν t peaks at t* = asinh(ν/x), the
// peak is factored out and the remainder is integrated with composite
// Gauss–Legendre panels over the window where the integrand exceeds e^-46
// of its maximum. Nodes come from gonum's quad.Legendre and are computed once.
package specfunc

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/katalvlaran/hcov"
)

const (
	panelNodes = 20
	maxPanels  = 2000
	logDrop    = 46.0
)

var (
	nodesOnce sync.Once
	unitX     []float64
	unitW     []float64
)

func unitNodes() ([]float64, []float64) {
	nodesOnce.Do(func() {
		unitX = make([]float64, panelNodes)
		unitW = make([]float64, panelNodes)
		quad.Legendre{}.FixedLocations(unitX, unitW, 0, 1)
	})
	return unitX, unitW
}

// LogBesselK returns log K_ν(x) for x > 0 and any real ν (K_ν = K_-ν).
// Errors: ErrInvalidArgument when x ≤ 0 or an input is not finite.
func LogBesselK(nu, x float64) (float64, error) {
	if !(x > 0) || math.IsInf(x, 0) || math.IsNaN(nu) || math.IsInf(nu, 0) {
		return 0, hcov.Errorf("specfunc.LogBesselK", hcov.ErrInvalidArgument, "nu=%g x=%g", nu, x)
	}
	nu = math.Abs(nu)
	if nu == 0.5 {
		return 0.5*math.Log(math.Pi/(2*x)) - x, nil
	}

	exponent := func(t float64) float64 { return -x*math.Cosh(t) + nu*t }
	peak := math.Asinh(nu / x)
	gmax := exponent(peak)

	// Curvature at the peak is -sqrt(x²+ν²); panels no wider than the
	// Gaussian width and never wider than 1/2.
	width := math.Min(0.5, 1/math.Sqrt(math.Sqrt(x*x+nu*nu)))

	lo := peak
	for lo > 0 && gmax-exponent(lo) < logDrop {
		lo -= width
	}
	if lo < 0 {
		lo = 0
	}
	hi := peak + width
	for gmax-exponent(hi) < logDrop {
		hi += width
	}

	panels := int(math.Ceil((hi - lo) / width))
	if panels > maxPanels {
		panels = maxPanels
	}
	h := (hi - lo) / float64(panels)
	xs, ws := unitNodes()

	var sum float64
	for p := 0; p < panels; p++ {
		a := lo + float64(p)*h
		for k := range xs {
			t := a + h*xs[k]
			// cosh(νt) = e^{νt}(1+e^{-2νt})/2
			sum += ws[k] * math.Exp(exponent(t)-gmax) * 0.5 * (1 + math.Exp(-2*nu*t))
		}
	}
	sum *= h

	return gmax + math.Log(sum), nil
}

// BesselK returns K_ν(x) for x > 0.
func BesselK(nu, x float64) (float64, error) {
	l, err := LogBesselK(nu, x)
	if err != nil {
		return 0, err
	}
	return math.Exp(l), nil
}
