// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// dirac is 1 on coincident points and 0 elsewhere. Scale is ignored.
type dirac struct {
	eps float64
}

func (dirac) kind() string         { return KindDirac }
func (dirac) stationary() bool     { return true }
func (dirac) parallel() bool       { return true }
func (dirac) extras() []float64    { return nil }
func (dirac) extraNames() []string { return nil }

func (k dirac) coincident(s, t []float64) bool {
	return floats.Distance(s, t, 2) <= k.eps
}

func (k dirac) rho(s, t, _ []float64) float64 {
	if k.coincident(s, t) {
		return 1
	}
	return 0
}

func (k dirac) withExtras(p []float64) (kernel, error) {
	return k, noExtras(KindDirac, p)
}

// kronecker is Σ·ρ(s,t) for the scalar correlation of an inner kernel.
type kronecker struct {
	inner kernel
}

func (kronecker) kind() string                        { return KindKronecker }
func (k kronecker) stationary() bool                  { return k.inner.stationary() }
func (k kronecker) parallel() bool                    { return k.inner.parallel() }
func (k kronecker) rho(s, t, scale []float64) float64 { return k.inner.rho(s, t, scale) }
func (k kronecker) extras() []float64                 { return k.inner.extras() }
func (k kronecker) extraNames() []string              { return k.inner.extraNames() }

func (k kronecker) withExtras(p []float64) (kernel, error) {
	in, err := k.inner.withExtras(p)
	if err != nil {
		return nil, err
	}
	return kronecker{inner: in}, nil
}

// product multiplies scalar kernels acting on consecutive, disjoint groups
// of input coordinates.
type product struct {
	children []kernel
	dims     []int
}

func (product) kind() string { return KindProduct }

func (k product) stationary() bool {
	for _, c := range k.children {
		if !c.stationary() {
			return false
		}
	}
	return true
}

func (k product) parallel() bool {
	for _, c := range k.children {
		if !c.parallel() {
			return false
		}
	}
	return true
}

func (k product) rho(s, t, scale []float64) float64 {
	v, off := 1.0, 0
	for c, ch := range k.children {
		d := k.dims[c]
		v *= ch.rho(s[off:off+d], t[off:off+d], scale[off:off+d])
		off += d
	}
	return v
}

func (k product) extras() []float64 {
	var p []float64
	for _, c := range k.children {
		p = append(p, c.extras()...)
	}
	return p
}

func (k product) extraNames() []string {
	var names []string
	for i, c := range k.children {
		for _, n := range c.extraNames() {
			names = append(names, fmt.Sprintf("%s_%d", n, i))
		}
	}
	return names
}

func (k product) withExtras(p []float64) (kernel, error) {
	if want := len(k.extras()); len(p) != want {
		return nil, fmt.Errorf("%s takes %d extra parameters, got %d: %w", KindProduct, want, len(p), ErrInvalidArgument)
	}
	out := product{children: make([]kernel, len(k.children)), dims: k.dims}
	off := 0
	for i, c := range k.children {
		n := len(c.extras())
		ch, err := c.withExtras(p[off : off+n])
		if err != nil {
			return nil, err
		}
		out.children[i] = ch
		off += n
	}
	return out, nil
}
