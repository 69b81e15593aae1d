// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"

	"github.com/katalvlaran/hcov/geom"
)

// CovarianceAssemblyFunction yields single coefficients of the discretized
// covariance for hmat.HMatrix.Assemble. Indices are dofs:
// dof = point·outputDimension + component. Safe for concurrent use when the
// model is.
type CovarianceAssemblyFunction struct {
	impl   *implementation
	points geom.Vertices
}

// NewCovarianceAssemblyFunction binds m to points. Later changes to m do not
// affect the adapter.
func NewCovarianceAssemblyFunction(m Model, points geom.Vertices) (*CovarianceAssemblyFunction, error) {
	if err := m.impl.checkPoints(opAssemblyFunction, points); err != nil {
		return nil, err
	}
	return &CovarianceAssemblyFunction{impl: m.impl, points: points}, nil
}

// Coefficient returns M[i,j]; the nugget is added only when i == j.
func (f *CovarianceAssemblyFunction) Coefficient(i, j int) float64 {
	d := f.impl.outputDim
	pi, a := i/d, i%d
	pj, b := j/d, j%d
	var v float64
	if d == 1 {
		var one [1]float64
		f.impl.eval(f.points.Vertex(pi), f.points.Vertex(pj), one[:])
		v = one[0]
	} else {
		block := make([]float64, d*d)
		f.impl.eval(f.points.Vertex(pi), f.points.Vertex(pj), block)
		v = block[a*d+b]
	}
	if i == j {
		v += f.impl.nugget
	}
	return v
}

// CovarianceBlockAssemblyFunction yields the d×d block between two points
// for hmat.HMatrix.AssembleTensor, evaluating the model once per block.
type CovarianceBlockAssemblyFunction struct {
	impl   *implementation
	points geom.Vertices
}

// NewCovarianceBlockAssemblyFunction binds m to points.
func NewCovarianceBlockAssemblyFunction(m Model, points geom.Vertices) (*CovarianceBlockAssemblyFunction, error) {
	if err := m.impl.checkPoints(opAssemblyFunction, points); err != nil {
		return nil, err
	}
	return &CovarianceBlockAssemblyFunction{impl: m.impl, points: points}, nil
}

// ComputeBlock writes C(points[i], points[j]) row-major into out, plus the
// nugget on the diagonal when i == j. out must hold outputDimension² values.
func (f *CovarianceBlockAssemblyFunction) ComputeBlock(i, j int, out []float64) {
	d := f.impl.outputDim
	if len(out) < d*d {
		panic(fmt.Sprintf("covariance: block buffer has %d entries, want %d", len(out), d*d))
	}
	f.impl.eval(f.points.Vertex(i), f.points.Vertex(j), out[:d*d])
	if i == j {
		for a := 0; a < d; a++ {
			out[a*d+a] += f.impl.nugget
		}
	}
}
