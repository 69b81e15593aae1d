// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/config"
	"github.com/katalvlaran/hcov/geom"
	"github.com/katalvlaran/hcov/hmat"
	"github.com/katalvlaran/hcov/internal/parallel"
	"github.com/katalvlaran/hcov/logger"
	"github.com/katalvlaran/hcov/matrix"
	"github.com/katalvlaran/hcov/metrics"
)

func (m *implementation) checkPoints(op string, points geom.Vertices) error {
	if points == nil {
		return covErrorf(op, fmt.Errorf("nil point set: %w", ErrInvalidArgument))
	}
	if points.Size() > 0 && points.Dimension() != m.inputDim {
		return covErrorf(op, fmt.Errorf("point dimension %d, want %d: %w", points.Dimension(), m.inputDim, ErrInvalidDimension))
	}
	return nil
}

// workers returns the pool size for n rows: 1 when the kernel is not safe
// for concurrent use or n is below Discretization-ParallelThreshold.
func (m *implementation) workers(n int) int {
	r := config.Default()
	if !m.k.parallel() || n < r.Int(config.DiscretizationParallelThreshold) {
		return 1
	}
	return r.Int(config.DiscretizationWorkers)
}

// Discretize returns the (N·d)×(N·d) covariance matrix of points with block
// (i,j) = C(points[i], points[j]) and the nugget added to the diagonal.
func (m Model) Discretize(points geom.Vertices) (*matrix.CovarianceMatrix, error) {
	impl := m.impl
	if err := impl.checkPoints(opDiscretize, points); err != nil {
		return nil, err
	}
	start := time.Now()
	n, d := points.Size(), impl.outputDim
	if n == 0 {
		return matrix.NewCovarianceMatrix(0)
	}

	sym := mat.NewSymDense(n*d, nil)
	path := metrics.PathDense
	switch {
	case impl.isDirac():
		path = metrics.PathDirac
		impl.fillDirac(sym, points)
	case impl.toeplitz(points):
		path = metrics.PathToeplitz
		impl.fillToeplitz(sym, points)
	default:
		err := parallel.For(n, impl.workers(n), func(i int) error {
			block := make([]float64, d*d)
			si := points.Vertex(i)
			for j := 0; j <= i; j++ {
				impl.eval(si, points.Vertex(j), block)
				setBlock(sym, i, j, d, block)
			}
			return nil
		})
		if err != nil {
			return nil, covErrorf(opDiscretize, err)
		}
	}

	c := matrix.WrapSymDense(sym)
	if impl.nugget > 0 {
		if err := c.AddDiagonal(impl.nugget); err != nil {
			return nil, covErrorf(opDiscretize, err)
		}
	}
	metrics.Since(metrics.DiscretizeDuration.WithLabelValues(path), start)
	logger.Log.Debugw("covariance discretized",
		"kind", m.Kind(), "path", path, "points", n, "outputDimension", d,
		"elapsed", time.Since(start))

	return c, nil
}

// setBlock writes the row-major d×d block of points (i, j), j ≤ i. Only
// the upper storage of sym is touched, so distinct i never overlap.
func setBlock(sym *mat.SymDense, i, j, d int, block []float64) {
	for a := 0; a < d; a++ {
		for b := 0; b < d; b++ {
			if i == j && b < a {
				continue
			}
			sym.SetSym(i*d+a, j*d+b, block[a*d+b])
		}
	}
}

func (m *implementation) isDirac() bool {
	_, ok := m.k.(dirac)
	return ok
}

// toeplitz reports whether points is a regular grid on which the kernel
// only depends on the index difference.
func (m *implementation) toeplitz(points geom.Vertices) bool {
	if _, ok := points.(*geom.RegularGrid); !ok {
		return false
	}
	if _, ok := m.k.(evaluator); ok {
		return false
	}
	return m.k.stationary()
}

// fillToeplitz evaluates C(x_k, x_0) once per lag k.
func (m *implementation) fillToeplitz(sym *mat.SymDense, points geom.Vertices) {
	n, d := points.Size(), m.outputDim
	lags := make([][]float64, n)
	x0 := points.Vertex(0)
	for k := range lags {
		lags[k] = make([]float64, d*d)
		m.eval(points.Vertex(k), x0, lags[k])
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			setBlock(sym, i, j, d, lags[i-j])
		}
	}
}

// fillDirac writes Σ on the blocks of coincident points only.
func (m *implementation) fillDirac(sym *mat.SymDense, points geom.Vertices) {
	d := m.outputDim
	sigma := make([]float64, d*d)
	m.evalSigma(sigma)
	eps := m.k.(dirac).eps
	coincidentPairs(points, eps, func(i, j int) {
		if j <= i {
			setBlock(sym, i, j, d, sigma)
		}
	})
}

// DiscretizeRow returns the d × N·d block row of point p; it equals rows
// p·d..p·d+d−1 of Discretize(points).
func (m Model) DiscretizeRow(points geom.Vertices, p int) (*mat.Dense, error) {
	impl := m.impl
	if err := impl.checkPoints(opDiscretizeRow, points); err != nil {
		return nil, err
	}
	n, d := points.Size(), impl.outputDim
	if p < 0 || p >= n {
		return nil, covErrorf(opDiscretizeRow, fmt.Errorf("row %d outside [0,%d): %w", p, n, ErrInvalidArgument))
	}
	row := mat.NewDense(d, n*d, nil)
	block := make([]float64, d*d)
	sp := points.Vertex(p)
	for j := 0; j < n; j++ {
		impl.eval(sp, points.Vertex(j), block)
		if j == p {
			for a := 0; a < d; a++ {
				block[a*d+a] += impl.nugget
			}
		}
		for a := 0; a < d; a++ {
			copy(row.RawRowView(a)[j*d:(j+1)*d], block[a*d:(a+1)*d])
		}
	}
	return row, nil
}

// DiscretizeAndFactorize returns the lower Cholesky factor L of
// Discretize(points), L·Lᵀ = M.
func (m Model) DiscretizeAndFactorize(points geom.Vertices) (*matrix.TriangularMatrix, error) {
	c, err := m.Discretize(points)
	if err != nil {
		return nil, covErrorf(opDiscretizeFactorize, err)
	}
	l, err := c.ComputeCholesky(false)
	if err != nil {
		return nil, covErrorf(opDiscretizeFactorize, err)
	}
	return l, nil
}

// ComputeCrossCovariance returns the (N·d)×(M·d) matrix of C(points[i],
// other[j]). The nugget is not applied.
func (m Model) ComputeCrossCovariance(points, other geom.Vertices) (*mat.Dense, error) {
	impl := m.impl
	if err := impl.checkPoints(opCrossCovariance, points); err != nil {
		return nil, err
	}
	if err := impl.checkPoints(opCrossCovariance, other); err != nil {
		return nil, err
	}
	n, k, d := points.Size(), other.Size(), impl.outputDim
	if n == 0 || k == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(n*d, k*d, nil)
	// Rows cost the same, so contiguous row ranges share one block buffer.
	err := parallel.Chunks(n, impl.workers(n), func(lo, hi int) error {
		block := make([]float64, d*d)
		for i := lo; i < hi; i++ {
			si := points.Vertex(i)
			for j := 0; j < k; j++ {
				impl.eval(si, other.Vertex(j), block)
				for a := 0; a < d; a++ {
					copy(out.RawRowView(i*d + a)[j*d:(j+1)*d], block[a*d:(a+1)*d])
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, covErrorf(opCrossCovariance, err)
	}
	return out, nil
}

// DiscretizeHMatrix builds and assembles the symmetric H-Matrix of the model
// on points. The tensor protocol is used when outputDimension > 1. Models
// that are not parallel-safe are assembled by a single worker.
func (m Model) DiscretizeHMatrix(points geom.Vertices, p hmat.Parameters) (*hmat.HMatrix, error) {
	impl := m.impl
	if err := impl.checkPoints(opDiscretizeHMatrix, points); err != nil {
		return nil, err
	}
	start := time.Now()
	if !impl.k.parallel() {
		p.Workers = 1
	}
	h, err := hmat.Build(points, impl.outputDim, true, p)
	if err != nil {
		return nil, covErrorf(opDiscretizeHMatrix, err)
	}
	if impl.outputDim == 1 {
		err = h.Assemble(&CovarianceAssemblyFunction{impl: impl, points: points})
	} else {
		err = h.AssembleTensor(&CovarianceBlockAssemblyFunction{impl: impl, points: points})
	}
	if err != nil {
		return nil, covErrorf(opDiscretizeHMatrix, err)
	}
	metrics.Since(metrics.DiscretizeDuration.WithLabelValues(metrics.PathHMatrix), start)

	return h, nil
}

// DiscretizeAndFactorizeHMatrix assembles the H-Matrix and factorizes it
// with p.FactorizationMethod, shifting the diagonal when needed. The shift
// starts at CovarianceModel-StartingScaling, doubles on each failure and is
// capped by CovarianceModel-MaximalScaling. It returns the applied shift.
func (m Model) DiscretizeAndFactorizeHMatrix(points geom.Vertices, p hmat.Parameters) (*hmat.HMatrix, float64, error) {
	h, err := m.DiscretizeHMatrix(points, p)
	if err != nil {
		return nil, 0, err
	}
	r := config.Default()
	shift, err := h.RegularizedFactorize(p.FactorizationMethod,
		r.Float(config.CovarianceStartingScaling), r.Float(config.CovarianceMaximalScaling))
	if err != nil {
		return nil, 0, covErrorf(opDiscretizeHMatrix, err)
	}
	if shift > 0 {
		logger.Log.Debugw("covariance hmatrix regularized", "kind", m.Kind(), "shift", shift)
	}
	return h, shift, nil
}
