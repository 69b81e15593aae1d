// SPDX-License-Identifier: MIT

package hmat

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov/internal/parallel"
	"github.com/katalvlaran/hcov/logger"
	"github.com/katalvlaran/hcov/metrics"
)

// AssemblyFunction yields single matrix coefficients. i and j are dof
// indices in the original numbering: dof = point·outputDimension + component.
type AssemblyFunction interface {
	Coefficient(i, j int) float64
}

// TensorAssemblyFunction yields the d×d block between two points. i and j
// are point indices in the original numbering; out has length d·d and is
// filled row-major.
type TensorAssemblyFunction interface {
	ComputeBlock(i, j int, out []float64)
}

// AssemblyFunc adapts a plain function to AssemblyFunction.
type AssemblyFunc func(i, j int) float64

// Coefficient calls f(i, j).
func (f AssemblyFunc) Coefficient(i, j int) float64 { return f(i, j) }

// TensorAssemblyFunc adapts a plain function to TensorAssemblyFunction.
type TensorAssemblyFunc func(i, j int, out []float64)

// ComputeBlock calls f(i, j, out).
func (f TensorAssemblyFunc) ComputeBlock(i, j int, out []float64) { f(i, j, out) }

// generator fills dst with the dof block of rowPts×colPts (original point
// indices). dst is (len(rowPts)·d)×(len(colPts)·d).
type generator interface {
	fill(dst *mat.Dense, rowPts, colPts []int)
}

type scalarGenerator struct {
	f AssemblyFunction
	d int
}

func (g scalarGenerator) fill(dst *mat.Dense, rowPts, colPts []int) {
	d := g.d
	for rp, i := range rowPts {
		for a := 0; a < d; a++ {
			row := dst.RawRowView(rp*d + a)
			for cp, j := range colPts {
				for b := 0; b < d; b++ {
					row[cp*d+b] = g.f.Coefficient(i*d+a, j*d+b)
				}
			}
		}
	}
}

type tensorGenerator struct {
	f TensorAssemblyFunction
	d int
}

func (g tensorGenerator) fill(dst *mat.Dense, rowPts, colPts []int) {
	d := g.d
	buf := make([]float64, d*d)
	for rp, i := range rowPts {
		for cp, j := range colPts {
			g.f.ComputeBlock(i, j, buf)
			for a := 0; a < d; a++ {
				copy(dst.RawRowView(rp*d + a)[cp*d:cp*d+d], buf[a*d:a*d+d])
			}
		}
	}
}

// Assemble fills every leaf of the block tree from f. In symmetric mode
// only blocks on or below the diagonal are generated; their mirrors are
// written by the same task.
func (h *HMatrix) Assemble(f AssemblyFunction) error {
	if f == nil {
		return hmatErrorf(opAssemble, ErrInvalidArgument)
	}
	return h.assemble(scalarGenerator{f: f, d: h.d})
}

// AssembleTensor is Assemble for point-block generators.
func (h *HMatrix) AssembleTensor(f TensorAssemblyFunction) error {
	if f == nil {
		return hmatErrorf(opAssemble, ErrInvalidArgument)
	}
	return h.assemble(tensorGenerator{f: f, d: h.d})
}

type blockKey struct{ rows, cols *ClusterNode }

func (h *HMatrix) assemble(g generator) error {
	if h.state == StateUninitialized {
		return hmatErrorf(opAssemble, ErrInvalidArgument)
	}
	start := time.Now()

	var tasks []*block
	mirrors := make(map[blockKey]*block)
	h.root.walkLeaves(func(b *block) {
		if h.symmetric {
			mirrors[blockKey{b.rows, b.cols}] = b
			if b.isStrictlyUpper() {
				return
			}
		}
		tasks = append(tasks, b)
	})

	perm := h.tree.Perm
	err := parallel.For(len(tasks), h.params.Workers, func(k int) error {
		b := tasks[k]
		rowPts := perm[b.rows.Offset : b.rows.Offset+b.rows.Size]
		colPts := perm[b.cols.Offset : b.cols.Offset+b.cols.Size]
		switch b.kind {
		case kindFull:
			b.full = mat.NewDense(b.rowLen, b.colLen, nil)
			g.fill(b.full, rowPts, colPts)
		case kindRk:
			lr := compressBlock(g, rowPts, colPts, h.d, h.params)
			b.u, b.v = lr.u, lr.v
		}
		if !h.symmetric || b.isDiagonal() {
			return nil
		}
		m := mirrors[blockKey{b.cols, b.rows}]
		switch b.kind {
		case kindFull:
			m.full = mat.DenseCopyOf(b.full.T())
		case kindRk:
			if b.u != nil {
				m.u, m.v = mat.DenseCopyOf(b.v), mat.DenseCopyOf(b.u)
			} else {
				m.u, m.v = nil, nil
			}
		}
		return nil
	})
	if err != nil {
		h.state = StateFailed
		return hmatErrorf(opAssemble, err)
	}

	full, rk := 0, 0
	h.root.walkLeaves(func(b *block) {
		if b.kind == kindFull {
			full++
		} else {
			rk++
		}
	})
	metrics.HMatrixBlocks.WithLabelValues(metrics.BlockFull).Add(float64(full))
	metrics.HMatrixBlocks.WithLabelValues(metrics.BlockRk).Add(float64(rk))
	metrics.Since(metrics.HMatrixAssemblyDuration, start)
	h.state = StateAssembled
	h.factorization = ""
	stored, dense := h.CompressionRatio()
	logger.Log.Debugw("hmatrix assembled",
		"dim", h.Dim(), "full", full, "rk", rk,
		"stored", stored, "dense", dense, "elapsed", time.Since(start))

	return nil
}
