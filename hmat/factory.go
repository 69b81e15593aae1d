// SPDX-License-Identifier: MIT

package hmat

import (
	"time"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/geom"
	"github.com/katalvlaran/hcov/logger"
)

// IsAvailable reports whether Build can produce hierarchical matrices.
// Callers choosing between a dense and a hierarchical path check it first.
func IsAvailable() bool { return backendAvailable }

// Build clusters points and lays out an empty hierarchical matrix of size
// (points·outputDimension)² ready for Assemble.
//
// Errors:
//   - ErrNotYetImplemented when IsAvailable is false.
//   - ErrInvalidDimension on an empty sample or outputDimension < 1.
//   - ErrInvalidArgument on invalid parameters.
func Build(points geom.Vertices, outputDimension int, symmetric bool, p Parameters) (*HMatrix, error) {
	if !IsAvailable() {
		return nil, hcov.Errorf(opBuild, ErrNotYetImplemented, "hierarchical matrix backend disabled at build time")
	}
	if points == nil || points.Size() == 0 {
		return nil, hcov.Errorf(opBuild, ErrInvalidDimension, "empty point set")
	}
	if outputDimension < 1 {
		return nil, hcov.Errorf(opBuild, ErrInvalidDimension, "outputDimension=%d", outputDimension)
	}
	if err := p.Validate(); err != nil {
		return nil, hmatErrorf(opBuild, err)
	}

	start := time.Now()
	tree, err := BuildClusterTree(points, p.ClusteringAlgorithm, p.MaxLeafSize, p.HybridBalanceRatio)
	if err != nil {
		return nil, err
	}
	h := newHMatrix(tree, outputDimension, symmetric, p)
	full, rk := 0, 0
	h.root.walkLeaves(func(b *block) {
		if b.kind == kindFull {
			full++
		} else {
			rk++
		}
	})
	logger.Log.Debugw("hmatrix structure built",
		"points", points.Size(), "outputDimension", outputDimension,
		"clustering", p.ClusteringAlgorithm, "depth", tree.Depth(),
		"fullLeaves", full, "rkLeaves", rk, "elapsed", time.Since(start))

	return h, nil
}
