// SPDX-License-Identifier: MIT

package hmat

import (
	"math"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/config"
)

// Clustering algorithm names.
const (
	ClusteringMedian    = "median"
	ClusteringGeometric = "geometric"
	ClusteringHybrid    = "hybrid"
)

// Compression method names.
const (
	CompressionAcaPartial = "AcaPartial"
	CompressionAcaFull    = "AcaFull"
	CompressionSvd        = "Svd"
)

// Factorization method names.
const (
	FactorizationLLt = "LLt"
	FactorizationLU  = "LU"
)

// Parameters configures clustering, compression and factorization.
type Parameters struct {
	// AssemblyEpsilon is the relative accuracy of each compressed block.
	AssemblyEpsilon float64
	// RecompressionEpsilon truncates singular values after assembly and
	// after every low-rank addition.
	RecompressionEpsilon float64
	// AdmissibilityFactor is η in min(diam A, diam B) ≤ η·dist(A, B).
	AdmissibilityFactor float64
	ClusteringAlgorithm string
	CompressionMethod   string
	FactorizationMethod string
	// MaxLeafSize bounds the point count of a cluster-tree leaf.
	MaxLeafSize int
	// HybridBalanceRatio is the smallest child fraction the hybrid
	// clustering accepts before falling back to a median split.
	HybridBalanceRatio float64
	// Workers bounds assembly parallelism; 0 means GOMAXPROCS.
	Workers int
}

// DefaultParameters reads every field from config.Default().
func DefaultParameters() Parameters {
	return ParametersFrom(config.Default())
}

// ParametersFrom reads every field from r.
func ParametersFrom(r *config.ResourceMap) Parameters {
	return Parameters{
		AssemblyEpsilon:      r.Float(config.HMatrixAssemblyEpsilon),
		RecompressionEpsilon: r.Float(config.HMatrixRecompressionEpsilon),
		AdmissibilityFactor:  r.Float(config.HMatrixAdmissibilityFactor),
		ClusteringAlgorithm:  r.String(config.HMatrixClusteringAlgorithm),
		CompressionMethod:    r.String(config.HMatrixCompressionMethod),
		FactorizationMethod:  r.String(config.HMatrixFactorizationMethod),
		MaxLeafSize:          r.Int(config.HMatrixMaxLeafSize),
		HybridBalanceRatio:   r.Float(config.HMatrixHybridBalanceRatio),
		Workers:              r.Int(config.HMatrixWorkers),
	}
}

// Validate checks ranges and method names.
// Errors: ErrInvalidArgument naming the offending field.
func (p Parameters) Validate() error {
	positive := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
	switch {
	case !positive(p.AssemblyEpsilon):
		return hcov.Errorf(opParameters, ErrInvalidArgument, "AssemblyEpsilon=%g", p.AssemblyEpsilon)
	case !positive(p.RecompressionEpsilon):
		return hcov.Errorf(opParameters, ErrInvalidArgument, "RecompressionEpsilon=%g", p.RecompressionEpsilon)
	case !(p.AdmissibilityFactor >= 0) || math.IsInf(p.AdmissibilityFactor, 0):
		return hcov.Errorf(opParameters, ErrInvalidArgument, "AdmissibilityFactor=%g", p.AdmissibilityFactor)
	case p.MaxLeafSize < 1:
		return hcov.Errorf(opParameters, ErrInvalidArgument, "MaxLeafSize=%d", p.MaxLeafSize)
	case p.HybridBalanceRatio < 0 || p.HybridBalanceRatio >= 0.5:
		return hcov.Errorf(opParameters, ErrInvalidArgument, "HybridBalanceRatio=%g", p.HybridBalanceRatio)
	}
	switch p.ClusteringAlgorithm {
	case ClusteringMedian, ClusteringGeometric, ClusteringHybrid:
	default:
		return hcov.Errorf(opParameters, ErrInvalidArgument, "unknown clustering algorithm %q", p.ClusteringAlgorithm)
	}
	switch p.CompressionMethod {
	case CompressionAcaPartial, CompressionAcaFull, CompressionSvd:
	default:
		return hcov.Errorf(opParameters, ErrInvalidArgument, "unknown compression method %q", p.CompressionMethod)
	}

	return validFactorization(p.FactorizationMethod)
}

func validFactorization(method string) error {
	switch method {
	case FactorizationLLt, FactorizationLU:
		return nil
	}
	return hcov.Errorf(opParameters, ErrInvalidArgument, "unknown factorization method %q", method)
}
