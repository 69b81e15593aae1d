// SPDX-License-Identifier: MIT

// Package metrics declares the Prometheus collectors updated by the numeric
// core. Collectors are always updated; exposing them is the caller's job
// through Register.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values.
const (
	PathDense    = "dense"
	PathToeplitz = "toeplitz"
	PathDirac    = "dirac"
	PathHMatrix  = "hmatrix"

	BlockFull = "full"
	BlockRk   = "rk"

	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	// DiscretizeDuration observes covariance discretizations by path.
	DiscretizeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hcov_discretize_duration_seconds",
		Help:    "Covariance discretization duration by path",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 12),
	}, []string{"path"})

	// HMatrixBlocks counts assembled H-Matrix leaves by kind.
	HMatrixBlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hcov_hmatrix_blocks_total",
		Help: "Assembled H-Matrix leaf blocks by kind",
	}, []string{"kind"})

	// HMatrixAssemblyDuration observes complete H-Matrix assemblies.
	HMatrixAssemblyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hcov_hmatrix_assembly_duration_seconds",
		Help:    "H-Matrix assembly duration",
		Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
	})

	// HMatrixFactorizations counts factorizations by method and result.
	HMatrixFactorizations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hcov_hmatrix_factorizations_total",
		Help: "H-Matrix factorizations by method and result",
	}, []string{"method", "result"})

	// RegularizationRetries counts diagonal-shift retries.
	RegularizationRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hcov_regularization_retries_total",
		Help: "Diagonal shifts applied by the regularized factorization loop",
	})
)

// Collectors lists every collector of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		DiscretizeDuration,
		HMatrixBlocks,
		HMatrixAssemblyDuration,
		HMatrixFactorizations,
		RegularizationRetries,
	}
}

// Register registers every collector with reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// Since observes the time elapsed from start on h.
func Since(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
