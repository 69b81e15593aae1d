// SPDX-License-Identifier: MIT

// Package config is a resource map of named numeric and string defaults.
//
// Purpose:
//   - One place for every tunable the numeric core reads: H-Matrix epsilons,
//     clustering and compression names, regularization start/cap, kernel
//     extras, worker counts.
//   - Precedence: explicit Set > environment (HCOV_ prefix) > YAML file > built-in defaults.
//
// Keys keep their human-readable "Family-Name" spelling. Lookups are
// case-insensitive; environment variables replace '-' by '_' and are upper
// cased (HMatrix-MaxLeafSize -> HCOV_HMATRIX_MAXLEAFSIZE).
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/hcov"
)

// Keys of the resource map.
const (
	HMatrixAssemblyEpsilon      = "HMatrix-AssemblyEpsilon"
	HMatrixRecompressionEpsilon = "HMatrix-RecompressionEpsilon"
	HMatrixAdmissibilityFactor  = "HMatrix-AdmissibilityFactor"
	HMatrixClusteringAlgorithm  = "HMatrix-ClusteringAlgorithm"
	HMatrixCompressionMethod    = "HMatrix-CompressionMethod"
	HMatrixFactorizationMethod  = "HMatrix-FactorizationMethod"
	HMatrixMaxLeafSize          = "HMatrix-MaxLeafSize"
	HMatrixHybridBalanceRatio   = "HMatrix-HybridBalanceRatio"
	HMatrixWorkers              = "HMatrix-Workers"

	CovarianceStartingScaling       = "CovarianceModel-StartingScaling"
	CovarianceMaximalScaling        = "CovarianceModel-MaximalScaling"
	CovarianceFiniteDifferenceStep  = "CovarianceModel-FiniteDifferenceStep"
	CovarianceDiracEpsilon          = "CovarianceModel-DiracEpsilon"
	MaternDefaultNu                 = "MaternModel-DefaultNu"
	SphericalDefaultRadius          = "SphericalModel-DefaultRadius"
	GeneralizedExponentialDefaultP  = "GeneralizedExponentialModel-DefaultP"
	DampedCosineDefaultFrequency    = "ExponentiallyDampedCosineModel-DefaultFrequency"
	DiscretizationWorkers           = "Discretization-Workers"
	DiscretizationParallelThreshold = "Discretization-ParallelThreshold"
)

// EnvPrefix is prepended to environment overrides.
const EnvPrefix = "HCOV"

// defaults is the single source of truth for built-in values.
var defaults = map[string]any{
	HMatrixAssemblyEpsilon:      1.0e-5,
	HMatrixRecompressionEpsilon: 1.0e-5,
	HMatrixAdmissibilityFactor:  100.0,
	HMatrixClusteringAlgorithm:  "median",
	HMatrixCompressionMethod:    "AcaPartial",
	HMatrixFactorizationMethod:  "LLt",
	HMatrixMaxLeafSize:          250,
	HMatrixHybridBalanceRatio:   0.25,
	HMatrixWorkers:              0,

	CovarianceStartingScaling:       1.0e-13,
	CovarianceMaximalScaling:        1.0e5,
	CovarianceFiniteDifferenceStep:  1.0e-5,
	CovarianceDiracEpsilon:          2.220446049250313e-16,
	MaternDefaultNu:                 1.5,
	SphericalDefaultRadius:          1.0,
	GeneralizedExponentialDefaultP:  1.0,
	DampedCosineDefaultFrequency:    1.0,
	DiscretizationWorkers:           0,
	DiscretizationParallelThreshold: 64,
}

// ResourceMap is a concurrency-safe view over a viper instance.
type ResourceMap struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// New returns a ResourceMap holding the built-in defaults with environment
// overrides enabled.
func New() *ResourceMap {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &ResourceMap{v: v}
}

var (
	defaultOnce sync.Once
	defaultMap  *ResourceMap
)

// Default returns the process-wide resource map.
func Default() *ResourceMap {
	defaultOnce.Do(func() { defaultMap = New() })
	return defaultMap
}

// Load merges a YAML file into the map. Keys absent from the file keep their
// previous value.
func (r *ResourceMap) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	return r.Read(bytes.NewReader(raw))
}

// Read merges a YAML document into the map.
func (r *ResourceMap) Read(in io.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.v.SetConfigType("yaml")
	if err := r.v.MergeConfig(in); err != nil {
		return hcov.Errorf("config.Read", hcov.ErrInvalidArgument, "%v", err)
	}

	return nil
}

// Set overrides key with val (highest precedence).
func (r *ResourceMap) Set(key string, val any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.v.Set(key, val)
}

// Float returns key as a float64.
func (r *ResourceMap) Float(key string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetFloat64(key)
}

// Int returns key as an int.
func (r *ResourceMap) Int(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetInt(key)
}

// String returns key as a string.
func (r *ResourceMap) String(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.GetString(key)
}

// Has reports whether key has a value from any source.
func (r *ResourceMap) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v.IsSet(key)
}

// Keys returns every known key, sorted.
func (r *ResourceMap) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := r.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Write dumps the effective settings as YAML.
func (r *ResourceMap) Write(w io.Writer) error {
	r.mu.RLock()
	settings := r.v.AllSettings()
	r.mu.RUnlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("config.Write: %w", err)
	}

	return enc.Close()
}
