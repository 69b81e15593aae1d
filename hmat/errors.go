// SPDX-License-Identifier: MIT

package hmat

import (
	"fmt"

	"github.com/katalvlaran/hcov"
)

// Error kinds returned by this package; aliases of the module root sentinels.
var (
	ErrInvalidArgument     = hcov.ErrInvalidArgument
	ErrInvalidDimension    = hcov.ErrInvalidDimension
	ErrNotPositiveDefinite = hcov.ErrNotPositiveDefinite
	ErrNotYetImplemented   = hcov.ErrNotYetImplemented
	ErrNotFactorizable     = hcov.ErrNotFactorizable
)

// Operation tags.
const (
	opBuild       = "hmat.Build"
	opAssemble    = "hmat.Assemble"
	opFactorize   = "hmat.Factorize"
	opSolve       = "hmat.Solve"
	opSolveLower  = "hmat.SolveLower"
	opGemv        = "hmat.Gemv"
	opGemm        = "hmat.Gemm"
	opScale       = "hmat.Scale"
	opTranspose   = "hmat.Transpose"
	opAddIdentity = "hmat.AddIdentity"
	opRegularize  = "hmat.RegularizedFactorize"
	opParameters  = "hmat.Parameters"
)

// hmatErrorf wraps err with an operation tag. err must be non-nil.
func hmatErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
