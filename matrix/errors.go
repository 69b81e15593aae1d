// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. All kernels MUST return these sentinels (optionally wrapped with an
// operation tag) and tests MUST check them via errors.Is. No kernel panics on
// user-triggered error conditions.

package matrix

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/hcov"
)

// NOTE ON NAMING & PREFIXING
// --------------------------
// Error kinds shared with the rest of the module are aliases of the root
// sentinels, so errors.Is(err, hcov.ErrNotPositiveDefinite) and
// errors.Is(err, matrix.ErrNotPositiveDefinite) are interchangeable.
// Package-specific sentinels are prefixed "matrix: ..." and wrap the kind
// they belong to.
//
// ERROR PRIORITY (documented, enforced in tests):
// nil -> shape/dimension -> NaN/Inf -> structural (symmetry, diagonal)
// -> numeric (positive definiteness, singular pivot).

var (
	// ErrInvalidArgument is the root kind for malformed inputs.
	ErrInvalidArgument = hcov.ErrInvalidArgument

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. a right-hand side whose length differs from the matrix order.
	ErrDimensionMismatch = hcov.ErrInvalidDimension

	// ErrNotPositiveDefinite is returned when a Cholesky factorization meets a
	// non-positive pivot.
	ErrNotPositiveDefinite = hcov.ErrNotPositiveDefinite
)

var (
	// ErrNilMatrix indicates that a nil matrix (receiver or argument) was used.
	ErrNilMatrix = fmt.Errorf("matrix: nil matrix: %w", hcov.ErrInvalidArgument)

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = fmt.Errorf("matrix: matrix is not square: %w", hcov.ErrInvalidDimension)

	// ErrAsymmetry signals that a matrix expected to be symmetric violated symmetry
	// within the configured numeric policy (epsilon).
	ErrAsymmetry = fmt.Errorf("matrix: matrix is not symmetric within eps: %w", hcov.ErrInvalidArgument)

	// ErrNotUnitDiagonal signals a correlation matrix whose diagonal is not 1.
	ErrNotUnitDiagonal = fmt.Errorf("matrix: diagonal is not unit within eps: %w", hcov.ErrInvalidArgument)

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = fmt.Errorf("matrix: NaN or Inf encountered: %w", hcov.ErrInvalidArgument)

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	ErrOutOfRange = fmt.Errorf("matrix: index out of range: %w", hcov.ErrInvalidArgument)

	// ErrSingular is returned when a zero pivot is encountered during the
	// non-pivoting LU kernel.
	ErrSingular = fmt.Errorf("matrix: singular matrix: %w", hcov.ErrNotFactorizable)

	// ErrConsumed is returned by a CovarianceMatrix whose storage was handed
	// to a destructive Cholesky factorization.
	ErrConsumed = errors.New("matrix: storage consumed by destructive factorization")
)
