// SPDX-License-Identifier: MIT

// Package hcov: the error taxonomy shared by every subpackage.
// Subpackages re-export these sentinels under their own names and attach
// context with an operation tag; callers match the kind with errors.Is.

package hcov

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed construction parameters: non-positive
	// scale or amplitude, wrong-size parameter vectors, unknown method names.
	ErrInvalidArgument = errors.New("hcov: invalid argument")

	// ErrInvalidDimension marks mismatched point/matrix dimensions passed
	// across a boundary.
	ErrInvalidDimension = errors.New("hcov: invalid dimension")

	// ErrNotPositiveDefinite is returned when a Cholesky (dense or
	// hierarchical) meets a non-SPD matrix after any regularization ran out.
	ErrNotPositiveDefinite = errors.New("hcov: matrix is not positive definite")

	// ErrNotYetImplemented marks an unavailable backend or an operation a
	// given kernel deliberately does not support.
	ErrNotYetImplemented = errors.New("hcov: not yet implemented")

	// ErrNotFactorizable is returned by operations requiring a factorized
	// H-Matrix on one that is not, or on one whose factorization failed.
	ErrNotFactorizable = errors.New("hcov: matrix is not factorized")
)

// Errorf wraps kind with an operation tag and a formatted detail:
// "<op>: <detail>: <kind>". The result matches kind under errors.Is.
func Errorf(op string, kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), kind)
}
