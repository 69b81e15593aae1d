// SPDX-License-Identifier: MIT

// Package matrix provides the dense symmetric matrices produced by covariance
// discretization and the factorizations used on them.
//
// What & Why:
//
//	CovarianceMatrix is a symmetric dense matrix backed by gonum's SymDense. It
//	supports a blocked Cholesky factorization (LAPACK dpotrf through
//	lapack64.Potrf), optionally destructive to halve peak memory, a cached
//	positive-definiteness test, eigenvalues and solves through the factor.
//	CorrelationMatrix additionally pins a unit diagonal. TriangularMatrix wraps
//	the lower factor L and offers forward/backward substitution, L·z products
//	and L·Lᵀ reconstruction.
//
//	The non-pivoting Doolittle kernel (LUInPlace) factors the dense leaves of
//	hierarchical LU factorizations.
//
// Errors:
//
//	Sentinels live in errors.go; shared kinds alias the module root
//	(ErrNotPositiveDefinite, ErrDimensionMismatch), package-specific ones wrap
//	their kind. Always match with errors.Is.
//
// Complexity:
//
//	At/Set are O(1); Cholesky O(n³/3); solves O(n²) once factored.
package matrix
