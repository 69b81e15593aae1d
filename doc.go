// SPDX-License-Identifier: MIT

// Package hcov turns continuous covariance functions into linear-algebra
// objects you can factorize and solve with, from a handful of points up to
// meshes far too large for a dense matrix.
//
// What is inside:
//
//   - Covariance kernels: Exponential, Squared-Exponential, Matérn,
//     Spherical, Dirac, Kronecker, fractional Brownian motion, damped
//     cosine and friends, with gradients in space and in parameters.
//   - Parametrization: scale, amplitude, output correlation, nugget and
//     model extras in one flat vector with an active subset for calibration.
//   - Discretization: dense Gram matrices, single rows, Cholesky factors,
//     with Dirac and regular-grid (Toeplitz) shortcuts.
//   - Hierarchical matrices: cluster trees, admissibility, ACA compression,
//     in-place H-Cholesky / H-LU, solves and products.
//
// Packages:
//
//	covariance/ — Model handle (copy-on-write), kernels, discretization, adapters
//	hmat/       — H-Matrix engine: clustering, assembly, factorization, solves
//	matrix/     — covariance / correlation / triangular dense matrices
//	geom/       — point sets, meshes, regular grids, bounding boxes
//	specfunc/   — modified Bessel functions for the Matérn family
//	config/     — resource-map of numeric defaults (YAML + env overrides)
//	logger/     — process-wide structured logger
//	metrics/    — Prometheus collectors
//
// Every failure is reported through one of the error kinds declared in this
// package; match them with errors.Is.
package hcov
