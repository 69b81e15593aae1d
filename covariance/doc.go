// SPDX-License-Identifier: MIT

// Package covariance defines stationary and non-stationary covariance
// models and turns them into dense or hierarchical covariance matrices.
//
// What:
//
//   - Model is a value handle over an immutable implementation. Copies share
//     the implementation; every setter clones it first, so no handle ever
//     observes another handle's mutation.
//   - Kernels: Exponential, SquaredExponential, Matern(ν), Spherical(R),
//     Dirac, Kronecker(ρ, Σ), FractionalBrownianMotion,
//     ExponentiallyDampedCosine(f), AbsoluteExponential,
//     GeneralizedExponential(p), Product and StationaryFunctional.
//   - A separable model evaluates to C(s,t) = Σ·ρ(s,t) where
//     Σ = diag(amplitude)·R·diag(amplitude) and ρ is the kernel correlation
//     of the scaled separation. FractionalBrownianMotion combines the output
//     components itself.
//
// Parameters:
//
// The flat full parameter vector is laid out as
//
//	scale[0..inputDim) | amplitude[0..outputDim) | R strict upper, row-major | nugget | extras
//
// where the scale entries follow the model's ScaleParametrization. The
// active subset (default: scale and amplitude) is what Parameter and
// SetParameter expose to a calibration loop.
//
// Discretization:
//
//   - Discretize builds the (N·d)×(N·d) matrix with the nugget on the dof
//     diagonal. Dirac kernels only visit coincident points (kd-tree), and
//     stationary kernels on a geom.RegularGrid evaluate N blocks instead of
//     N²/2 (Toeplitz).
//   - Rows are computed on a bounded worker pool unless the model reports
//     IsParallel() == false.
//   - DiscretizeHMatrix and DiscretizeAndFactorizeHMatrix go through package
//     hmat with the adapters CovarianceAssemblyFunction and
//     CovarianceBlockAssemblyFunction.
//
// Errors:
//
// Non-positive scale or amplitude and malformed parameter vectors wrap
// ErrInvalidArgument; point dimension mismatches wrap ErrInvalidDimension;
// failed Cholesky factorizations wrap ErrNotPositiveDefinite; gradients of
// the Dirac kernel and persistence of functional kernels wrap
// ErrNotYetImplemented.
package covariance
