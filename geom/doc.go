// SPDX-License-Identifier: MIT

// Package geom provides the point sets covariance models discretize over.
//
// The package provides:
//
//   - Vertices, the narrow read-only interface consumed by discretization
//     and clustering: an ordered sequence of fixed-dimension coordinates.
//   - Sample, a row-major N×d coordinate table.
//   - Mesh, a Sample plus optional simplices (carried, never interpreted).
//   - RegularGrid, a 1-D evenly spaced grid; stationary kernels detect it
//     and use its Toeplitz structure.
//   - BoundingBox, the axis-aligned box used by cluster trees and the
//     admissibility criterion.
//
// Vertex(i) returns a view into internal storage; callers must not retain
// or mutate it.
package geom
