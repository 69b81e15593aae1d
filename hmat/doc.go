// SPDX-License-Identifier: MIT

// Package hmat implements hierarchical matrices (H-Matrices) over point sets.
//
// What & Why:
//
//	A dense covariance matrix over N points needs O(N²) memory and an O(N³)
//	Cholesky. An H-Matrix partitions the points into a cluster tree, pairs
//	tree nodes into a block tree and stores every well-separated
//	(admissible) block as a low-rank product U·Vᵀ. Near-field blocks stay
//	dense. Assembly, products, hierarchical LLt/LU and triangular solves all
//	work on that structure directly.
//
// Lifecycle:
//
//	Build clusters the points and lays out the block tree (state
//	Empty). Assemble fills the blocks from an AssemblyFunction or a
//	TensorAssemblyFunction (Assembled). Factorize rewrites the blocks in place
//	into L (LLt) or L\U (LU) form (Factorized). Solve and SolveLower need a
//	factorized matrix. A failed factorization leaves the matrix Failed, and
//	every numeric operation then returns ErrNotFactorizable.
//
// Ownership:
//
//	An *HMatrix is mutable and is never copied implicitly. Scale, Gemm,
//	Transpose, AddIdentity and Factorize all change the receiver. Copy
//	returns an independent deep copy, cluster tree included.
//
// Indexing:
//
//	Degrees of freedom are numbered point*d + component in the caller's
//	point order. Internally blocks are stored in cluster order; vectors are
//	permuted on the way in and out of Gemv/Solve.
package hmat
