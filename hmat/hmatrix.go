// SPDX-License-Identifier: MIT

package hmat

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hcov"
	"github.com/katalvlaran/hcov/logger"
	"github.com/katalvlaran/hcov/metrics"
)

// State is the lifecycle stage of an HMatrix.
type State uint8

const (
	// StateUninitialized is the zero value: no block structure.
	StateUninitialized State = iota
	// StateEmpty has a block structure but no content.
	StateEmpty
	// StateAssembled holds an approximation of the generated matrix.
	StateAssembled
	// StateFactorized holds the factors of the last Factorize.
	StateFactorized
	// StateFailed follows a failed assembly or factorization.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEmpty:
		return "empty"
	case StateAssembled:
		return "assembled"
	case StateFactorized:
		return "factorized"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// HMatrix is a hierarchical matrix over a clustered point set with d dofs
// per point. Rows and columns use the original dof numbering at the API;
// blocks are stored in cluster order.
//
// An HMatrix is not safe for concurrent mutation. Copy yields an independent
// value.
type HMatrix struct {
	tree      *ClusterTree
	root      *block
	d         int
	symmetric bool
	state     State
	params    Parameters
	// factorization names the method of the factors held in StateFactorized.
	factorization string
}

// newHMatrix lays out an empty matrix over tree.
func newHMatrix(tree *ClusterTree, d int, symmetric bool, p Parameters) *HMatrix {
	return &HMatrix{
		tree:      tree,
		root:      newBlockTree(tree.Root, tree.Root, p.AdmissibilityFactor, d),
		d:         d,
		symmetric: symmetric,
		state:     StateEmpty,
		params:    p,
	}
}

// Dim returns the number of rows (= columns).
func (h *HMatrix) Dim() int {
	if h.tree == nil {
		return 0
	}
	return h.tree.Size() * h.d
}

// OutputDimension returns the dofs per point.
func (h *HMatrix) OutputDimension() int { return h.d }

// Symmetric reports whether the matrix was built symmetric.
func (h *HMatrix) Symmetric() bool { return h.symmetric }

// State returns the lifecycle stage.
func (h *HMatrix) State() State { return h.state }

// Parameters returns the build parameters.
func (h *HMatrix) Parameters() Parameters { return h.params }

// ClusterTree returns the row/column cluster tree (shared, read-only).
func (h *HMatrix) ClusterTree() *ClusterTree { return h.tree }

// Factorization returns the method of the held factors, or "".
func (h *HMatrix) Factorization() string { return h.factorization }

// ready guards operations needing content.
func (h *HMatrix) ready(op string) error {
	switch h.state {
	case StateAssembled, StateFactorized:
		return nil
	case StateFailed:
		return hcov.Errorf(op, ErrNotFactorizable, "matrix is in failed state")
	default:
		return hcov.Errorf(op, ErrInvalidArgument, "matrix is %s", h.state)
	}
}

// toCluster returns x permuted into cluster order.
func (h *HMatrix) toCluster(x []float64) []float64 {
	out := make([]float64, len(x))
	d := h.d
	for k, p := range h.tree.Perm {
		copy(out[k*d:k*d+d], x[p*d:p*d+d])
	}
	return out
}

// fromCluster writes the cluster-ordered xc back into original order.
func (h *HMatrix) fromCluster(xc, dst []float64) {
	d := h.d
	for k, p := range h.tree.Perm {
		copy(dst[p*d:p*d+d], xc[k*d:k*d+d])
	}
}

// rowsToCluster permutes the rows of m into cluster order.
func (h *HMatrix) rowsToCluster(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	d := h.d
	for k, p := range h.tree.Perm {
		for a := 0; a < d; a++ {
			copy(out.RawRowView(k*d+a), m.RawRowView(p*d+a))
		}
	}
	return out
}

func (h *HMatrix) rowsFromCluster(mc, dst *mat.Dense) {
	d := h.d
	for k, p := range h.tree.Perm {
		for a := 0; a < d; a++ {
			copy(dst.RawRowView(p*d+a), mc.RawRowView(k*d+a))
		}
	}
}

// Gemv computes y = alpha·op(M)·x + beta·y in place. After LLt, M is the
// factor L; after LU, M is the product L·U.
//
// Errors: ErrInvalidDimension on length mismatch, state errors per ready.
func (h *HMatrix) Gemv(trans bool, alpha float64, x []float64, beta float64, y []float64) error {
	if err := h.ready(opGemv); err != nil {
		return err
	}
	n := h.Dim()
	if len(x) != n || len(y) != n {
		return hcov.Errorf(opGemv, ErrInvalidDimension, "len(x)=%d len(y)=%d, want %d", len(x), len(y), n)
	}
	xc := mat.NewDense(n, 1, h.toCluster(x))
	yc := mat.NewDense(n, 1, h.toCluster(y))
	yc.Scale(beta, yc)
	h.apply(trans, alpha, xc, yc)
	h.fromCluster(yc.RawMatrix().Data, y)

	return nil
}

// apply performs yc += alpha·op(M)·xc on cluster-ordered data.
func (h *HMatrix) apply(trans bool, alpha float64, xc, yc *mat.Dense) {
	if h.state != StateFactorized {
		h.root.mulMat(trans, partAll, alpha, xc, yc)
		return
	}
	if h.factorization == FactorizationLLt {
		h.root.mulMat(trans, partLower, alpha, xc, yc)
		return
	}
	// op(L·U)·x: U then L, or Lᵀ then Uᵀ.
	first, second := partUpper, partUnitLower
	if trans {
		first, second = partUnitLower, partUpper
	}
	t := h.root.product(trans, first, xc)
	h.root.mulMat(trans, second, alpha, t, yc)
}

// MulMatrix returns op(M)·b for a dense b with Dim rows.
func (h *HMatrix) MulMatrix(trans bool, b *mat.Dense) (*mat.Dense, error) {
	if err := h.ready(opGemv); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, hmatErrorf(opGemv, ErrInvalidArgument)
	}
	if r, _ := b.Dims(); r != h.Dim() {
		return nil, hcov.Errorf(opGemv, ErrInvalidDimension, "rows=%d, want %d", r, h.Dim())
	}
	_, c := b.Dims()
	yc := mat.NewDense(h.Dim(), c, nil)
	h.apply(trans, 1, h.rowsToCluster(b), yc)
	out := mat.NewDense(h.Dim(), c, nil)
	h.rowsFromCluster(yc, out)

	return out, nil
}

// Gemm computes M = alpha·op(A)·op(B) + beta·M in place. All three matrices
// must share the dimension and clustering; the result is no longer flagged
// symmetric.
func (h *HMatrix) Gemm(transA, transB bool, alpha float64, a, b *HMatrix, beta float64) error {
	for _, m := range []*HMatrix{h, a, b} {
		if m == nil {
			return hmatErrorf(opGemm, ErrInvalidArgument)
		}
		if err := m.ready(opGemm); err != nil {
			return err
		}
	}
	if a.Dim() != h.Dim() || b.Dim() != h.Dim() || a.d != h.d || b.d != h.d {
		return hcov.Errorf(opGemm, ErrInvalidDimension, "dims %d, %d, %d", h.Dim(), a.Dim(), b.Dim())
	}
	if a == h || b == h {
		return hcov.Errorf(opGemm, ErrInvalidArgument, "operand aliases the receiver")
	}
	h.root.scale(beta)
	h.root.addProduct(alpha, a.root, transA, b.root, transB, h.params.RecompressionEpsilon)
	h.symmetric = false
	h.state = StateAssembled
	h.factorization = ""

	return nil
}

// Scale multiplies every entry by alpha.
func (h *HMatrix) Scale(alpha float64) error {
	if err := h.ready(opScale); err != nil {
		return err
	}
	h.root.scale(alpha)
	return nil
}

// Transpose replaces the matrix by its transpose in place. A factorized
// matrix yields ErrInvalidArgument.
func (h *HMatrix) Transpose() error {
	if err := h.ready(opTranspose); err != nil {
		return err
	}
	if h.state == StateFactorized {
		return hcov.Errorf(opTranspose, ErrInvalidArgument, "matrix holds factors")
	}
	if !h.symmetric {
		h.root.transpose()
	}
	return nil
}

// AddIdentity adds alpha to every diagonal entry.
func (h *HMatrix) AddIdentity(alpha float64) error {
	if err := h.ready(opAddIdentity); err != nil {
		return err
	}
	h.root.addIdentity(alpha)
	return nil
}

// Copy returns an independent deep copy, cluster tree included.
func (h *HMatrix) Copy() *HMatrix {
	c := *h
	if h.tree == nil {
		return &c
	}
	c.tree = h.tree.clone()
	nodes := make(map[*ClusterNode]*ClusterNode)
	var pair func(a, b *ClusterNode)
	pair = func(a, b *ClusterNode) {
		if a == nil {
			return
		}
		nodes[a] = b
		pair(a.Left, b.Left)
		pair(a.Right, b.Right)
	}
	pair(h.tree.Root, c.tree.Root)
	c.root = h.root.clone(nodes)

	return &c
}

// Norm returns the Frobenius norm of the stored content.
func (h *HMatrix) Norm() (float64, error) {
	if err := h.ready("hmat.Norm"); err != nil {
		return 0, err
	}
	return math.Sqrt(h.root.frobenius2()), nil
}

// Diagonal returns the diagonal in original dof order.
func (h *HMatrix) Diagonal() ([]float64, error) {
	if err := h.ready("hmat.Diagonal"); err != nil {
		return nil, err
	}
	n := h.Dim()
	dc := make([]float64, n)
	var walk func(b *block)
	walk = func(b *block) {
		if !b.isDiagonal() {
			return
		}
		switch b.kind {
		case kindFull:
			for i := 0; i < b.rowLen; i++ {
				dc[b.rowOff+i] = b.full.At(i, i)
			}
		case kindHier:
			for k := 0; k < b.nr; k++ {
				walk(b.child(k, k))
			}
		}
	}
	walk(h.root)
	out := make([]float64, n)
	h.fromCluster(dc, out)

	return out, nil
}

// Dense expands the matrix in original dof order. Intended for tests and
// small problems.
func (h *HMatrix) Dense() (*mat.Dense, error) {
	if err := h.ready("hmat.Dense"); err != nil {
		return nil, err
	}
	dc := h.root.toDense()
	out := mat.NewDense(h.Dim(), h.Dim(), nil)
	d := h.d
	perm := h.tree.Perm
	for k, p := range perm {
		for a := 0; a < d; a++ {
			src := dc.RawRowView(k*d + a)
			dst := out.RawRowView(p*d + a)
			for l, q := range perm {
				copy(dst[q*d:q*d+d], src[l*d:l*d+d])
			}
		}
	}

	return out, nil
}

// CompressionRatio returns (stored entries, Dim²).
func (h *HMatrix) CompressionRatio() (compressed, uncompressed int) {
	if h.root == nil {
		return 0, 0
	}
	full, rk := h.root.storage()
	n := h.Dim()
	return full + rk, n * n
}

// FullRkRatio returns (entries in full blocks, entries in rk blocks).
func (h *HMatrix) FullRkRatio() (full, rk int) {
	if h.root == nil {
		return 0, 0
	}
	return h.root.storage()
}

// Factorize replaces the content by its factors. method is FactorizationLLt
// or FactorizationLU; "" selects Parameters.FactorizationMethod.
//
// Errors:
//   - ErrInvalidArgument: unknown method, LLt on a non-symmetric matrix,
//     matrix not assembled.
//   - ErrNotPositiveDefinite (LLt) or ErrNotFactorizable (LU) on breakdown;
//     the matrix is then in StateFailed.
func (h *HMatrix) Factorize(method string) error {
	if method == "" {
		method = h.params.FactorizationMethod
	}
	if err := validFactorization(method); err != nil {
		return hmatErrorf(opFactorize, err)
	}
	if h.state != StateAssembled {
		if h.state == StateFailed {
			return hcov.Errorf(opFactorize, ErrNotFactorizable, "matrix is in failed state")
		}
		return hcov.Errorf(opFactorize, ErrInvalidArgument, "matrix is %s", h.state)
	}
	if method == FactorizationLLt && !h.symmetric {
		return hcov.Errorf(opFactorize, ErrInvalidArgument, "LLt needs a symmetric matrix")
	}

	start := time.Now()
	var err error
	if method == FactorizationLLt {
		err = h.root.llt(h.params.RecompressionEpsilon)
	} else {
		err = h.root.lu(h.params.RecompressionEpsilon)
	}
	if err != nil {
		h.state = StateFailed
		metrics.HMatrixFactorizations.WithLabelValues(method, metrics.ResultFailed).Inc()
		logger.Log.Debugw("hmatrix factorization failed", "method", method, "dim", h.Dim(), "err", err)
		return hmatErrorf(opFactorize, err)
	}
	h.state = StateFactorized
	h.factorization = method
	metrics.HMatrixFactorizations.WithLabelValues(method, metrics.ResultOK).Inc()
	logger.Log.Debugw("hmatrix factorized", "method", method, "dim", h.Dim(), "elapsed", time.Since(start))

	return nil
}

// solveGuard admits only factorized matrices; every other state, failed
// included, reports ErrNotFactorizable.
func (h *HMatrix) solveGuard(op string) error {
	if h.state != StateFactorized {
		return hcov.Errorf(op, ErrNotFactorizable, "matrix is %s, not factorized", h.state)
	}
	return nil
}

// Solve returns x with op(M)·x = b using the held factors. A matrix that
// is not factorized yields ErrNotFactorizable.
func (h *HMatrix) Solve(b []float64, trans bool) ([]float64, error) {
	if err := h.solveGuard(opSolve); err != nil {
		return nil, err
	}
	if len(b) != h.Dim() {
		return nil, hcov.Errorf(opSolve, ErrInvalidDimension, "len(b)=%d, want %d", len(b), h.Dim())
	}
	xc := mat.NewDense(h.Dim(), 1, h.toCluster(b))
	h.solveInPlace(xc, trans)
	out := make([]float64, len(b))
	h.fromCluster(xc.RawMatrix().Data, out)

	return out, nil
}

// SolveMatrix is Solve for every column of b.
func (h *HMatrix) SolveMatrix(b *mat.Dense, trans bool) (*mat.Dense, error) {
	if err := h.solveGuard(opSolve); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, hmatErrorf(opSolve, ErrInvalidArgument)
	}
	if r, _ := b.Dims(); r != h.Dim() {
		return nil, hcov.Errorf(opSolve, ErrInvalidDimension, "rows=%d, want %d", r, h.Dim())
	}
	xc := h.rowsToCluster(b)
	h.solveInPlace(xc, trans)
	r, c := b.Dims()
	out := mat.NewDense(r, c, nil)
	h.rowsFromCluster(xc, out)

	return out, nil
}

func (h *HMatrix) solveInPlace(xc *mat.Dense, trans bool) {
	if h.factorization == FactorizationLLt {
		// L·Lᵀ is symmetric; trans is irrelevant.
		lowerSolve(h.root, xc, false, false)
		lowerSolve(h.root, xc, false, true)
		return
	}
	if !trans {
		lowerSolve(h.root, xc, true, false)
		upperSolve(h.root, xc, false)
		return
	}
	upperSolve(h.root, xc, true)
	lowerSolve(h.root, xc, true, true)
}

// SolveLower returns x with op(L)·x = b, L being the lower factor (unit
// diagonal after LU).
func (h *HMatrix) SolveLower(b []float64, trans bool) ([]float64, error) {
	if err := h.solveGuard(opSolveLower); err != nil {
		return nil, err
	}
	if len(b) != h.Dim() {
		return nil, hcov.Errorf(opSolveLower, ErrInvalidDimension, "len(b)=%d, want %d", len(b), h.Dim())
	}
	xc := mat.NewDense(h.Dim(), 1, h.toCluster(b))
	lowerSolve(h.root, xc, h.factorization == FactorizationLU, trans)
	out := make([]float64, len(b))
	h.fromCluster(xc.RawMatrix().Data, out)

	return out, nil
}

// SolveLowerMatrix is SolveLower for every column of b.
func (h *HMatrix) SolveLowerMatrix(b *mat.Dense, trans bool) (*mat.Dense, error) {
	if err := h.solveGuard(opSolveLower); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, hmatErrorf(opSolveLower, ErrInvalidArgument)
	}
	if r, _ := b.Dims(); r != h.Dim() {
		return nil, hcov.Errorf(opSolveLower, ErrInvalidDimension, "rows=%d, want %d", r, h.Dim())
	}
	xc := h.rowsToCluster(b)
	lowerSolve(h.root, xc, h.factorization == FactorizationLU, trans)
	r, c := b.Dims()
	out := mat.NewDense(r, c, nil)
	h.rowsFromCluster(xc, out)

	return out, nil
}

// String summarizes the matrix.
func (h *HMatrix) String() string {
	c, u := h.CompressionRatio()
	return fmt.Sprintf("HMatrix(dim=%d, d=%d, symmetric=%t, state=%s, stored=%d/%d)",
		h.Dim(), h.d, h.symmetric, h.state, c, u)
}
