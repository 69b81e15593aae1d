// SPDX-License-Identifier: MIT

package hmat

// SetBackendAvailable overrides the backend flag and returns a restore func.
func SetBackendAvailable(v bool) func() {
	old := backendAvailable
	backendAvailable = v
	return func() { backendAvailable = old }
}

// LeafKinds counts (full, rk) leaves.
func (h *HMatrix) LeafKinds() (full, rk int) {
	h.root.walkLeaves(func(b *block) {
		if b.kind == kindFull {
			full++
		} else {
			rk++
		}
	})
	return full, rk
}

// Admissible exposes the admissibility criterion.
func Admissible(a, b *ClusterNode, eta float64) bool { return admissible(a, b, eta) }
