// SPDX-License-Identifier: MIT

package matrix

// OptionsSnapshot mirrors the resolved Options for black-box tests.
type OptionsSnapshot struct {
	Eps            float64
	ValidateNaNInf bool
	Symmetrize     bool
}

// GatherOptionsSnapshot resolves opts and exposes the result.
func GatherOptionsSnapshot(opts ...Option) OptionsSnapshot {
	o := gatherOptions(opts...)
	return OptionsSnapshot{Eps: o.eps, ValidateNaNInf: o.validateNaNInf, Symmetrize: o.symmetrize}
}
