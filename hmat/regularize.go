// SPDX-License-Identifier: MIT

package hmat

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/hcov/logger"
	"github.com/katalvlaran/hcov/matrix"
	"github.com/katalvlaran/hcov/metrics"
)

// RegularizedFactorize factorizes h, retrying with a growing diagonal shift
// while the factorization breaks down.
//
// The first attempt is unshifted. After each failure the cumulative shift
// grows by scaling, which starts at starting and doubles, so attempt k
// (k ≥ 1) uses starting·(2^k − 1). Each attempt works on a copy of the
// assembled matrix; on success h holds the factors of A + shift·I and the
// shift is returned.
//
// A required shift T is reached within ⌈log₂(T/starting)⌉+1 shifted
// attempts.
//
// Errors:
//   - ErrInvalidArgument and ErrNotPositiveDefinite (both matchable) once
//     the cumulative shift would exceed maximal.
//   - ErrInvalidArgument on non-positive starting or maximal.
//   - Any non-numeric factorization error unchanged.
func (h *HMatrix) RegularizedFactorize(method string, starting, maximal float64) (float64, error) {
	if !(starting > 0) || !(maximal > 0) || math.IsInf(starting, 0) || math.IsInf(maximal, 0) {
		return 0, fmt.Errorf("%s: starting=%g maximal=%g: %w", opRegularize, starting, maximal, ErrInvalidArgument)
	}
	if err := h.ready(opRegularize); err != nil {
		return 0, err
	}
	if h.state == StateFactorized {
		return 0, fmt.Errorf("%s: matrix already factorized: %w", opRegularize, ErrInvalidArgument)
	}

	pristine := h.Copy()
	cumulative, scaling := 0.0, starting
	for {
		attempt := pristine.Copy()
		if cumulative > 0 {
			if err := attempt.AddIdentity(cumulative); err != nil {
				return 0, hmatErrorf(opRegularize, err)
			}
		}
		err := attempt.Factorize(method)
		if err == nil {
			*h = *attempt
			if cumulative > 0 {
				logger.Log.Debugw("hmatrix regularized", "method", method, "shift", cumulative)
			}
			return cumulative, nil
		}
		if !retryable(err) {
			return 0, err
		}

		cumulative += scaling
		scaling *= 2
		if cumulative > maximal {
			return 0, fmt.Errorf("%s: cumulative shift %g exceeds %g: %w: %w",
				opRegularize, cumulative, maximal, ErrInvalidArgument, ErrNotPositiveDefinite)
		}
		metrics.RegularizationRetries.Inc()
		logger.Log.Debugw("hmatrix factorization retry", "method", method, "shift", cumulative, "err", err)
	}
}

func retryable(err error) bool {
	return errors.Is(err, ErrNotPositiveDefinite) || errors.Is(err, matrix.ErrSingular)
}
