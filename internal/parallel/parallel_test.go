// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 0} {
		const n = 100
		var hits [n]int32
		err := For(n, workers, func(i int) error {
			atomic.AddInt32(&hits[i], 1)
			return nil
		})
		require.NoError(t, err)
		for i := range hits {
			require.Equal(t, int32(1), hits[i], "index %d with %d workers", i, workers)
		}
	}
}

func TestForReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := For(10, 4, func(i int) error {
		if i == 7 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestChunksCoverRange(t *testing.T) {
	const n = 37
	var total int64
	err := Chunks(n, 5, func(lo, hi int) error {
		assert.Less(t, lo, hi)
		atomic.AddInt64(&total, int64(hi-lo))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(n), total)

	called := false
	require.NoError(t, Chunks(0, 4, func(lo, hi int) error {
		called = true
		return nil
	}))
	require.False(t, called, "must not be called on an empty range")
}
