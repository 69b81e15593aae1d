// SPDX-License-Identifier: MIT

// Package parallel runs independent index-addressed tasks on a bounded pool.
//
// Tasks must own disjoint output regions; the pool adds no synchronization
// beyond the final join.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count: n <= 0 means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// For runs fn(i) for i in [0, n) with at most workers goroutines. The first
// error is returned once every started task has finished; tasks not yet
// started are skipped. workers == 1 runs inline in index order.
func For(n, workers int, fn func(i int) error) error {
	workers = Workers(workers)
	if workers == 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}

	return g.Wait()
}

// Chunks splits [0, n) into at most parts contiguous ranges and runs fn on
// each. Useful when per-index work is too small to schedule individually.
func Chunks(n, parts int, fn func(lo, hi int) error) error {
	parts = Workers(parts)
	if parts > n {
		parts = n
	}
	if parts <= 0 {
		return nil
	}
	size := (n + parts - 1) / parts

	return For(parts, parts, func(p int) error {
		lo := p * size
		hi := lo + size
		if hi > n {
			hi = n
		}
		if lo >= hi {
			return nil
		}
		return fn(lo, hi)
	})
}
