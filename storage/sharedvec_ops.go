/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package storage

import "runtime"
import "sync"
import "github.com/jtolds/gls"

// parallelFor runs fn(i) for i in [0,n) fanned out over runtime.NumCPU()
// workers, shaped after partition.go's iterateShardIndex worker-pool idiom
// (gls.Go + sync.WaitGroup, throttled fan-out).
func parallelFor(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if n <= workers {
		var done sync.WaitGroup
		done.Add(n)
		for i := 0; i < n; i++ {
			gls.Go(func(i int) func() {
				return func() {
					defer done.Done()
					fn(i)
				}
			}(i))
		}
		done.Wait()
		return
	}
	jobs := make(chan int, workers)
	var done sync.WaitGroup
	done.Add(n)
	for w := 0; w < workers; w++ {
		gls.Go(func() func() {
			return func() {
				for i := range jobs {
					fn(i)
					done.Done()
				}
			}
		}())
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	done.Wait()
}

// MovePair is a (from, to) index pair for ParallelMove.
type MovePair struct {
	From, To int
}

// ParallelMove performs v[to] <- v[from] for every pair, in parallel. The
// caller guarantees the `to` side of every pair is disjoint (no aliasing),
// exactly as spec §4.1 requires; this is what lets delete_edges apply its
// swap-compaction to a companion edge-property table without taking a lock.
func ParallelMove[T any](v *SharedVector[T], pairs []MovePair) {
	s := v.AsSlice()
	parallelFor(len(pairs), func(i int) {
		p := pairs[i]
		s[p.To] = s[p.From]
	})
}

// RangeDiff describes a contiguous row range [Begin,End) that must shift by
// Delta elements, the optimized input shape for
// InplaceParallelRangeMove/insert_edges_beta's offset widening (spec §4.5.1
// step 1-2).
type RangeDiff struct {
	Begin, End int
	Delta      int64
}

// InplaceParallelChunkMove is the primitive behind CSR resize: for every
// row i, the range [oldOffsets[i], oldOffsets[i]+oldDegree[i]) is moved to
// [newOffsets[i], newOffsets[i]+oldDegree[i]) in a grown region, then the
// vector is resized to newSize. Uses a scratch copy so it is correct for
// both growing and shifting (ranges may overlap their own destination).
func InplaceParallelChunkMove[T any](v *SharedVector[T], newSize int, oldOffsets []uint64, oldDegree []int32, newOffsets []uint64) {
	n := len(oldOffsets)
	scratch := make([][]T, n)
	src := v.AsSlice()
	parallelFor(n, func(i int) {
		d := int(oldDegree[i])
		if d <= 0 {
			return
		}
		row := make([]T, d)
		copy(row, src[oldOffsets[i]:oldOffsets[i]+uint64(d)])
		scratch[i] = row
	})
	v.Resize(newSize)
	dst := v.AsSlice()
	parallelFor(n, func(i int) {
		if scratch[i] == nil {
			return
		}
		copy(dst[newOffsets[i]:newOffsets[i]+uint64(len(scratch[i]))], scratch[i])
	})
}

// InplaceParallelRangeMove moves contiguous ranges of rows by a signed
// delta rather than per-row, used when a whole block of rows shifts by the
// same amount (e.g. insert_edges_beta widening a run of untouched rows).
// Ranges are processed from the range whose delta has the correct sign to
// avoid self-clobbering, mirroring a standard in-place array-shift.
func InplaceParallelRangeMove[T any](v *SharedVector[T], newSize int, ranges []RangeDiff) {
	v.Resize(newSize)
	s := v.AsSlice()
	// ranges moving forward (positive delta) must be applied back-to-front to
	// avoid overwriting not-yet-moved source data coming from lower offsets;
	// ranges moving backward are safe front-to-back. We sort by |delta| sign
	// into two passes, which is sufficient because range inputs are disjoint
	// contiguous row ranges by construction (spec §4.5.1).
	forward := make([]RangeDiff, 0, len(ranges))
	backward := make([]RangeDiff, 0, len(ranges))
	for _, r := range ranges {
		if r.Delta > 0 {
			forward = append(forward, r)
		} else if r.Delta < 0 {
			backward = append(backward, r)
		}
	}
	for i := len(forward) - 1; i >= 0; i-- {
		r := forward[i]
		copy(s[int64(r.Begin)+r.Delta:int64(r.End)+r.Delta], s[r.Begin:r.End])
	}
	for _, r := range backward {
		copy(s[int64(r.Begin)+r.Delta:int64(r.End)+r.Delta], s[r.Begin:r.End])
	}
}
