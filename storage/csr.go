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

// Csr is the dense, variable-degree compressed-sparse-row structure of spec
// §4.5.1: per-source offset/degree into a packed neighbors array, with
// spare capacity per row (offsets[i+1]-offsets[i] may exceed degree[i]) left
// over from a prior compaction so future inserts can reuse it before
// widening. Shaped after partition.go's shard-local edge arrays, generalized
// from SQL join indexes to an explicit CSR.
type Csr struct {
	dir     string
	name    string
	nbrs    *SharedVector[InternalID]
	offsets *SharedVector[uint64]
	degree  *SharedVector[int32]
	meta    *SharedVector[uint64] // len 1: live edge count
}

func CreateCsr(dir, name string, numVertices int) *Csr {
	c := &Csr{dir: dir, name: name}
	c.nbrs = CreateSharedVector[InternalID](dir, name+"_nbrs", 0)
	c.offsets = CreateSharedVector[uint64](dir, name+"_offsets", numVertices)
	c.degree = CreateSharedVector[int32](dir, name+"_degree", numVertices)
	c.meta = CreateSharedVector[uint64](dir, name+"_meta", 1)
	return c
}

func OpenCsr(dir, name string) *Csr {
	return &Csr{
		dir:     dir,
		name:    name,
		nbrs:    OpenSharedVector[InternalID](dir, name+"_nbrs"),
		offsets: OpenSharedVector[uint64](dir, name+"_offsets"),
		degree:  OpenSharedVector[int32](dir, name+"_degree"),
		meta:    OpenSharedVector[uint64](dir, name+"_meta"),
	}
}

func (c *Csr) NumVertices() int  { return c.offsets.Len() }
func (c *Csr) EdgeNum() uint64   { return c.meta.Index(0) }
func (c *Csr) Degree(v int) int32 {
	if v < 0 || v >= c.degree.Len() {
		return 0
	}
	return c.degree.AsSlice()[v]
}

// GetEdges returns the live neighbor slots of v, neighbors[offsets[v] ..
// offsets[v]+degree[v]]. Order is unspecified (spec §4.5.1).
func (c *Csr) GetEdges(v int) []InternalID {
	if v < 0 || v >= c.offsets.Len() {
		return nil
	}
	d := int(c.degree.AsSlice()[v])
	if d == 0 {
		return nil
	}
	off := c.offsets.AsSlice()[v]
	return c.nbrs.AsSlice()[off : off+uint64(d)]
}

// DeleteEdges removes every (src,dst) pair in pairs (or (dst,src) when
// reverse is true, for sweeping the companion in/out side) via a two-pointer
// swap-delete sweep per source row, and returns the (last,from) swap index
// pairs actually used so a companion edge-property table can be moved with
// exactly the same permutation via Table.ParallelMove (spec §4.5.1 step 2).
func (c *Csr) DeleteEdges(pairs [][2]InternalID, reverse bool) []MovePair {
	bySrc := make(map[InternalID][]InternalID)
	for _, p := range pairs {
		src, dst := p[0], p[1]
		if reverse {
			src, dst = dst, src
		}
		bySrc[src] = append(bySrc[src], dst)
	}

	srcs := make([]InternalID, 0, len(bySrc))
	for s := range bySrc {
		srcs = append(srcs, s)
	}

	results := make([][]MovePair, len(srcs))
	nbrs := c.nbrs.AsMutSlice()
	offs := c.offsets.AsSlice()
	deg := c.degree.AsMutSlice()

	parallelFor(len(srcs), func(i int) {
		v := srcs[i]
		if int(v) >= len(deg) {
			return
		}
		targets := make(map[InternalID]bool, len(bySrc[v]))
		for _, d := range bySrc[v] {
			targets[d] = true
		}
		from := int(offs[v])
		last := from + int(deg[v]) - 1
		var local []MovePair
		removed := 0
		for from <= last {
			if !targets[nbrs[from]] {
				from++
				continue
			}
			// pull in the first non-target value from the tail; tail
			// values that are themselves targets just shrink the row
			// without ever being recorded as a move.
			for last > from && targets[nbrs[last]] {
				last--
				removed++
			}
			if last == from {
				removed++
				last--
				continue
			}
			nbrs[from] = nbrs[last]
			local = append(local, MovePair{From: last, To: from})
			last--
			removed++
			from++
		}
		deg[v] -= int32(removed)
		results[i] = local
	})

	var total int64
	var out []MovePair
	for _, r := range results {
		out = append(out, r...)
	}
	for _, d := range deg {
		total += int64(d)
	}
	c.meta.AsMutSlice()[0] = uint64(total)
	return out
}

// DeleteVertices zeroes degree for every vertex in set; no compaction, so
// the freed neighbor slots become unreachable via GetEdges until the row is
// reused by a future insert (spec §4.5.1 delete_vertices).
func (c *Csr) DeleteVertices(set []InternalID) {
	deg := c.degree.AsMutSlice()
	var removed int64
	for _, v := range set {
		if int(v) >= len(deg) {
			continue
		}
		removed += int64(deg[v])
		deg[v] = 0
	}
	m := c.meta.AsMutSlice()
	if uint64(removed) > m[0] {
		m[0] = 0
	} else {
		m[0] -= uint64(removed)
	}
}

// DeleteNeighbors removes every live edge whose *target* is in set,
// regardless of source, the symmetric counterpart to DeleteEdges used by
// apply_delete_neighbors to sweep dangling references after a vertex-delete
// batch (spec §4.5.1, §4.7). Returns the swap pairs for the companion
// property table, exactly like DeleteEdges.
func (c *Csr) DeleteNeighbors(set map[InternalID]bool) []MovePair {
	n := c.offsets.Len()
	nbrs := c.nbrs.AsMutSlice()
	offs := c.offsets.AsSlice()
	deg := c.degree.AsMutSlice()

	results := make([][]MovePair, n)
	parallelFor(n, func(v int) {
		d := int(deg[v])
		if d == 0 {
			return
		}
		from := int(offs[v])
		last := from + d - 1
		var local []MovePair
		removed := 0
		for from <= last {
			if !set[nbrs[from]] {
				from++
				continue
			}
			for last > from && set[nbrs[last]] {
				last--
				removed++
			}
			if last == from {
				removed++
				last--
				continue
			}
			nbrs[from] = nbrs[last]
			local = append(local, MovePair{From: last, To: from})
			last--
			removed++
			from++
		}
		deg[v] -= int32(removed)
		results[v] = local
	})

	var total int64
	var out []MovePair
	for _, r := range results {
		out = append(out, r...)
	}
	for _, d := range deg {
		total += int64(d)
	}
	c.meta.AsMutSlice()[0] = uint64(total)
	return out
}

// InsertEdgesBeta widens (or reuses freed capacity of) the offsets/neighbors
// layout to fit newVertexNum rows and the incoming edge batch, per spec
// §4.5.1 steps 1-5. When reverse is true, edges are inserted as (dst,src)
// instead of (src,dst), for populating the `ie` side of an edge triple from
// the same input batch as the `oe` side. Edges whose src is out of range
// [0,newVertexNum) are silently dropped (spec §7 "malformed CSV row").
// props is column-major, one []PropValue per edge property column, each
// parallel to edges; nil/short columns are treated as all-absent for rows
// beyond their length. When propTable is non-nil, the neighbor slots the
// kept edges landed in are passed to propTable.InsertBatch along with the
// filtered props; nothing is returned to the caller.
func (c *Csr) InsertEdgesBeta(newVertexNum int, edges [][2]InternalID, props [][]PropValue, reverse bool, propTable *Table) {
	oldN := c.offsets.Len()
	oldOffsets := append([]uint64(nil), c.offsets.AsSlice()...)
	oldDegree := append([]int32(nil), c.degree.AsSlice()...)

	perSrcInserts := make(map[InternalID]int)
	for _, e := range edges {
		src := e[0]
		if reverse {
			src = e[1]
		}
		perSrcInserts[src]++
	}

	// capacity[i] = reserved slots for row i today (offsets[i+1]-offsets[i],
	// or for the last row, nbrs length - offsets[i]); newly created rows get
	// zero prior capacity.
	capOf := func(i int) int {
		if i+1 < oldN {
			return int(oldOffsets[i+1] - oldOffsets[i])
		}
		if oldN == 0 {
			return 0
		}
		return c.nbrs.Len() - int(oldOffsets[i])
	}

	// Single left-to-right pass: a row either fits its insert within its
	// existing free capacity (width unchanged, data stays logically where it
	// is but is still renumbered into the new compacted layout) or must
	// widen (old live data moves to freshly allocated space at the end).
	// Runs of consecutive unwidened rows shift by a constant delta and are
	// coalesced into a single RangeDiff (spec §8 "freed capacity re-used
	// before widening").
	newOffsets := make([]uint64, newVertexNum)
	var cursor uint64
	var ranges []RangeDiff

	runOldStart, runNewStart := -1, uint64(0)
	runOldEnd := uint64(0)
	flushRun := func() {
		if runOldStart < 0 {
			return
		}
		delta := int64(runNewStart) - int64(runOldStart)
		if delta != 0 {
			ranges = append(ranges, RangeDiff{Begin: runOldStart, End: int(runOldEnd), Delta: delta})
		}
		runOldStart = -1
	}

	for i := 0; i < newVertexNum; i++ {
		if i >= oldN {
			newOffsets[i] = cursor
			cursor += uint64(perSrcInserts[InternalID(i)])
			continue
		}
		need := perSrcInserts[InternalID(i)]
		freeCap := capOf(i) - int(oldDegree[i])
		if need <= freeCap {
			width := capOf(i)
			if runOldStart < 0 {
				runOldStart = int(oldOffsets[i])
				runNewStart = cursor
			}
			runOldEnd = oldOffsets[i] + uint64(width)
			newOffsets[i] = cursor
			cursor += uint64(width)
			continue
		}
		// widening: flush any pending unwidened run first, then move only
		// this row's *live* data (not its wasted old capacity) to the end.
		flushRun()
		width := int(oldDegree[i]) + need
		if oldDegree[i] > 0 {
			ranges = append(ranges, RangeDiff{
				Begin: int(oldOffsets[i]),
				End:   int(oldOffsets[i]) + int(oldDegree[i]),
				Delta: int64(cursor) - int64(oldOffsets[i]),
			})
		}
		newOffsets[i] = cursor
		cursor += uint64(width)
	}
	flushRun()

	totalNbrs := int(cursor)
	if totalNbrs < c.nbrs.Len() {
		totalNbrs = c.nbrs.Len()
	}

	if len(ranges) > 0 {
		InplaceParallelRangeMove(c.nbrs, totalNbrs, ranges)
		if propTable != nil {
			propTable.InplaceParallelRangeMove(totalNbrs, ranges)
		}
	} else {
		c.nbrs.Resize(totalNbrs)
		if propTable != nil {
			propTable.Resize(totalNbrs)
		}
	}

	c.offsets.Resize(newVertexNum)
	offs := c.offsets.AsMutSlice()
	copy(offs, newOffsets)

	c.degree.Resize(newVertexNum)
	deg := c.degree.AsMutSlice()
	for i := oldN; i < newVertexNum; i++ {
		deg[i] = 0
	}

	nbrs := c.nbrs.AsMutSlice()
	insertOffsets := make([]int, 0, len(edges))
	var filteredProps [][]PropValue
	if propTable != nil && len(props) > 0 {
		filteredProps = make([][]PropValue, len(props))
		for ci := range props {
			filteredProps[ci] = make([]PropValue, 0, len(edges))
		}
	}
	for i, e := range edges {
		src, dst := e[0], e[1]
		if reverse {
			src, dst = dst, src
		}
		if int(src) >= newVertexNum {
			continue // malformed row, silently dropped (spec §7)
		}
		slot := int(offs[src]) + int(deg[src])
		nbrs[slot] = dst
		deg[src]++
		insertOffsets = append(insertOffsets, slot)
		for ci := range filteredProps {
			if i < len(props[ci]) {
				filteredProps[ci] = append(filteredProps[ci], props[ci][i])
			}
		}
	}

	if propTable != nil && filteredProps != nil {
		propTable.InsertBatch(insertOffsets, filteredProps)
	}

	var total int64
	for _, d := range deg {
		total += int64(d)
	}
	c.meta.AsMutSlice()[0] = uint64(total)
}

func (c *Csr) Dump(basePath string, cold bool) {
	DumpVec(c.nbrs, basePath+"_nbrs", cold)
	DumpVec(c.offsets, basePath+"_offsets", false)
	DumpVec(c.degree, basePath+"_degree", false)
	DumpVec(c.meta, basePath+"_meta", false)
}

func (c *Csr) Close() {
	c.nbrs.Close()
	c.offsets.Close()
	c.degree.Close()
	c.meta.Close()
}
