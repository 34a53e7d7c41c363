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

import "sync"

// InternalID is the dense per-partition vertex offset used by every
// column/CSR array (spec §3). Native vertices are 0..N_native-1; corner
// vertices count down from InternalIDMax.
type InternalID = uint64

const InternalIDMax = ^uint64(0)

func isCorner(i InternalID) bool { return i > InternalIDMax/2 }

// VertexMap is, per label, a pair of Indexers (native + corner) translating
// between global ids and internal ids (spec §4.3).
type VertexMap struct {
	dir    string
	labels []string
	native []*Indexer
	corner []*Indexer

	// cornerRefcount supplements spec.md with the original_source behavior
	// of tombstoning a corner vertex once no incident edge references it
	// any more (SPEC_FULL.md "Supplemented features"). Indexed by label,
	// then by corner ordinal (0-based, counting down from InternalIDMax).
	cornerRefcount [][]int32
	mu             sync.Mutex
}

func NewVertexMap(dir string, labels []string) *VertexMap {
	vm := &VertexMap{dir: dir, labels: labels}
	vm.native = make([]*Indexer, len(labels))
	vm.corner = make([]*Indexer, len(labels))
	vm.cornerRefcount = make([][]int32, len(labels))
	for i, l := range labels {
		vm.native[i] = CreateIndexer(dir, "vm_"+l)
		vm.corner[i] = CreateIndexer(dir, "vmc_"+l)
	}
	return vm
}

func OpenVertexMap(dir string, labels []string) *VertexMap {
	vm := &VertexMap{dir: dir, labels: labels}
	vm.native = make([]*Indexer, len(labels))
	vm.corner = make([]*Indexer, len(labels))
	vm.cornerRefcount = make([][]int32, len(labels))
	for i, l := range labels {
		vm.native[i] = OpenIndexer(dir, "vm_"+l)
		vm.corner[i] = OpenIndexer(dir, "vmc_"+l)
		vm.cornerRefcount[i] = make([]int32, vm.corner[i].Len())
	}
	return vm
}

func (vm *VertexMap) labelIndex(label string) int {
	for i, l := range vm.labels {
		if l == label {
			return i
		}
	}
	return -1
}

func cornerOrdinal(internal InternalID) int { return int(InternalIDMax - internal) }
func cornerInternal(ordinal int) InternalID { return InternalIDMax - InternalID(ordinal) }

// GetInternalID probes native first, then corner, per spec §4.3.
func (vm *VertexMap) GetInternalID(label string, global uint64) (InternalID, bool) {
	li := vm.labelIndex(label)
	if li < 0 {
		return 0, false
	}
	if idx, ok := vm.native[li].GetIndex(global); ok {
		return InternalID(idx), true
	}
	if idx, ok := vm.corner[li].GetIndex(global); ok {
		return cornerInternal(idx), true
	}
	return 0, false
}

// GetGlobalID is the inverse of GetInternalID, round-tripping per spec §3
// invariant 1.
func (vm *VertexMap) GetGlobalID(label string, internal InternalID) (uint64, bool) {
	li := vm.labelIndex(label)
	if li < 0 {
		return 0, false
	}
	if isCorner(internal) {
		return vm.corner[li].GetKey(cornerOrdinal(internal)), true
	}
	if int(internal) >= vm.native[li].Len() {
		return 0, false
	}
	return vm.native[li].GetKey(int(internal)), true
}

// InsertNativeVertices returns the internal ids assigned to each global id
// in list, in order; idempotent per global id (spec §4.3/§7 "Duplicate
// native vertex").
func (vm *VertexMap) InsertNativeVertices(label string, list []uint64) []InternalID {
	li := vm.labelIndex(label)
	if li < 0 {
		panic("vertexmap: unknown label " + label)
	}
	idxs := vm.native[li].InsertBatch(list)
	out := make([]InternalID, len(idxs))
	for i, v := range idxs {
		out[i] = InternalID(v)
	}
	return out
}

// InsertCornerVertices registers endpoint ids whose home is a different
// partition (spec §4.8 "Corner-vertex synthesis"). Returns internal ids
// counting down from InternalIDMax.
func (vm *VertexMap) InsertCornerVertices(label string, list []uint64) []InternalID {
	li := vm.labelIndex(label)
	if li < 0 {
		panic("vertexmap: unknown label " + label)
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	idxs := vm.corner[li].InsertBatch(list)
	for len(vm.cornerRefcount[li]) <= maxInt(idxs) {
		vm.cornerRefcount[li] = append(vm.cornerRefcount[li], 0)
	}
	out := make([]InternalID, len(idxs))
	for i, v := range idxs {
		out[i] = cornerInternal(v)
		vm.cornerRefcount[li][v]++
	}
	return out
}

func maxInt(xs []int) int {
	m := 0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// DecRefCorner decrements the reference count of a corner vertex (each
// InsertCornerVertices call for it increments the count). When the count
// drops to zero, the corner vertex is tombstoned from the corner Indexer
// (SPEC_FULL.md supplemented feature, shaped after blob-refcount.go's
// refcounting idiom). No delete sweep in this package calls it.
func (vm *VertexMap) DecRefCorner(label string, internal InternalID) {
	if !isCorner(internal) {
		return
	}
	li := vm.labelIndex(label)
	if li < 0 {
		return
	}
	ord := cornerOrdinal(internal)
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if ord >= len(vm.cornerRefcount[li]) {
		return
	}
	vm.cornerRefcount[li][ord]--
	if vm.cornerRefcount[li][ord] <= 0 {
		vm.corner[li].EraseIndices([]int{ord})
	}
}

// RemoveVertices tombstones native vertices (used by delete_vertices_by_ids,
// spec §4.10).
func (vm *VertexMap) RemoveVertices(label string, internals []InternalID) {
	li := vm.labelIndex(label)
	if li < 0 {
		return
	}
	nativeIdx := make([]int, 0, len(internals))
	for _, i := range internals {
		if !isCorner(i) {
			nativeIdx = append(nativeIdx, int(i))
		}
	}
	vm.native[li].EraseIndices(nativeIdx)
}

func (vm *VertexMap) NumNative(label string) int {
	li := vm.labelIndex(label)
	if li < 0 {
		return 0
	}
	return vm.native[li].Len()
}

func (vm *VertexMap) Close() {
	for _, i := range vm.native {
		i.Close()
	}
	for _, i := range vm.corner {
		i.Close()
	}
}

func (vm *VertexMap) Dump(dir string) {
	for i, l := range vm.labels {
		vm.native[i].Dump(dir + "/vm_" + l)
		vm.corner[i].Dump(dir + "/vmc_" + l)
	}
}
