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

// fixedColumn is the shared core for every fixed-width column kind
// (Int32/UInt32/Int64/UInt64/Double/Date/DateTime/ID): one SharedVector of
// T, O(1) get_item, per spec §4.4. One typed wrapper per kind is kept
// (rather than a single generic exported type) to match the texture of a
// dedicated file/type per storage kind (storage-int.go, storage-float.go,
// ...) while not duplicating the move/resize plumbing.
type fixedColumn[T any] struct {
	kind PropKind
	v    *SharedVector[T]
	toV  func(PropValue) T
	toP  func(T) PropValue
}

func newFixedColumn[T any](kind PropKind, v *SharedVector[T], toV func(PropValue) T, toP func(T) PropValue) *fixedColumn[T] {
	return &fixedColumn[T]{kind: kind, v: v, toV: toV, toP: toP}
}

func (c *fixedColumn[T]) Kind() PropKind { return c.kind }
func (c *fixedColumn[T]) Len() int       { return c.v.Len() }

func (c *fixedColumn[T]) GetItem(row int) (PropValue, bool) {
	if row < 0 || row >= c.v.Len() {
		return NewNull(), false
	}
	return c.toP(c.v.Index(row)), true
}

func (c *fixedColumn[T]) Resize(n int) { c.v.Resize(n) }

func (c *fixedColumn[T]) InsertBatch(offsets []int, values []PropValue) {
	maxIdx := c.v.Len()
	for _, o := range offsets {
		if o+1 > maxIdx {
			maxIdx = o + 1
		}
	}
	if maxIdx > c.v.Len() {
		c.v.Resize(maxIdx)
	}
	s := c.v.AsMutSlice()
	for i, o := range offsets {
		s[o] = c.toV(values[i])
	}
}

func (c *fixedColumn[T]) ParallelMove(pairs []MovePair) { ParallelMove(c.v, pairs) }
func (c *fixedColumn[T]) InplaceParallelChunkMove(newSize int, oldOffsets []uint64, oldDegree []int32, newOffsets []uint64) {
	InplaceParallelChunkMove(c.v, newSize, oldOffsets, oldDegree, newOffsets)
}
func (c *fixedColumn[T]) InplaceParallelRangeMove(newSize int, ranges []RangeDiff) {
	InplaceParallelRangeMove(c.v, newSize, ranges)
}
func (c *fixedColumn[T]) Dump(basePath string, cold bool) { DumpVec(c.v, basePath, cold) }
func (c *fixedColumn[T]) Close()                          { c.v.Close() }

// --- typed constructors, one per spec §4.4 fixed-width kind ---

func NewInt32Column(dir, name string, n int) Column {
	return newFixedColumn(KindInt32, CreateSharedVector[int32](dir, name, n),
		func(p PropValue) int32 { return int32(p.I) },
		func(v int32) PropValue { return NewInt32(v) })
}
func OpenInt32Column(dir, name string) Column {
	return newFixedColumn(KindInt32, OpenSharedVector[int32](dir, name),
		func(p PropValue) int32 { return int32(p.I) },
		func(v int32) PropValue { return NewInt32(v) })
}

func NewUInt32Column(dir, name string, n int) Column {
	return newFixedColumn(KindUInt32, CreateSharedVector[uint32](dir, name, n),
		func(p PropValue) uint32 { return uint32(p.U) },
		func(v uint32) PropValue { return NewUInt32(v) })
}
func OpenUInt32Column(dir, name string) Column {
	return newFixedColumn(KindUInt32, OpenSharedVector[uint32](dir, name),
		func(p PropValue) uint32 { return uint32(p.U) },
		func(v uint32) PropValue { return NewUInt32(v) })
}

func NewInt64Column(dir, name string, n int) Column {
	return newFixedColumn(KindInt64, CreateSharedVector[int64](dir, name, n),
		func(p PropValue) int64 { return p.I },
		func(v int64) PropValue { return NewInt64(v) })
}
func OpenInt64Column(dir, name string) Column {
	return newFixedColumn(KindInt64, OpenSharedVector[int64](dir, name),
		func(p PropValue) int64 { return p.I },
		func(v int64) PropValue { return NewInt64(v) })
}

func NewUInt64Column(dir, name string, n int) Column {
	return newFixedColumn(KindUInt64, CreateSharedVector[uint64](dir, name, n),
		func(p PropValue) uint64 { return p.U },
		func(v uint64) PropValue { return NewUInt64(v) })
}
func OpenUInt64Column(dir, name string) Column {
	return newFixedColumn(KindUInt64, OpenSharedVector[uint64](dir, name),
		func(p PropValue) uint64 { return p.U },
		func(v uint64) PropValue { return NewUInt64(v) })
}

func NewDoubleColumn(dir, name string, n int) Column {
	return newFixedColumn(KindDouble, CreateSharedVector[float64](dir, name, n),
		func(p PropValue) float64 { return p.F },
		func(v float64) PropValue { return NewDouble(v) })
}
func OpenDoubleColumn(dir, name string) Column {
	return newFixedColumn(KindDouble, OpenSharedVector[float64](dir, name),
		func(p PropValue) float64 { return p.F },
		func(v float64) PropValue { return NewDouble(v) })
}

func NewDateColumn(dir, name string, n int) Column {
	return newFixedColumn(KindDate, CreateSharedVector[int32](dir, name, n),
		func(p PropValue) int32 { return int32(p.I) },
		func(v int32) PropValue { return NewDate(v) })
}
func OpenDateColumn(dir, name string) Column {
	return newFixedColumn(KindDate, OpenSharedVector[int32](dir, name),
		func(p PropValue) int32 { return int32(p.I) },
		func(v int32) PropValue { return NewDate(v) })
}

func NewDateTimeColumn(dir, name string, n int) Column {
	return newFixedColumn(KindDateTime, CreateSharedVector[int64](dir, name, n),
		func(p PropValue) int64 { return p.I },
		func(v int64) PropValue { return NewDateTime(v) })
}
func OpenDateTimeColumn(dir, name string) Column {
	return newFixedColumn(KindDateTime, OpenSharedVector[int64](dir, name),
		func(p PropValue) int64 { return p.I },
		func(v int64) PropValue { return NewDateTime(v) })
}

func NewIDColumn(dir, name string, n int) Column {
	return newFixedColumn(KindID, CreateSharedVector[uint64](dir, name, n),
		func(p PropValue) uint64 { return p.U },
		func(v uint64) PropValue { return NewID(v) })
}
func OpenIDColumn(dir, name string) Column {
	return newFixedColumn(KindID, OpenSharedVector[uint64](dir, name),
		func(p PropValue) uint64 { return p.U },
		func(v uint64) PropValue { return NewID(v) })
}
