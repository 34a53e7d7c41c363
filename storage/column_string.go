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

// StringColumn is the variable-length string kind of spec §4.4: content is
// append-only, rows only re-point their offset/length entries. Moving a row
// (for CSR compaction/resize) therefore only ever touches offset+length,
// never content. Shaped after storage-string.go's StorageString, generalized
// from a heap string.Builder to SharedStringVec.
type StringColumn struct {
	s *SharedStringVec
}

func NewStringColumn(dir, name string, n int) Column {
	return &StringColumn{s: CreateSharedStringVec(dir, name, n)}
}
func OpenStringColumn(dir, name string) Column {
	return &StringColumn{s: OpenSharedStringVec(dir, name)}
}

func (c *StringColumn) Kind() PropKind { return KindString }
func (c *StringColumn) Len() int       { return c.s.Len() }

func (c *StringColumn) GetItem(row int) (PropValue, bool) {
	if row < 0 || row >= c.s.Len() {
		return NewNull(), false
	}
	return NewString(c.s.Get(row)), true
}

func (c *StringColumn) Resize(n int) {
	c.s.offset.Resize(n)
	c.s.length.Resize(n)
}

func (c *StringColumn) InsertBatch(offsets []int, values []PropValue) {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = v.S
	}
	c.s.BatchSet(offsets, strs)
}

func (c *StringColumn) ParallelMove(pairs []MovePair) {
	ParallelMove(c.s.offset, pairs)
	ParallelMove(c.s.length, pairs)
}

func (c *StringColumn) InplaceParallelChunkMove(newSize int, oldOffsets []uint64, oldDegree []int32, newOffsets []uint64) {
	InplaceParallelChunkMove(c.s.offset, newSize, oldOffsets, oldDegree, newOffsets)
	InplaceParallelChunkMove(c.s.length, newSize, oldOffsets, oldDegree, newOffsets)
}

func (c *StringColumn) InplaceParallelRangeMove(newSize int, ranges []RangeDiff) {
	InplaceParallelRangeMove(c.s.offset, newSize, ranges)
	InplaceParallelRangeMove(c.s.length, newSize, ranges)
}

func (c *StringColumn) Dump(basePath string, cold bool) { c.s.Dump(basePath, cold) }
func (c *StringColumn) Close()                          { c.s.Close() }
