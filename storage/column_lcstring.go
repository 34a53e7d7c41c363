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

// LCStringColumn is the dictionary-encoded low-cardinality string kind of
// spec §4.4: a u16 `index` vector plus a `dict` String column. The canonical
// dictionary invariant (code[i]=code[j] <=> string[i]=string[j], spec §8
// testable property 7) is kept by never reusing a dict slot for a different
// value: BatchSet either finds an existing entry through the in-memory
// byValue map (value -> code) or appends a new one. The
// dictionary never shrinks even when a row stops referencing a code, since
// a code can be shared by future rows. Shaped after storage-enum.go's
// append-only dictionary idiom.
type LCStringColumn struct {
	dir, name string
	index     *SharedVector[uint16]
	dict      *SharedStringVec
	byValue   map[string]uint16
}

func NewLCStringColumn(dir, name string, n int) Column {
	c := &LCStringColumn{
		dir:     dir,
		name:    name,
		index:   CreateSharedVector[uint16](dir, name+"_idx", n),
		dict:    CreateSharedStringVec(dir, name+"_dict", 0),
		byValue: make(map[string]uint16),
	}
	s := c.index.AsMutSlice()
	for i := range s {
		s[i] = 0
	}
	return c
}

func OpenLCStringColumn(dir, name string) Column {
	c := &LCStringColumn{
		dir:     dir,
		name:    name,
		index:   OpenSharedVector[uint16](dir, name+"_idx"),
		dict:    OpenSharedStringVec(dir, name+"_dict"),
		byValue: make(map[string]uint16),
	}
	for i := 0; i < c.dict.Len(); i++ {
		c.byValue[c.dict.Get(i)] = uint16(i)
	}
	return c
}

func (c *LCStringColumn) Kind() PropKind { return KindLCString }
func (c *LCStringColumn) Len() int       { return c.index.Len() }

func (c *LCStringColumn) GetItem(row int) (PropValue, bool) {
	if row < 0 || row >= c.index.Len() {
		return NewNull(), false
	}
	code := c.index.Index(row)
	if int(code) >= c.dict.Len() {
		return NewNull(), false
	}
	return NewLCString(c.dict.Get(int(code))), true
}

// code returns the dictionary code for v, appending a new dict entry only
// when v has never been seen before (the canonical-code invariant).
func (c *LCStringColumn) code(v string) uint16 {
	if code, ok := c.byValue[v]; ok {
		return code
	}
	n := c.dict.Len()
	c.dict.BatchSet([]int{n}, []string{v})
	code := uint16(n)
	c.byValue[v] = code
	return code
}

func (c *LCStringColumn) Resize(n int) {
	old := c.index.Len()
	c.index.Resize(n)
	if n > old {
		s := c.index.AsMutSlice()
		for i := old; i < n; i++ {
			s[i] = 0
		}
	}
}

func (c *LCStringColumn) InsertBatch(offsets []int, values []PropValue) {
	maxIdx := c.index.Len()
	for _, o := range offsets {
		if o+1 > maxIdx {
			maxIdx = o + 1
		}
	}
	if maxIdx > c.index.Len() {
		c.Resize(maxIdx)
	}
	s := c.index.AsMutSlice()
	for i, o := range offsets {
		s[o] = c.code(values[i].S)
	}
}

func (c *LCStringColumn) ParallelMove(pairs []MovePair) { ParallelMove(c.index, pairs) }
func (c *LCStringColumn) InplaceParallelChunkMove(newSize int, oldOffsets []uint64, oldDegree []int32, newOffsets []uint64) {
	InplaceParallelChunkMove(c.index, newSize, oldOffsets, oldDegree, newOffsets)
}
func (c *LCStringColumn) InplaceParallelRangeMove(newSize int, ranges []RangeDiff) {
	InplaceParallelRangeMove(c.index, newSize, ranges)
}

func (c *LCStringColumn) Dump(basePath string, cold bool) {
	DumpVec(c.index, basePath+"_idx", cold)
	c.dict.Dump(basePath+"_dict", cold)
}
func (c *LCStringColumn) Close() {
	c.index.Close()
	c.dict.Close()
}

// DictionaryBytes reports the live dictionary's approximate in-memory
// footprint (supplemented feature, SPEC_FULL.md "per-column dictionary
// growth accounting"): useful for a loader/cache deciding whether a column
// is still worth low-cardinality encoding.
func (c *LCStringColumn) DictionaryBytes() int {
	total := 0
	for v := range c.byValue {
		total += len(v) + 2 // +2 for the uint16 code itself
	}
	return total
}
