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

// SharedStringVec is the dictionary-string variant of SharedVector (spec
// §4.1): three shared vectors (offset, length, content) such that
// content[offset[i]:offset[i]+length[i]] is a valid UTF-8 slice for every
// live i. Shaped after storage-string.go's StorageString, generalized from
// a heap string-builder to mmap'd shared vectors.
type SharedStringVec struct {
	dir     string
	offset  *SharedVector[uint64]
	length  *SharedVector[uint16]
	content *SharedVector[byte]
}

func CreateSharedStringVec(dir, name string, rows int) *SharedStringVec {
	return &SharedStringVec{
		dir:     dir,
		offset:  CreateSharedVector[uint64](dir, name+"_offset", rows),
		length:  CreateSharedVector[uint16](dir, name+"_length", rows),
		content: CreateSharedVector[byte](dir, name+"_content", 0),
	}
}

func OpenSharedStringVec(dir, name string) *SharedStringVec {
	return &SharedStringVec{
		dir:     dir,
		offset:  OpenSharedVector[uint64](dir, name+"_offset"),
		length:  OpenSharedVector[uint16](dir, name+"_length"),
		content: OpenSharedVector[byte](dir, name+"_content"),
	}
}

func (s *SharedStringVec) Len() int { return s.offset.Len() }

func (s *SharedStringVec) Get(i int) string {
	off := s.offset.Index(i)
	l := s.length.Index(i)
	if l == 0 {
		return ""
	}
	b := s.content.AsSlice()[off : off+uint64(l)]
	return string(b)
}

// BatchSet appends new content and rewrites the indexed offset/length
// entries. It never reclaims storage for overwritten strings, matching
// spec §4.1's invariant that content is append-only.
func (s *SharedStringVec) BatchSet(indices []int, values []string) {
	maxIdx := s.offset.Len()
	for _, i := range indices {
		if i+1 > maxIdx {
			maxIdx = i + 1
		}
	}
	if maxIdx > s.offset.Len() {
		s.offset.Resize(maxIdx)
		s.length.Resize(maxIdx)
	}
	base := s.content.Len()
	total := 0
	for _, v := range values {
		total += len(v)
	}
	s.content.Resize(base + total)
	buf := s.content.AsMutSlice()
	pos := base
	offs := s.offset.AsMutSlice()
	lens := s.length.AsMutSlice()
	for k, idx := range indices {
		v := values[k]
		copy(buf[pos:pos+len(v)], v)
		offs[idx] = uint64(pos)
		lens[idx] = uint16(len(v))
		pos += len(v)
	}
}

func (s *SharedStringVec) Close() {
	s.offset.Close()
	s.length.Close()
	s.content.Close()
}

func (s *SharedStringVec) Dump(basePath string, cold bool) {
	DumpVec(s.offset, basePath+"_offset", cold)
	DumpVec(s.length, basePath+"_length", cold)
	DumpVec(s.content, basePath+"_content", cold)
}
