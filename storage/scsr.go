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

// scsrSentinel marks "no edge" for a source row in an SCsr (spec §4.5.2).
const scsrSentinel = InternalID(InternalIDMax)

// Scsr is the single-edge CSR specialization of spec §4.5.2: relationships
// where a source has at most one outgoing (or incoming) edge of the given
// label are stored as one flat array indexed directly by source id, rather
// than paying for an offsets/degree pair (spec §4.5.2). Shaped after the
// single-valued foreign-key column idiom, generalized to a sentinel-slot
// array.
type Scsr struct {
	dir, name string
	nbrs      *SharedVector[InternalID]
	meta      *SharedVector[uint64] // [max_offset, edge_num, capacity]
}

func CreateScsr(dir, name string, capacity int) *Scsr {
	s := &Scsr{dir: dir, name: name}
	s.nbrs = CreateSharedVector[InternalID](dir, name+"_nbrs", capacity)
	n := s.nbrs.AsMutSlice()
	for i := range n {
		n[i] = scsrSentinel
	}
	s.meta = CreateSharedVector[uint64](dir, name+"_meta", 3)
	m := s.meta.AsMutSlice()
	m[0], m[1], m[2] = 0, 0, uint64(capacity)
	return s
}

func OpenScsr(dir, name string) *Scsr {
	return &Scsr{
		dir:  dir,
		name: name,
		nbrs: OpenSharedVector[InternalID](dir, name+"_nbrs"),
		meta: OpenSharedVector[uint64](dir, name+"_meta"),
	}
}

func (s *Scsr) Capacity() int { return s.nbrs.Len() }
func (s *Scsr) EdgeNum() uint64 { return s.meta.Index(1) }

// Degree implements the corrected semantics spec §9 flags as a likely bug in
// the source this engine is grounded on: "degree(u) is coded as (nbr == MAX)
// as usize, which returns 1 on absence" there. Here degree(v) = 1 exactly
// when v has a live edge, 0 when it is absent or out of range.
func (s *Scsr) Degree(v int) int {
	if v < 0 || v >= s.nbrs.Len() {
		return 0
	}
	if s.nbrs.AsSlice()[v] != scsrSentinel {
		return 1
	}
	return 0
}

// GetEdge returns the sole neighbor of v, if any.
func (s *Scsr) GetEdge(v int) (InternalID, bool) {
	if v < 0 || v >= s.nbrs.Len() {
		return 0, false
	}
	n := s.nbrs.AsSlice()[v]
	if n == scsrSentinel {
		return 0, false
	}
	return n, true
}

// ResizeVertex widens nbrs to capacity newCap, filling new slots with the
// sentinel; indices [oldCap, newCap) read MAX until written, per spec §8
// edge case "capacity grown beyond N".
func (s *Scsr) ResizeVertex(newCap int) {
	old := s.nbrs.Len()
	if newCap <= old {
		return
	}
	s.nbrs.Resize(newCap)
	n := s.nbrs.AsMutSlice()
	for i := old; i < newCap; i++ {
		n[i] = scsrSentinel
	}
	m := s.meta.AsMutSlice()
	m[2] = uint64(newCap)
}

// InsertEdges writes nbrs[src] = dst for every pair, widening capacity first
// if any src is out of range. Inserting twice to the same src simply
// overwrites (spec §4.5.2); this is NOT additive like the dense CSR.
func (s *Scsr) InsertEdges(edges [][2]InternalID) {
	maxSrc := s.nbrs.Len()
	for _, e := range edges {
		if int(e[0])+1 > maxSrc {
			maxSrc = int(e[0]) + 1
		}
	}
	if maxSrc > s.nbrs.Len() {
		s.ResizeVertex(maxSrc)
	}
	n := s.nbrs.AsMutSlice()
	for _, e := range edges {
		n[e[0]] = e[1]
	}
	var live uint64
	var maxOffset uint64
	for i, v := range n {
		if v != scsrSentinel {
			live++
			if uint64(i) > maxOffset {
				maxOffset = uint64(i)
			}
		}
	}
	m := s.meta.AsMutSlice()
	m[0] = maxOffset
	m[1] = live
	m[2] = uint64(s.nbrs.Len())
}

// DeleteEdges clears nbrs[src] for every src in set (degrading to per-slot
// writes exactly as spec §4.5.2 describes).
func (s *Scsr) DeleteEdges(srcs []InternalID) {
	n := s.nbrs.AsMutSlice()
	for _, v := range srcs {
		if int(v) < len(n) {
			n[v] = scsrSentinel
		}
	}
	var live uint64
	for _, v := range n {
		if v != scsrSentinel {
			live++
		}
	}
	s.meta.AsMutSlice()[1] = live
}

func (s *Scsr) Dump(basePath string, cold bool) {
	DumpVec(s.nbrs, basePath+"_nbrs", cold)
	DumpVec(s.meta, basePath+"_meta", false)
}

func (s *Scsr) Close() {
	s.nbrs.Close()
	s.meta.Close()
}
