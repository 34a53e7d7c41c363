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

// indexerLoadFactor is the maximum keys/slots ratio before a rehash doubles
// the slot table (spec §4.2: M >= N / 0.875).
const indexerLoadFactor = 0.875

// indexerEmpty / indexerTombstone are the two sentinel slot values. Global
// ids are 64-bit per spec §3, so both keys and slots are uint64 and ^uint64(0)
// doubles as "no such key" the same way it does for corner/edge sentinels
// elsewhere in the engine.
const indexerEmpty = ^uint64(0)
const indexerTombstone = ^uint64(0) - 1

// Indexer is the open-addressing hash table of spec §4.2: a dense `keys`
// vector in insertion order, and a power-of-two `indices` hash table of
// slots holding either indexerEmpty or an index into keys. Both are
// SharedVectors so an Indexer's state is itself a pair of mmap'able files
// (vm_L_keys / vm_L_indices, spec §6.1).
type Indexer struct {
	dir, name string
	keys      *SharedVector[uint64]
	slots     *SharedVector[uint64]
	mu        sync.Mutex
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func CreateIndexer(dir, name string) *Indexer {
	idx := &Indexer{dir: dir, name: name}
	idx.keys = CreateSharedVector[uint64](dir, name+"_keys", 0)
	idx.slots = CreateSharedVector[uint64](dir, name+"_indices", 8)
	s := idx.slots.AsMutSlice()
	for i := range s {
		s[i] = indexerEmpty
	}
	return idx
}

// OpenIndexer maps the live keys/indices files. If a generation dump exists
// but the live files don't (a partition restored from a cold copy rather
// than reopened in place), it is rehydrated first via LoadSharedVector,
// which strips DumpVec's magic-byte framing (persistence_dump.go).
func OpenIndexer(dir, name string) *Indexer {
	rehydrate(dir, name+"_keys")
	rehydrate(dir, name+"_indices")
	return &Indexer{
		dir:   dir,
		name:  name,
		keys:  OpenSharedVector[uint64](dir, name+"_keys"),
		slots: OpenSharedVector[uint64](dir, name+"_indices"),
	}
}

// rehydrate loads dir/name from its dump sibling (dir/name+"_dump") into a
// fresh live SharedVector[uint64] when the live file is missing. A no-op
// when the live file is already there, which is the common in-place-reopen
// path.
func rehydrate(dir, name string) {
	live := dir + "/" + name
	dump := live + "_dump"
	if fileExists(live) || !fileExists(dump) {
		return
	}
	LoadSharedVector[uint64](dump, dir, name).Close()
}

func (idx *Indexer) probe(key uint64) int {
	m := idx.slots.Len()
	slots := idx.slots.AsSlice()
	keys := idx.keys.AsSlice()
	h := int(splitmix64(key) % uint64(m))
	for i := 0; i < m; i++ {
		p := (h + i) % m
		v := slots[p]
		if v == indexerEmpty {
			return p // first empty slot: key is not present
		}
		if v == indexerTombstone {
			continue // skip tombstones, keep probing (spec §4.2 erase_indices contract)
		}
		if keys[v] == key {
			return p
		}
	}
	return -1 // table full of non-empty, non-matching slots (shouldn't happen under load factor discipline)
}

// GetIndex probes native/corner agnostic of caller; returns the dense index
// into keys and whether the key was found live.
func (idx *Indexer) GetIndex(key uint64) (int, bool) {
	p := idx.probe(key)
	if p < 0 {
		return 0, false
	}
	v := idx.slots.AsSlice()[p]
	if v == indexerEmpty {
		return 0, false
	}
	return int(v), true
}

// GetKey is an O(1) lookup in the dense keys vector.
func (idx *Indexer) GetKey(index int) uint64 {
	return idx.keys.Index(index)
}

func (idx *Indexer) rehash(newM int) {
	old := idx.slots.AsSlice()
	keys := idx.keys.AsSlice()
	idx.slots = CreateSharedVector[uint64](idx.dir, idx.name+"_indices", newM)
	ns := idx.slots.AsMutSlice()
	for i := range ns {
		ns[i] = indexerEmpty
	}
	for _, v := range old {
		if v == indexerEmpty || v == indexerTombstone {
			continue
		}
		h := int(splitmix64(keys[v]) % uint64(newM))
		for i := 0; i < newM; i++ {
			p := (h + i) % newM
			if ns[p] == indexerEmpty {
				ns[p] = v
				break
			}
		}
	}
}

// InsertBatch is idempotent per key; returns the dense index assigned to
// each input key in order. Triggers a single sequential rehash (doubling M)
// when the post-insert load would exceed 0.875.
func (idx *Indexer) InsertBatch(list []uint64) []int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	result := make([]int, len(list))
	base := idx.keys.Len()
	newKeys := make([]uint64, 0, len(list))

	for i, key := range list {
		if p, ok := idx.tryFind(key); ok {
			result[i] = p
			continue
		}
		assigned := base + len(newKeys)
		newKeys = append(newKeys, key)
		result[i] = assigned
	}

	if len(newKeys) > 0 {
		idx.keys.Resize(base + len(newKeys))
		ks := idx.keys.AsMutSlice()
		copy(ks[base:], newKeys)

		need := base + len(newKeys)
		m := idx.slots.Len()
		for float64(need) > float64(m)*indexerLoadFactor {
			m *= 2
		}
		if m != idx.slots.Len() {
			idx.rehash(m)
		}

		slots := idx.slots.AsMutSlice()
		for i, key := range newKeys {
			assignedIdx := base + i
			h := int(splitmix64(key) % uint64(len(slots)))
			for j := 0; j < len(slots); j++ {
				p := (h + j) % len(slots)
				if slots[p] == indexerEmpty {
					slots[p] = uint64(assignedIdx)
					break
				}
			}
		}
	}
	return result
}

// tryFind is InsertBatch's non-mutating probe against the state of the
// table so far this batch (mu already held by caller).
func (idx *Indexer) tryFind(key uint64) (int, bool) {
	p := idx.probe(key)
	if p < 0 {
		return 0, false
	}
	v := idx.slots.AsSlice()[p]
	if v == indexerEmpty {
		return 0, false
	}
	return int(v), true
}

// EraseIndices marks the keys as tombstoned (MAX). The hash table is not
// rebuilt: lookups for tombstoned keys still probe the slot chain and will
// skip it (the key compare no longer matches any live key). Re-inserting an
// erased key does not revive its old dense index: InsertBatch appends it
// under a new index in a fresh slot, and the erased entry stays in keys as
// MAX (see spec §9 Open Questions).
func (idx *Indexer) EraseIndices(list []int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	keys := idx.keys.AsMutSlice()
	slots := idx.slots.AsSlice()
	dense := make(map[int]bool, len(list))
	for _, i := range list {
		dense[i] = true
	}
	for i := range keys {
		if dense[i] {
			keys[i] = indexerEmpty
		}
	}
	for p, v := range slots {
		if v != indexerEmpty && v != indexerTombstone && dense[int(v)] {
			idx.slots.AsMutSlice()[p] = indexerTombstone
		}
	}
}

func (idx *Indexer) Len() int { return idx.keys.Len() }

func (idx *Indexer) Close() {
	idx.keys.Close()
	idx.slots.Close()
}

// Dump writes a framed snapshot next to (not over) the live keys/indices
// files, so a process that goes straight on using this Indexer isn't
// reading its own magic-byte-prefixed dump back as a raw array. OpenIndexer
// only consults the dump when the live file is missing (a cold restore).
func (idx *Indexer) Dump(basePath string) {
	DumpVec(idx.keys, basePath+"_keys_dump", false)
	DumpVec(idx.slots, basePath+"_indices_dump", false)
}
