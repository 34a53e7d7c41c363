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

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/btree"
	"github.com/launix-de/NonLockingReadMap"
)

// edgeSide is either a dense Csr or a single-edge Scsr, whichever the
// schema's load_strategy materialized for one direction of a triple (spec
// §4.5.3).
type edgeSide struct {
	dense  *Csr
	single *Scsr
}

func (s edgeSide) degree(v int) int {
	if s.dense != nil {
		return int(s.dense.Degree(v))
	}
	if s.single != nil {
		return s.single.Degree(v)
	}
	return 0
}

func (s edgeSide) edges(v int) []InternalID {
	if s.dense != nil {
		return s.dense.GetEdges(v)
	}
	if s.single != nil {
		if n, ok := s.single.GetEdge(v); ok {
			return []InternalID{n}
		}
	}
	return nil
}

func (s edgeSide) deleteNeighbors(set map[InternalID]bool) []MovePair {
	if s.dense != nil {
		return s.dense.DeleteNeighbors(set)
	}
	if s.single != nil {
		var srcs []InternalID
		n := s.single.Capacity()
		for v := 0; v < n; v++ {
			if nbr, ok := s.single.GetEdge(v); ok && set[nbr] {
				srcs = append(srcs, InternalID(v))
			}
		}
		s.single.DeleteEdges(srcs)
	}
	return nil
}

// GraphDB owns one partition's full live state (spec §4.7): the vertex map,
// per-label vertex property tables, per-edge-triple CSR/SCsr pairs and edge
// property tables, the immutable schema, and a pending-delete batch. Shaped
// after storage/shard.go's per-shard in-memory structures, generalized from
// SQL tables/indexes to the graph-native layout.
type GraphDB struct {
	dir       string
	partition string
	schema    *GraphSchema

	vertexMap *VertexMap
	vertexTbl map[string]*Table // label -> vertex property table

	oe map[string]edgeSide
	ie map[string]edgeSide

	oeProps map[string]*Table
	ieProps map[string]*Table

	// pendingToDelete is a per-label batch of global ids awaiting
	// apply_delete_neighbors. btree.BTreeG gives a deterministic sweep
	// order (useful for reproducible tests and logs); NonBlockingBitMap
	// gives O(1) concurrent "is v already pending" probes from writer
	// worker goroutines without a mutex (DOMAIN STACK wiring for
	// google/btree and launix-de/NonLockingReadMap).
	pendingToDelete map[string]*btree.BTreeG[uint64]
	pendingSeen     map[string]*NonLockingReadMap.NonBlockingBitMap
	mu              sync.Mutex

	watcher *fsnotify.Watcher
}

func uint64Less(a, b uint64) bool { return a < b }

// Open loads a partition's schema and every materialized artifact from
// partitionPrefix/partitionID, mmap'ing every shared vector in place (spec
// §4.7 open(partition_prefix, partition_id)).
func Open(partitionPrefix string, partitionID string, schema *GraphSchema) *GraphDB {
	dir := partitionPrefix + "/" + partitionID

	labels := make([]string, len(schema.VertexLabels))
	for i, v := range schema.VertexLabels {
		labels[i] = v.Name
	}

	db := &GraphDB{
		dir:             dir,
		partition:       partitionID,
		schema:          schema,
		vertexMap:       OpenVertexMap(dir, labels),
		vertexTbl:       make(map[string]*Table),
		oe:              make(map[string]edgeSide),
		ie:              make(map[string]edgeSide),
		oeProps:         make(map[string]*Table),
		ieProps:         make(map[string]*Table),
		pendingToDelete: make(map[string]*btree.BTreeG[uint64]),
		pendingSeen:     make(map[string]*NonLockingReadMap.NonBlockingBitMap),
	}

	for _, v := range schema.VertexLabels {
		headers := make([]string, len(v.Properties))
		cols := make([]Column, len(v.Properties))
		for i, p := range v.Properties {
			headers[i] = p.Name
			cols[i] = openColumnByKind(dir, fmt.Sprintf("vp_%s_col_%d", v.Name, i), p.Kind)
		}
		db.vertexTbl[v.Name] = OpenTable(dir, headers, cols)
		bt := btree.NewG(32, uint64Less)
		db.pendingToDelete[v.Name] = bt
		bm := NonLockingReadMap.NewBitMap()
		db.pendingSeen[v.Name] = &bm
	}

	for _, e := range schema.EdgeTriples {
		base := fmt.Sprintf("%s_%s_%s", e.SrcLabel, e.EdgeLabel, e.DstLabel)
		if e.LoadStrategy == BothOutIn || e.LoadStrategy == OnlyOut {
			db.oe[e.Key()] = openEdgeSide(dir, "oe_"+base, e.SingleOE)
			db.oeProps[e.Key()] = openEdgePropTable(dir, "oe_"+base, e.Properties)
		}
		if e.LoadStrategy == BothOutIn || e.LoadStrategy == OnlyIn {
			db.ie[e.Key()] = openEdgeSide(dir, "ie_"+base, e.SingleIE)
			db.ieProps[e.Key()] = openEdgePropTable(dir, "ie_"+base, e.Properties)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err == nil {
		w.Add(dir)
		db.watcher = w
	}
	return db
}

func openEdgeSide(dir, name string, single bool) edgeSide {
	if single {
		return edgeSide{single: OpenScsr(dir, name)}
	}
	return edgeSide{dense: OpenCsr(dir, name)}
}

func openEdgePropTable(dir, name string, props []PropertyHeader) *Table {
	headers := make([]string, len(props))
	cols := make([]Column, len(props))
	for i, p := range props {
		headers[i] = p.Name
		cols[i] = openColumnByKind(dir, name+"_col_"+fmt.Sprint(i), p.Kind)
	}
	return OpenTable(dir, headers, cols)
}

// Create builds a brand-new, empty partition at partitionPrefix/partitionID
// (spec §4.8 "the loader then writes ... shared-vector files"): every
// vertex label gets a fresh native+corner VertexMap pair, an empty property
// Table, and every materialized edge-triple side gets an empty Csr/Scsr;
// the loader's writer stage fills them in before Dump.
func Create(partitionPrefix, partitionID string, schema *GraphSchema) *GraphDB {
	dir := partitionPrefix + "/" + partitionID
	os.MkdirAll(dir, 0750)

	labels := make([]string, len(schema.VertexLabels))
	for i, v := range schema.VertexLabels {
		labels[i] = v.Name
	}

	db := &GraphDB{
		dir:             dir,
		partition:       partitionID,
		schema:          schema,
		vertexMap:       NewVertexMap(dir, labels),
		vertexTbl:       make(map[string]*Table),
		oe:              make(map[string]edgeSide),
		ie:              make(map[string]edgeSide),
		oeProps:         make(map[string]*Table),
		ieProps:         make(map[string]*Table),
		pendingToDelete: make(map[string]*btree.BTreeG[uint64]),
		pendingSeen:     make(map[string]*NonLockingReadMap.NonBlockingBitMap),
	}

	for _, v := range schema.VertexLabels {
		headers := make([]string, len(v.Properties))
		cols := make([]Column, len(v.Properties))
		for i, p := range v.Properties {
			headers[i] = p.Name
			cols[i] = newColumnByKind(dir, fmt.Sprintf("vp_%s_col_%d", v.Name, i), p.Kind, 0)
		}
		db.vertexTbl[v.Name] = OpenTable(dir, headers, cols)
		bt := btree.NewG(32, uint64Less)
		db.pendingToDelete[v.Name] = bt
		bm := NonLockingReadMap.NewBitMap()
		db.pendingSeen[v.Name] = &bm
	}

	for _, e := range schema.EdgeTriples {
		base := fmt.Sprintf("%s_%s_%s", e.SrcLabel, e.EdgeLabel, e.DstLabel)
		if e.LoadStrategy == BothOutIn || e.LoadStrategy == OnlyOut {
			db.oe[e.Key()] = createEdgeSide(dir, "oe_"+base, e.SingleOE)
			db.oeProps[e.Key()] = createEdgePropTable(dir, "oe_"+base, e.Properties)
		}
		if e.LoadStrategy == BothOutIn || e.LoadStrategy == OnlyIn {
			db.ie[e.Key()] = createEdgeSide(dir, "ie_"+base, e.SingleIE)
			db.ieProps[e.Key()] = createEdgePropTable(dir, "ie_"+base, e.Properties)
		}
	}

	return db
}

func createEdgeSide(dir, name string, single bool) edgeSide {
	if single {
		return edgeSide{single: CreateScsr(dir, name, 0)}
	}
	return edgeSide{dense: CreateCsr(dir, name, 0)}
}

func createEdgePropTable(dir, name string, props []PropertyHeader) *Table {
	headers := make([]string, len(props))
	cols := make([]Column, len(props))
	for i, p := range props {
		headers[i] = p.Name
		cols[i] = newColumnByKind(dir, name+"_col_"+fmt.Sprint(i), p.Kind, 0)
	}
	return OpenTable(dir, headers, cols)
}

func openColumnByKind(dir, name string, kind PropKind) Column {
	switch kind {
	case KindInt32:
		return OpenInt32Column(dir, name)
	case KindUInt32:
		return OpenUInt32Column(dir, name)
	case KindInt64:
		return OpenInt64Column(dir, name)
	case KindUInt64:
		return OpenUInt64Column(dir, name)
	case KindDouble:
		return OpenDoubleColumn(dir, name)
	case KindDate:
		return OpenDateColumn(dir, name)
	case KindDateTime:
		return OpenDateTimeColumn(dir, name)
	case KindID:
		return OpenIDColumn(dir, name)
	case KindString:
		return OpenStringColumn(dir, name)
	case KindLCString:
		return OpenLCStringColumn(dir, name)
	default:
		return NewNullColumn(0)
	}
}

// GetSubGraph returns the live neighbor list of v in the materialized CSR
// side for (sLabel,eLabel,dLabel) in direction dir ("oe" or "ie"); the
// returned slice borrows from the GraphDB and must not outlive it (spec
// §4.7 get_sub_graph, §3 "subgraph views borrow from it and never outlive
// it").
func (db *GraphDB) GetSubGraph(sLabel, eLabel, dLabel, dir string, v InternalID) []InternalID {
	side, ok := db.edgeSide(sLabel, eLabel, dLabel, dir)
	if !ok {
		return nil
	}
	return side.edges(int(v))
}

// GetSingleSubGraph is GetSubGraph specialized for a side the schema
// declared single (spec §4.7 get_single_sub_graph): returns the sole
// neighbor, if any.
func (db *GraphDB) GetSingleSubGraph(sLabel, eLabel, dLabel, dir string, v InternalID) (InternalID, bool) {
	side, ok := db.edgeSide(sLabel, eLabel, dLabel, dir)
	if !ok || side.single == nil {
		return 0, false
	}
	return side.single.GetEdge(int(v))
}

func (db *GraphDB) edgeSide(sLabel, eLabel, dLabel, dir string) (edgeSide, bool) {
	key := EdgeTripleSchema{SrcLabel: sLabel, EdgeLabel: eLabel, DstLabel: dLabel}.Key()
	if dir == "oe" {
		s, ok := db.oe[key]
		return s, ok
	}
	s, ok := db.ie[key]
	return s, ok
}

func (db *GraphDB) GetVerticesNum(label string) int { return db.vertexMap.NumNative(label) }

// Schema returns the schema db was opened or created with, for callers
// (the CLI's converter/run_traverse commands) that need to look up label
// and triple metadata without threading it through separately.
func (db *GraphDB) Schema() *GraphSchema { return db.schema }

func (db *GraphDB) GetGlobalID(label string, internal InternalID) (uint64, bool) {
	return db.vertexMap.GetGlobalID(label, internal)
}

func (db *GraphDB) GetInternalID(label string, global uint64) (InternalID, bool) {
	return db.vertexMap.GetInternalID(label, global)
}

// InsertVertex installs one new native vertex and its property row (spec
// §4.10 "Insert vertices", single-row convenience over InsertNativeVertices
// + vertex table InsertBatch).
func (db *GraphDB) InsertVertex(label string, global uint64, props []PropValue) InternalID {
	ids := db.vertexMap.InsertNativeVertices(label, []uint64{global})
	internal := ids[0]
	tbl := db.vertexTbl[label]
	if tbl != nil && props != nil {
		cols := make([][]PropValue, tbl.NumCols())
		for i := range cols {
			if i < len(props) {
				cols[i] = []PropValue{props[i]}
			}
		}
		tbl.InsertBatch([]int{int(internal)}, cols)
	}
	return internal
}

// InsertEdge inserts a single (src,dst) edge given as internal ids into every
// materialized side of the triple, a single-edge wrapper around
// Csr.InsertEdgesBeta/Scsr.InsertEdges (spec §4.10 "Insert edges"). It does
// no global-id translation or corner synthesis; the modifier's batch path
// (applyInsertEdges) does not go through it.
func (db *GraphDB) InsertEdge(sLabel, eLabel, dLabel string, src, dst InternalID, props []PropValue) {
	key := EdgeTripleSchema{SrcLabel: sLabel, EdgeLabel: eLabel, DstLabel: dLabel}.Key()
	var colProps [][]PropValue
	if len(props) > 0 {
		colProps = make([][]PropValue, len(props))
		for ci, v := range props {
			colProps[ci] = []PropValue{v}
		}
	}
	if side, ok := db.oe[key]; ok {
		if side.dense != nil {
			newN := side.dense.NumVertices()
			if int(src)+1 > newN {
				newN = int(src) + 1
			}
			side.dense.InsertEdgesBeta(newN, [][2]InternalID{{src, dst}}, colProps, false, db.oeProps[key])
		} else if side.single != nil {
			side.single.InsertEdges([][2]InternalID{{src, dst}})
		}
	}
	if side, ok := db.ie[key]; ok {
		if side.dense != nil {
			newN := side.dense.NumVertices()
			if int(dst)+1 > newN {
				newN = int(dst) + 1
			}
			side.dense.InsertEdgesBeta(newN, [][2]InternalID{{src, dst}}, colProps, true, db.ieProps[key])
		} else if side.single != nil {
			side.single.InsertEdges([][2]InternalID{{dst, src}})
		}
	}
}

// DeleteVertex accumulates global into pending_to_delete[label] (spec §4.10
// "Delete vertices"); the actual degree-zeroing and vertex_map removal
// happens in ApplyPendingDeletes.
func (db *GraphDB) DeleteVertex(label string, global uint64) {
	internal, ok := db.vertexMap.GetInternalID(label, global)
	if !ok {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	seen := db.pendingSeen[label]
	if seen.Get(uint32(internal)) {
		return
	}
	seen.Set(uint32(internal), true)
	db.pendingToDelete[label].ReplaceOrInsert(uint64(internal))
}

// ApplyPendingDeletes drains pending_to_delete[label] for every label: sets
// degree to zero on every CSR incident to that label's vertices and removes
// them from the vertex map. It does NOT sweep dangling remote references;
// callers must follow with ApplyDeleteNeighbors (spec §4.7).
func (db *GraphDB) ApplyPendingDeletes() map[string][]InternalID {
	removed := make(map[string][]InternalID)
	for label, bt := range db.pendingToDelete {
		if bt.Len() == 0 {
			continue
		}
		var ids []InternalID
		bt.Ascend(func(v uint64) bool {
			ids = append(ids, InternalID(v))
			return true
		})
		for i := range db.schema.EdgeTriples {
			e := &db.schema.EdgeTriples[i]
			key := e.Key()
			// oe is indexed by src-label offsets, ie by dst-label offsets;
			// zeroing degrees on the wrong side would drop live edges of an
			// unrelated label that merely shares the same dense offset.
			if e.SrcLabel == label {
				if side, ok := db.oe[key]; ok && side.dense != nil {
					side.dense.DeleteVertices(ids)
				} else if ok && side.single != nil {
					side.single.DeleteEdges(ids)
				}
			}
			if e.DstLabel == label {
				if side, ok := db.ie[key]; ok && side.dense != nil {
					side.dense.DeleteVertices(ids)
				} else if ok && side.single != nil {
					side.single.DeleteEdges(ids)
				}
			}
		}
		db.vertexMap.RemoveVertices(label, ids)
		removed[label] = ids
		db.pendingToDelete[label] = btree.NewG(32, uint64Less)
		db.pendingSeen[label] = func() *NonLockingReadMap.NonBlockingBitMap {
			bm := NonLockingReadMap.NewBitMap()
			return &bm
		}()
	}
	return removed
}

// ApplyDeleteNeighbors sweeps the CSR sides whose neighbors belong to a
// deleted label (the oe side of a triple whose dst label it is, the ie side
// of a triple whose src label it is) for dangling references to ids that
// ApplyPendingDeletes already zeroed out, applying the returned swap pairs
// to the companion edge property table. Idempotent and safe to re-run (spec
// §4.7, §7 Recoverability).
func (db *GraphDB) ApplyDeleteNeighbors(removed map[string][]InternalID) {
	for label, ids := range removed {
		if len(ids) == 0 {
			continue
		}
		targets := make(map[InternalID]bool, len(ids))
		for _, id := range ids {
			targets[id] = true
		}
		for i := range db.schema.EdgeTriples {
			e := &db.schema.EdgeTriples[i]
			key := e.Key()
			if side, ok := db.oe[key]; ok && e.DstLabel == label {
				if t, ok := db.oeProps[key]; ok {
					if pairs := side.deleteNeighbors(targets); pairs != nil {
						t.ParallelMove(pairs)
					}
				} else {
					side.deleteNeighbors(targets)
				}
			}
			if side, ok := db.ie[key]; ok && e.SrcLabel == label {
				if t, ok := db.ieProps[key]; ok {
					if pairs := side.deleteNeighbors(targets); pairs != nil {
						t.ParallelMove(pairs)
					}
				} else {
					side.deleteNeighbors(targets)
				}
			}
		}
	}
}

// WatchGenerationChange blocks the calling reader goroutine until the
// partition directory reports a write event (a new writer generation was
// published), then returns. Readers re-snapshot vector lengths/meta after
// waking (spec §5 "publish-on-apply"), using fsnotify rather than polling.
func (db *GraphDB) WatchGenerationChange() {
	if db.watcher == nil {
		return
	}
	for {
		select {
		case ev, ok := <-db.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				return
			}
		case <-db.watcher.Errors:
			return
		}
	}
}

func (db *GraphDB) Close() {
	if db.watcher != nil {
		db.watcher.Close()
	}
	db.vertexMap.Close()
	for _, t := range db.vertexTbl {
		t.Close()
	}
	for _, s := range db.oe {
		if s.dense != nil {
			s.dense.Close()
		}
		if s.single != nil {
			s.single.Close()
		}
	}
	for _, s := range db.ie {
		if s.dense != nil {
			s.dense.Close()
		}
		if s.single != nil {
			s.single.Close()
		}
	}
	for _, t := range db.oeProps {
		t.Close()
	}
	for _, t := range db.ieProps {
		t.Close()
	}
}

// Dump writes schema.json and every shared-vector artifact for this
// partition (spec §6.1), marking a new generation for fsnotify-watching
// readers by touching a marker file last.
func (db *GraphDB) Dump(cold bool) {
	os.MkdirAll(db.dir, 0750)
	os.WriteFile(db.dir+"/schema.json", db.schema.Encode(), 0644)
	for label, t := range db.vertexTbl {
		t.Dump(db.dir+"/vp_"+label, cold)
	}
	db.vertexMap.Dump(db.dir)
	for key, s := range db.oe {
		if s.dense != nil {
			s.dense.Dump(db.dir+"/oe_"+key, cold)
		}
		if s.single != nil {
			s.single.Dump(db.dir+"/oe_"+key, cold)
		}
	}
	for key, s := range db.ie {
		if s.dense != nil {
			s.dense.Dump(db.dir+"/ie_"+key, cold)
		}
		if s.single != nil {
			s.single.Dump(db.dir+"/ie_"+key, cold)
		}
	}
	os.WriteFile(db.dir+"/.generation", []byte(NewRunID()), 0644)
}
