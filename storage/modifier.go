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

// PartitionRouter tells the modifier which partition a global vertex id
// belongs to. ApplyWriteOperations passes it through to insert_edges, whose
// corner synthesis (spec §4.10 "For non-local endpoints, synthesizes corner
// vertices first") does not consult it. The actual inter-partition RPC is
// out of scope here (spec §1 "the RPC server... external collaborator");
// this is the narrow interface the modifier needs from it.
type PartitionRouter interface {
	PartitionCount() int
	PartitionOf(global uint64) int
	LocalPartition() int
}

// ModuloRouter is the static router spec §3/§6.3 describes: partitioning by
// global id modulo partition count.
type ModuloRouter struct {
	Count int
	Local int
}

func (r ModuloRouter) PartitionCount() int     { return r.Count }
func (r ModuloRouter) PartitionOf(g uint64) int { return int(g % uint64(r.Count)) }
func (r ModuloRouter) LocalPartition() int      { return r.Local }

func cascadeTriples(schema *GraphSchema, rootLabel string) []EdgeTripleSchema {
	var out []EdgeTripleSchema
	for _, e := range schema.EdgeTriples {
		if e.SrcLabel == rootLabel {
			out = append(out, e)
		}
	}
	return out
}

// ApplyWriteOperations executes batch in order (spec §5 "within a single
// WriteOperation batch, operations execute in the order supplied"),
// cascading vertex deletes through the local subgraph before the batch
// ends, and leaves apply_delete_neighbors to the caller (spec §4.7: it must
// run "after any vertex deletion batch and before subsequent reads").
func (db *GraphDB) ApplyWriteOperations(batch []*WriteOperation, router PartitionRouter) {
	for _, op := range batch {
		switch op.Kind {
		case OpInsertVertices:
			db.applyInsertVertices(op)
		case OpInsertEdges:
			db.applyInsertEdges(op, router)
		case OpDeleteVertices:
			db.applyDeleteVertices(op)
		case OpDeleteEdges:
			db.applyDeleteEdges(op)
		case OpSetVertices:
			db.applySetVertices(op)
		case OpSetEdges:
			db.applySetEdges(op)
		}
	}
}

func (db *GraphDB) applyInsertVertices(op *WriteOperation) {
	label := op.Vertex.Label
	n := op.Payload.NumRows()
	if n == 0 {
		return
	}
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = op.Payload.Cols[0].Get(i).U
	}
	internals := db.vertexMap.InsertNativeVertices(label, ids)
	tbl := db.vertexTbl[label]
	if tbl == nil || len(op.Payload.Cols) <= 1 {
		return
	}
	offsets := make([]int, n)
	for i, id := range internals {
		offsets[i] = int(id)
	}
	cols := make([][]PropValue, tbl.NumCols())
	for ci := 1; ci < len(op.Payload.Cols) && ci-1 < len(cols); ci++ {
		cols[ci-1] = op.Payload.ColumnValues(ci)
	}
	tbl.InsertBatch(offsets, cols)
}

// synthesizeCorner translates a global id to an internal id, creating a
// corner vertex for it if it is neither a native nor an existing corner
// vertex of label (spec §4.10 "Insert edges"). router is not consulted.
func (db *GraphDB) synthesizeCorner(label string, global uint64, router PartitionRouter) InternalID {
	if internal, ok := db.vertexMap.GetInternalID(label, global); ok {
		return internal
	}
	ids := db.vertexMap.InsertCornerVertices(label, []uint64{global})
	return ids[0]
}

func (db *GraphDB) applyInsertEdges(op *WriteOperation, router PartitionRouter) {
	e := op.Edge
	n := op.Payload.NumRows()
	if n == 0 {
		return
	}
	srcs := op.Payload.Cols[0]
	dsts := op.Payload.Cols[1]
	edges := make([][2]InternalID, n)
	var props [][]PropValue
	if len(op.Payload.Cols) > 2 {
		props = make([][]PropValue, len(op.Payload.Cols)-2)
		for ci := 2; ci < len(op.Payload.Cols); ci++ {
			props[ci-2] = op.Payload.ColumnValues(ci)
		}
	}
	for i := 0; i < n; i++ {
		srcG := srcs.Get(i).U
		dstG := dsts.Get(i).U
		srcI := db.synthesizeCorner(e.SrcLabel, srcG, router)
		dstI := db.synthesizeCorner(e.DstLabel, dstG, router)
		edges[i] = [2]InternalID{srcI, dstI}
	}
	key := EdgeTripleSchema{SrcLabel: e.SrcLabel, EdgeLabel: e.EdgeLabel, DstLabel: e.DstLabel}.Key()
	if side, ok := db.oe[key]; ok {
		maxV := db.vertexMap.NumNative(e.SrcLabel)
		if side.dense != nil {
			side.dense.InsertEdgesBeta(maxV, edges, props, false, db.oeProps[key])
		} else if side.single != nil {
			side.single.InsertEdges(edges)
		}
	}
	if side, ok := db.ie[key]; ok {
		maxV := db.vertexMap.NumNative(e.DstLabel)
		if side.dense != nil {
			side.dense.InsertEdgesBeta(maxV, edges, props, true, db.ieProps[key])
		} else if side.single != nil {
			reversed := make([][2]InternalID, n)
			for i, ed := range edges {
				reversed[i] = [2]InternalID{ed[1], ed[0]}
			}
			side.single.InsertEdges(reversed)
		}
	}
}

// applyDeleteVertices accumulates the requested ids and cascades through
// every outgoing edge triple rooted at this label, matching the LDBC
// person -> forum/post/comment/message delete cascade (spec §4.10
// "Cascading LDBC deletes"): dependents are discovered via GetSubGraph and
// enqueued in the same batch, never as a new one.
func (db *GraphDB) applyDeleteVertices(op *WriteOperation) {
	type pendingVertex struct {
		label  string
		global uint64
	}
	n := op.Payload.NumRows()
	queue := make([]pendingVertex, n)
	for i := 0; i < n; i++ {
		queue[i] = pendingVertex{op.Vertex.Label, op.Payload.Cols[0].Get(i).U}
	}
	visited := make(map[string]map[uint64]bool)
	for len(queue) > 0 {
		label, global := queue[0].label, queue[0].global
		queue = queue[1:]
		if visited[label] == nil {
			visited[label] = make(map[uint64]bool)
		}
		if visited[label][global] {
			continue
		}
		visited[label][global] = true
		internal, ok := db.vertexMap.GetInternalID(label, global)
		if !ok {
			continue
		}
		db.DeleteVertex(label, global)
		for _, triple := range cascadeTriples(db.schema, label) {
			key := triple.Key()
			side, ok := db.oe[key]
			if !ok {
				continue
			}
			for _, dep := range side.edges(int(internal)) {
				depGlobal, ok := db.vertexMap.GetGlobalID(triple.DstLabel, dep)
				if !ok {
					continue
				}
				if visited[triple.DstLabel] == nil || !visited[triple.DstLabel][depGlobal] {
					queue = append(queue, pendingVertex{triple.DstLabel, depGlobal})
				}
			}
		}
	}
}

func (db *GraphDB) applyDeleteEdges(op *WriteOperation) {
	e := op.Edge
	n := op.Payload.NumRows()
	if n == 0 {
		return
	}
	srcs := op.Payload.Cols[0]
	dsts := op.Payload.Cols[1]
	pairs := make([][2]InternalID, 0, n)
	for i := 0; i < n; i++ {
		srcI, ok1 := db.vertexMap.GetInternalID(e.SrcLabel, srcs.Get(i).U)
		dstI, ok2 := db.vertexMap.GetInternalID(e.DstLabel, dsts.Get(i).U)
		if !ok1 || !ok2 {
			continue
		}
		pairs = append(pairs, [2]InternalID{srcI, dstI})
	}
	key := EdgeTripleSchema{SrcLabel: e.SrcLabel, EdgeLabel: e.EdgeLabel, DstLabel: e.DstLabel}.Key()
	if side, ok := db.oe[key]; ok {
		if side.dense != nil {
			moves := side.dense.DeleteEdges(pairs, false)
			if t, ok := db.oeProps[key]; ok && moves != nil {
				t.ParallelMove(moves)
			}
		} else if side.single != nil {
			srcs := make([]InternalID, len(pairs))
			for i, p := range pairs {
				srcs[i] = p[0]
			}
			side.single.DeleteEdges(srcs)
		}
	}
	if side, ok := db.ie[key]; ok {
		if side.dense != nil {
			moves := side.dense.DeleteEdges(pairs, true)
			if t, ok := db.ieProps[key]; ok && moves != nil {
				t.ParallelMove(moves)
			}
		} else if side.single != nil {
			dsts := make([]InternalID, len(pairs))
			for i, p := range pairs {
				dsts[i] = p[1]
			}
			side.single.DeleteEdges(dsts)
		}
	}
}

// applySetVertices upserts a vertex property column, widening the schema
// and creating a new column builder if the property wasn't declared yet
// (spec §4.10 "Set vertices / Set edges"). Payload column 0 is the global
// id; column 1 is the property value; op.Payload.Headers[1] is the
// property name.
func (db *GraphDB) applySetVertices(op *WriteOperation) {
	label := op.Vertex.Label
	name := op.Payload.Headers[1]
	kind := op.Payload.Cols[1].Kind
	v, _ := db.schema.VertexLabel(label)
	found := false
	for _, p := range v.Properties {
		if p.Name == name {
			found = true
		}
	}
	tbl := db.vertexTbl[label]
	if !found {
		db.schema.AddVertexProperty(label, PropertyHeader{Name: name, Kind: kind})
		tbl.SetColumn(name, newColumnByKind(db.dir, "vp_"+label+"_"+name, kind, tbl.Len()))
	}
	n := op.Payload.NumRows()
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		internal, ok := db.vertexMap.GetInternalID(label, op.Payload.Cols[0].Get(i).U)
		if !ok {
			continue
		}
		offsets[i] = int(internal)
	}
	values := op.Payload.ColumnValues(1)
	if col, ok := tbl.Column(name); ok {
		col.InsertBatch(offsets, values)
	}
}

// applySetEdges upserts an edge property, updating BOTH the incoming and
// outgoing edge property table as spec §4.10 requires, addressed by the
// neighbor-array offsets carried in the payload (not by endpoint id: the
// offset identifies a specific edge slot, since a (src,dst) pair is not
// unique across repeated inserts into the same row's freed capacity).
func (db *GraphDB) applySetEdges(op *WriteOperation) {
	e := op.Edge
	key := EdgeTripleSchema{SrcLabel: e.SrcLabel, EdgeLabel: e.EdgeLabel, DstLabel: e.DstLabel}.Key()
	name := op.Payload.Headers[1]
	kind := op.Payload.Cols[1].Kind
	n := op.Payload.NumRows()
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		offsets[i] = int(op.Payload.Cols[0].Get(i).U)
	}
	values := op.Payload.ColumnValues(1)

	ensureCol := func(tbl *Table) {
		if tbl == nil {
			return
		}
		if _, ok := tbl.Column(name); !ok {
			db.schema.AddEdgeProperty(e.SrcLabel, e.EdgeLabel, e.DstLabel, PropertyHeader{Name: name, Kind: kind})
			tbl.SetColumn(name, newColumnByKind(db.dir, "ep_"+key+"_"+name, kind, tbl.Len()))
		}
		if col, ok := tbl.Column(name); ok {
			col.InsertBatch(offsets, values)
		}
	}
	ensureCol(db.oeProps[key])
	ensureCol(db.ieProps[key])
}

func newColumnByKind(dir, name string, kind PropKind, n int) Column {
	switch kind {
	case KindInt32:
		return NewInt32Column(dir, name, n)
	case KindUInt32:
		return NewUInt32Column(dir, name, n)
	case KindInt64:
		return NewInt64Column(dir, name, n)
	case KindUInt64:
		return NewUInt64Column(dir, name, n)
	case KindDouble:
		return NewDoubleColumn(dir, name, n)
	case KindDate:
		return NewDateColumn(dir, name, n)
	case KindDateTime:
		return NewDateTimeColumn(dir, name, n)
	case KindID:
		return NewIDColumn(dir, name, n)
	case KindString:
		return NewStringColumn(dir, name, n)
	case KindLCString:
		return NewLCStringColumn(dir, name, n)
	default:
		return NewNullColumn(n)
	}
}
