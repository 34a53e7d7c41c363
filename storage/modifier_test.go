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

import "testing"

func buildTestGraph(t *testing.T) (*GraphDB, *GraphSchema) {
	t.Helper()
	schema := &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{Name: "Person", Properties: []PropertyHeader{{Name: "name", Kind: KindString}}},
		},
		EdgeTriples: []EdgeTripleSchema{
			{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person", LoadStrategy: BothOutIn},
		},
	}
	db := Create(t.TempDir(), "0", schema)
	t.Cleanup(db.Close)
	return db, schema
}

func insertPersons(db *GraphDB, router PartitionRouter, ids []uint64, names []string) {
	df := NewDataFrame([]string{"id", "name"}, []PropKind{KindID, KindString})
	for i, id := range ids {
		df.AppendRow([]PropValue{NewID(id), NewString(names[i])})
	}
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpInsertVertices, Vertex: &VertexBinding{Label: "Person"}, Payload: df},
	}, router)
}

func TestApplyInsertVerticesAndEdges(t *testing.T) {
	db, _ := buildTestGraph(t)
	router := ModuloRouter{Count: 1, Local: 0}

	insertPersons(db, router, []uint64{1, 2, 3}, []string{"alice", "bob", "carol"})

	edgeDF := NewDataFrame([]string{"src", "dst"}, []PropKind{KindID, KindID})
	edgeDF.AppendRow([]PropValue{NewID(1), NewID(2)})
	edgeDF.AppendRow([]PropValue{NewID(2), NewID(3)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpInsertEdges, Edge: &EdgeBinding{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person"}, Payload: edgeDF},
	}, router)

	alice, _ := db.GetInternalID("Person", 1)
	neighbors := db.GetSubGraph("Person", "knows", "Person", "oe", alice)
	if len(neighbors) != 1 {
		t.Fatalf("alice should have one outgoing edge, got %d", len(neighbors))
	}
	bob, _ := db.GetGlobalID("Person", neighbors[0])
	if bob != 2 {
		t.Errorf("alice's neighbor global id = %d; want 2", bob)
	}

	carol, _ := db.GetInternalID("Person", 3)
	incoming := db.GetSubGraph("Person", "knows", "Person", "ie", carol)
	if len(incoming) != 1 {
		t.Fatalf("carol should have one incoming edge, got %d", len(incoming))
	}
}

func TestApplyDeleteEdgesRemovesBothSides(t *testing.T) {
	db, _ := buildTestGraph(t)
	router := ModuloRouter{Count: 1, Local: 0}
	insertPersons(db, router, []uint64{1, 2}, []string{"alice", "bob"})

	edgeDF := NewDataFrame([]string{"src", "dst"}, []PropKind{KindID, KindID})
	edgeDF.AppendRow([]PropValue{NewID(1), NewID(2)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpInsertEdges, Edge: &EdgeBinding{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person"}, Payload: edgeDF},
	}, router)

	delDF := NewDataFrame([]string{"src", "dst"}, []PropKind{KindID, KindID})
	delDF.AppendRow([]PropValue{NewID(1), NewID(2)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpDeleteEdges, Edge: &EdgeBinding{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person"}, Payload: delDF},
	}, router)

	alice, _ := db.GetInternalID("Person", 1)
	bob, _ := db.GetInternalID("Person", 2)
	if edges := db.GetSubGraph("Person", "knows", "Person", "oe", alice); len(edges) != 0 {
		t.Errorf("outgoing side should be empty after delete, got %v", edges)
	}
	if edges := db.GetSubGraph("Person", "knows", "Person", "ie", bob); len(edges) != 0 {
		t.Errorf("incoming side should be empty after delete, got %v", edges)
	}
}

func TestApplySetVerticesWidensSchema(t *testing.T) {
	db, schema := buildTestGraph(t)
	router := ModuloRouter{Count: 1, Local: 0}
	insertPersons(db, router, []uint64{1}, []string{"alice"})

	setDF := NewDataFrame([]string{"id", "age"}, []PropKind{KindID, KindInt32})
	setDF.AppendRow([]PropValue{NewID(1), NewInt32(30)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpSetVertices, Vertex: &VertexBinding{Label: "Person"}, Payload: setDF},
	}, router)

	label, _ := schema.VertexLabel("Person")
	found := false
	for _, p := range label.Properties {
		if p.Name == "age" {
			found = true
		}
	}
	if !found {
		t.Fatal("applySetVertices should have widened the schema with an age property")
	}

	alice, _ := db.GetInternalID("Person", 1)
	tbl := db.vertexTbl["Person"]
	val, ok := tbl.GetItem("age", int(alice))
	if !ok || val.I != 30 {
		t.Errorf("age for alice = %v, %v; want 30, true", val, ok)
	}
}

func TestApplyDeleteVerticesCascadesThroughOutgoingEdges(t *testing.T) {
	db, _ := buildTestGraph(t)
	router := ModuloRouter{Count: 1, Local: 0}
	insertPersons(db, router, []uint64{1, 2}, []string{"alice", "bob"})

	edgeDF := NewDataFrame([]string{"src", "dst"}, []PropKind{KindID, KindID})
	edgeDF.AppendRow([]PropValue{NewID(1), NewID(2)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpInsertEdges, Edge: &EdgeBinding{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person"}, Payload: edgeDF},
	}, router)

	delDF := NewDataFrame([]string{"id"}, []PropKind{KindID})
	delDF.AppendRow([]PropValue{NewID(1)})
	db.ApplyWriteOperations([]*WriteOperation{
		{Kind: OpDeleteVertices, Vertex: &VertexBinding{Label: "Person"}, Payload: delDF},
	}, router)
	removed := db.ApplyPendingDeletes()
	db.ApplyDeleteNeighbors(removed)

	if _, ok := db.GetInternalID("Person", 1); ok {
		t.Error("alice should no longer resolve once pending deletes are applied")
	}
	bob, _ := db.GetInternalID("Person", 2)
	if edges := db.GetSubGraph("Person", "knows", "Person", "ie", bob); len(edges) != 0 {
		t.Errorf("bob's incoming side should have its dangling reference to alice swept, got %v", edges)
	}
}
