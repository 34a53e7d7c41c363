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

func friendSchema() *GraphSchema {
	return &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{Name: "Person", Properties: []PropertyHeader{{Name: "name", Kind: KindString}}},
		},
		EdgeTriples: []EdgeTripleSchema{
			{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person", LoadStrategy: BothOutIn},
		},
	}
}

func TestGraphDBInsertVertexAndEdgeResolve(t *testing.T) {
	db := Create(t.TempDir(), "0", friendSchema())
	defer db.Close()

	alice := db.InsertVertex("Person", 1, []PropValue{NewString("alice")})
	bob := db.InsertVertex("Person", 2, []PropValue{NewString("bob")})
	db.InsertEdge("Person", "knows", "Person", alice, bob, nil)

	if n := db.GetVerticesNum("Person"); n != 2 {
		t.Fatalf("GetVerticesNum(Person) = %d; want 2", n)
	}

	neighbors := db.GetSubGraph("Person", "knows", "Person", "oe", alice)
	if len(neighbors) != 1 {
		t.Fatalf("alice should have exactly one outgoing knows-neighbor, got %d", len(neighbors))
	}
	if neighbors[0] != bob {
		t.Errorf("alice's neighbor = %d; want bob (%d)", neighbors[0], bob)
	}

	back, ok := db.GetGlobalID("Person", bob)
	if !ok || back != 2 {
		t.Errorf("GetGlobalID(Person,bob) = %d, %v; want 2, true", back, ok)
	}
}

func TestGraphDBDeleteVertexIsStagedUntilApplied(t *testing.T) {
	db := Create(t.TempDir(), "0", friendSchema())
	defer db.Close()

	alice := db.InsertVertex("Person", 1, []PropValue{NewString("alice")})
	bob := db.InsertVertex("Person", 2, []PropValue{NewString("bob")})
	db.InsertEdge("Person", "knows", "Person", alice, bob, nil)

	db.DeleteVertex("Person", 1)
	if _, ok := db.GetInternalID("Person", 1); !ok {
		t.Error("alice should still resolve before ApplyPendingDeletes runs")
	}

	removed := db.ApplyPendingDeletes()
	db.ApplyDeleteNeighbors(removed)

	if _, ok := db.GetInternalID("Person", 1); ok {
		t.Error("alice should no longer resolve once pending deletes are applied")
	}
	if edges := db.GetSubGraph("Person", "knows", "Person", "ie", bob); len(edges) != 0 {
		t.Errorf("bob's incoming side should have dropped the dangling reference to alice, got %v", edges)
	}
}

func socialSchema() *GraphSchema {
	return &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{Name: "Person"},
			{Name: "Post"},
			{Name: "Tag"},
		},
		EdgeTriples: []EdgeTripleSchema{
			{SrcLabel: "Person", EdgeLabel: "likes", DstLabel: "Post", LoadStrategy: BothOutIn},
			{SrcLabel: "Post", EdgeLabel: "tagged", DstLabel: "Tag", LoadStrategy: BothOutIn},
		},
	}
}

// TestGraphDBApplyPendingDeletesOnlyTouchesIncidentSides covers the
// multi-label case where two unrelated edge triples' dense sides happen to
// share the same internal offset: deleting a Person must not zero degree in
// a CSR that isn't keyed by Person on the relevant side.
func TestGraphDBApplyPendingDeletesOnlyTouchesIncidentSides(t *testing.T) {
	db := Create(t.TempDir(), "0", socialSchema())
	defer db.Close()

	person := db.InsertVertex("Person", 1, nil)
	post := db.InsertVertex("Post", 1, nil)
	tag := db.InsertVertex("Tag", 1, nil)
	db.InsertEdge("Person", "likes", "Post", person, post, nil)
	db.InsertEdge("Post", "tagged", "Tag", post, tag, nil)

	// person and post both have internal id 0 in their own dense label
	// space, so a buggy ApplyPendingDeletes that zeroes every side
	// unconditionally would also wipe post's outgoing "tagged" edge here.
	db.DeleteVertex("Person", 1)
	removed := db.ApplyPendingDeletes()
	db.ApplyDeleteNeighbors(removed)

	tagged := db.GetSubGraph("Post", "tagged", "Tag", "oe", post)
	if len(tagged) != 1 {
		t.Fatalf("post's outgoing tagged-edge should survive deleting an unrelated Person, got %v", tagged)
	}
	if tagged[0] != tag {
		t.Errorf("post's tagged neighbor = %d; want tag (%d)", tagged[0], tag)
	}
}

func TestGraphDBDumpAndReopenRoundTrips(t *testing.T) {
	prefix := t.TempDir()
	schema := friendSchema()

	db := Create(prefix, "0", schema)
	alice := db.InsertVertex("Person", 1, []PropValue{NewString("alice")})
	bob := db.InsertVertex("Person", 2, []PropValue{NewString("bob")})
	db.InsertEdge("Person", "knows", "Person", alice, bob, nil)
	db.Dump(true)
	db.Close()

	reopened := Open(prefix, "0", schema)
	defer reopened.Close()

	if n := reopened.GetVerticesNum("Person"); n != 2 {
		t.Fatalf("reopened GetVerticesNum(Person) = %d; want 2", n)
	}
	reopenedAlice, ok := reopened.GetInternalID("Person", 1)
	if !ok {
		t.Fatal("alice should resolve after reopening the dumped partition")
	}
	name, ok := reopened.vertexTbl["Person"].GetItem("name", int(reopenedAlice))
	if !ok || name.S != "alice" {
		t.Errorf("reopened name for alice = %v, %v; want alice, true", name, ok)
	}
	neighbors := reopened.GetSubGraph("Person", "knows", "Person", "oe", reopenedAlice)
	if len(neighbors) != 1 {
		t.Fatalf("reopened alice should still have exactly one outgoing knows-edge, got %d", len(neighbors))
	}
	neighborGlobal, _ := reopened.GetGlobalID("Person", neighbors[0])
	if neighborGlobal != 2 {
		t.Errorf("reopened alice's neighbor global id = %d; want 2 (bob)", neighborGlobal)
	}
}
