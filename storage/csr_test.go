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
	"sort"
	"testing"
)

func assertNeighbors(t *testing.T, c *Csr, v int, want []InternalID) {
	t.Helper()
	got := append([]InternalID(nil), c.GetEdges(v)...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	if len(got) != len(want) {
		t.Fatalf("vertex %d: got %v, want %v", v, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("vertex %d: got %v, want %v", v, got, want)
		}
	}
}

func TestCsrInsertEdgesBetaGrowsAndLists(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 0)
	defer c.Close()

	c.InsertEdgesBeta(3, [][2]InternalID{{0, 1}, {0, 2}, {1, 2}}, nil, false, nil)

	assertNeighbors(t, c, 0, []InternalID{1, 2})
	assertNeighbors(t, c, 1, []InternalID{2})
	assertNeighbors(t, c, 2, nil)
	if c.EdgeNum() != 3 {
		t.Errorf("EdgeNum() = %d; want 3", c.EdgeNum())
	}
}

func TestCsrInsertEdgesBetaReuseFreedCapacity(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 0)
	defer c.Close()

	c.InsertEdgesBeta(2, [][2]InternalID{{0, 1}, {0, 2}}, nil, false, nil)
	c.DeleteEdges([][2]InternalID{{0, 1}}, false)
	assertNeighbors(t, c, 0, []InternalID{2})

	// re-insert into the freed slot; should not require widening beyond what
	// the row already reserved.
	c.InsertEdgesBeta(2, [][2]InternalID{{0, 3}}, nil, false, nil)
	assertNeighbors(t, c, 0, []InternalID{2, 3})
}

func TestCsrDeleteEdgesReverseSweepsCompanionSide(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 0)
	defer c.Close()

	// populate as if this were the "ie" side: stored (dst,src) pairs.
	c.InsertEdgesBeta(2, [][2]InternalID{{1, 0}}, nil, false, nil)
	assertNeighbors(t, c, 1, []InternalID{0})

	c.DeleteEdges([][2]InternalID{{0, 1}}, true)
	assertNeighbors(t, c, 1, nil)
	if d := c.Degree(1); d != 0 {
		t.Errorf("Degree(1) = %d; want 0 after deleting its only edge", d)
	}
}

func TestCsrDegreeOutOfRangeIsZero(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 2)
	defer c.Close()

	if d := c.Degree(100); d != 0 {
		t.Errorf("Degree(100) = %d; want 0", d)
	}
}

// TestCsrDeleteEdgesMovePairsHaveUniqueDestinations covers the two-pointer
// sweep's handling of a row where multiple delete targets are adjacent
// (including at the tail): the companion property table can only stay
// aligned if every returned MovePair.To is distinct, per ParallelMove's
// disjointness precondition (sharedvec_ops.go).
func TestCsrDeleteEdgesMovePairsHaveUniqueDestinations(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 0)
	defer c.Close()

	// row 0: neighbors 1,2,3,4 with 1,3,4 deleted, leaving only 2 live.
	c.InsertEdgesBeta(5, [][2]InternalID{{0, 1}, {0, 2}, {0, 3}, {0, 4}}, nil, false, nil)
	pairs := c.DeleteEdges([][2]InternalID{{0, 1}, {0, 3}, {0, 4}}, false)

	assertNeighbors(t, c, 0, []InternalID{2})

	seen := make(map[int]bool)
	for _, p := range pairs {
		if seen[p.To] {
			t.Fatalf("duplicate MovePair.To=%d in %v", p.To, pairs)
		}
		seen[p.To] = true
	}
}

func TestCsrInsertEdgesBetaMultiColumnProps(t *testing.T) {
	dir := t.TempDir()
	c := CreateCsr(dir, "c", 0)
	defer c.Close()
	propDir := t.TempDir()
	weight := newColumnByKind(propDir, "weight", KindDouble, 0)
	since := newColumnByKind(propDir, "since", KindInt64, 0)
	propTbl := OpenTable(propDir, []string{"weight", "since"}, []Column{weight, since})
	defer propTbl.Close()

	props := [][]PropValue{
		{NewDouble(1.5), NewDouble(2.5)},
		{NewInt64(100), NewInt64(200)},
	}
	c.InsertEdgesBeta(2, [][2]InternalID{{0, 1}, {0, 2}}, props, false, propTbl)

	row0 := propTbl.GetRow(0)
	row1 := propTbl.GetRow(1)
	if row0[0].F != 1.5 || row0[1].I != 100 {
		t.Errorf("row 0 = %v; want weight=1.5 since=100", row0)
	}
	if row1[0].F != 2.5 || row1[1].I != 200 {
		t.Errorf("row 1 = %v; want weight=2.5 since=200", row1)
	}
}
