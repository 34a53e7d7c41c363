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

func buildSampleTable(t *testing.T) *Table {
	t.Helper()
	dir := t.TempDir()
	cols := []Column{
		NewStringColumn(dir, "name", 3),
		NewInt32Column(dir, "age", 3),
	}
	tbl := OpenTable(dir, []string{"name", "age"}, cols)
	tbl.InsertBatch([]int{0, 1, 2},
		[][]PropValue{
			{NewString("alice"), NewString("bob"), NewString("carol")},
			{NewInt32(30), NewInt32(40), NewInt32(50)},
		})
	return tbl
}

func TestTableGetItemAndGetRow(t *testing.T) {
	tbl := buildSampleTable(t)

	v, ok := tbl.GetItem("name", 1)
	if !ok || v.S != "bob" {
		t.Errorf("GetItem(name,1) = %v, %v; want bob, true", v, ok)
	}
	row := tbl.GetRow(2)
	if row[0].S != "carol" || row[1].I != 50 {
		t.Errorf("GetRow(2) = %v; want [carol 50]", row)
	}
}

func TestTableInsertBatchGrowsRowCount(t *testing.T) {
	tbl := buildSampleTable(t)
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", tbl.Len())
	}
	tbl.InsertBatch([]int{5}, [][]PropValue{{NewString("dave")}, {NewInt32(22)}})
	if tbl.Len() != 6 {
		t.Errorf("Len() = %d; want 6 after inserting at offset 5", tbl.Len())
	}
	v, ok := tbl.GetItem("name", 5)
	if !ok || v.S != "dave" {
		t.Errorf("GetItem(name,5) = %v, %v; want dave, true", v, ok)
	}
}

func TestTableSetColumnAddsNewProperty(t *testing.T) {
	tbl := buildSampleTable(t)
	dir := t.TempDir()
	tbl.SetColumn("score", NewDoubleColumn(dir, "score", tbl.Len()))

	if tbl.NumCols() != 3 {
		t.Fatalf("NumCols() = %d; want 3 after SetColumn", tbl.NumCols())
	}
	col, ok := tbl.Column("score")
	if !ok {
		t.Fatal("score column should be retrievable after SetColumn")
	}
	col.InsertBatch([]int{0}, []PropValue{NewDouble(1.5)})
	v, ok := tbl.GetItem("score", 0)
	if !ok || v.F != 1.5 {
		t.Errorf("GetItem(score,0) = %v, %v; want 1.5, true", v, ok)
	}
}
