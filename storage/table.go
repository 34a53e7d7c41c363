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

import "fmt"

// Table is an ordered set of named Columns sharing one row space (spec
// §4.4): vertex property tables and edge property tables are both Tables,
// row-aligned one-to-one with a VertexMap or a CSR's neighbor array
// respectively. Shaped after shard.go's ShardDimension column set, but
// generalized from SQL-typed columns to the PropKind/Column abstraction.
type Table struct {
	dir     string
	names   []string
	cols    []Column
	byName  map[string]int
}

// OpenTable builds a Table from column headers already created/opened by the
// caller (loader/schema code): one Column per header, in order.
func OpenTable(dir string, headers []string, cols []Column) *Table {
	t := &Table{dir: dir, names: append([]string(nil), headers...), cols: cols, byName: make(map[string]int, len(headers))}
	for i, n := range headers {
		t.byName[n] = i
	}
	return t
}

func (t *Table) NumCols() int { return len(t.cols) }
func (t *Table) ColumnNames() []string { return t.names }

func (t *Table) colIndex(name string) (int, bool) {
	i, ok := t.byName[name]
	return i, ok
}

// Len is the table's row count, taken from its first column (all columns in
// a Table are kept row-count-synchronized by Resize/InsertBatch).
func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.colIndex(name)
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Resize grows or shrinks every column to n rows in lockstep.
func (t *Table) Resize(n int) {
	for _, c := range t.cols {
		c.Resize(n)
	}
}

// GetItem reads a single (row, col) cell, spec §4.4 get_item.
func (t *Table) GetItem(col string, row int) (PropValue, bool) {
	i, ok := t.colIndex(col)
	if !ok {
		return NewNull(), false
	}
	return t.cols[i].GetItem(row)
}

// GetRow reads every column's value at row, in table column order.
func (t *Table) GetRow(row int) []PropValue {
	out := make([]PropValue, len(t.cols))
	for i, c := range t.cols {
		v, ok := c.GetItem(row)
		if !ok {
			v = NewNull()
		}
		out[i] = v
	}
	return out
}

// InsertBatch applies values[ci] (one value per offset, column-major) to
// column ci of the table, matching a DataFrame's column order. Missing
// trailing columns in a narrower values slice are left untouched
// (schema-evolving Set, spec §4.10 "Set operations can widen the schema").
func (t *Table) InsertBatch(offsets []int, values [][]PropValue) {
	maxIdx := t.Len()
	for _, o := range offsets {
		if o+1 > maxIdx {
			maxIdx = o + 1
		}
	}
	if maxIdx > t.Len() {
		t.Resize(maxIdx)
	}
	for ci, c := range t.cols {
		if ci >= len(values) {
			continue
		}
		col := values[ci]
		if len(col) != len(offsets) {
			panic(fmt.Sprintf("table: column %d value count %d != offset count %d", ci, len(col), len(offsets)))
		}
		c.InsertBatch(offsets, col)
	}
}

func (t *Table) ParallelMove(pairs []MovePair) {
	for _, c := range t.cols {
		c.ParallelMove(pairs)
	}
}

func (t *Table) InplaceParallelChunkMove(newSize int, oldOffsets []uint64, oldDegree []int32, newOffsets []uint64) {
	for _, c := range t.cols {
		c.InplaceParallelChunkMove(newSize, oldOffsets, oldDegree, newOffsets)
	}
}

func (t *Table) InplaceParallelRangeMove(newSize int, ranges []RangeDiff) {
	for _, c := range t.cols {
		c.InplaceParallelRangeMove(newSize, ranges)
	}
}

// RemoveColumn drops a column from the table entirely (schema migration).
func (t *Table) RemoveColumn(name string) {
	i, ok := t.colIndex(name)
	if !ok {
		return
	}
	t.cols[i].Close()
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.names = append(t.names[:i], t.names[i+1:]...)
	t.byName = make(map[string]int, len(t.names))
	for j, n := range t.names {
		t.byName[n] = j
	}
}

// SetColumn installs col under name, appending it if name is new (schema
// widening for Set operations against a property the table didn't
// previously declare, spec §4.10) or replacing the existing column in place
// (e.g. promoting a String column to LCString once its cardinality is known
// to be low, a loader-driven optimization, not part of steady-state Set).
func (t *Table) SetColumn(name string, col Column) {
	if i, ok := t.colIndex(name); ok {
		t.cols[i].Close()
		t.cols[i] = col
		return
	}
	t.names = append(t.names, name)
	t.cols = append(t.cols, col)
	t.byName[name] = len(t.cols) - 1
}

func (t *Table) Dump(basePath string, cold bool) {
	for i, n := range t.names {
		t.cols[i].Dump(basePath+"_"+n, cold)
	}
}

func (t *Table) Close() {
	for _, c := range t.cols {
		c.Close()
	}
}
