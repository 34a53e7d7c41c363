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

func TestScsrDegreeAbsentIsZero(t *testing.T) {
	dir := t.TempDir()
	s := CreateScsr(dir, "s", 4)
	defer s.Close()

	for v := 0; v < 4; v++ {
		if d := s.Degree(v); d != 0 {
			t.Errorf("vertex %d: expected degree 0 before any insert, got %d", v, d)
		}
	}
	if d := s.Degree(100); d != 0 {
		t.Errorf("out-of-range vertex: expected degree 0, got %d", d)
	}
}

func TestScsrDegreeOneAfterInsert(t *testing.T) {
	dir := t.TempDir()
	s := CreateScsr(dir, "s", 4)
	defer s.Close()

	s.InsertEdges([][2]InternalID{{1, 7}})
	if d := s.Degree(1); d != 1 {
		t.Errorf("vertex 1: expected degree 1 after insert, got %d", d)
	}
	if d := s.Degree(0); d != 0 {
		t.Errorf("vertex 0: expected degree 0, got %d", d)
	}
	got, ok := s.GetEdge(1)
	if !ok || got != 7 {
		t.Errorf("GetEdge(1) = %v, %v; want 7, true", got, ok)
	}
}

func TestScsrInsertOverwritesNotAdditive(t *testing.T) {
	dir := t.TempDir()
	s := CreateScsr(dir, "s", 2)
	defer s.Close()

	s.InsertEdges([][2]InternalID{{0, 1}})
	s.InsertEdges([][2]InternalID{{0, 2}})
	got, ok := s.GetEdge(0)
	if !ok || got != 2 {
		t.Errorf("second insert should overwrite: got %v, %v; want 2, true", got, ok)
	}
	if s.EdgeNum() != 1 {
		t.Errorf("EdgeNum() = %d; want 1 (overwrite, not additive)", s.EdgeNum())
	}
}

func TestScsrDeleteClearsSlot(t *testing.T) {
	dir := t.TempDir()
	s := CreateScsr(dir, "s", 4)
	defer s.Close()

	s.InsertEdges([][2]InternalID{{0, 5}, {1, 6}})
	s.DeleteEdges([]InternalID{0})
	if d := s.Degree(0); d != 0 {
		t.Errorf("vertex 0: expected degree 0 after delete, got %d", d)
	}
	if d := s.Degree(1); d != 1 {
		t.Errorf("vertex 1: expected degree 1 (untouched), got %d", d)
	}
	if s.EdgeNum() != 1 {
		t.Errorf("EdgeNum() = %d; want 1 after deleting one of two", s.EdgeNum())
	}
}

func TestScsrResizeGrowsBeyondCapacity(t *testing.T) {
	dir := t.TempDir()
	s := CreateScsr(dir, "s", 2)
	defer s.Close()

	s.InsertEdges([][2]InternalID{{5, 9}})
	if s.Capacity() < 6 {
		t.Fatalf("Capacity() = %d; want >= 6 after inserting at index 5", s.Capacity())
	}
	if d := s.Degree(5); d != 1 {
		t.Errorf("vertex 5: expected degree 1, got %d", d)
	}
	if d := s.Degree(3); d != 0 {
		t.Errorf("vertex 3: newly grown slot should read absent, got degree %d", d)
	}
}
