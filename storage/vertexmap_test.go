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

func TestVertexMapNativeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vm := NewVertexMap(dir, []string{"Person"})
	defer vm.Close()

	ids := vm.InsertNativeVertices("Person", []uint64{100, 200, 300})
	for i, global := range []uint64{100, 200, 300} {
		got, ok := vm.GetGlobalID("Person", ids[i])
		if !ok || got != global {
			t.Errorf("GetGlobalID(%d) = %v, %v; want %d, true", ids[i], got, ok, global)
		}
		back, ok := vm.GetInternalID("Person", global)
		if !ok || back != ids[i] {
			t.Errorf("GetInternalID(%d) = %v, %v; want %d, true", global, back, ok, ids[i])
		}
	}
}

func TestVertexMapInsertNativeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	vm := NewVertexMap(dir, []string{"Person"})
	defer vm.Close()

	first := vm.InsertNativeVertices("Person", []uint64{42})
	second := vm.InsertNativeVertices("Person", []uint64{42})
	if first[0] != second[0] {
		t.Errorf("inserting the same global id twice should return the same internal id: got %d and %d", first[0], second[0])
	}
	if vm.NumNative("Person") != 1 {
		t.Errorf("NumNative = %d; want 1 after a duplicate insert", vm.NumNative("Person"))
	}
}

func TestVertexMapCornerIsDistinctFromNative(t *testing.T) {
	dir := t.TempDir()
	vm := NewVertexMap(dir, []string{"Person"})
	defer vm.Close()

	vm.InsertNativeVertices("Person", []uint64{1})
	corner := vm.InsertCornerVertices("Person", []uint64{999})

	if !isCorner(corner[0]) {
		t.Errorf("corner internal id %d should test as corner", corner[0])
	}
	global, ok := vm.GetGlobalID("Person", corner[0])
	if !ok || global != 999 {
		t.Errorf("GetGlobalID(corner) = %v, %v; want 999, true", global, ok)
	}
}

func TestVertexMapDecRefCornerTombstonesAtZero(t *testing.T) {
	dir := t.TempDir()
	vm := NewVertexMap(dir, []string{"Person"})
	defer vm.Close()

	corner := vm.InsertCornerVertices("Person", []uint64{500})
	vm.DecRefCorner("Person", corner[0])

	if _, ok := vm.GetInternalID("Person", 500); ok {
		t.Errorf("corner vertex should be tombstoned once its refcount reaches zero")
	}
}

func TestVertexMapRemoveVerticesErasesNative(t *testing.T) {
	dir := t.TempDir()
	vm := NewVertexMap(dir, []string{"Person"})
	defer vm.Close()

	ids := vm.InsertNativeVertices("Person", []uint64{1, 2, 3})
	vm.RemoveVertices("Person", []InternalID{ids[1]})

	if _, ok := vm.GetInternalID("Person", 2); ok {
		t.Errorf("global id 2 should no longer resolve after RemoveVertices")
	}
	if _, ok := vm.GetInternalID("Person", 1); !ok {
		t.Errorf("global id 1 should still resolve")
	}
}
