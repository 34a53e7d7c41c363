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
	"os"
	"testing"
)

func TestIndexerDumpThenReopenInPlaceKeepsLiveData(t *testing.T) {
	dir := t.TempDir()
	idx := CreateIndexer(dir, "vm_Person")
	idx.InsertBatch([]uint64{10, 20, 30})
	idx.Dump(dir + "/vm_Person")
	idx.Close()

	reopened := OpenIndexer(dir, "vm_Person")
	defer reopened.Close()
	if got, ok := reopened.GetIndex(20); !ok || got != 1 {
		t.Errorf("GetIndex(20) = %d, %v; want 1, true", got, ok)
	}
}

func TestIndexerOpenRehydratesFromDumpWhenLiveFilesAreMissing(t *testing.T) {
	dir := t.TempDir()
	idx := CreateIndexer(dir, "vm_Person")
	idx.InsertBatch([]uint64{10, 20, 30})
	idx.Dump(dir + "/vm_Person")
	idx.Close()

	// simulate a restore onto a machine that only shipped the dump, not the
	// live mmap-backed files.
	if err := os.Remove(dir + "/vm_Person_keys"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(dir + "/vm_Person_indices"); err != nil {
		t.Fatal(err)
	}

	reopened := OpenIndexer(dir, "vm_Person")
	defer reopened.Close()
	if got, ok := reopened.GetIndex(20); !ok || got != 1 {
		t.Errorf("GetIndex(20) = %d, %v; want 1, true after rehydrating from dump", got, ok)
	}
	if reopened.Len() != 3 {
		t.Errorf("Len() = %d; want 3", reopened.Len())
	}
}
