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

import "io"

/*

persistence interface

GraphCore partitions are laid out on disk as the named shared-vector/column
files of spec §6.1 (vm_L_keys, oe_s_e_d_nbrs, vp_L_col_i, ...) plus one
schema.json per partition. A storage backend only has to move those named
byte blobs in and out: it never needs to understand CSR or column
semantics. Shaped after storage/persistence.go's PersistenceEngine,
narrowed to this engine's reload-from-CSV recovery model: there is no
write-ahead log here (spec §7 "Recoverability": full reload from the CSV
ETL is the only recovery path), so the original OpenLog/ReplayLog surface
is dropped; see DESIGN.md.

*/

type PersistenceEngine interface {
	ReadSchema(partition string) []byte
	WriteSchema(partition string, schema []byte)
	ReadArtifact(partition string, name string) io.ReadCloser
	WriteArtifact(partition string, name string) io.WriteCloser
	RemoveArtifact(partition string, name string)
	RemovePartition(partition string)
}

// PersistenceFactory is a factory-per-backend idiom so a deployment picks
// its storage tier (local disk, S3, Ceph) once at startup.
type PersistenceFactory interface {
	OpenPersistence(root string) PersistenceEngine
}

// ErrorReader implements io.ReadCloser and reflects a open-time error
// (missing artifact) lazily at the first Read, so callers can treat
// "missing" and "empty" uniformly.
type ErrorReader struct {
	Err error
}

func (e ErrorReader) Read([]byte) (int, error) { return 0, e.Err }
func (e ErrorReader) Close() error             { return nil }
