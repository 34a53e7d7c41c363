//go:build ceph

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
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

// CephFactory builds a RADOS-backed PersistenceEngine, for deployments that
// already run Ceph as their object-storage tier. Shaped after
// storage/persistence-ceph.go's CephFactory/CephStorage, narrowed to this
// engine's artifact model (no log segments: see persistence.go). Build with
// -tags=ceph; persistence_ceph_stub.go supplies the no-op fallback.
type CephFactory struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Prefix      string
}

func (f *CephFactory) OpenPersistence(root string) PersistenceEngine {
	pfx := path.Join(strings.TrimSuffix(f.Prefix, "/"), root)
	return &CephStorage{factory: f, prefix: pfx}
}

type CephStorage struct {
	factory *CephFactory
	prefix  string

	mu     sync.Mutex
	conn   *rados.Conn
	ioctx  *rados.IOContext
	opened bool
}

func (s *CephStorage) ensureOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return
	}
	conn, err := rados.NewConnWithUser(s.factory.UserName)
	if err != nil {
		panic(fmt.Sprintf("persistence: ceph conn: %v", err))
	}
	if s.factory.ConfFile != "" {
		if err := conn.ReadConfigFile(s.factory.ConfFile); err != nil {
			panic(fmt.Sprintf("persistence: ceph conf: %v", err))
		}
	}
	if err := conn.Connect(); err != nil {
		panic(fmt.Sprintf("persistence: ceph connect: %v", err))
	}
	ioctx, err := conn.OpenIOContext(s.factory.Pool)
	if err != nil {
		panic(fmt.Sprintf("persistence: ceph pool %s: %v", s.factory.Pool, err))
	}
	s.conn, s.ioctx, s.opened = conn, ioctx, true
}

func (s *CephStorage) oid(partition, name string) string {
	if partition == "" {
		return s.prefix + "/" + name
	}
	return s.prefix + "/" + partition + "/" + name
}

func (s *CephStorage) readObject(oid string) []byte {
	s.ensureOpen()
	stat, err := s.ioctx.Stat(oid)
	if err != nil {
		return nil
	}
	buf := make([]byte, stat.Size)
	n, err := s.ioctx.Read(oid, buf, 0)
	if err != nil {
		return nil
	}
	return buf[:n]
}

func (s *CephStorage) writeObject(oid string, data []byte) {
	s.ensureOpen()
	if err := s.ioctx.WriteFull(oid, data); err != nil {
		panic(fmt.Sprintf("persistence: ceph write %s: %v", oid, err))
	}
}

func (s *CephStorage) ReadSchema(partition string) []byte {
	return s.readObject(s.oid(partition, "schema.json"))
}

func (s *CephStorage) WriteSchema(partition string, schema []byte) {
	s.writeObject(s.oid(partition, "schema.json"), schema)
}

func (s *CephStorage) ReadArtifact(partition string, name string) io.ReadCloser {
	data := s.readObject(s.oid(partition, name))
	if data == nil {
		return ErrorReader{fmt.Errorf("persistence: ceph object not found: %s", s.oid(partition, name))}
	}
	return io.NopCloser(bytes.NewReader(data))
}

type cephWriteCloser struct {
	s   *CephStorage
	oid string
	buf bytes.Buffer
}

func (w *cephWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *cephWriteCloser) Close() error {
	w.s.writeObject(w.oid, w.buf.Bytes())
	return nil
}

func (s *CephStorage) WriteArtifact(partition string, name string) io.WriteCloser {
	s.ensureOpen()
	return &cephWriteCloser{s: s, oid: s.oid(partition, name)}
}

func (s *CephStorage) RemoveArtifact(partition string, name string) {
	s.ensureOpen()
	_ = s.ioctx.Delete(s.oid(partition, name))
}

func (s *CephStorage) RemovePartition(partition string) {
	s.ensureOpen()
	iter, err := s.ioctx.Iter()
	if err != nil {
		return
	}
	defer iter.Close()
	pfx := s.oid(partition, "")
	for iter.Next() {
		if strings.HasPrefix(iter.Value(), pfx) {
			_ = s.ioctx.Delete(iter.Value())
		}
	}
}
