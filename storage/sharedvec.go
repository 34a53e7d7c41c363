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

import "os"
import "io"
import "fmt"
import "sync"
import "syscall"
import "unsafe"

// SharedVector is a typed, memory-mapped, file-backed sequence of fixed-size
// T. T must be bitwise-copyable (plain structs of fixed-width fields, no
// pointers/slices/strings/interfaces). All failure paths (mmap, ftruncate)
// are fatal, matching the rest of the engine's error policy (spec §7).
type SharedVector[T any] struct {
	name   string
	file   *os.File
	region []byte // raw mmap'd bytes, len == length*sizeof(T)
	length int
	mu     sync.Mutex // guards remap (resize) against concurrent AsSlice callers racing a munmap
}

func elemSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// CreateSharedVector creates a new file-backed shared region of length*sizeof(T)
// bytes under dir/name and maps it read/write.
func CreateSharedVector[T any](dir, name string, length int) *SharedVector[T] {
	path := dir + "/" + name
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		panic(fmt.Sprintf("sharedvec: create %s: %v", path, err))
	}
	sz := int64(length * elemSize[T]())
	if err := f.Truncate(sz); err != nil {
		panic(fmt.Sprintf("sharedvec: truncate %s: %v", path, err))
	}
	v := &SharedVector[T]{name: name, file: f, length: length}
	v.remap(sz)
	return v
}

// OpenSharedVector maps an existing region; length is derived from file size.
func OpenSharedVector[T any](dir, name string) *SharedVector[T] {
	path := dir + "/" + name
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		panic(fmt.Sprintf("sharedvec: open %s: %v", path, err))
	}
	fi, err := f.Stat()
	if err != nil {
		panic(fmt.Sprintf("sharedvec: stat %s: %v", path, err))
	}
	sz := fi.Size()
	v := &SharedVector[T]{name: name, file: f, length: int(sz) / elemSize[T]()}
	if sz > 0 {
		v.remap(sz)
	}
	return v
}

// LoadSharedVector copies the contents of an on-disk loader artifact at
// srcPath into a freshly created shared region under dir/name, so the
// partition's on-disk artifacts (§6.1) can be turned into a live mmap at
// reader/writer startup.
func LoadSharedVector[T any](srcPath, dir, name string) *SharedVector[T] {
	src, err := os.Open(srcPath)
	if err != nil {
		panic(fmt.Sprintf("sharedvec: load source %s: %v", srcPath, err))
	}
	defer src.Close()
	r := decompressingReader(srcPath, src)
	fi, _ := src.Stat()
	_ = fi
	buf, err := io.ReadAll(r)
	if err != nil {
		panic(fmt.Sprintf("sharedvec: read %s: %v", srcPath, err))
	}
	length := len(buf) / elemSize[T]()
	v := CreateSharedVector[T](dir, name, length)
	copy(v.region, buf)
	return v
}

func (v *SharedVector[T]) remap(sz int64) {
	if v.region != nil {
		syscall.Munmap(v.region)
		v.region = nil
	}
	if sz == 0 {
		v.region = []byte{}
		return
	}
	region, err := syscall.Mmap(int(v.file.Fd()), 0, int(sz), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		panic(fmt.Sprintf("sharedvec: mmap %s: %v", v.name, err))
	}
	v.region = region
}

// Len returns the number of elements.
func (v *SharedVector[T]) Len() int {
	return v.length
}

// AsSlice returns a typed view over the mmap'd region. The slice is only
// valid until the next Resize call on the same SharedVector.
func (v *SharedVector[T]) AsSlice() []T {
	if v.length == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&v.region[0])), v.length)
}

// AsMutSlice is the same view; the distinction from AsSlice is purely
// documentation of caller intent (the mmap is always read/write in this
// in-process model since we do not distinguish reader/writer mappings at
// the Go type level; that discipline lives one layer up, at the process
// boundary of §5).
func (v *SharedVector[T]) AsMutSlice() []T {
	return v.AsSlice()
}

// Index reads element i without a bounds check on the hot path, for
// get_unchecked-style access.
func (v *SharedVector[T]) Index(i int) T {
	return v.AsSlice()[i]
}

func (v *SharedVector[T]) SetIndex(i int, val T) {
	v.AsSlice()[i] = val
}

// Resize keeps data: if n > capacity, the region is remapped (may move in
// the process address space, never on disk). Shrinking truncates.
func (v *SharedVector[T]) Resize(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n == v.length {
		return
	}
	sz := int64(n * elemSize[T]())
	if err := v.file.Truncate(sz); err != nil {
		panic(fmt.Sprintf("sharedvec: resize truncate %s: %v", v.name, err))
	}
	v.length = n
	v.remap(sz)
}

// ResizeWithoutKeepData unmaps, truncates, and remaps; contents are
// undefined afterwards (the file is zero-filled by ftruncate semantics,
// but callers must not rely on that).
func (v *SharedVector[T]) ResizeWithoutKeepData(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.region != nil {
		syscall.Munmap(v.region)
		v.region = nil
	}
	v.file.Truncate(0)
	sz := int64(n * elemSize[T]())
	v.file.Truncate(sz)
	v.length = n
	v.remap(sz)
}

// Close unmaps and closes the backing file. Readers/writers call this when
// a partition is closed.
func (v *SharedVector[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.region != nil {
		syscall.Munmap(v.region)
		v.region = nil
	}
	v.file.Close()
}

// Name exposes the shared-memory segment name for diagnostics.
func (v *SharedVector[T]) Name() string { return v.name }
