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
import "unsafe"
import "github.com/pierrec/lz4/v4"

// dump format: one magic byte, then the payload.
const dumpMagicRaw = byte(0)
const dumpMagicLZ4 = byte(1)

// DumpVec writes a plain vector to path so it can later be re-hydrated with
// LoadSharedVector. When the caller passes cold=true (the cold argument of
// the Dump methods above it), the payload is framed through an lz4.Writer
// first (pierrec/lz4/v4).
func DumpVec[T any](v *SharedVector[T], path string, cold bool) {
	f, err := os.Create(path)
	if err != nil {
		panic(fmt.Sprintf("dumpvec: create %s: %v", path, err))
	}
	defer f.Close()

	s := v.AsSlice()
	var raw []byte
	if len(s) > 0 {
		raw = unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*elemSize[T]())
	}

	if cold {
		f.Write([]byte{dumpMagicLZ4})
		zw := lz4.NewWriter(f)
		zw.Write(raw)
		zw.Close()
	} else {
		f.Write([]byte{dumpMagicRaw})
		f.Write(raw)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// decompressingReader peeks the dump-format magic byte and, if present,
// wraps the remainder in an lz4 reader. srcPath is only used for panic
// messages.
func decompressingReader(srcPath string, f *os.File) io.Reader {
	var magic [1]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		if err == io.EOF {
			return f // empty file
		}
		panic(fmt.Sprintf("sharedvec: read magic %s: %v", srcPath, err))
	}
	switch magic[0] {
	case dumpMagicLZ4:
		return lz4.NewReader(f)
	default:
		return f
	}
}
