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
	"encoding/binary"
	"fmt"
)

// DataColumn is a plain heap-backed typed column, the DataFrame's unit of
// storage; unlike Column, nothing here is memory-mapped (spec §4.6).
type DataColumn struct {
	Kind   PropKind
	Int32s []int32
	UInt32s []uint32
	Int64s []int64
	UInt64s []uint64
	Doubles []float64
	Strings []string
}

func (c *DataColumn) Len() int {
	switch c.Kind {
	case KindInt32, KindDate:
		return len(c.Int32s)
	case KindUInt32:
		return len(c.UInt32s)
	case KindInt64, KindDateTime:
		return len(c.Int64s)
	case KindUInt64, KindID:
		return len(c.UInt64s)
	case KindDouble:
		return len(c.Doubles)
	case KindString, KindLCString:
		return len(c.Strings)
	default:
		return 0
	}
}

func (c *DataColumn) Get(row int) PropValue {
	switch c.Kind {
	case KindInt32:
		return NewInt32(c.Int32s[row])
	case KindDate:
		return NewDate(c.Int32s[row])
	case KindUInt32:
		return NewUInt32(c.UInt32s[row])
	case KindInt64:
		return NewInt64(c.Int64s[row])
	case KindDateTime:
		return NewDateTime(c.Int64s[row])
	case KindUInt64:
		return NewUInt64(c.UInt64s[row])
	case KindID:
		return NewID(c.UInt64s[row])
	case KindDouble:
		return NewDouble(c.Doubles[row])
	case KindString:
		return NewString(c.Strings[row])
	case KindLCString:
		return NewLCString(c.Strings[row])
	default:
		return NewNull()
	}
}

// DataFrame is a vector of named typed heap columns (spec §4.6): the
// in-flight shape of a shuffle batch between reader and writer, the input
// payload for a row-batch Table insert, and the carrier for write-operation
// property payloads. Shaped after partition.go's record-batch shape used to
// move rows between shard threads, generalized from scm.Scmer cells to the
// closed PropKind/Column type set.
type DataFrame struct {
	Headers []string
	Cols    []*DataColumn
}

func NewDataFrame(headers []string, kinds []PropKind) *DataFrame {
	df := &DataFrame{Headers: append([]string(nil), headers...)}
	df.Cols = make([]*DataColumn, len(kinds))
	for i, k := range kinds {
		df.Cols[i] = &DataColumn{Kind: k}
	}
	return df
}

func (df *DataFrame) NumRows() int {
	if len(df.Cols) == 0 {
		return 0
	}
	return df.Cols[0].Len()
}

// AppendRow pushes one value per column, in header order.
func (df *DataFrame) AppendRow(values []PropValue) {
	for i, c := range df.Cols {
		v := values[i]
		switch c.Kind {
		case KindInt32:
			c.Int32s = append(c.Int32s, int32(v.I))
		case KindDate:
			c.Int32s = append(c.Int32s, int32(v.I))
		case KindUInt32:
			c.UInt32s = append(c.UInt32s, uint32(v.U))
		case KindInt64:
			c.Int64s = append(c.Int64s, v.I)
		case KindDateTime:
			c.Int64s = append(c.Int64s, v.I)
		case KindUInt64:
			c.UInt64s = append(c.UInt64s, v.U)
		case KindID:
			c.UInt64s = append(c.UInt64s, v.U)
		case KindDouble:
			c.Doubles = append(c.Doubles, v.F)
		case KindString, KindLCString:
			c.Strings = append(c.Strings, v.S)
		}
	}
}

// ColumnValues returns a flat []PropValue for column ci across all rows, the
// shape Table.InsertBatch/Column.InsertBatch need.
func (df *DataFrame) ColumnValues(ci int) []PropValue {
	c := df.Cols[ci]
	n := c.Len()
	out := make([]PropValue, n)
	for i := 0; i < n; i++ {
		out[i] = c.Get(i)
	}
	return out
}

// tag values for the binary wire format (spec §4.6 "length-prefixed typed
// columns"); unknown tags abort decode (spec §4.8 "unknown tags abort the
// loader").
const (
	tagInt32 byte = iota
	tagUInt32
	tagInt64
	tagUInt64
	tagDouble
	tagDate
	tagDateTime
	tagID
	tagString
	tagLCString
)

func kindToTag(k PropKind) byte {
	switch k {
	case KindInt32:
		return tagInt32
	case KindUInt32:
		return tagUInt32
	case KindInt64:
		return tagInt64
	case KindUInt64:
		return tagUInt64
	case KindDouble:
		return tagDouble
	case KindDate:
		return tagDate
	case KindDateTime:
		return tagDateTime
	case KindID:
		return tagID
	case KindString:
		return tagString
	case KindLCString:
		return tagLCString
	default:
		panic(fmt.Sprintf("dataframe: unsupported column kind %v for wire encoding", k))
	}
}

func tagToKind(tag byte) (PropKind, bool) {
	switch tag {
	case tagInt32:
		return KindInt32, true
	case tagUInt32:
		return KindUInt32, true
	case tagInt64:
		return KindInt64, true
	case tagUInt64:
		return KindUInt64, true
	case tagDouble:
		return KindDouble, true
	case tagDate:
		return KindDate, true
	case tagDateTime:
		return KindDateTime, true
	case tagID:
		return KindID, true
	case tagString:
		return KindString, true
	case tagLCString:
		return KindLCString, true
	default:
		return KindNull, false
	}
}

// Encode is a bijection between DataFrame values and bytes for the
// supported type set (spec §8 testable property 6), used so the shuffle
// transport can treat a batch as an opaque blob: per column, a header byte
// (tag), a u16 name length + name, a u64 row count, then the packed values
// (fixed-width columns as raw little-endian arrays, string columns as
// length-prefixed UTF-8).
func (df *DataFrame) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(df.Cols)))
	for i, c := range df.Cols {
		tag := kindToTag(c.Kind)
		buf.WriteByte(tag)
		name := df.Headers[i]
		binary.Write(&buf, binary.LittleEndian, uint16(len(name)))
		buf.WriteString(name)
		n := c.Len()
		binary.Write(&buf, binary.LittleEndian, uint64(n))
		switch c.Kind {
		case KindInt32, KindDate:
			binary.Write(&buf, binary.LittleEndian, c.Int32s)
		case KindUInt32:
			binary.Write(&buf, binary.LittleEndian, c.UInt32s)
		case KindInt64, KindDateTime:
			binary.Write(&buf, binary.LittleEndian, c.Int64s)
		case KindUInt64, KindID:
			binary.Write(&buf, binary.LittleEndian, c.UInt64s)
		case KindDouble:
			binary.Write(&buf, binary.LittleEndian, c.Doubles)
		case KindString, KindLCString:
			for _, s := range c.Strings {
				binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
				buf.WriteString(s)
			}
		}
	}
	return buf.Bytes()
}

// Decode reverses Encode. Any unrecognized tag aborts with a panic, since
// the loader's error policy treats a corrupt shuffle batch as fatal (spec §7).
func Decode(data []byte) *DataFrame {
	r := bytes.NewReader(data)
	var numCols uint32
	if err := binary.Read(r, binary.LittleEndian, &numCols); err != nil {
		panic(fmt.Sprintf("dataframe: decode header: %v", err))
	}
	df := &DataFrame{}
	for i := uint32(0); i < numCols; i++ {
		tagByte, err := r.ReadByte()
		if err != nil {
			panic(fmt.Sprintf("dataframe: decode column %d tag: %v", i, err))
		}
		kind, ok := tagToKind(tagByte)
		if !ok {
			panic(fmt.Sprintf("dataframe: unknown column tag %d at column %d", tagByte, i))
		}
		var nameLen uint16
		binary.Read(r, binary.LittleEndian, &nameLen)
		nameBuf := make([]byte, nameLen)
		r.Read(nameBuf)
		var rows uint64
		binary.Read(r, binary.LittleEndian, &rows)
		c := &DataColumn{Kind: kind}
		switch kind {
		case KindInt32, KindDate:
			c.Int32s = make([]int32, rows)
			binary.Read(r, binary.LittleEndian, c.Int32s)
		case KindUInt32:
			c.UInt32s = make([]uint32, rows)
			binary.Read(r, binary.LittleEndian, c.UInt32s)
		case KindInt64, KindDateTime:
			c.Int64s = make([]int64, rows)
			binary.Read(r, binary.LittleEndian, c.Int64s)
		case KindUInt64, KindID:
			c.UInt64s = make([]uint64, rows)
			binary.Read(r, binary.LittleEndian, c.UInt64s)
		case KindDouble:
			c.Doubles = make([]float64, rows)
			binary.Read(r, binary.LittleEndian, c.Doubles)
		case KindString, KindLCString:
			c.Strings = make([]string, rows)
			for j := uint64(0); j < rows; j++ {
				var slen uint32
				binary.Read(r, binary.LittleEndian, &slen)
				sbuf := make([]byte, slen)
				r.Read(sbuf)
				c.Strings[j] = string(sbuf)
			}
		}
		df.Headers = append(df.Headers, string(nameBuf))
		df.Cols = append(df.Cols, c)
	}
	return df
}
