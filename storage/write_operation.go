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

// WriteKind discriminates a WriteOperation (spec §4.10).
type WriteKind byte

const (
	OpInsertVertices WriteKind = iota
	OpInsertEdges
	OpDeleteVertices
	OpDeleteEdges
	OpSetVertices
	OpSetEdges
)

// VertexBinding addresses a vertex-shaped operation: a label plus the
// global-id and property columns carried in Payload (spec §4.10).
type VertexBinding struct {
	Label string
}

// EdgeBinding addresses an edge-shaped operation: the (src,edge,dst) triple
// plus src/dst column bindings and property bindings carried in Payload.
type EdgeBinding struct {
	SrcLabel, EdgeLabel, DstLabel string
}

// WriteOperation is one entry of a modifier batch (spec §4.10, §6.4): a
// write kind plus either a vertex or an edge binding, and its row payload
// as a DataFrame (one column per bound field, in the order the kind
// expects: global ids first, then declared properties).
type WriteOperation struct {
	Kind    WriteKind
	Vertex  *VertexBinding
	Edge    *EdgeBinding
	Payload *DataFrame
}

// Encode is the tagged binary stream of spec §6.4/§4.10 "The encoding is a
// tagged binary stream (see DataFrame above)": a kind byte, a binding
// selector, the binding strings, and the DataFrame-encoded payload.
func (op *WriteOperation) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(op.Kind))
	if op.Vertex != nil {
		buf.WriteByte(1)
		writeStr(&buf, op.Vertex.Label)
	} else {
		buf.WriteByte(0)
	}
	if op.Edge != nil {
		buf.WriteByte(1)
		writeStr(&buf, op.Edge.SrcLabel)
		writeStr(&buf, op.Edge.EdgeLabel)
		writeStr(&buf, op.Edge.DstLabel)
	} else {
		buf.WriteByte(0)
	}
	payload := op.Payload.Encode()
	binary.Write(&buf, binary.LittleEndian, uint64(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func writeStr(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readStr(r *bytes.Reader) string {
	var n uint16
	binary.Read(r, binary.LittleEndian, &n)
	b := make([]byte, n)
	r.Read(b)
	return string(b)
}

func DecodeWriteOperation(data []byte) *WriteOperation {
	r := bytes.NewReader(data)
	kindByte, _ := r.ReadByte()
	op := &WriteOperation{Kind: WriteKind(kindByte)}
	hasVertex, _ := r.ReadByte()
	if hasVertex == 1 {
		op.Vertex = &VertexBinding{Label: readStr(r)}
	}
	hasEdge, _ := r.ReadByte()
	if hasEdge == 1 {
		op.Edge = &EdgeBinding{SrcLabel: readStr(r), EdgeLabel: readStr(r), DstLabel: readStr(r)}
	}
	var plen uint64
	binary.Read(r, binary.LittleEndian, &plen)
	payload := make([]byte, plen)
	r.Read(payload)
	op.Payload = Decode(payload)
	if op.Vertex == nil && op.Edge == nil {
		panic(fmt.Sprintf("write_operation: decode: neither vertex nor edge binding set for kind %d", op.Kind))
	}
	return op
}
