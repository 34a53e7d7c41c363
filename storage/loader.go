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
	"fmt"
	"strconv"
	"sync"
)

// writerFrame is one decoded batch queued for the single writer-stage
// goroutine of spec §4.8/§5 ("Writer stage (single thread per pass)").
type writerFrame struct {
	routeKey string
	df       *DataFrame
}

// runSingleWriter drains every partition's deserializer output through one
// merge channel into one goroutine, so a vertex/edge label's property table
// and CSR only ever see one mutator at a time even though multiple
// partitions may route batches for the same label/triple concurrently.
func runSingleWriter(transport *ShuffleTransport, partitionCount int, handle func(routeKey string, df *DataFrame)) func() {
	merged := make(chan writerFrame, 256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for f := range merged {
			handle(f.routeKey, f.df)
		}
	}()
	for p := 0; p < partitionCount; p++ {
		transport.Deserializer(p, func(routeKey string, df *DataFrame) {
			merged <- writerFrame{routeKey: routeKey, df: df}
		})
	}
	return func() {
		close(merged)
		wg.Wait()
	}
}

// VertexSource describes one CSV input shard for a vertex label (spec §4.8
// reader stage): which columns feed the global id and which feed declared
// properties, in schema order.
type VertexSource struct {
	Label      string
	Path       string
	Delimiter  string
	HasHeader  bool
	Encoding   string // "" or "utf8" for no transcoding, else an x/text charmap name
	IDColumn   int
	PropColumns []int // parallel to the label's schema.Properties
}

// EdgeSource describes one CSV input shard for an edge triple.
type EdgeSource struct {
	SrcLabel, EdgeLabel, DstLabel string
	Path                          string
	Delimiter                     string
	HasHeader                     bool
	Encoding                      string
	SrcColumn, DstColumn          int
	PropColumns                   []int
}

// parseValue converts one CSV cell to a PropValue of kind, per spec §6.1
// packed encodings for Date/DateTime. A cell that fails to parse becomes
// Null rather than aborting the row (spec §7 "malformed CSV row: ... value
// fails to parse for its declared kind").
// ParseValue exports parseValue for other entry points (the CLI's
// converter command) that need the same cell-to-PropValue conversion
// outside a CSV reader.
func ParseValue(kind PropKind, cell string) PropValue {
	return parseValue(kind, cell)
}

func parseValue(kind PropKind, cell string) PropValue {
	if cell == "" {
		return NewNull()
	}
	switch kind {
	case KindInt32, KindDate:
		v, err := strconv.ParseInt(cell, 10, 32)
		if err != nil {
			return NewNull()
		}
		if kind == KindDate {
			return NewDate(int32(v))
		}
		return NewInt32(int32(v))
	case KindUInt32:
		v, err := strconv.ParseUint(cell, 10, 32)
		if err != nil {
			return NewNull()
		}
		return NewUInt32(uint32(v))
	case KindInt64, KindDateTime:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return NewNull()
		}
		if kind == KindDateTime {
			return NewDateTime(v)
		}
		return NewInt64(v)
	case KindUInt64, KindID:
		v, err := strconv.ParseUint(cell, 10, 64)
		if err != nil {
			return NewNull()
		}
		if kind == KindID {
			return NewID(v)
		}
		return NewUInt64(v)
	case KindDouble:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return NewNull()
		}
		return NewDouble(v)
	case KindString:
		return NewString(cell)
	case KindLCString:
		return NewLCString(cell)
	default:
		return NewNull()
	}
}

// LoaderConfig is the shared context of one loader run: how many partitions
// exist, which one this process is building, and the row-flush threshold
// (spec §4.8 "bucket flush threshold is a constant").
type LoaderConfig struct {
	PartitionCount  int
	LocalPartition  int
	Schema          *GraphSchema
	PartitionPrefix string
	FlushBatchSize  int
}

func (c LoaderConfig) flushSize() int {
	if c.FlushBatchSize > 0 {
		return c.FlushBatchSize
	}
	return Settings.FlushBatchSize
}

// RunLoader executes one full pass over every configured vertex and edge
// source for the local partition, producing the on-disk artifacts Open
// later mmaps (spec §4.8 "for each edge triple, the loader writes
// (offsets, degree, neighbors)..."). Failure anywhere aborts the whole
// partition build (spec §4.9 "failure within a loader run is fatal"): every
// reader/writer helper in this package panics rather than returning a
// partially-built partition.
//
// Vertex pass and edge pass run as two fully separate shuffle rounds
// because corner-vertex synthesis (edge pass) must see every native vertex
// already installed by the vertex pass (spec §4.8).
func RunLoader(cfg LoaderConfig, vertexSources []VertexSource, edgeSources []EdgeSource) *GraphDB {
	db := Create(cfg.PartitionPrefix, fmt.Sprint(cfg.LocalPartition), cfg.Schema)

	vw := newVertexWriter(db)
	vt := NewShuffleTransport(cfg.PartitionCount)
	closeVW := runSingleWriter(vt, cfg.PartitionCount, vw.ingest)
	var vrg sync.WaitGroup
	for _, src := range vertexSources {
		vrg.Add(1)
		go func(src VertexSource) {
			defer vrg.Done()
			runVertexReader(cfg, vt, src)
		}(src)
	}
	vrg.Wait()
	vt.End()
	closeVW()

	ew := newEdgeWriter(db, cfg.Schema)
	et := NewShuffleTransport(cfg.PartitionCount)
	closeEW := runSingleWriter(et, cfg.PartitionCount, ew.ingest)
	var erg sync.WaitGroup
	for _, src := range edgeSources {
		erg.Add(1)
		go func(src EdgeSource) {
			defer erg.Done()
			runEdgeReader(cfg, et, src)
		}(src)
	}
	erg.Wait()
	et.End()
	closeEW()
	ew.finalize()

	return db
}
