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
	"encoding/json"
	"fmt"

	"github.com/docker/go-units"
)

// LoadStrategy selects which side(s) of an edge triple are materialized
// (spec §4.5.3/§6.3).
type LoadStrategy string

const (
	BothOutIn LoadStrategy = "BothOutIn"
	OnlyOut   LoadStrategy = "OnlyOut"
	OnlyIn    LoadStrategy = "OnlyIn"
)

// PropertyHeader names one column of a vertex or edge property table.
type PropertyHeader struct {
	Name string   `json:"name"`
	Kind PropKind `json:"kind"`
}

// VertexLabelSchema describes one vertex label (spec §6.3).
type VertexLabelSchema struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Properties []PropertyHeader `json:"properties"`
	// Static marks a vertex label replicated into every partition (spec
	// §4.8 routing table, "yes/yes -> duplicate to every partition").
	Static bool `json:"static"`
	// ReplicationFactor supplements spec.md (SPEC_FULL.md "Supplemented
	// features"): for a static label, how many partitions carry a full
	// copy, 0 (the default) meaning all of them. The field is encoded and
	// decoded with the schema only; the loader does not read it and sends
	// every static-label row to every partition.
	ReplicationFactor int `json:"replication_factor"`
}

// EdgeTripleSchema describes one (src_label, edge_label, dst_label) triple.
type EdgeTripleSchema struct {
	SrcLabel      string           `json:"src_label"`
	EdgeLabel     string           `json:"edge_label"`
	DstLabel      string           `json:"dst_label"`
	Properties    []PropertyHeader `json:"properties"`
	SingleOE      bool             `json:"single_oe"`
	SingleIE      bool             `json:"single_ie"`
	LoadStrategy  LoadStrategy     `json:"load_strategy"`
}

func (e EdgeTripleSchema) Key() string {
	return e.SrcLabel + "\x00" + e.EdgeLabel + "\x00" + e.DstLabel
}

// GraphSchema is the immutable-while-open description of every vertex label
// and edge triple a partition materializes (spec §4.7 graph_schema, §6.3).
type GraphSchema struct {
	VertexLabels []VertexLabelSchema `json:"vertex_labels"`
	EdgeTriples  []EdgeTripleSchema  `json:"edge_triples"`
	// CacheBudget supplements spec.md: human-readable memory budget for this
	// partition (e.g. "2GiB"), resolved to bytes by CacheBudgetBytes with
	// docker/go-units, the same parser as Settings' ParseCacheBudget.
	CacheBudget string `json:"cache_budget,omitempty"`
}

func (s *GraphSchema) VertexLabel(name string) (*VertexLabelSchema, bool) {
	for i := range s.VertexLabels {
		if s.VertexLabels[i].Name == name {
			return &s.VertexLabels[i], true
		}
	}
	return nil, false
}

func (s *GraphSchema) EdgeTriple(srcLabel, edgeLabel, dstLabel string) (*EdgeTripleSchema, bool) {
	for i := range s.EdgeTriples {
		e := &s.EdgeTriples[i]
		if e.SrcLabel == srcLabel && e.EdgeLabel == edgeLabel && e.DstLabel == dstLabel {
			return e, true
		}
	}
	return nil, false
}

// AddVertexProperty widens a vertex label's declared property header, used
// by a Set write-operation that targets a property not yet in the schema
// (spec §4.10 "Set operations can widen the schema").
func (s *GraphSchema) AddVertexProperty(label string, h PropertyHeader) {
	v, ok := s.VertexLabel(label)
	if !ok {
		panic("schema: unknown vertex label " + label)
	}
	for _, p := range v.Properties {
		if p.Name == h.Name {
			return
		}
	}
	v.Properties = append(v.Properties, h)
}

func (s *GraphSchema) AddEdgeProperty(srcLabel, edgeLabel, dstLabel string, h PropertyHeader) {
	e, ok := s.EdgeTriple(srcLabel, edgeLabel, dstLabel)
	if !ok {
		panic(fmt.Sprintf("schema: unknown edge triple (%s,%s,%s)", srcLabel, edgeLabel, dstLabel))
	}
	for _, p := range e.Properties {
		if p.Name == h.Name {
			return
		}
	}
	e.Properties = append(e.Properties, h)
}

// CacheBudgetBytes resolves CacheBudget to a byte count, falling back to
// Settings.CacheBudgetBytes when the schema doesn't override it.
func (s *GraphSchema) CacheBudgetBytes() int64 {
	if s.CacheBudget == "" {
		return Settings.CacheBudgetBytes
	}
	n, err := units.RAMInBytes(s.CacheBudget)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid cache_budget %q: %v", s.CacheBudget, err))
	}
	return n
}

func (s *GraphSchema) Encode() []byte {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("schema: marshal: %v", err))
	}
	return b
}

func DecodeSchema(data []byte) (*GraphSchema, error) {
	var s GraphSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: invalid schema.json: %w", err)
	}
	return &s, nil
}
