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

func buildSampleSchema() *GraphSchema {
	return &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{ID: 0, Name: "Person", Properties: []PropertyHeader{{Name: "name", Kind: KindString}}},
			{ID: 1, Name: "Country", Static: true, Properties: []PropertyHeader{{Name: "code", Kind: KindString}}},
		},
		EdgeTriples: []EdgeTripleSchema{
			{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person", LoadStrategy: BothOutIn},
			{SrcLabel: "Person", EdgeLabel: "livesIn", DstLabel: "Country", SingleOE: true, LoadStrategy: OnlyOut},
		},
	}
}

func TestSchemaEncodeDecodeRoundTrip(t *testing.T) {
	s := buildSampleSchema()
	decoded, err := DecodeSchema(s.Encode())
	if err != nil {
		t.Fatalf("DecodeSchema: %v", err)
	}
	if len(decoded.VertexLabels) != 2 || len(decoded.EdgeTriples) != 2 {
		t.Fatalf("decoded schema shape mismatch: %+v", decoded)
	}
	if decoded.VertexLabels[1].Name != "Country" || !decoded.VertexLabels[1].Static {
		t.Errorf("Country label lost its Static flag across round-trip")
	}
	if decoded.EdgeTriples[1].SingleOE != true {
		t.Errorf("livesIn edge lost its SingleOE flag across round-trip")
	}
}

func TestSchemaDecodeInvalidJSON(t *testing.T) {
	if _, err := DecodeSchema([]byte("not json")); err == nil {
		t.Error("DecodeSchema of garbage should return an error")
	}
}

func TestSchemaAddVertexPropertyWidensOnce(t *testing.T) {
	s := buildSampleSchema()
	s.AddVertexProperty("Person", PropertyHeader{Name: "age", Kind: KindInt32})
	s.AddVertexProperty("Person", PropertyHeader{Name: "age", Kind: KindInt32})

	v, _ := s.VertexLabel("Person")
	count := 0
	for _, p := range v.Properties {
		if p.Name == "age" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("AddVertexProperty should be idempotent by name, found %d copies", count)
	}
}

func TestSchemaAddEdgePropertyUnknownTriplePanics(t *testing.T) {
	s := buildSampleSchema()
	defer func() {
		if recover() == nil {
			t.Error("AddEdgeProperty on an unknown triple should panic")
		}
	}()
	s.AddEdgeProperty("Person", "unknown", "Person", PropertyHeader{Name: "x", Kind: KindInt32})
}

func TestEdgeTripleSchemaKeyIsNulByteJoined(t *testing.T) {
	e := EdgeTripleSchema{SrcLabel: "A", EdgeLabel: "e", DstLabel: "B"}
	want := "A\x00e\x00B"
	if e.Key() != want {
		t.Errorf("Key() = %q; want %q", e.Key(), want)
	}
}

func TestCacheBudgetBytesParsesHumanSize(t *testing.T) {
	s := &GraphSchema{CacheBudget: "1GiB"}
	if got := s.CacheBudgetBytes(); got != 1<<30 {
		t.Errorf("CacheBudgetBytes() = %d; want %d", got, int64(1)<<30)
	}
}
