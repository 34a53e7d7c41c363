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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRunLoaderBuildsVerticesAndEdges(t *testing.T) {
	shardDir := t.TempDir()
	partitionDir := t.TempDir()

	personCSV := writeCSV(t, shardDir, "person.csv", "id,name\n1,alice\n2,bob\n3,carol\n")
	knowsCSV := writeCSV(t, shardDir, "knows.csv", "src,dst\n1,2\n2,3\n")

	schema := &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{Name: "Person", Properties: []PropertyHeader{{Name: "name", Kind: KindString}}},
		},
		EdgeTriples: []EdgeTripleSchema{
			{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person", LoadStrategy: BothOutIn},
		},
	}

	cfg := LoaderConfig{
		PartitionCount:  1,
		LocalPartition:  0,
		Schema:          schema,
		PartitionPrefix: partitionDir,
		FlushBatchSize:  2,
	}

	vertexSources := []VertexSource{
		{Label: "Person", Path: personCSV, HasHeader: true, IDColumn: 0, PropColumns: []int{1}},
	}
	edgeSources := []EdgeSource{
		{SrcLabel: "Person", EdgeLabel: "knows", DstLabel: "Person", Path: knowsCSV, HasHeader: true, SrcColumn: 0, DstColumn: 1},
	}

	db := RunLoader(cfg, vertexSources, edgeSources)
	defer db.Close()

	require.Equal(t, 3, db.GetVerticesNum("Person"))

	aliceInternal, ok := db.GetInternalID("Person", 1)
	require.True(t, ok, "global id 1 (alice) should resolve to an internal id")

	neighbors := db.GetSubGraph("Person", "knows", "Person", "oe", aliceInternal)
	require.Len(t, neighbors, 1, "alice should have exactly one outgoing knows-edge")

	bobGlobal, _ := db.GetGlobalID("Person", neighbors[0])
	require.EqualValues(t, 2, bobGlobal, "alice's knows-neighbor should be bob")
}

func TestRunLoaderStaticLabelReplicatesAcrossPartitions(t *testing.T) {
	shardDir := t.TempDir()
	countryCSV := writeCSV(t, shardDir, "country.csv", "id,code\n1,DE\n2,FR\n")

	schema := &GraphSchema{
		VertexLabels: []VertexLabelSchema{
			{Name: "Country", Static: true, Properties: []PropertyHeader{{Name: "code", Kind: KindString}}},
		},
	}

	for partition := 0; partition < 2; partition++ {
		partitionDir := t.TempDir()
		cfg := LoaderConfig{
			PartitionCount:  2,
			LocalPartition:  partition,
			Schema:          schema,
			PartitionPrefix: partitionDir,
		}
		db := RunLoader(cfg, []VertexSource{
			{Label: "Country", Path: countryCSV, HasHeader: true, IDColumn: 0, PropColumns: []int{1}},
		}, nil)
		if n := db.GetVerticesNum("Country"); n != 2 {
			t.Errorf("partition %d: GetVerticesNum(Country) = %d; want 2 (static label replicated everywhere)", partition, n)
		}
		db.Close()
	}
}
