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
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	units "github.com/docker/go-units"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/launix-de/graphcore/storage"
)

// convertPlan is the mapping the legacy relational dump is replayed through
// (spec.md "converter (replay a legacy on-disk partition into the new
// layout)"): one SQL query per vertex label, one per edge triple, columns
// named to match the schema's property order.
type convertPlan struct {
	Dialect string `json:"dialect"` // "mysql" or "postgres"
	DSN     string `json:"dsn"`

	Vertices []struct {
		Label string `json:"label"`
		Query string `json:"query"` // must select id first, then properties in schema order
	} `json:"vertices"`

	Edges []struct {
		SrcLabel  string `json:"src_label"`
		EdgeLabel string `json:"edge_label"`
		DstLabel  string `json:"dst_label"`
		Query     string `json:"query"` // must select src, dst, then properties
	} `json:"edges"`
}

func runConverter(args []string) error {
	fs := flag.NewFlagSet("converter", flag.ExitOnError)
	schemaPath := fs.String("schema", "schema.json", "path to schema.json")
	planPath := fs.String("plan", "plan.json", "path to the legacy-source convert plan")
	prefix := fs.String("partitions", "data", "partition directory prefix")
	partition := fs.String("partition", "0", "partition id to build")
	yes := fs.Bool("yes", false, "skip the overwrite confirmation prompt")
	fs.Parse(args)

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}
	plan, err := loadPlan(*planPath)
	if err != nil {
		return err
	}

	dir := *prefix + "/" + *partition
	if _, err := os.Stat(dir); err == nil && !*yes {
		ok, err := confirmOverwrite(dir)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	driver := "mysql"
	if plan.Dialect == "postgres" {
		driver = "postgres"
	}
	src, err := sql.Open(driver, plan.DSN)
	if err != nil {
		return fmt.Errorf("open legacy source: %w", err)
	}
	defer src.Close()
	if err := src.Ping(); err != nil {
		return fmt.Errorf("ping legacy source: %w", err)
	}

	db := storage.Create(*prefix, *partition, schema)
	defer db.Close()

	for _, v := range plan.Vertices {
		n, err := convertVertices(db, schema, src, v.Label, v.Query)
		if err != nil {
			return fmt.Errorf("convert vertices %s: %w", v.Label, err)
		}
		fmt.Printf("%s: %d rows\n", v.Label, n)
	}
	for _, e := range plan.Edges {
		n, err := convertEdges(db, src, e.SrcLabel, e.EdgeLabel, e.DstLabel, e.Query)
		if err != nil {
			return fmt.Errorf("convert edges %s/%s/%s: %w", e.SrcLabel, e.EdgeLabel, e.DstLabel, err)
		}
		fmt.Printf("%s-%s->%s: %d rows\n", e.SrcLabel, e.EdgeLabel, e.DstLabel, n)
	}

	db.Dump(true)
	fmt.Printf("partition %s written under %s\n", *partition, dir)
	return nil
}

func loadPlan(path string) (*convertPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var p convertPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// confirmOverwrite is an interactive-terminal confirmation prompt, using
// readline rather than a bare fmt.Scanln.
func confirmOverwrite(dir string) (bool, error) {
	size := dirSize(dir)
	rl, err := readline.New(fmt.Sprintf("partition %s already has %s on disk, overwrite? [y/N] ", dir, units.HumanSize(float64(size))))
	if err != nil {
		return false, err
	}
	defer rl.Close()
	line, err := rl.Readline()
	if err != nil {
		return false, nil
	}
	return line == "y" || line == "Y" || line == "yes", nil
}

func dirSize(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

func convertVertices(db *storage.GraphDB, schema *storage.GraphSchema, src *sql.DB, label, query string) (int, error) {
	vl, ok := schema.VertexLabel(label)
	if !ok {
		return 0, fmt.Errorf("unknown vertex label %q", label)
	}
	rows, err := src.Query(query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		scanArgs := make([]any, 1+len(vl.Properties))
		var id uint64
		scanArgs[0] = &id
		cells := make([]sql.NullString, len(vl.Properties))
		for i := range cells {
			scanArgs[i+1] = &cells[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return n, err
		}
		props := make([]storage.PropValue, len(vl.Properties))
		for i, p := range vl.Properties {
			if cells[i].Valid {
				props[i] = cellToProp(p.Kind, cells[i].String)
			} else {
				props[i] = storage.NewNull()
			}
		}
		db.InsertVertex(label, id, props)
		n++
	}
	return n, rows.Err()
}

func convertEdges(db *storage.GraphDB, src *sql.DB, srcLabel, edgeLabel, dstLabel, query string) (int, error) {
	triple, ok := db.Schema().EdgeTriple(srcLabel, edgeLabel, dstLabel)
	if !ok {
		return 0, fmt.Errorf("unknown edge triple (%s,%s,%s)", srcLabel, edgeLabel, dstLabel)
	}
	rows, err := src.Query(query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var s, d uint64
		scanArgs := make([]any, 2+len(triple.Properties))
		scanArgs[0], scanArgs[1] = &s, &d
		cells := make([]sql.NullString, len(triple.Properties))
		for i := range cells {
			scanArgs[i+2] = &cells[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return n, err
		}
		si, ok := db.GetInternalID(srcLabel, s)
		if !ok {
			continue
		}
		di, ok := db.GetInternalID(dstLabel, d)
		if !ok {
			continue
		}
		props := make([]storage.PropValue, len(triple.Properties))
		for i, p := range triple.Properties {
			if cells[i].Valid {
				props[i] = cellToProp(p.Kind, cells[i].String)
			} else {
				props[i] = storage.NewNull()
			}
		}
		db.InsertEdge(srcLabel, edgeLabel, dstLabel, si, di, props)
		n++
	}
	return n, rows.Err()
}

func cellToProp(kind storage.PropKind, cell string) storage.PropValue {
	return storage.ParseValue(kind, cell)
}
