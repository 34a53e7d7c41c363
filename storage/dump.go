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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// formatValue renders a PropValue the way run_traverse needs it on a CSV
// line: a Null cell is empty, everything else is its plain decimal/string
// form (no quoting here, csv.Writer handles that).
func formatValue(v PropValue) string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt32, KindDate:
		return fmt.Sprint(v.I)
	case KindUInt32:
		return fmt.Sprint(uint32(v.U))
	case KindInt64, KindDateTime:
		return fmt.Sprint(v.I)
	case KindUInt64, KindID:
		return fmt.Sprint(v.U)
	case KindDouble:
		return fmt.Sprint(v.F)
	case KindString, KindLCString:
		return v.S
	default:
		return ""
	}
}

// DumpCSV walks every vertex label and materialized edge-triple side of db
// and writes one CSV file per label/side under outDir (or, if outDir is
// empty, to stdout with a "### " section header per label/side), the
// human-readable validation dump of spec.md's run_traverse.
func DumpCSV(db *GraphDB, schema *GraphSchema, outDir string) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}
	for _, v := range schema.VertexLabels {
		if err := dumpVertexLabel(db, v, outDir); err != nil {
			return fmt.Errorf("dump vertices %s: %w", v.Name, err)
		}
	}
	for _, e := range schema.EdgeTriples {
		if err := dumpEdgeTriple(db, e, outDir); err != nil {
			return fmt.Errorf("dump edges %s: %w", e.Key(), err)
		}
	}
	return nil
}

func openCSVTarget(outDir, name string) (*csv.Writer, func() error, error) {
	if outDir == "" {
		fmt.Printf("### %s\n", name)
		w := csv.NewWriter(os.Stdout)
		return w, func() error { w.Flush(); return w.Error() }, nil
	}
	f, err := os.Create(filepath.Join(outDir, name+".csv"))
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)
	return w, func() error { w.Flush(); err := w.Error(); f.Close(); return err }, nil
}

func dumpVertexLabel(db *GraphDB, label VertexLabelSchema, outDir string) error {
	w, closeFn, err := openCSVTarget(outDir, "vertex_"+label.Name)
	if err != nil {
		return err
	}
	defer closeFn()

	headers := make([]string, 1+len(label.Properties))
	headers[0] = "id"
	for i, p := range label.Properties {
		headers[i+1] = p.Name
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	tbl := db.vertexTbl[label.Name]
	n := db.GetVerticesNum(label.Name)
	row := make([]string, len(headers))
	for i := 0; i < n; i++ {
		global, ok := db.GetGlobalID(label.Name, InternalID(i))
		if !ok {
			continue
		}
		row[0] = fmt.Sprint(global)
		if tbl != nil {
			for ci, v := range tbl.GetRow(i) {
				row[ci+1] = formatValue(v)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func dumpEdgeTriple(db *GraphDB, triple EdgeTripleSchema, outDir string) error {
	w, closeFn, err := openCSVTarget(outDir, "edge_"+triple.SrcLabel+"_"+triple.EdgeLabel+"_"+triple.DstLabel)
	if err != nil {
		return err
	}
	defer closeFn()

	headers := append([]string{"src", "dst"}, propHeaderNames(triple.Properties)...)
	if err := w.Write(headers); err != nil {
		return err
	}

	side, ok := db.edgeSide(triple.SrcLabel, triple.EdgeLabel, triple.DstLabel, "oe")
	if !ok {
		return nil
	}
	propTbl := db.oeProps[triple.Key()]
	n := db.GetVerticesNum(triple.SrcLabel)
	row := make([]string, len(headers))
	edgeRow := 0
	for v := 0; v < n; v++ {
		for _, dst := range side.edges(v) {
			row[0] = fmt.Sprint(mustGlobal(db, triple.SrcLabel, InternalID(v)))
			row[1] = fmt.Sprint(mustGlobal(db, triple.DstLabel, dst))
			if propTbl != nil && edgeRow < propTbl.Len() {
				for ci, pv := range propTbl.GetRow(edgeRow) {
					row[2+ci] = formatValue(pv)
				}
			}
			if err := w.Write(row); err != nil {
				return err
			}
			edgeRow++
		}
	}
	return nil
}

func mustGlobal(db *GraphDB, label string, internal InternalID) uint64 {
	g, _ := db.GetGlobalID(label, internal)
	return g
}
