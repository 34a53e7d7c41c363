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
	"flag"
	"fmt"
	"os"

	"github.com/launix-de/graphcore/storage"
)

func main() {
	fmt.Print(`graphcore Copyright (C) 2024-2026   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "converter":
		err = runConverter(os.Args[2:])
	case "run_traverse":
		err = runTraverse(os.Args[2:])
	case "run_query":
		err = runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "graphcore:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: graphcore <converter|run_traverse|run_query> [flags]")
}

func loadSchema(path string) (*storage.GraphSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return storage.DecodeSchema(data)
}

func runTraverse(args []string) error {
	fs := flag.NewFlagSet("run_traverse", flag.ExitOnError)
	schemaPath := fs.String("schema", "schema.json", "path to schema.json")
	prefix := fs.String("partitions", "data", "partition directory prefix")
	partition := fs.String("partition", "0", "partition id to dump")
	out := fs.String("out", "", "output CSV directory (default: stdout per label/triple)")
	fs.Parse(args)

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}
	db := storage.Open(*prefix, *partition, schema)
	defer db.Close()
	return storage.DumpCSV(db, schema, *out)
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("run_query", flag.ExitOnError)
	schemaPath := fs.String("schema", "schema.json", "path to schema.json")
	prefix := fs.String("partitions", "data", "partition directory prefix")
	partition := fs.String("partition", "0", "partition id to serve")
	fs.Parse(args)

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}
	db := storage.Open(*prefix, *partition, schema)
	defer db.Close()
	// run_query is the subprocess entry point the external query executor
	// spawns per partition (spec §1 "the RPC server... external
	// collaborator"); this binary only owns storage, so it just proves the
	// partition opens cleanly and reports its vertex counts.
	for _, v := range schema.VertexLabels {
		fmt.Printf("%s: %d native vertices\n", v.Name, db.GetVerticesNum(v.Name))
	}
	return nil
}
