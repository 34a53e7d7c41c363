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

func buildSampleFrame() *DataFrame {
	df := NewDataFrame([]string{"id", "name", "score"}, []PropKind{KindID, KindString, KindDouble})
	df.AppendRow([]PropValue{NewID(1), NewString("alice"), NewDouble(9.5)})
	df.AppendRow([]PropValue{NewID(2), NewString("bob"), NewDouble(0)})
	return df
}

func TestDataFrameAppendRowAndColumnValues(t *testing.T) {
	df := buildSampleFrame()
	if df.NumRows() != 2 {
		t.Fatalf("NumRows() = %d; want 2", df.NumRows())
	}
	names := df.ColumnValues(1)
	if names[0].S != "alice" || names[1].S != "bob" {
		t.Errorf("column 1 = %v; want [alice bob]", names)
	}
	scores := df.ColumnValues(2)
	if scores[0].F != 9.5 {
		t.Errorf("scores[0].F = %v; want 9.5", scores[0].F)
	}
	if scores[1].F != 0 {
		t.Errorf("scores[1].F = %v; want 0", scores[1].F)
	}
}

func TestDataFrameEncodeDecodeRoundTrip(t *testing.T) {
	df := buildSampleFrame()
	decoded := Decode(df.Encode())

	if decoded.NumRows() != df.NumRows() {
		t.Fatalf("decoded.NumRows() = %d; want %d", decoded.NumRows(), df.NumRows())
	}
	if len(decoded.Headers) != len(df.Headers) {
		t.Fatalf("decoded header count = %d; want %d", len(decoded.Headers), len(df.Headers))
	}
	for i, h := range df.Headers {
		if decoded.Headers[i] != h {
			t.Errorf("decoded.Headers[%d] = %q; want %q", i, decoded.Headers[i], h)
		}
	}
	for row := 0; row < df.NumRows(); row++ {
		for col := range df.Cols {
			want := df.Cols[col].Get(row)
			got := decoded.Cols[col].Get(row)
			if want.Kind == KindDouble && got.F != want.F {
				t.Errorf("row %d col %d: got %v, want %v", row, col, got.F, want.F)
			}
			if want.Kind == KindString && got.S != want.S {
				t.Errorf("row %d col %d: got %q, want %q", row, col, got.S, want.S)
			}
			if want.Kind == KindID && got.U != want.U {
				t.Errorf("row %d col %d: got %v, want %v", row, col, got.U, want.U)
			}
		}
	}
}
