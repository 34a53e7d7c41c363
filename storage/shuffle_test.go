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
	"sync"
	"testing"
)

func TestShuffleTransportDeliversToTargetPartition(t *testing.T) {
	tr := NewShuffleTransport(2)
	df := NewDataFrame([]string{"id"}, []PropKind{KindID})
	df.AppendRow([]PropValue{NewID(7)})

	var mu sync.Mutex
	received := map[int][]string{}
	for p := 0; p < 2; p++ {
		p := p
		tr.Deserializer(p, func(routeKey string, got *DataFrame) {
			mu.Lock()
			received[p] = append(received[p], routeKey)
			mu.Unlock()
			if got.NumRows() != 1 {
				t.Errorf("partition %d: NumRows() = %d; want 1", p, got.NumRows())
			}
		})
	}

	tr.Send(1, "Person", df.Encode())
	tr.End()

	if len(received[0]) != 0 {
		t.Errorf("partition 0 should receive nothing, got %v", received[0])
	}
	if len(received[1]) != 1 || received[1][0] != "Person" {
		t.Errorf("partition 1 should receive one Person batch, got %v", received[1])
	}
}

func TestShuffleTransportSendAfterEndPanics(t *testing.T) {
	tr := NewShuffleTransport(1)
	tr.Deserializer(0, func(string, *DataFrame) {})
	tr.End()

	defer func() {
		if recover() == nil {
			t.Error("Send after End should panic")
		}
	}()
	tr.Send(0, "x", nil)
}
