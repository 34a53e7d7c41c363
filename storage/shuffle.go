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
	"sync"
)

// shuffleFrame is one addressed batch in flight: the target partition plus
// the DataFrame-encoded bytes of a reader bucket (spec §4.9 "readers send
// (target_partition, bytes)").
type shuffleFrame struct {
	routeKey string // vertex label or edge triple key the batch belongs to
	target   int
	data     []byte
}

// ShuffleTransport is the typed MPMC channel set of spec §4.9: every reader
// goroutine sends (target_partition, bytes) pairs, one inbound queue per
// target partition delivers them in order per (reader,target) pair, and
// shuffle_end() drains every queue before returning. Shaped after the plain
// buffered-channel worker pools of storage/partition.go and storage/csv.go,
// generalized from row-channels to addressed byte frames.
type ShuffleTransport struct {
	mu      sync.Mutex
	inbound map[int]chan shuffleFrame
	wg      sync.WaitGroup
	closed  bool
}

func NewShuffleTransport(partitionCount int) *ShuffleTransport {
	t := &ShuffleTransport{inbound: make(map[int]chan shuffleFrame, partitionCount)}
	capacity := Settings.ShuffleBufferCap
	if capacity <= 0 {
		capacity = 64
	}
	for p := 0; p < partitionCount; p++ {
		t.inbound[p] = make(chan shuffleFrame, capacity)
	}
	return t
}

// Send enqueues a batch for target. Delivery is at-least-once within a run
// (spec §4.9): a failed send after the transport is finished is fatal,
// matching the loader's "failure mid-run reloads the whole partition"
// policy (spec §4.9, §7).
func (t *ShuffleTransport) Send(target int, routeKey string, data []byte) {
	t.mu.Lock()
	ch, ok := t.inbound[target]
	closed := t.closed
	t.mu.Unlock()
	if !ok || closed {
		panic(fmt.Sprintf("shuffle: send to target %d after shuffle_end", target))
	}
	ch <- shuffleFrame{routeKey: routeKey, target: target, data: data}
}

// Deserializer starts one blocking consumer loop per partition's inbound
// queue, decoding each frame back into a DataFrame and handing it to handle.
// Runs until End() closes the queues (spec §4.9 "delivers remote batches to
// a deserializer thread on the target partition").
func (t *ShuffleTransport) Deserializer(partition int, handle func(routeKey string, df *DataFrame)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for frame := range t.inbound[partition] {
			handle(frame.routeKey, Decode(frame.data))
		}
	}()
}

// End closes every inbound queue and blocks until every deserializer has
// drained, implementing shuffle_end() (spec §4.9).
func (t *ShuffleTransport) End() {
	t.mu.Lock()
	t.closed = true
	for _, ch := range t.inbound {
		close(ch)
	}
	t.mu.Unlock()
	t.wg.Wait()
}
