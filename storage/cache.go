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
	"sort"
	"time"
)

// coldColumn is a single tracked cold-column mapping: a munmap'd shared
// vector is cheap to drop and reopen from its lz4-compressed dump (spec
// DOMAIN STACK, "cold local columns"), so the cache only needs to remember
// enough to call back into the SharedVector that owns it.
type coldColumn struct {
	handle      any
	size        int64
	cleanup     func(handle any)
	getLastUsed func(handle any) time.Time
	touchedAt   time.Time
}

// CacheManager evicts the least-recently-used cold columns once their
// combined mmap'd size crosses a memory budget, so a partition with more
// historical columns than fit in RAM still opens. Shaped after
// storage/cache.go's CacheManager, generalized from a concrete shard handle
// to an any-typed handle with caller-supplied cleanup/getLastUsed callbacks
// so it can track SharedVector-backed columns instead of shard blobs.
type CacheManager struct {
	memoryBudget  int64
	currentMemory int64

	items    []coldColumn
	indexMap map[any]int

	opChan chan cacheOp
}

type cacheOp struct {
	add  *coldColumn
	del  any
	done chan struct{}
}

func NewCacheManager(memoryBudget int64) *CacheManager {
	cm := &CacheManager{
		memoryBudget: memoryBudget,
		items:        make([]coldColumn, 0),
		indexMap:     make(map[any]int),
		opChan:       make(chan cacheOp, 1024),
	}
	go cm.run()
	return cm
}

// Track registers handle (typically a *SharedVector[T]) as evictable.
// cleanup is invoked with handle once the cache decides to drop it.
func (cm *CacheManager) Track(handle any, size int64, cleanup func(handle any), getLastUsed func(handle any) time.Time) {
	item := &coldColumn{handle: handle, size: size, cleanup: cleanup, getLastUsed: getLastUsed, touchedAt: time.Now()}
	done := make(chan struct{})
	cm.opChan <- cacheOp{add: item, done: done}
	<-done
}

// Forget removes handle from tracking immediately, without running cleanup
// (the caller is about to close it itself).
func (cm *CacheManager) Forget(handle any) {
	done := make(chan struct{})
	cm.opChan <- cacheOp{del: handle, done: done}
	<-done
}

func (cm *CacheManager) run() {
	for op := range cm.opChan {
		if op.add != nil {
			cm.add(op.add)
		} else if op.del != nil {
			cm.delete(op.del)
		}
		if op.done != nil {
			close(op.done)
		}
	}
}

func (cm *CacheManager) add(item *coldColumn) {
	idx := len(cm.items)
	cm.items = append(cm.items, *item)
	cm.indexMap[item.handle] = idx
	cm.currentMemory += item.size
	if cm.currentMemory > cm.memoryBudget {
		cm.evict()
	}
}

func (cm *CacheManager) delete(handle any) {
	idx, ok := cm.indexMap[handle]
	if !ok {
		return
	}
	item := cm.items[idx]
	cm.currentMemory -= item.size
	lastIdx := len(cm.items) - 1
	if idx != lastIdx {
		cm.items[idx] = cm.items[lastIdx]
		cm.indexMap[cm.items[idx].handle] = idx
	}
	cm.items = cm.items[:lastIdx]
	delete(cm.indexMap, handle)
}

// evict drops least-recently-used columns until usage is back under 75% of
// budget.
func (cm *CacheManager) evict() {
	if cm.currentMemory <= cm.memoryBudget {
		return
	}
	targetMemory := cm.memoryBudget * 75 / 100

	for i := range cm.items {
		cm.items[i].touchedAt = cm.items[i].getLastUsed(cm.items[i].handle)
	}
	sort.Slice(cm.items, func(i, j int) bool { return cm.items[i].touchedAt.Before(cm.items[j].touchedAt) })

	i := 0
	for cm.currentMemory > targetMemory && i < len(cm.items) {
		item := cm.items[i]
		item.cleanup(item.handle)
		cm.currentMemory -= item.size
		delete(cm.indexMap, item.handle)
		i++
	}
	cm.items = cm.items[i:]
	for idx, item := range cm.items {
		cm.indexMap[item.handle] = idx
	}
}
