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

	"github.com/dc0d/onexit"
	"github.com/docker/go-units"
)

// SettingsT holds the process-wide configuration knobs, shaped after
// storage/settings.go's package-level Settings var, generalized from a
// query-engine's scripting toggles to this engine's loader/storage tuning.
type SettingsT struct {
	Trace           bool
	FlushBatchSize   int    // loader reader-stage flush bucket size, rows (spec §4.8)
	CacheBudgetBytes int64  // soft-reference memory budget for CacheManager
	ShuffleBufferCap int    // per-target-partition MPMC channel capacity (spec §5)
	DefaultEngine    string // "files", "s3", "ceph"
}

var Settings = SettingsT{
	Trace:            false,
	FlushBatchSize:   4096,
	CacheBudgetBytes: 1 << 30,
	ShuffleBufferCap: 256,
	DefaultEngine:    "files",
}

// ParseCacheBudget accepts human-readable sizes ("2GB", "512MiB") the way an
// operator would write them in a config file.
func ParseCacheBudget(s string) (int64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("settings: invalid cache budget %q: %w", s, err)
	}
	return n, nil
}

// InitSettings wires process shutdown hooks; call once after filling
// Settings from config (spec "Configuration" ambient concern).
func InitSettings() {
	onexit.Register(func() {
		logf("storage: shutting down, flushing mmaps")
	})
}
