// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package gls implements goroutine-local storage.
//
// Go intentionally has no public goroutine-id API, so this package derives
// a stable per-goroutine key from the goroutine header line that
// runtime.Stack always prints first ("goroutine 123 [running]:"). This is
// the same trick used by most goroutine-local-storage shims in the wild; it
// is slower than a thread-local, which is acceptable here because it is
// only consulted at graph-builder entry points, never in a hot loop.
package gls

import (
	"strconv"
	"sync"
)

var (
	mu    sync.RWMutex
	store = map[int64]any{}
)

// ID returns a stable identifier for the calling goroutine.
func ID() int64 {
	var buf [64]byte
	n := stackHeader(buf[:])
	return parseGoroutineID(buf[:n])
}

func parseGoroutineID(b []byte) int64 {
	// b looks like "goroutine 123 [running]:..."
	const prefix = "goroutine "
	if len(b) < len(prefix) {
		return 0
	}
	b = b[len(prefix):]
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	id, _ := strconv.ParseInt(string(b[:i]), 10, 64)
	return id
}

// Get returns the value stored for the calling goroutine, or nil.
func Get() any {
	id := ID()
	mu.RLock()
	v := store[id]
	mu.RUnlock()
	return v
}

// Set stores v for the calling goroutine.
func Set(v any) {
	id := ID()
	mu.Lock()
	store[id] = v
	mu.Unlock()
}

// Clear removes any value stored for the calling goroutine.
func Clear() {
	id := ID()
	mu.Lock()
	delete(store, id)
	mu.Unlock()
}
