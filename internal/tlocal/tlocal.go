// SPDX-License-Identifier: Apache-2.0

// Package tlocal provides the thread-local task binding the realtime
// worker needs: each worker goroutine locks itself to its OS thread for
// its entire lifetime and registers a pointer keyed by its own goroutine
// id, the standard substitute for POSIX thread-local storage in Go.
package tlocal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// registry maps a goroutine id to the value bound to it. The zero value is
// ready to use.
type registry struct {
	mu sync.RWMutex
	m  map[int64]any
}

var global registry

// Bind registers value for the calling goroutine. It must be called from
// the worker goroutine itself, before any other goroutine can legally
// observe the binding (the init barrier in this codebase enforces that
// ordering).
func Bind(value any) {
	id := goroutineID()

	global.mu.Lock()
	defer global.mu.Unlock()
	if global.m == nil {
		global.m = make(map[int64]any)
	}
	global.m[id] = value
}

// Unbind removes the calling goroutine's binding. Called once the worker
// is about to exit.
func Unbind() {
	id := goroutineID()

	global.mu.Lock()
	defer global.mu.Unlock()
	delete(global.m, id)
}

// Current returns the value bound to the calling goroutine, or nil if none
// is bound.
func Current() any {
	id := goroutineID()

	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.m[id]
}

// goroutineID recovers the calling goroutine's id by parsing its own stack
// trace header ("goroutine NNN [running]:"). This is the standard,
// reflection-free idiom for per-goroutine identity in Go; it is used only
// as a map key here, never exposed to callers.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	buf = bytes.TrimPrefix(buf, []byte(prefix))

	idx := bytes.IndexByte(buf, ' ')
	if idx < 0 {
		return -1
	}

	id, err := strconv.ParseInt(string(buf[:idx]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
