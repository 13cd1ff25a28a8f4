// Package storage selects a storage engine by name. Engines register an
// opener from their init function, the way database/sql drivers do, and
// callers open graphs with a driver name and an engine-defined argument
// vector.
package storage

import (
	"context"
	"sort"
	"sync"

	"grinkit/internal/grin"
)

// Opener opens an unpartitioned graph from args.
type Opener func(ctx context.Context, args []string) (grin.Graph, error)

// PartitionedOpener opens a partitioned graph from args.
type PartitionedOpener func(ctx context.Context, args []string) (grin.PartitionedGraph, error)

var (
	mu          sync.RWMutex
	openers     = make(map[string]Opener)
	partitioned = make(map[string]PartitionedOpener)
)

// Register makes an engine available to Open. It panics if name is taken,
// like sql.Register.
func Register(name string, fn Opener) {
	mu.Lock()
	defer mu.Unlock()
	if fn == nil {
		panic("storage: Register opener is nil")
	}
	if _, dup := openers[name]; dup {
		panic("storage: Register called twice for driver " + name)
	}
	openers[name] = fn
}

// RegisterPartitioned makes an engine available to OpenPartitioned.
func RegisterPartitioned(name string, fn PartitionedOpener) {
	mu.Lock()
	defer mu.Unlock()
	if fn == nil {
		panic("storage: RegisterPartitioned opener is nil")
	}
	if _, dup := partitioned[name]; dup {
		panic("storage: RegisterPartitioned called twice for driver " + name)
	}
	partitioned[name] = fn
}

// Open opens a graph with the named engine.
func Open(ctx context.Context, driver string, args ...string) (grin.Graph, error) {
	mu.RLock()
	fn, ok := openers[driver]
	mu.RUnlock()
	if !ok {
		return nil, grin.InvalidValuef("open", "unknown driver %q (forgotten import?)", driver)
	}
	return fn(ctx, args)
}

// OpenPartitioned opens a partitioned graph with the named engine.
func OpenPartitioned(ctx context.Context, driver string, args ...string) (grin.PartitionedGraph, error) {
	mu.RLock()
	fn, ok := partitioned[driver]
	mu.RUnlock()
	if !ok {
		return nil, grin.InvalidValuef("open partitioned", "unknown partitioned driver %q", driver)
	}
	return fn(ctx, args)
}

// Drivers lists the registered engine names, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	seen := make(map[string]bool)
	for n := range openers {
		seen[n] = true
	}
	for n := range partitioned {
		seen[n] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IsPartitioned reports whether driver registered a partitioned opener.
func IsPartitioned(driver string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := partitioned[driver]
	return ok
}
