// Package universe tracks the set of symbols the quant scan walks each
// cycle.
package universe

import (
	"context"
	"sync"
)

// StaticUniverse is an in-memory symbol list, refreshed by the universe
// refresh job's configured Source and read by the quant scan job.
type StaticUniverse struct {
	mu      sync.RWMutex
	symbols []string
}

// NewStaticUniverse seeds the universe with an initial symbol list.
func NewStaticUniverse(initial []string) *StaticUniverse {
	u := &StaticUniverse{}
	u.symbols = append(u.symbols, initial...)
	return u
}

// Replace implements scheduler.UniverseStore.
func (u *StaticUniverse) Replace(_ context.Context, symbols []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.symbols = append([]string(nil), symbols...)
	return nil
}

// Symbols returns the current universe.
func (u *StaticUniverse) Symbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]string(nil), u.symbols...)
}
