// Package fundamentals defines the external financial-report data
// contract the fundamental analyst role consumes, and an in-memory
// implementation for environments without a live DART-style feed.
package fundamentals

import (
	"sync"

	"github.com/aristath/trading-council/internal/council"
)

// Provider supplies financial-report snapshots for a symbol.
type Provider interface {
	GetFinancials(symbol string) (council.FinancialSnapshot, bool)
}

// StaticProvider serves pre-loaded snapshots, e.g. ingested from a
// periodic DART/filing-data sync job. Symbols with no loaded snapshot
// report ok=false so the fundamental analyst falls back to no-data mode.
type StaticProvider struct {
	mu   sync.RWMutex
	data map[string]council.FinancialSnapshot
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{data: make(map[string]council.FinancialSnapshot)}
}

// Set loads or replaces the snapshot for symbol.
func (p *StaticProvider) Set(symbol string, snapshot council.FinancialSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[symbol] = snapshot
}

// GetFinancials implements Provider.
func (p *StaticProvider) GetFinancials(symbol string) (council.FinancialSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap, ok := p.data[symbol]
	return snap, ok
}
