// Package costmanager picks an analysis depth tier given trigger
// intensity, holding context, and remaining LLM budget, and tracks
// spend so the council never runs more deeply than the budget allows.
package costmanager

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/aristath/trading-council/internal/domain"
)

// Limits are the configured daily/monthly/per-tier ceilings.
type Limits struct {
	DailyUSD          float64
	MonthlyUSD        float64
	MaxFullPerDay      int
	MaxDeepPerDay      int
	SameSymbolCooldown time.Duration
}

// estimatedCosts is the per-tier unit cost, carried verbatim from the
// original cost manager's ESTIMATED_COSTS table.
var estimatedCosts = map[domain.DepthTier]float64{
	domain.DepthQuick:    0.00,
	domain.DepthLight:    0.015,
	domain.DepthStandard: 0.075,
	domain.DepthFull:     0.20,
	domain.DepthDeep:     0.40,
}

const (
	resultCacheTTL  = time.Hour
	resultCacheSize = 100
	historyCap      = 1000
	historyTrimTo   = 500
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Manager is the Cost & Depth Manager. Safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	limits Limits

	dailySpentUSD   float64
	monthlySpentUSD float64
	dailyTierCount  map[domain.DepthTier]int
	dayStamp        string

	lastAnalysis map[string]time.Time
	history      []domain.CostRecord

	resultCache     map[string]cacheEntry
	resultCacheKeys []string // insertion order, for oldest-eviction
}

// New creates a Manager with the given limits.
func New(limits Limits) *Manager {
	if limits.SameSymbolCooldown == 0 {
		limits.SameSymbolCooldown = 30 * time.Minute
	}
	return &Manager{
		limits:         limits,
		dailyTierCount: make(map[domain.DepthTier]int),
		lastAnalysis:   make(map[string]time.Time),
		resultCache:    make(map[string]cacheEntry),
	}
}

// ResetDailyIfNeeded zeroes daily counters on first call each calendar
// day, called by the cost-daily-reset scheduler job.
func (m *Manager) ResetDailyIfNeeded(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked(now)
}

func (m *Manager) resetDailyLocked(now time.Time) {
	stamp := now.Format("2006-01-02")
	if m.dayStamp == stamp {
		return
	}
	m.dayStamp = stamp
	m.dailySpentUSD = 0
	m.dailyTierCount = make(map[domain.DepthTier]int)
}

var tierStepDown = map[domain.DepthTier]domain.DepthTier{
	domain.DepthDeep:     domain.DepthFull,
	domain.DepthFull:     domain.DepthStandard,
	domain.DepthStandard: domain.DepthLight,
	domain.DepthLight:    domain.DepthQuick,
	domain.DepthQuick:    domain.DepthQuick,
}

// DetermineDepth picks an analysis depth tier for one analysis request.
func (m *Manager) DetermineDepth(now time.Time, newsScore int, symbol string, isHolding bool, portfolioWeight float64, priority domain.SignalPriority) (domain.DepthTier, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked(now)

	tier, reason := baseTier(newsScore)

	if isHolding && portfolioWeight >= 10.0 {
		tier = promote(tier)
		reason = reason + "; promoted for large holding weight"
	}

	if priority == domain.PriorityCritical {
		tier = domain.DepthDeep
		reason = "priority override: CRITICAL"
	}

	for !m.canAffordLocked(now, tier, symbol) {
		next, ok := tierStepDown[tier]
		if !ok || next == tier {
			tier = domain.DepthQuick
			reason = reason + "; stepped down to QUICK (budget exhausted)"
			break
		}
		tier = next
		reason = reason + "; stepped down (budget constrained)"
	}

	return tier, reason
}

func baseTier(newsScore int) (domain.DepthTier, string) {
	switch {
	case newsScore <= 3:
		return domain.DepthQuick, "low news score"
	case newsScore <= 6:
		return domain.DepthLight, "moderate news score"
	case newsScore == 7:
		return domain.DepthStandard, "elevated news score"
	default:
		return domain.DepthFull, "high news score"
	}
}

func promote(tier domain.DepthTier) domain.DepthTier {
	switch tier {
	case domain.DepthQuick:
		return domain.DepthLight
	case domain.DepthLight:
		return domain.DepthStandard
	case domain.DepthStandard, domain.DepthFull:
		return domain.DepthFull
	default:
		return tier
	}
}

// CanAfford reports whether running the given tier right now would stay
// within budget and counters; it is idempotent until RecordAnalysis is
// called.
func (m *Manager) CanAfford(now time.Time, tier domain.DepthTier, symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked(now)
	return m.canAffordLocked(now, tier, symbol)
}

func (m *Manager) canAffordLocked(now time.Time, tier domain.DepthTier, symbol string) bool {
	if tier != domain.DepthQuick {
		if last, ok := m.lastAnalysis[symbol]; ok && now.Sub(last) < m.limits.SameSymbolCooldown {
			return false
		}
	}

	cost := estimatedCosts[tier]
	if m.limits.DailyUSD > 0 && m.dailySpentUSD+cost > m.limits.DailyUSD {
		return false
	}
	if m.limits.MonthlyUSD > 0 && m.monthlySpentUSD+cost > m.limits.MonthlyUSD {
		return false
	}

	switch tier {
	case domain.DepthFull:
		if m.limits.MaxFullPerDay > 0 && m.dailyTierCount[domain.DepthFull] >= m.limits.MaxFullPerDay {
			return false
		}
	case domain.DepthDeep:
		if m.limits.MaxDeepPerDay > 0 && m.dailyTierCount[domain.DepthDeep] >= m.limits.MaxDeepPerDay {
			return false
		}
	}

	return true
}

// RecordAnalysis appends a CostRecord, stamps the symbol's last-analysis
// time, and increments the daily tier counter. Must be called exactly
// once per completed analysis.
func (m *Manager) RecordAnalysis(now time.Time, symbol string, tier domain.DepthTier, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDailyLocked(now)

	cost := estimatedCosts[tier]
	m.dailySpentUSD += cost
	m.monthlySpentUSD += cost
	m.dailyTierCount[tier]++
	m.lastAnalysis[symbol] = now

	m.history = append(m.history, domain.CostRecord{
		Timestamp:        now,
		Depth:            tier,
		Symbol:           symbol,
		EstimatedCostUSD: cost,
		Success:          success,
	})
	if len(m.history) > historyCap {
		m.history = append([]domain.CostRecord(nil), m.history[len(m.history)-historyTrimTo:]...)
	}
}

// History returns a copy of the rolling cost-record history.
func (m *Manager) History() []domain.CostRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CostRecord, len(m.history))
	copy(out, m.history)
	return out
}

// Fingerprint returns the result-cache key for a symbol/title pair:
// hash(symbol || first-50-chars-of-title).
func Fingerprint(symbol, title string) string {
	if len(title) > 50 {
		title = title[:50]
	}
	sum := md5.Sum([]byte(symbol + "|" + title))
	return hex.EncodeToString(sum[:])
}

// CachedResult returns a prior analysis output for the given fingerprint
// if it was recorded within the last hour.
func (m *Manager) CachedResult(now time.Time, fingerprint string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.resultCache[fingerprint]
	if !ok || now.After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// StoreResult caches an analysis output under fingerprint for up to one
// hour, evicting the oldest entry once the cache holds 100 entries.
func (m *Manager) StoreResult(now time.Time, fingerprint, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.resultCache[fingerprint]; !exists {
		if len(m.resultCacheKeys) >= resultCacheSize {
			oldest := m.resultCacheKeys[0]
			m.resultCacheKeys = m.resultCacheKeys[1:]
			delete(m.resultCache, oldest)
		}
		m.resultCacheKeys = append(m.resultCacheKeys, fingerprint)
	}

	m.resultCache[fingerprint] = cacheEntry{value: value, expiresAt: now.Add(resultCacheTTL)}
}
