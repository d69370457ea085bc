package costmanager

import (
	"testing"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/stretchr/testify/assert"
)

func baseTime() time.Time {
	return time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
}

func TestDetermineDepth_BaseTiers(t *testing.T) {
	m := New(Limits{DailyUSD: 5, MonthlyUSD: 100, MaxFullPerDay: 20, MaxDeepPerDay: 5})

	tier, _ := m.DetermineDepth(baseTime(), 2, "005930", false, 0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthQuick, tier)

	tier, _ = m.DetermineDepth(baseTime(), 5, "000660", false, 0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthLight, tier)

	tier, _ = m.DetermineDepth(baseTime(), 7, "035720", false, 0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthStandard, tier)

	tier, _ = m.DetermineDepth(baseTime(), 9, "051910", false, 0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthFull, tier)
}

func TestDetermineDepth_PromotesForLargeHolding(t *testing.T) {
	m := New(Limits{DailyUSD: 5, MonthlyUSD: 100, MaxFullPerDay: 20, MaxDeepPerDay: 5})
	tier, _ := m.DetermineDepth(baseTime(), 5, "005930", true, 12.0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthStandard, tier)
}

func TestDetermineDepth_CriticalOverridesToDeep(t *testing.T) {
	m := New(Limits{DailyUSD: 5, MonthlyUSD: 100, MaxFullPerDay: 20, MaxDeepPerDay: 5})
	tier, _ := m.DetermineDepth(baseTime(), 1, "005930", false, 0, domain.PriorityCritical)
	assert.Equal(t, domain.DepthDeep, tier)
}

func TestCanAfford_RejectsWithinCooldown(t *testing.T) {
	m := New(Limits{DailyUSD: 5, MonthlyUSD: 100, MaxFullPerDay: 20, MaxDeepPerDay: 5})
	now := baseTime()
	m.RecordAnalysis(now, "005930", domain.DepthLight, true)

	assert.False(t, m.CanAfford(now.Add(10*time.Minute), domain.DepthLight, "005930"))
	assert.True(t, m.CanAfford(now.Add(10*time.Minute), domain.DepthQuick, "005930"))
	assert.True(t, m.CanAfford(now.Add(31*time.Minute), domain.DepthLight, "005930"))
}

func TestDetermineDepth_StepsDownWhenBudgetExhausted(t *testing.T) {
	m := New(Limits{DailyUSD: 0.20, MonthlyUSD: 100, MaxFullPerDay: 20, MaxDeepPerDay: 5})
	now := baseTime()
	m.RecordAnalysis(now, "000001", domain.DepthFull, true) // spends the entire daily budget

	tier, reason := m.DetermineDepth(now, 9, "000002", false, 0, domain.PriorityNormal)
	assert.Equal(t, domain.DepthQuick, tier)
	assert.Contains(t, reason, "stepped down")
}

func TestRecordAnalysis_TrimsHistoryOnOverflow(t *testing.T) {
	m := New(Limits{DailyUSD: 1e9, MonthlyUSD: 1e9})
	now := baseTime()
	for i := 0; i < historyCap+5; i++ {
		m.RecordAnalysis(now.Add(time.Duration(i)*time.Second), "005930", domain.DepthQuick, true)
	}
	// The record that first exceeds historyCap trims the history to
	// historyTrimTo; the remaining four records are appended after it.
	assert.Len(t, m.History(), historyTrimTo+4)
}

func TestResultCache_RoundTrip(t *testing.T) {
	m := New(Limits{})
	now := baseTime()
	fp := Fingerprint("005930", "Samsung reports record quarter")

	_, ok := m.CachedResult(now, fp)
	assert.False(t, ok)

	m.StoreResult(now, fp, "cached-analysis")
	value, ok := m.CachedResult(now.Add(30*time.Minute), fp)
	assert.True(t, ok)
	assert.Equal(t, "cached-analysis", value)

	_, ok = m.CachedResult(now.Add(2*time.Hour), fp)
	assert.False(t, ok)
}
