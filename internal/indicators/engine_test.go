package indicators

import (
	"testing"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticBars(n int, trend float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	price := 10000.0
	for i := 0; i < n; i++ {
		price += trend
		bars[i] = domain.PriceBar{
			Date:   time.Now().AddDate(0, 0, i-n),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 100000,
		}
	}
	return bars
}

func TestCompute_InsufficientBarsFails(t *testing.T) {
	_, ok := Compute("005930", syntheticBars(10, 1))
	assert.False(t, ok)
}

func TestCompute_ProducesSnapshot(t *testing.T) {
	snap, ok := Compute("005930", syntheticBars(300, 5))
	require.True(t, ok)
	assert.Equal(t, "005930", snap.Symbol)
	assert.Equal(t, 300, snap.Bars)
	assert.Greater(t, snap.CurrentPrice, 0.0)
}

func TestEvaluateTriggers_Returns42Results(t *testing.T) {
	snap, ok := Compute("005930", syntheticBars(300, 5))
	require.True(t, ok)
	results := EvaluateTriggers(snap)
	assert.Len(t, results, 42)
}

func TestCompositeScore_InBounds(t *testing.T) {
	snap, ok := Compute("005930", syntheticBars(300, 5))
	require.True(t, ok)
	results := EvaluateTriggers(snap)
	score := CompositeScore(results)
	assert.GreaterOrEqual(t, score, 1)
	assert.LessOrEqual(t, score, 100)
}

func TestActionFromScore_Mapping(t *testing.T) {
	assert.Equal(t, domain.ScanActionStrongBuy, ActionFromScore(85))
	assert.Equal(t, domain.ScanActionBuy, ActionFromScore(70))
	assert.Equal(t, domain.ScanActionHold, ActionFromScore(50))
	assert.Equal(t, domain.ScanActionSell, ActionFromScore(30))
	assert.Equal(t, domain.ScanActionStrongSell, ActionFromScore(10))
}
