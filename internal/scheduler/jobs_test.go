package scheduler

import (
	"testing"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluatePriceTrigger_SignalStopLossWinsFirst(t *testing.T) {
	h := domain.Holding{CurrentPrice: 90, ProfitRate: -20}
	sig := &domain.Signal{StopLossPrice: 95, TargetPrice: 200}
	reason := EvaluatePriceTrigger(h, sig, 7, 15, domain.IndicatorSnapshot{}, nil)
	assert.Equal(t, "stop_loss (signal)", reason)
}

func TestEvaluatePriceTrigger_SignalTargetPrice(t *testing.T) {
	h := domain.Holding{CurrentPrice: 210, ProfitRate: 5}
	sig := &domain.Signal{StopLossPrice: 50, TargetPrice: 200}
	reason := EvaluatePriceTrigger(h, sig, 7, 15, domain.IndicatorSnapshot{}, nil)
	assert.Equal(t, "take_profit (signal)", reason)
}

func TestEvaluatePriceTrigger_PercentFallbackStopLoss(t *testing.T) {
	h := domain.Holding{CurrentPrice: 90, ProfitRate: -8}
	reason := EvaluatePriceTrigger(h, nil, 7, 15, domain.IndicatorSnapshot{}, nil)
	assert.Equal(t, "stop_loss (pct)", reason)
}

func TestEvaluatePriceTrigger_PercentFallbackTakeProfit(t *testing.T) {
	h := domain.Holding{CurrentPrice: 120, ProfitRate: 16}
	reason := EvaluatePriceTrigger(h, nil, 7, 15, domain.IndicatorSnapshot{}, nil)
	assert.Equal(t, "take_profit (pct)", reason)
}

func TestEvaluatePriceTrigger_NoMatchReturnsEmpty(t *testing.T) {
	h := domain.Holding{CurrentPrice: 100, ProfitRate: 2}
	reason := EvaluatePriceTrigger(h, nil, 7, 15, domain.IndicatorSnapshot{}, nil)
	assert.Equal(t, "", reason)
}
