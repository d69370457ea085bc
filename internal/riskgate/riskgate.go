// Package riskgate implements the pre-trade Gate A/B/C checks and the
// DetermineAction/price-clamp policy that turns a council's consensus
// percentage into a concrete, bounded trading decision.
package riskgate

import (
	"fmt"

	"github.com/aristath/trading-council/internal/domain"
)

// Limits are the configured policy thresholds.
type Limits struct {
	MaxPositionPerStock float64
	MaxPositions        int
	MinPositionPct      float64
	MinCashReservePct   float64

	StopLossPct    float64
	MinStopLossPct float64
	MaxStopLossPct float64

	TakeProfitPct    float64
	MinTakeProfitPct float64
	MaxTakeProfitPct float64
}

// GateBlock names the gate that rejected a BUY signal.
type GateBlock struct {
	Gate   string
	Reason string
}

func (g *GateBlock) Error() string { return fmt.Sprintf("gate_block_%s: %s", g.Gate, g.Reason) }

// CheckGates evaluates Gate A/B/C for a proposed BUY of suggestedAmount
// in symbol. Returns nil if all gates pass. On any evaluation error, the
// caller must treat the result as blocked (gate name "error") — this
// function returns that GateBlock itself when heldSymbols is nil to
// signal the fail-safe path explicitly.
func CheckGates(limits Limits, symbol string, suggestedAmount float64, balance domain.Balance, heldSymbols map[string]bool) *GateBlock {
	if heldSymbols == nil {
		return &GateBlock{Gate: "error", Reason: "holdings unavailable"}
	}

	totalAssets := balance.TotalAssets()

	minPositionPct := limits.MinPositionPct
	if minPositionPct == 0 {
		minPositionPct = 1
	}
	if suggestedAmount < totalAssets*minPositionPct/100 {
		return &GateBlock{Gate: "min_position", Reason: fmt.Sprintf("suggested amount %.2f below %.1f%% of total assets", suggestedAmount, minPositionPct)}
	}

	minCashReservePct := limits.MinCashReservePct
	if minCashReservePct == 0 {
		minCashReservePct = 10
	}
	if balance.AvailableAmount-suggestedAmount < totalAssets*minCashReservePct/100 {
		return &GateBlock{Gate: "cash_reserve", Reason: fmt.Sprintf("would breach %.1f%% cash reserve requirement", minCashReservePct)}
	}

	maxPositions := limits.MaxPositions
	if maxPositions == 0 {
		maxPositions = 10
	}
	if !heldSymbols[symbol] && len(heldSymbols) >= maxPositions {
		return &GateBlock{Gate: "max_positions", Reason: fmt.Sprintf("already holding %d positions (max %d)", len(heldSymbols), maxPositions)}
	}

	return nil
}

// DataQualityGate discards a signal whose meeting recorded 2 or more
// analyst failures (timeouts or explicit errors).
func DataQualityGate(analystFailures int) *GateBlock {
	if analystFailures >= 2 {
		return &GateBlock{Gate: "data_quality", Reason: fmt.Sprintf("%d analyst failures recorded", analystFailures)}
	}
	return nil
}

// DetermineAction implements the action decision described in the risk
// policy: news-score gating only applies when trigger_source = news,
// since a quant-triggered meeting has no news_score to gate on.
func DetermineAction(finalPct float64, quantScore, fundamentalScore, newsScore int, triggerSource domain.TriggerSource) domain.Action {
	if triggerSource == domain.TriggerSourceNews && newsScore <= 3 {
		return domain.ActionSell
	}

	avg := float64(quantScore+fundamentalScore) / 2

	if avg <= 4 {
		return domain.ActionSell
	}
	if finalPct < 0 {
		return domain.ActionSell
	}

	switch triggerSource {
	case domain.TriggerSourceQuant:
		if (finalPct >= 10 && avg >= 5.5) || (finalPct >= 15 && avg >= 5) {
			return domain.ActionBuy
		}
	case domain.TriggerSourceNews:
		if (finalPct >= 10 && avg >= 6) || (float64(newsScore) >= 8 && avg >= 5) {
			return domain.ActionBuy
		}
	}

	return domain.ActionHold
}

// ClampStopLoss bounds an analyst-suggested stop-loss price (or the
// configured default, if analystStop is 0) to [min_stop_loss_pct,
// max_stop_loss_pct] below current.
func ClampStopLoss(limits Limits, current, analystStop float64) float64 {
	stop := analystStop
	if stop <= 0 {
		stop = current * (1 - limits.StopLossPct/100)
	}
	floor := current * (1 - limits.MaxStopLossPct/100)
	ceiling := current * (1 - limits.MinStopLossPct/100)
	return clamp(stop, floor, ceiling)
}

// ClampTargetPrice bounds an analyst-suggested target price (or the
// configured default, if analystTarget is 0) to [min_take_profit_pct,
// max_take_profit_pct] above current.
func ClampTargetPrice(limits Limits, current, analystTarget float64) float64 {
	target := analystTarget
	if target <= 0 {
		target = current * (1 + limits.TakeProfitPct/100)
	}
	floor := current * (1 + limits.MinTakeProfitPct/100)
	ceiling := current * (1 + limits.MaxTakeProfitPct/100)
	return clamp(target, floor, ceiling)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
