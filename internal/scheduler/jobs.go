package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/trading-council/internal/broker"
	"github.com/aristath/trading-council/internal/clock"
	"github.com/aristath/trading-council/internal/council"
	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/internal/execution"
	"github.com/aristath/trading-council/internal/indicators"
	"github.com/aristath/trading-council/internal/reliability"
	"github.com/rs/zerolog"
)

// sellCooldown blocks a symbol from re-triggering a sell meeting via the
// price sweep for this long after it last fired one.
const sellCooldown = 30 * time.Minute

// maxConcurrentAnalyses bounds how many symbols are evaluated in
// parallel within a single job run, respecting broker rate limits.
const maxConcurrentAnalyses = 5

// EvaluatePriceTrigger runs the four ordered sell-side checks (§4.8) for
// one holding against its active signal (if any) and returns the first
// matching reason, or "" if none match.
func EvaluatePriceTrigger(h domain.Holding, activeSignal *domain.Signal, stopLossPct, takeProfitPct float64, snapshot domain.IndicatorSnapshot, triggers []domain.TriggerResult) string {
	if activeSignal != nil && activeSignal.StopLossPrice > 0 && h.CurrentPrice <= activeSignal.StopLossPrice {
		return "stop_loss (signal)"
	}
	if activeSignal != nil && activeSignal.TargetPrice > 0 && h.CurrentPrice >= activeSignal.TargetPrice {
		return "take_profit (signal)"
	}
	if h.ProfitRate <= -stopLossPct {
		return "stop_loss (pct)"
	}
	if h.ProfitRate >= takeProfitPct {
		return "take_profit (pct)"
	}
	if snapshot.Bars > 0 {
		composite := indicators.CompositeScore(triggers)
		technicalSubscore := composite / 10
		if technicalSubscore <= 3 {
			return "technical"
		}
	}
	return ""
}

// PriceTriggerSweepJob walks all current holdings and fires
// StartSellMeeting for any holding matching the price-trigger evaluator.
type PriceTriggerSweepJob struct {
	Broker       broker.Broker
	Orchestrator *council.Orchestrator
	Pipeline     *execution.Pipeline
	ConfidenceBar float64
	Cooldowns    *reliability.ExpiringSet
	StopLossPct  float64
	TakeProfitPct float64
	Log          zerolog.Logger
}

func (j *PriceTriggerSweepJob) Name() string { return "price_trigger_sweep" }

func (j *PriceTriggerSweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	holdings, err := j.Broker.GetHoldings(ctx)
	if err != nil {
		return fmt.Errorf("price_trigger_sweep: get holdings: %w", err)
	}

	sem := make(chan struct{}, maxConcurrentAnalyses)
	for _, h := range holdings {
		if j.Cooldowns.Contains(h.Symbol) {
			continue
		}
		sem <- struct{}{}
		h := h
		go func() {
			defer func() { <-sem }()
			reason := EvaluatePriceTrigger(h, nil, j.StopLossPct, j.TakeProfitPct, domain.IndicatorSnapshot{}, nil)
			if reason == "" {
				return
			}
			j.Cooldowns.Add(h.Symbol, sellCooldown)
			meeting := j.Orchestrator.StartSellMeeting(ctx, h.Symbol, h.Company, reason, h.Quantity, h.AvgBuyPrice, h.CurrentPrice)
			if meeting.Signal != nil {
				if err := j.Pipeline.Submit(ctx, meeting.Signal, j.ConfidenceBar); err != nil {
					j.Log.Error().Err(err).Str("symbol", h.Symbol).Msg("failed to submit sell signal")
				}
			}
		}()
	}
	for i := 0; i < cap(sem); i++ {
		sem <- struct{}{}
	}
	return nil
}

// QueueDrainerJob submits QUEUED/APPROVED signals when the market is
// open, and is a no-op otherwise.
type QueueDrainerJob struct {
	Pipeline *execution.Pipeline
	Calendar *clock.Calendar
}

func (j *QueueDrainerJob) Name() string { return "queue_drainer" }

func (j *QueueDrainerJob) Run() error {
	if !j.Calendar.CanExecute(time.Now()) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err := j.Pipeline.DrainQueue(ctx)
	return err
}

// HoldingDeadlineSweepJob escalates any active BUY signal whose holding
// deadline has passed without reaching its target price to a sell
// meeting with reason "deadline expired".
type HoldingDeadlineSweepJob struct {
	Broker       broker.Broker
	Orchestrator *council.Orchestrator
	Signals      execution.SignalStore
	Pipeline     *execution.Pipeline
	ConfidenceBar float64
}

func (j *HoldingDeadlineSweepJob) Name() string { return "holding_deadline_sweep" }

func (j *HoldingDeadlineSweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	executed, err := j.Signals.List(ctx, domain.SignalStatusExecuted, 500)
	if err != nil {
		return fmt.Errorf("holding_deadline_sweep: list executed signals: %w", err)
	}

	now := time.Now()
	for _, sig := range executed {
		if sig.HoldingDeadline == nil || sig.HoldingDeadline.After(now) {
			continue
		}
		if sig.TargetPrice > 0 {
			quote, err := j.Broker.GetStockPrice(ctx, sig.Symbol)
			if err == nil && quote.Price >= sig.TargetPrice {
				continue
			}
		}
		meeting := j.Orchestrator.StartSellMeeting(ctx, sig.Symbol, sig.Company, "deadline expired", sig.SuggestedQuantity, 0, sig.TargetPrice)
		if meeting.Signal != nil {
			_ = j.Pipeline.Submit(ctx, meeting.Signal, j.ConfidenceBar)
		}
	}
	return nil
}

// DailyRebalanceJob reviews every holding's target/stop once per day and
// escalates to a sell meeting when the review recommends it.
type DailyRebalanceJob struct {
	Broker       broker.Broker
	Orchestrator *council.Orchestrator
	Pipeline     *execution.Pipeline
	ConfidenceBar float64
}

func (j *DailyRebalanceJob) Name() string { return "daily_rebalance" }

func (j *DailyRebalanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	holdings, err := j.Broker.GetHoldings(ctx)
	if err != nil {
		return fmt.Errorf("daily_rebalance: get holdings: %w", err)
	}

	for _, h := range holdings {
		review := j.Orchestrator.StartRebalanceReview(ctx, h.Symbol, h.Company, h.Quantity, h.AvgBuyPrice, h.CurrentPrice, 0, 0)
		if review.RecommendSell {
			meeting := j.Orchestrator.StartSellMeeting(ctx, h.Symbol, h.Company, "rebalance recommends exit", h.Quantity, h.AvgBuyPrice, h.CurrentPrice)
			if meeting.Signal != nil {
				_ = j.Pipeline.Submit(ctx, meeting.Signal, j.ConfidenceBar)
			}
		}
	}
	return nil
}

// UniverseRefreshJob refreshes the scanned-universe symbol list once per
// day. UniverseStore is intentionally minimal: any component that can
// persist a symbol list satisfies it.
type UniverseStore interface {
	Replace(ctx context.Context, symbols []string) error
}

type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

type UniverseRefreshJob struct {
	Source UniverseSource
	Store  UniverseStore
}

func (j *UniverseRefreshJob) Name() string { return "universe_refresh" }

func (j *UniverseRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	symbols, err := j.Source.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("universe_refresh: %w", err)
	}
	return j.Store.Replace(ctx, symbols)
}

// QuantScanJob walks the universe, scores each symbol, and cross-checks
// results against holdings (fire sell meetings) and not-held symbols
// above a BUY threshold (fire BUY meetings), each bounded by cooldown
// and a per-scan cap.
type QuantScanJob struct {
	Broker        broker.Broker
	Orchestrator  *council.Orchestrator
	Pipeline      *execution.Pipeline
	ConfidenceBar float64
	UniverseSource interface {
		Symbols() []string
	}
	BuyCooldowns  *reliability.ExpiringSet
	BuyThreshold  int
	MaxBuysPerScan int
	Log           zerolog.Logger
}

func (j *QuantScanJob) Name() string { return "quant_scan" }

func (j *QuantScanJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	held := make(map[string]bool)
	holdings, err := j.Broker.GetHoldings(ctx)
	if err != nil {
		return fmt.Errorf("quant_scan: get holdings: %w", err)
	}
	for _, h := range holdings {
		held[h.Symbol] = true
	}

	buysFired := 0
	sem := make(chan struct{}, maxConcurrentAnalyses)
	for _, symbol := range j.UniverseSource.Symbols() {
		if buysFired >= j.MaxBuysPerScan {
			break
		}
		sem <- struct{}{}
		symbol := symbol
		func() {
			defer func() { <-sem }()

			bars, err := j.Broker.GetDailyPrices(ctx, symbol, nil)
			if err != nil {
				j.Log.Warn().Err(err).Str("symbol", symbol).Msg("quant_scan: price fetch failed")
				return
			}
			snapshot, ok := indicators.Compute(symbol, bars)
			if !ok {
				return
			}
			triggers := indicators.EvaluateTriggers(snapshot)
			composite := indicators.CompositeScore(triggers)
			action := indicators.ActionFromScore(composite)

			if held[symbol] && (action == domain.ScanActionSell || action == domain.ScanActionStrongSell) {
				if j.BuyCooldowns.Contains("sell:" + symbol) {
					return
				}
				j.BuyCooldowns.Add("sell:"+symbol, sellCooldown)
				quote, err := j.Broker.GetStockPrice(ctx, symbol)
				if err != nil {
					return
				}
				meeting := j.Orchestrator.StartSellMeeting(ctx, symbol, symbol, "quant scan deterioration", 0, 0, quote.Price)
				if meeting.Signal != nil {
					_ = j.Pipeline.Submit(ctx, meeting.Signal, j.ConfidenceBar)
				}
				return
			}

			if !held[symbol] && composite >= j.BuyThreshold && (action == domain.ScanActionBuy || action == domain.ScanActionStrongBuy) {
				if j.BuyCooldowns.Contains("buy:" + symbol) {
					return
				}
				j.BuyCooldowns.Add("buy:"+symbol, time.Hour)
				quote, err := j.Broker.GetStockPrice(ctx, symbol)
				if err != nil {
					return
				}
				meeting := j.Orchestrator.StartMeeting(ctx, symbol, symbol, "quant scan", composite/10, 0, quote.Price, domain.TriggerSourceQuant, snapshot, triggers)
				if meeting.Signal != nil {
					_ = j.Pipeline.Submit(ctx, meeting.Signal, j.ConfidenceBar)
					buysFired++
				}
			}
		}()
	}
	for i := 0; i < cap(sem); i++ {
		sem <- struct{}{}
	}
	return nil
}

// CostDailyResetJob zeroes the Cost & Depth Manager's daily counters.
type CostDailyResetJob struct {
	Reset func(now time.Time)
}

func (j *CostDailyResetJob) Name() string { return "cost_daily_reset" }

func (j *CostDailyResetJob) Run() error {
	j.Reset(time.Now())
	return nil
}
