package di

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/trading-council/internal/config"
	"github.com/aristath/trading-council/internal/scheduler"
	"github.com/aristath/trading-council/internal/universe"
)

// configuredUniverseSource returns the symbol list configured at
// startup; swapping in a live screener feed only requires a different
// scheduler.UniverseSource implementation, not a scheduler change.
type configuredUniverseSource struct {
	symbols []string
}

func (s configuredUniverseSource) Symbols(context.Context) ([]string, error) { return s.symbols, nil }

// RegisterJobs builds every periodic job named in §4.7 and registers it
// with the container's Scheduler on its default cadence.
func (c *Container) RegisterJobs(cfg *config.Config, universeSymbols []string, log zerolog.Logger) error {
	store := universe.NewStaticUniverse(universeSymbols)

	priceTrigger := &scheduler.PriceTriggerSweepJob{
		Broker: c.Broker, Orchestrator: c.Orchestrator, Pipeline: c.Pipeline,
		ConfidenceBar: cfg.Trading.MinConfidence,
		Cooldowns: c.SellCooldown, StopLossPct: cfg.Trading.StopLossPct,
		TakeProfitPct: cfg.Trading.TakeProfitPct, Log: log,
	}
	queueDrainer := &scheduler.QueueDrainerJob{Pipeline: c.Pipeline, Calendar: c.Calendar}
	holdingDeadline := &scheduler.HoldingDeadlineSweepJob{
		Broker: c.Broker, Orchestrator: c.Orchestrator, Signals: c.Signals,
		Pipeline: c.Pipeline, ConfidenceBar: cfg.Trading.MinConfidence,
	}
	dailyRebalance := &scheduler.DailyRebalanceJob{
		Broker: c.Broker, Orchestrator: c.Orchestrator,
		Pipeline: c.Pipeline, ConfidenceBar: cfg.Trading.MinConfidence,
	}
	universeRefresh := &scheduler.UniverseRefreshJob{Source: configuredUniverseSource{symbols: universeSymbols}, Store: store}
	quantScan := &scheduler.QuantScanJob{
		Broker: c.Broker, Orchestrator: c.Orchestrator, Pipeline: c.Pipeline,
		ConfidenceBar: cfg.Trading.MinConfidence,
		UniverseSource: store,
		BuyCooldowns:   c.BuyCooldown, BuyThreshold: cfg.Trading.CouncilThreshold * 10,
		MaxBuysPerScan: 3, Log: log,
	}
	costReset := &scheduler.CostDailyResetJob{Reset: c.CostManager.ResetDailyIfNeeded}

	c.Jobs = map[string]scheduler.Job{
		priceTrigger.Name():    priceTrigger,
		queueDrainer.Name():    queueDrainer,
		holdingDeadline.Name(): holdingDeadline,
		dailyRebalance.Name():  dailyRebalance,
		universeRefresh.Name(): universeRefresh,
		quantScan.Name():       quantScan,
		costReset.Name():       costReset,
		c.Maintenance.Name():   c.Maintenance,
	}

	schedules := map[string]string{
		priceTrigger.Name():    "0 */2 * * * *",
		queueDrainer.Name():    "0 * * * * *",
		holdingDeadline.Name(): "0 30 15 * * *",
		dailyRebalance.Name():  "0 45 15 * * *",
		universeRefresh.Name(): "0 0 7 * * *",
		quantScan.Name():       "0 */10 9-15 * * MON-FRI",
		costReset.Name():       "0 0 0 * * *",
		c.Maintenance.Name():   "0 0 2 * * *",
	}

	for name, job := range c.Jobs {
		if err := c.Scheduler.AddJob(schedules[name], job); err != nil {
			return err
		}
	}

	return nil
}
