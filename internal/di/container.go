// Package di wires every component built elsewhere in this module into
// one running process: databases, the clock, the cost manager, the
// broker adapter, the council and its analysts, the risk gate, the
// execution pipeline, reliability primitives, the scheduler, and the
// operational HTTP server.
package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/trading-council/internal/broker"
	"github.com/aristath/trading-council/internal/broker/httpbroker"
	"github.com/aristath/trading-council/internal/clock"
	"github.com/aristath/trading-council/internal/config"
	"github.com/aristath/trading-council/internal/costmanager"
	"github.com/aristath/trading-council/internal/council"
	"github.com/aristath/trading-council/internal/council/localanalyst"
	"github.com/aristath/trading-council/internal/database"
	"github.com/aristath/trading-council/internal/events"
	"github.com/aristath/trading-council/internal/execution"
	"github.com/aristath/trading-council/internal/fundamentals"
	"github.com/aristath/trading-council/internal/reliability"
	"github.com/aristath/trading-council/internal/riskgate"
	"github.com/aristath/trading-council/internal/scheduler"
)

// Container holds every long-lived component, assembled once at startup
// by Wire and torn down once by Container.Close.
type Container struct {
	SignalsDB *database.DB
	CacheDB   *database.DB

	Calendar     *clock.Calendar
	CostManager  *costmanager.Manager
	Broker       broker.Broker
	Fundamentals *fundamentals.StaticProvider
	Analyst      council.Analyst
	Orchestrator *council.Orchestrator
	RiskLimits   riskgate.Limits
	Signals      execution.SignalStore
	Pipeline     *execution.Pipeline
	NamedLock    *reliability.NamedLock
	SellCooldown *reliability.ExpiringSet
	BuyCooldown  *reliability.ExpiringSet
	EventBus     *events.Bus
	Events       *events.Manager
	Scheduler    *scheduler.Scheduler
	Jobs         map[string]scheduler.Job
	Maintenance  *reliability.DatabaseMaintenanceJob
}

// Wire constructs a fully wired Container from cfg. On any failure it
// closes whatever it already opened before returning the error.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{}

	if err := c.initDatabases(cfg, log); err != nil {
		return nil, fmt.Errorf("di: init databases: %w", err)
	}

	holidays, err := clock.LoadHolidays(cfg.DataDir + "/holidays.yaml")
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("di: load holidays: %w", err)
	}
	c.Calendar = clock.New(holidays)

	c.CostManager = costmanager.New(costmanager.Limits{
		DailyUSD:           cfg.Trading.CostDailyLimitUSD,
		MonthlyUSD:         cfg.Trading.CostMonthlyLimitUSD,
		MaxFullPerDay:      cfg.Trading.MaxFullAnalysisPerDay,
		MaxDeepPerDay:      cfg.Trading.MaxDeepAnalysisPerDay,
		SameSymbolCooldown: time.Duration(cfg.Trading.CostCooldownMinutes) * time.Minute,
	})

	c.Broker = httpbroker.New(httpbroker.Config{
		BaseURL: cfg.BrokerBaseURL, APIKey: cfg.BrokerAPIKey, APISecret: cfg.BrokerAPISecret,
	}, log)

	c.Fundamentals = fundamentals.NewStaticProvider()
	c.Analyst = localanalyst.New()

	c.RiskLimits = riskgate.Limits{
		MaxPositionPerStock: cfg.Trading.MaxPositionPerStock,
		MaxPositions:        cfg.Trading.MaxPositions,
		MinPositionPct:      cfg.Trading.MinPositionPct,
		MinCashReservePct:   cfg.Trading.MinCashReservePct,
		StopLossPct:         cfg.Trading.StopLossPct,
		MinStopLossPct:      cfg.Trading.MinStopLossPct,
		MaxStopLossPct:      cfg.Trading.MaxStopLossPct,
		TakeProfitPct:       cfg.Trading.TakeProfitPct,
		MinTakeProfitPct:    cfg.Trading.MinTakeProfitPct,
		MaxTakeProfitPct:    cfg.Trading.MaxTakeProfitPct,
	}

	c.EventBus = events.NewBus()
	c.Events = events.NewManager(c.EventBus, log)

	c.Orchestrator = council.New(c.Analyst, c.Events, c.RiskLimits, log, council.WithCostGate(c.CostManager))

	c.Signals = execution.NewSQLiteStore(c.SignalsDB)
	c.Pipeline = execution.New(c.Signals, c.Broker, c.Events, log,
		execution.WithAutoExecute(cfg.Trading.AutoExecute),
		execution.WithLockTTL(time.Duration(cfg.Trading.ProcessingLockTTLSeconds)*time.Second),
		execution.WithGateLimits(c.RiskLimits))

	c.NamedLock = reliability.NewNamedLock()
	c.SellCooldown = reliability.NewExpiringSet()
	c.BuyCooldown = reliability.NewExpiringSet()

	healthServices := map[string]*reliability.DatabaseHealthService{
		"signals": reliability.NewDatabaseHealthService(c.SignalsDB, "signals", cfg.DataDir+"/signals.db", log),
		"cache":   reliability.NewDatabaseHealthService(c.CacheDB, "cache", cfg.DataDir+"/cache.db", log),
	}
	monitoring := reliability.NewMonitoringService(
		map[string]*database.DB{"signals": c.SignalsDB, "cache": c.CacheDB},
		healthServices, cfg.DataDir, cfg.DataDir+"/backups", log,
	)
	c.Maintenance = reliability.NewDatabaseMaintenanceJob(healthServices, monitoring, log)

	c.Scheduler = scheduler.New(log)
	c.Jobs = make(map[string]scheduler.Job)

	return c, nil
}

func (c *Container) initDatabases(cfg *config.Config, log zerolog.Logger) error {
	signalsDB, err := database.New(database.Config{
		Path: cfg.DataDir + "/signals.db", Profile: database.ProfileLedger, Name: "signals",
	})
	if err != nil {
		return fmt.Errorf("signals database: %w", err)
	}
	c.SignalsDB = signalsDB

	cacheDB, err := database.New(database.Config{
		Path: cfg.DataDir + "/cache.db", Profile: database.ProfileCache, Name: "cache",
	})
	if err != nil {
		signalsDB.Close()
		return fmt.Errorf("cache database: %w", err)
	}
	c.CacheDB = cacheDB

	for _, db := range []*database.DB{signalsDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			c.Close()
			return fmt.Errorf("migrate %s: %w", db.Name(), err)
		}
	}

	log.Info().Msg("databases initialized and migrated")
	return nil
}

// Close releases every resource the container opened. Safe to call on a
// partially constructed Container.
func (c *Container) Close() {
	if c.SignalsDB != nil {
		c.SignalsDB.Close()
	}
	if c.CacheDB != nil {
		c.CacheDB.Close()
	}
}
