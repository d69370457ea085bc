package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/trading-council/internal/config"
	"github.com/aristath/trading-council/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:       t.TempDir(),
		Port:          8080,
		BrokerBaseURL: "http://localhost:9999",
		Trading: config.TradingSettings{
			MinConfidence:       0.6,
			MinStopLossPct:      3,
			MaxStopLossPct:      15,
			MinTakeProfitPct:    5,
			MaxTakeProfitPct:    40,
			StopLossPct:         7,
			TakeProfitPct:       15,
			CouncilThreshold:    7,
			MaxPositionPerStock: 20,
			MaxPositions:        10,
		},
	}
}

func TestWire_BuildsFullyPopulatedContainer(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	c, err := Wire(testConfig(t), log)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.SignalsDB)
	assert.NotNil(t, c.CacheDB)
	assert.NotNil(t, c.Calendar)
	assert.NotNil(t, c.CostManager)
	assert.NotNil(t, c.Broker)
	assert.NotNil(t, c.Orchestrator)
	assert.NotNil(t, c.Pipeline)
	assert.NotNil(t, c.Maintenance)
	assert.NotNil(t, c.Scheduler)
}

func TestRegisterJobs_RegistersEveryJobWithSchedule(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	cfg := testConfig(t)
	c, err := Wire(cfg, log)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.RegisterJobs(cfg, []string{"AAPL", "MSFT"}, log))

	expected := []string{
		"price_trigger_sweep", "queue_drainer", "holding_deadline_sweep",
		"daily_rebalance", "universe_refresh", "quant_scan",
		"cost_daily_reset", "database_maintenance",
	}
	for _, name := range expected {
		_, ok := c.Jobs[name]
		assert.True(t, ok, "expected job %q to be registered", name)
	}
}
