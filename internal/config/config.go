// Package config loads and validates process configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration, loaded once at startup.
type Config struct {
	DataDir  string
	LogLevel string
	Port     int
	DevMode  bool

	BrokerBaseURL    string
	BrokerAPIKey     string
	BrokerAPISecret  string

	// UniverseSymbols seeds the quant scan's symbol universe at startup;
	// UniverseRefreshJob may replace it at runtime.
	UniverseSymbols []string

	Trading TradingSettings
}

// TradingSettings holds the policy knobs §6 requires from configuration.
// It can be refreshed from the settings table at runtime without a
// process restart via UpdateFromSettings.
type TradingSettings struct {
	TradingEnabled      bool
	AutoExecute         bool
	RespectTradingHours bool
	MinConfidence       float64

	CouncilThreshold int
	SellThreshold    int

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

	SellCooldownSeconds      int
	AnalystTimeoutSeconds    int
	ProcessingLockTTLSeconds int

	CostDailyLimitUSD       float64
	CostMonthlyLimitUSD     float64
	MaxFullAnalysisPerDay   int
	MaxDeepAnalysisPerDay   int
	CostCooldownMinutes     int
}

// Load reads configuration from a local .env file (if present) falling
// back to the process environment, and validates it before returning.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("./data"); err == nil {
			dataDir = "./data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:         dataDir,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		BrokerBaseURL:   getEnv("BROKER_BASE_URL", "http://localhost:9002"),
		BrokerAPIKey:    getEnv("BROKER_API_KEY", ""),
		BrokerAPISecret: getEnv("BROKER_API_SECRET", ""),
		UniverseSymbols: getEnvAsList("UNIVERSE_SYMBOLS", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}),
		Trading: TradingSettings{
			TradingEnabled:      getEnvAsBool("TRADING_ENABLED", true),
			AutoExecute:         getEnvAsBool("AUTO_EXECUTE", true),
			RespectTradingHours: getEnvAsBool("RESPECT_TRADING_HOURS", true),
			MinConfidence:       getEnvAsFloat("MIN_CONFIDENCE", 0.6),

			CouncilThreshold: getEnvAsInt("COUNCIL_THRESHOLD", 7),
			SellThreshold:    getEnvAsInt("SELL_THRESHOLD", 3),

			MaxPositionPerStock: getEnvAsFloat("MAX_POSITION_PER_STOCK", 20),
			MaxPositions:        getEnvAsInt("MAX_POSITIONS", 10),
			MinPositionPct:      getEnvAsFloat("MIN_POSITION_PCT", 1),
			MinCashReservePct:   getEnvAsFloat("MIN_CASH_RESERVE_PCT", 10),

			StopLossPct:    getEnvAsFloat("STOP_LOSS_PCT", 7),
			MinStopLossPct: getEnvAsFloat("MIN_STOP_LOSS_PCT", 3),
			MaxStopLossPct: getEnvAsFloat("MAX_STOP_LOSS_PCT", 15),

			TakeProfitPct:    getEnvAsFloat("TAKE_PROFIT_PCT", 15),
			MinTakeProfitPct: getEnvAsFloat("MIN_TAKE_PROFIT_PCT", 5),
			MaxTakeProfitPct: getEnvAsFloat("MAX_TAKE_PROFIT_PCT", 40),

			SellCooldownSeconds:      getEnvAsInt("SELL_COOLDOWN_SECONDS", 1800),
			AnalystTimeoutSeconds:    getEnvAsInt("ANALYST_TIMEOUT_SECONDS", 60),
			ProcessingLockTTLSeconds: getEnvAsInt("PROCESSING_LOCK_TTL_SECONDS", 300),

			CostDailyLimitUSD:     getEnvAsFloat("COST_DAILY_LIMIT_USD", 5.0),
			CostMonthlyLimitUSD:   getEnvAsFloat("COST_MONTHLY_LIMIT_USD", 100.0),
			MaxFullAnalysisPerDay: getEnvAsInt("MAX_FULL_ANALYSIS_PER_DAY", 20),
			MaxDeepAnalysisPerDay: getEnvAsInt("MAX_DEEP_ANALYSIS_PER_DAY", 5),
			CostCooldownMinutes:   getEnvAsInt("COST_COOLDOWN_MINUTES", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings refreshes hot-reloadable policy knobs from a
// key/value settings store without requiring a restart. get should return
// (value, true) when the key is present.
func (c *Config) UpdateFromSettings(get func(key string) (string, bool)) {
	if v, ok := get("auto_execute"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trading.AutoExecute = b
		}
	}
	if v, ok := get("min_confidence"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Trading.MinConfidence = f
		}
	}
	if v, ok := get("max_positions"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Trading.MaxPositions = n
		}
	}
}

// Validate checks that required configuration is present and internally
// consistent. Called at startup; a failure here is a fail-fast ConfigInvalid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Trading.MinConfidence < 0 || c.Trading.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be in [0,1], got %f", c.Trading.MinConfidence)
	}
	if c.Trading.MinStopLossPct > c.Trading.MaxStopLossPct {
		return fmt.Errorf("MIN_STOP_LOSS_PCT (%f) must be <= MAX_STOP_LOSS_PCT (%f)", c.Trading.MinStopLossPct, c.Trading.MaxStopLossPct)
	}
	if c.Trading.MinTakeProfitPct > c.Trading.MaxTakeProfitPct {
		return fmt.Errorf("MIN_TAKE_PROFIT_PCT (%f) must be <= MAX_TAKE_PROFIT_PCT (%f)", c.Trading.MinTakeProfitPct, c.Trading.MaxTakeProfitPct)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
