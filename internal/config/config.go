package config

import (
	"os"
	"strconv"
	"time"

	"arbiscan/internal/errs"
)

// Config holds all process configuration loaded from the environment.
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Logging LoggingConfig
	Scanner ScannerConfig
}

type ServerConfig struct {
	Port int
	Host string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// ScannerConfig is the settings map of §6, re-read from the KV store each
// tick by Reloader. Field names mirror the spec's snake_case option names.
type ScannerConfig struct {
	MinSpreadPct             float64
	AlertCooldownSeconds     int
	MinExitLiquidityUSD      float64
	MinPositionSizeUSD       float64
	MaxPositionSizeUSD       float64
	SuggestedPositionUSD     float64
	MaxSlippagePct           float64
	MaxLatencyMs             int
	MaxPositionToExitRatio   float64
	MaxBidAskSpreadPct       float64
	MaxSpreadAgeSec          int
	MaxSpreadAgeHours        int
	MinDepthVsHistoryRatio   float64
	WarningDepthRatio        float64
	MinLiquidityUSD          float64
	MinDEXLiquidityUSD       float64
	MinVolume24hDEX          float64
	MinVolume24hFutures      float64
	EnableAutoSignals        bool
	EnableManualSignals      bool
	EnableLaggingSignals     bool
	EnableFundingSignals     bool
	EnableZScoreSignals      bool
	EnableStablecoinSignals  bool
	LaggingMinExchanges      int
	LaggingMinDeviationPct   float64
	LaggingMaxOtherDeviation float64
	PriceUpdateIntervalSec   int
	TickerDiscoveryIntervalH int
	RequireShortableHighVenue bool
}

// Load builds Config from the environment, in the teacher's getEnv* idiom.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Scanner: ScannerConfig{
			MinSpreadPct:              getEnvAsFloat("MIN_SPREAD_PCT", 1.0),
			AlertCooldownSeconds:      getEnvAsInt("ALERT_COOLDOWN_SECONDS", 300),
			MinExitLiquidityUSD:       getEnvAsFloat("MIN_EXIT_LIQUIDITY_USD", 5000),
			MinPositionSizeUSD:        getEnvAsFloat("MIN_POSITION_SIZE_USD", 100),
			MaxPositionSizeUSD:        getEnvAsFloat("MAX_POSITION_SIZE_USD", 50000),
			SuggestedPositionUSD:      getEnvAsFloat("SUGGESTED_POSITION_USD", 10000),
			MaxSlippagePct:            getEnvAsFloat("MAX_SLIPPAGE_PCT", 2.0),
			MaxLatencyMs:              getEnvAsInt("MAX_LATENCY_MS", 5000),
			MaxPositionToExitRatio:    getEnvAsFloat("MAX_POSITION_TO_EXIT_RATIO", 0.5),
			MaxBidAskSpreadPct:        getEnvAsFloat("MAX_BID_ASK_SPREAD_PCT", 1.0),
			MaxSpreadAgeSec:           getEnvAsInt("MAX_SPREAD_AGE_SEC", 0),
			MaxSpreadAgeHours:         getEnvAsInt("MAX_SPREAD_AGE_HOURS", 24),
			MinDepthVsHistoryRatio:    getEnvAsFloat("MIN_DEPTH_VS_HISTORY_RATIO", 0.30),
			WarningDepthRatio:         getEnvAsFloat("WARNING_DEPTH_RATIO", 0.50),
			MinLiquidityUSD:           getEnvAsFloat("MIN_LIQUIDITY_USD", 10000),
			MinDEXLiquidityUSD:        getEnvAsFloat("MIN_DEX_LIQUIDITY_USD", 5000),
			MinVolume24hDEX:           getEnvAsFloat("MIN_VOLUME_24H_DEX", 0),
			MinVolume24hFutures:       getEnvAsFloat("MIN_VOLUME_24H_FUTURES", 0),
			EnableAutoSignals:         getEnvAsBool("ENABLE_AUTO_SIGNALS", true),
			EnableManualSignals:       getEnvAsBool("ENABLE_MANUAL_SIGNALS", true),
			EnableLaggingSignals:      getEnvAsBool("ENABLE_LAGGING_SIGNALS", true),
			EnableFundingSignals:      getEnvAsBool("ENABLE_FUNDING_SIGNALS", false),
			EnableZScoreSignals:       getEnvAsBool("ENABLE_ZSCORE_SIGNALS", false),
			EnableStablecoinSignals:   getEnvAsBool("ENABLE_STABLECOIN_SIGNALS", false),
			LaggingMinExchanges:       getEnvAsInt("LAGGING_MIN_EXCHANGES", 4),
			LaggingMinDeviationPct:    getEnvAsFloat("LAGGING_MIN_DEVIATION_PCT", 5.0),
			LaggingMaxOtherDeviation:  getEnvAsFloat("LAGGING_MAX_OTHER_DEVIATION_PCT", 2.0),
			PriceUpdateIntervalSec:    getEnvAsInt("PRICE_UPDATE_INTERVAL_SEC", 1),
			TickerDiscoveryIntervalH:  getEnvAsInt("TICKER_DISCOVERY_INTERVAL_HOURS", 24),
			RequireShortableHighVenue: getEnvAsBool("REQUIRE_SHORTABLE_HIGH_VENUE", false),
		},
	}

	if cfg.Redis.Addr == "" {
		return nil, errs.NewFatal("REDIS_ADDR is required", nil)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
