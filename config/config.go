package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gemScoutBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// VenueConfig identifies one upstream venue endpoint.
type VenueConfig struct {
	Name  string
	URL   string
	Topic string
}

// Config holds all application configuration.
type Config struct {
	// Venues
	Venues            []VenueConfig
	CreationMarkers   []string
	SeenLimit         int
	HeartbeatInterval time.Duration
	PongTimeout       time.Duration
	MaxMissedProbes   int
	ReconnectBase     time.Duration
	ReconnectCap      time.Duration
	FrameBuffer       int

	// Filter thresholds
	MinLiquidityUSD      float64
	MinHolderCount       int
	MinVolume24hUSD      float64
	MinTransactionCount  int
	MaxTopHolderPercent  float64
	MaxWashTradingRatio  float64
	MaxUniformTradeRatio float64
	MaxClusteringScore   float64
	RequireSocial        bool
	LiquidityFailOpen    bool
	MetricsFetchTimeout  time.Duration

	// Scoring
	MinCompositeScore   float64
	EarlyStageThreshold float64

	// Positions
	SizeHint     float64
	ExitStrategy string
	ExecTimeout  time.Duration

	// Monitor loop / discovery pipeline
	MonitorInterval      time.Duration
	DiscoveryWorkers     int
	MaxConcurrentFetches int

	// External collaborators
	MetricsBaseURL string
	ExecAgentURL   string

	// Alerts (optional; alerts are disabled when the token is empty)
	TelegramBotToken string
	TelegramChatID   int64

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Venues: comma-separated name=url pairs.
	venuesRaw := getEnv("VENUES", "")
	if venuesRaw == "" {
		errs = append(errs, "VENUES must be set (comma-separated name=wss://... pairs)")
	} else {
		topic := getEnv("VENUE_TOPIC", "new_listings")
		for _, pair := range strings.Split(venuesRaw, ",") {
			name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || name == "" || url == "" {
				errs = append(errs, fmt.Sprintf("invalid VENUES entry %q", pair))
				continue
			}
			cfg.Venues = append(cfg.Venues, VenueConfig{Name: name, URL: url, Topic: topic})
		}
	}

	markersRaw := getEnv("CREATION_MARKERS", "")
	if markersRaw != "" {
		for _, m := range strings.Split(markersRaw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.CreationMarkers = append(cfg.CreationMarkers, m)
			}
		}
	}

	cfg.SeenLimit = getEnvAsInt("SEEN_LIMIT", 10000)
	if cfg.SeenLimit <= 0 {
		errs = append(errs, "SEEN_LIMIT must be positive")
	}

	cfg.HeartbeatInterval = secondsEnv("HEARTBEAT_INTERVAL_SECONDS", 30)
	cfg.PongTimeout = secondsEnv("PONG_TIMEOUT_SECONDS", 10)
	cfg.MaxMissedProbes = getEnvAsInt("MAX_MISSED_PROBES", 3)
	cfg.ReconnectBase = secondsEnv("RECONNECT_BASE_SECONDS", 5)
	cfg.ReconnectCap = secondsEnv("RECONNECT_CAP_SECONDS", 60)
	cfg.FrameBuffer = getEnvAsInt("FRAME_BUFFER", 1024)
	if cfg.HeartbeatInterval <= 0 || cfg.PongTimeout <= 0 {
		errs = append(errs, "heartbeat interval and pong timeout must be positive")
	}
	if cfg.MaxMissedProbes <= 0 {
		errs = append(errs, "MAX_MISSED_PROBES must be positive")
	}
	if cfg.ReconnectBase <= 0 || cfg.ReconnectCap < cfg.ReconnectBase {
		errs = append(errs, "RECONNECT_CAP_SECONDS must be >= RECONNECT_BASE_SECONDS > 0")
	}
	if cfg.FrameBuffer <= 0 {
		errs = append(errs, "FRAME_BUFFER must be positive")
	}

	// Filter thresholds
	cfg.MinLiquidityUSD, err = getEnvAsFloatRequired("MIN_LIQUIDITY_USD", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_LIQUIDITY_USD: %v", err))
	}
	cfg.MinHolderCount = getEnvAsInt("MIN_HOLDER_COUNT", 50)
	cfg.MinVolume24hUSD, err = getEnvAsFloatRequired("MIN_VOLUME_24H_USD", 5000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_VOLUME_24H_USD: %v", err))
	}
	cfg.MinTransactionCount = getEnvAsInt("MIN_TX_COUNT", 100)
	cfg.MaxTopHolderPercent = getEnvAsFloat("MAX_TOP_HOLDER_PERCENT", 0.30)
	cfg.MaxWashTradingRatio = getEnvAsFloat("MAX_WASH_TRADING_RATIO", 0.30)
	cfg.MaxUniformTradeRatio = getEnvAsFloat("MAX_UNIFORM_TRADE_RATIO", 0.60)
	cfg.MaxClusteringScore = getEnvAsFloat("MAX_CLUSTERING_SCORE", 0.50)
	cfg.RequireSocial = getEnvAsBool("REQUIRE_SOCIAL", false)
	cfg.LiquidityFailOpen = getEnvAsBool("LIQUIDITY_FAIL_OPEN", false)
	cfg.MetricsFetchTimeout = secondsEnv("METRICS_FETCH_TIMEOUT_SECONDS", 3)
	for _, ratio := range []struct {
		name  string
		value float64
	}{
		{"MAX_TOP_HOLDER_PERCENT", cfg.MaxTopHolderPercent},
		{"MAX_WASH_TRADING_RATIO", cfg.MaxWashTradingRatio},
		{"MAX_UNIFORM_TRADE_RATIO", cfg.MaxUniformTradeRatio},
		{"MAX_CLUSTERING_SCORE", cfg.MaxClusteringScore},
	} {
		if ratio.value < 0 || ratio.value > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0.0 and 1.0", ratio.name))
		}
	}

	// Scoring
	cfg.MinCompositeScore = getEnvAsFloat("MIN_COMPOSITE_SCORE", 60)
	if cfg.MinCompositeScore < 0 || cfg.MinCompositeScore > 100 {
		errs = append(errs, "MIN_COMPOSITE_SCORE must be between 0 and 100")
	}
	cfg.EarlyStageThreshold = getEnvAsFloat("EARLY_STAGE_THRESHOLD", 100)

	// Positions
	cfg.SizeHint, err = getEnvAsFloatRequired("SIZE_HINT", 0.5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SIZE_HINT: %v", err))
	} else if cfg.SizeHint <= 0 {
		errs = append(errs, "SIZE_HINT must be positive")
	}
	cfg.ExitStrategy = getEnv("EXIT_STRATEGY", "patient")
	cfg.ExecTimeout = secondsEnv("EXEC_TIMEOUT_SECONDS", 5)

	// Monitor loop
	cfg.MonitorInterval = secondsEnv("MONITOR_INTERVAL_SECONDS", 3)
	if cfg.MonitorInterval <= 0 {
		errs = append(errs, "MONITOR_INTERVAL_SECONDS must be positive")
	}
	cfg.DiscoveryWorkers = getEnvAsInt("DISCOVERY_WORKERS", 4)
	if cfg.DiscoveryWorkers <= 0 {
		errs = append(errs, "DISCOVERY_WORKERS must be positive")
	}
	cfg.MaxConcurrentFetches = getEnvAsInt("MAX_CONCURRENT_FETCHES", 2)
	if cfg.MaxConcurrentFetches <= 0 {
		errs = append(errs, "MAX_CONCURRENT_FETCHES must be positive")
	}

	// External collaborators
	cfg.MetricsBaseURL = getEnv("METRICS_BASE_URL", "")
	if cfg.MetricsBaseURL == "" {
		errs = append(errs, "METRICS_BASE_URL must be set")
	}
	cfg.ExecAgentURL = getEnv("EXEC_AGENT_URL", "")
	if cfg.ExecAgentURL == "" {
		errs = append(errs, "EXEC_AGENT_URL must be set")
	}

	// Alerts
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	chatIDStr := getEnv("TELEGRAM_CHAT_ID", "")
	if chatIDStr != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid TELEGRAM_CHAT_ID: %v", err))
		}
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		errs = append(errs, "TELEGRAM_CHAT_ID must be set when TELEGRAM_BOT_TOKEN is set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
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

func secondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
