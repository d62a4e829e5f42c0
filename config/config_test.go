package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VENUES", "raydium=wss://feeds.example.com/raydium,pumpswap=wss://feeds.example.com/pumpswap")
	t.Setenv("METRICS_BASE_URL", "https://metrics.example.com")
	t.Setenv("EXEC_AGENT_URL", "https://agent.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Venues, 2)
	assert.Equal(t, "raydium", cfg.Venues[0].Name)
	assert.Equal(t, "wss://feeds.example.com/raydium", cfg.Venues[0].URL)
	assert.Equal(t, "new_listings", cfg.Venues[0].Topic)
	assert.Equal(t, "pumpswap", cfg.Venues[1].Name)

	assert.Empty(t, cfg.CreationMarkers, "markers default to the parser's built-ins")
	assert.Equal(t, 10000, cfg.SeenLimit)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 10*time.Second, cfg.PongTimeout)
	assert.Equal(t, 3, cfg.MaxMissedProbes)
	assert.Equal(t, 5*time.Second, cfg.ReconnectBase)
	assert.Equal(t, 60*time.Second, cfg.ReconnectCap)

	assert.Equal(t, 10000.0, cfg.MinLiquidityUSD)
	assert.Equal(t, 50, cfg.MinHolderCount)
	assert.Equal(t, 0.30, cfg.MaxWashTradingRatio)
	assert.False(t, cfg.RequireSocial)
	assert.False(t, cfg.LiquidityFailOpen)

	assert.Equal(t, 60.0, cfg.MinCompositeScore)
	assert.Equal(t, "patient", cfg.ExitStrategy)
	assert.Equal(t, 3*time.Second, cfg.MonitorInterval)
	assert.Equal(t, 4, cfg.DiscoveryWorkers)
	assert.Equal(t, 2, cfg.MaxConcurrentFetches)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VENUE_TOPIC", "pool_created")
	t.Setenv("CREATION_MARKERS", "new_pool, listing_live")
	t.Setenv("MIN_LIQUIDITY_USD", "25000")
	t.Setenv("MAX_WASH_TRADING_RATIO", "0.15")
	t.Setenv("EXIT_STRATEGY", "aggressive")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "5")
	t.Setenv("LIQUIDITY_FAIL_OPEN", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "pool_created", cfg.Venues[0].Topic)
	assert.Equal(t, []string{"new_pool", "listing_live"}, cfg.CreationMarkers)
	assert.Equal(t, 25000.0, cfg.MinLiquidityUSD)
	assert.Equal(t, 0.15, cfg.MaxWashTradingRatio)
	assert.Equal(t, "aggressive", cfg.ExitStrategy)
	assert.Equal(t, 5*time.Second, cfg.MonitorInterval)
	assert.True(t, cfg.LiquidityFailOpen)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("VENUES", "")
	t.Setenv("METRICS_BASE_URL", "")
	t.Setenv("EXEC_AGENT_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VENUES must be set")
	assert.Contains(t, err.Error(), "METRICS_BASE_URL must be set")
	assert.Contains(t, err.Error(), "EXEC_AGENT_URL must be set")
}

func TestLoadConfigInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VENUES", "raydium=wss://x,broken-entry")
	t.Setenv("MAX_TOP_HOLDER_PERCENT", "1.5")
	t.Setenv("MIN_LIQUIDITY_USD", "not-a-number")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid VENUES entry "broken-entry"`)
	assert.Contains(t, err.Error(), "MAX_TOP_HOLDER_PERCENT must be between 0.0 and 1.0")
	assert.Contains(t, err.Error(), "invalid MIN_LIQUIDITY_USD")
}

func TestLoadConfigTelegramPairing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID must be set")

	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
}
