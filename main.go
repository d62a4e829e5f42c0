package main

import (
	"context"
	"log"
	"os"

	"gemScoutBot/config"
	"gemScoutBot/internal/adapters/dexmetrics"
	"gemScoutBot/internal/adapters/execagent"
	"gemScoutBot/internal/adapters/logger"
	"gemScoutBot/internal/adapters/telegram"
	"gemScoutBot/internal/app"
	"gemScoutBot/internal/filter"
	"gemScoutBot/internal/ports"
	"gemScoutBot/internal/position"
	"gemScoutBot/internal/scoring"
	"gemScoutBot/internal/venue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// Alerts are optional: without a bot token the pipeline runs silent.
	var alerts ports.AlertPort
	if cfg.TelegramBotToken != "" {
		alerts, err = telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, appLogger)
		if err != nil {
			appLogger.Error(ctx, err, "Failed to initialise Telegram notifier")
			os.Exit(1)
		}
	}

	marketData, err := dexmetrics.New(dexmetrics.Config{
		BaseURL: cfg.MetricsBaseURL,
		Logger:  appLogger,
		Timeout: cfg.MetricsFetchTimeout,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialise metrics provider client")
		os.Exit(1)
	}

	exec, err := execagent.New(execagent.Config{
		BaseURL: cfg.ExecAgentURL,
		Logger:  appLogger,
		Timeout: cfg.ExecTimeout,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialise execution agent client")
		os.Exit(1)
	}

	chain, err := filter.NewChain(filter.Thresholds{
		MinLiquidityUSD:      cfg.MinLiquidityUSD,
		MinHolderCount:       cfg.MinHolderCount,
		MinVolume24hUSD:      cfg.MinVolume24hUSD,
		MinTransactionCount:  cfg.MinTransactionCount,
		MaxTopHolderPercent:  cfg.MaxTopHolderPercent,
		MaxWashTradingRatio:  cfg.MaxWashTradingRatio,
		MaxUniformTradeRatio: cfg.MaxUniformTradeRatio,
		MaxClusteringScore:   cfg.MaxClusteringScore,
		RequireSocial:        cfg.RequireSocial,
		LiquidityFailOpen:    cfg.LiquidityFailOpen,
		FetchTimeout:         cfg.MetricsFetchTimeout,
	}, marketData, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialise filter chain")
		os.Exit(1)
	}

	scorer := scoring.NewEngine(scoring.Config{EarlyStageThreshold: cfg.EarlyStageThreshold})

	manager, err := position.NewManager(position.ManagerConfig{
		SizeHint:        cfg.SizeHint,
		DefaultStrategy: cfg.ExitStrategy,
		ExecTimeout:     cfg.ExecTimeout,
	}, exec, alerts, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialise position manager")
		os.Exit(1)
	}

	frames := make(chan ports.RawFrame, cfg.FrameBuffer)
	parser := venue.NewParser(cfg.CreationMarkers, cfg.SeenLimit, appLogger)

	venues := make([]ports.VenueStream, 0, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		connCfg := venue.DefaultConnConfig(vc.Name, vc.URL, vc.Topic)
		connCfg.HeartbeatInterval = cfg.HeartbeatInterval
		connCfg.PongTimeout = cfg.PongTimeout
		connCfg.MaxMissedProbes = cfg.MaxMissedProbes
		connCfg.ReconnectBase = cfg.ReconnectBase
		connCfg.ReconnectCap = cfg.ReconnectCap

		conn, err := venue.NewConnection(connCfg, frames, appLogger, alerts)
		if err != nil {
			appLogger.Error(ctx, err, "Failed to initialise venue connection", map[string]interface{}{"venue": vc.Name})
			os.Exit(1)
		}
		venues = append(venues, conn)
	}

	service, err := app.NewService(cfg, appLogger, venues, frames, parser, chain, scorer, manager, marketData)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialise service")
		os.Exit(1)
	}

	if err := service.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Service exited with error")
		os.Exit(1)
	}
}
