package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/bettips/internal/api"
	"github.com/rewired-gh/bettips/internal/assistant"
	"github.com/rewired-gh/bettips/internal/cache"
	"github.com/rewired-gh/bettips/internal/config"
	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
	"github.com/rewired-gh/bettips/internal/providers/sportmonks"
	"github.com/rewired-gh/bettips/internal/providers/theoddsapi"
	"github.com/rewired-gh/bettips/internal/refresher"
	"github.com/rewired-gh/bettips/internal/selector"
	"github.com/rewired-gh/bettips/internal/sportsapi"
	"github.com/rewired-gh/bettips/internal/storage"
	"github.com/rewired-gh/bettips/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (empty for defaults and environment only)")
	envPath    = flag.String("env", ".env", "Path to a .env file with provider credentials")
)

func main() {
	flag.Parse()

	// Load credentials and configuration
	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)
	for _, key := range cfg.MissingCredentials() {
		logger.Warn("%s is not set; that provider will report a missing credential", key)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := storage.New(cfg.Storage.DBPath, 0o755)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	responseCache := newCache(cfg)
	redisCache, _ := responseCache.(*cache.RedisCache)
	if redisCache != nil {
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.Error("Failed to close Redis cache: %v", err)
			}
		}()
	}

	// Initialize provider clients
	breaker := sportsapi.BreakerConfig{
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
	}
	smCfg := cfg.Providers.Sportmonks
	smClient, err := sportsapi.NewClient(sportsapi.ClientConfig{
		Provider:          string(models.ProviderSportmonks),
		BaseURL:           smCfg.BaseURL,
		Token:             smCfg.APIToken,
		TokenParam:        "api_token",
		Timeout:           smCfg.Timeout,
		MaxRetries:        smCfg.MaxRetries,
		RetryDelayBase:    smCfg.RetryDelayBase,
		RequestsPerSecond: smCfg.RequestsPerSecond,
		CacheTTL:          cfg.Cache.TTL,
		Breaker:           breaker,
	}, responseCache)
	if err != nil {
		logger.Fatal("Failed to initialize SportMonks client: %v", err)
	}
	oddsCfg := cfg.Providers.TheOddsAPI
	oddsClient, err := sportsapi.NewClient(sportsapi.ClientConfig{
		Provider:          string(models.ProviderTheOddsAPI),
		BaseURL:           oddsCfg.BaseURL,
		Token:             oddsCfg.APIKey,
		TokenParam:        "apiKey",
		Timeout:           oddsCfg.Timeout,
		MaxRetries:        oddsCfg.MaxRetries,
		RetryDelayBase:    oddsCfg.RetryDelayBase,
		RequestsPerSecond: oddsCfg.RequestsPerSecond,
		CacheTTL:          cfg.Cache.TTL,
		Breaker:           breaker,
	}, responseCache)
	if err != nil {
		logger.Fatal("Failed to initialize The Odds API client: %v", err)
	}

	// Provider selection and pipeline
	sel, err := selector.New(ctx, store, models.Provider(cfg.Providers.Default))
	if err != nil {
		logger.Fatal("Failed to initialize provider selector: %v", err)
	}
	svc := pipeline.New(sel, map[models.Provider]pipeline.Source{
		models.ProviderSportmonks: sportmonks.New(smClient, sportmonks.Config{Include: smCfg.Include, BookmakerID: smCfg.BookmakerID}),
		models.ProviderTheOddsAPI: theoddsapi.New(oddsClient, theoddsapi.Config{Regions: oddsCfg.Regions}),
	}, pipeline.Config{
		MinProbability: cfg.Picks.MinProbability,
		Location:       cfg.Location(),
		KickoffLayout:  cfg.Picks.KickoffLayout,
	})
	bot := assistant.New(svc, assistant.Config{
		MinProbability:  cfg.Picks.AssistantMinProbability,
		UseMockFallback: cfg.Picks.UseMockFallback,
	})

	// Initialize Telegram client
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.ListenForCommands(ctx, bot)
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	// Start refresher
	board := refresher.NewBoard(sel)
	if cfg.Refresh.Enabled {
		sport, _ := models.ParseSport(cfg.Refresh.Sport)
		var notifier refresher.Notifier
		if telegramClient != nil {
			notifier = telegramClient
		}
		ref, err := refresher.New(svc, board, notifier, refresher.Config{Interval: cfg.Refresh.Interval, Sport: sport})
		if err != nil {
			logger.Fatal("Failed to initialize refresher: %v", err)
		}
		ref.Start(ctx)
	}

	// Start HTTP server
	deps := api.Deps{
		Pipeline:  svc,
		Selector:  sel,
		Board:     board,
		Assistant: bot,
		Storage:   store,
	}
	if redisCache != nil {
		deps.Cache = redisCache
	}
	if cfg.Server.ProxyEnabled {
		proxy, err := api.NewSportmonksProxy(smCfg.BaseURL, smCfg.APIToken)
		if err != nil {
			logger.Fatal("Failed to initialize SportMonks proxy: %v", err)
		}
		deps.Proxy = proxy
	}
	server := api.NewServer(api.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		AllowOrigin:     cfg.Server.AllowOrigin,
		UseMockFallback: cfg.Picks.UseMockFallback,
	}, deps)

	go func() {
		logger.Info("HTTP server listening on %s (active provider: %s)", cfg.Server.Addr, sel.Active())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			cancel()
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, cleaning up...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed: %v", err)
	}
	logger.Info("Service stopped")
}

// newCache builds the configured response cache. A Redis connection failure
// falls back to the in-memory cache.
func newCache(cfg *config.Config) cache.Cache {
	switch cfg.Cache.Backend {
	case "none":
		return nil
	case "redis":
		rc, err := cache.NewRedisCache(cfg.Cache.RedisURL, "bettips")
		if err != nil {
			logger.Warn("Redis cache unavailable, using memory cache: %v", err)
			return cache.NewMemoryCache()
		}
		logger.Info("Using Redis response cache")
		return rc
	}
	return cache.NewMemoryCache()
}
