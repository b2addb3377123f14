package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"aquaquote/internal/appconfig"
	"aquaquote/internal/chainscfg"
	"aquaquote/internal/intent"
	"aquaquote/internal/logging"
	"aquaquote/internal/migrate"
	"aquaquote/internal/nonce"
	"aquaquote/internal/pairs"
	"aquaquote/internal/pricing"
	"aquaquote/internal/quotes"
	"aquaquote/internal/rpcpool"
	"aquaquote/internal/signing"
	"aquaquote/internal/strategies"
	"aquaquote/internal/tokens"
	"aquaquote/internal/transport"
)

func main() {
	// Mirrors the teacher's cmd/main.go: load .env for local runs, then
	// fall through to whatever is already in the environment in staging/prod.
	_ = godotenv.Load()

	logger := logging.New(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "json") == "console")

	chainsPath := envOr("CHAINS_CONFIG_PATH", "./chains.json")
	registry, err := chainscfg.Load(chainsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading chains config")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to database")
	}

	if err := migrate.Run(db); err != nil {
		logger.Fatal().Err(err).Msg("running schema migration")
	}

	requestTimeoutMs := envOrInt("REQUEST_TIMEOUT_MS", 5000)
	globalTimeoutMs := envOrInt("GLOBAL_TIMEOUT_MS", 8000)
	quoteExpirySeconds := envOrInt("QUOTE_EXPIRY_SECONDS", 120)

	appConfigStore := appconfig.NewStore(db, appconfig.Record{
		RequestTimeoutMs:   requestTimeoutMs,
		GlobalTimeoutMs:    globalTimeoutMs,
		QuoteExpirySeconds: quoteExpirySeconds,
	})
	if err := appConfigStore.Load(); err != nil {
		logger.Fatal().Err(err).Msg("loading runtime config")
	}
	cfg := appConfigStore.Get()

	pool := rpcpool.New(registry)
	defer pool.Close()

	tokenStore := tokens.NewStore(db)
	tokenCache := tokens.NewCache(tokenStore, pool)

	pairStore := pairs.NewStore(db)
	strategyStore := strategies.NewStore(db)

	seedPath := envOr("STRATEGY_SEED_PATH", "./strategies.seed.yaml")
	seedFile, err := strategies.LoadSeedFile(seedPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading strategy seed file")
	}
	if err := strategyStore.ApplySeed(seedFile); err != nil {
		logger.Fatal().Err(err).Msg("applying strategy seed file")
	}

	nonceAllocator := nonce.NewAllocator(db)
	signer := signing.New(registry)

	requestTimeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	pricingClient := pricing.New(requestTimeout)
	intentClient := intent.New(requestTimeout)

	quoteStore := quotes.NewStore(db)
	orchestrator := quotes.New(
		registry,
		strategyStore,
		pairStore,
		tokenCache,
		pricingClient,
		intentClient,
		nonceAllocator,
		signer,
		quoteStore,
	)

	globalTimeout := time.Duration(cfg.GlobalTimeoutMs) * time.Millisecond
	router := transport.New(transport.Deps{
		Registry:     registry,
		ChainState:   strategyStore,
		Pairs:        pairStore,
		Tokens:       tokenStore,
		AppConfig:    appConfigStore,
		Orchestrator: orchestrator,
		Logger:       logger,
	}, globalTimeout)

	addr := ":" + envOr("PORT", "8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: globalTimeout + 2*time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("aquaquote listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s=%q, using default %d\n", key, raw, def)
		return def
	}
	return n
}
