// Package main is the entry point for the kwentad exchange daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pgrimaud/kwenta/business/blockchain"
	blockchainDI "github.com/pgrimaud/kwenta/business/blockchain/di"
	"github.com/pgrimaud/kwenta/business/exchange"
	exchangeDI "github.com/pgrimaud/kwenta/business/exchange/di"
	"github.com/pgrimaud/kwenta/business/staking"
	stakingDI "github.com/pgrimaud/kwenta/business/staking/di"
	"github.com/pgrimaud/kwenta/internal/apm"
	"github.com/pgrimaud/kwenta/internal/config"
	"github.com/pgrimaud/kwenta/internal/currency"
	"github.com/pgrimaud/kwenta/internal/health"
	"github.com/pgrimaud/kwenta/internal/logger"
	"github.com/pgrimaud/kwenta/internal/metrics"
	"github.com/pgrimaud/kwenta/internal/monolith"
	"github.com/pgrimaud/kwenta/internal/prefs"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	pair := flag.String("pair", "", "Currency pair to watch, e.g. sUSD/sETH")
	reportEvery := flag.Duration("report", 30*time.Second, "Console report interval (0 disables)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kwentad %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *pair, *reportEvery); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, pairFlag string, reportEvery time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting kwentad",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Ethereum.ChainID,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	// Persisted pair selection: flag wins, then the prefs file, then the
	// sUSD/sETH default.
	store, pair := loadPair(ctx, log, pairFlag)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Modules in dependency order; blockchain last so its startup can wire
	// head triggers into the other services.
	modules := []monolith.Module{
		&exchange.Module{},
		&staking.Module{},
		&blockchain.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started",
		"pair", fmt.Sprintf("%s/%s", pair.quote, pair.base))

	if reportEvery > 0 {
		reporter := newReporter(
			exchangeDI.GetExchangeService(mono.Services()),
			stakingDI.GetStakingService(mono.Services()),
			blockchainDI.GetChainService(mono.Services()),
			cfg.Staking.WalletAddressHex(),
			pair,
		)
		go reporter.run(ctx, reportEvery)
	}

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	savePair(ctx, log, store, pair)
	return nil
}

// watchedPair is the quote/base selection carried by the reporter.
type watchedPair struct {
	quote currency.Key
	base  currency.Key
}

func loadPair(ctx context.Context, log logger.LoggerInterface, flagValue string) (*prefs.Store, watchedPair) {
	pair := watchedPair{quote: currency.KeySUSD, base: "sETH"}

	path, err := prefs.DefaultPath()
	if err != nil {
		log.Warn(ctx, "preference path unavailable", "error", err)
		return nil, pair
	}
	store := prefs.NewStore(path)

	saved, err := store.Load()
	if err != nil {
		log.Warn(ctx, "failed to load preferences", "error", err)
	}
	if saved.QuoteCurrencyKey != "" {
		pair.quote = currency.Key(saved.QuoteCurrencyKey)
	}
	if saved.BaseCurrencyKey != "" {
		pair.base = currency.Key(saved.BaseCurrencyKey)
	}

	if flagValue != "" {
		if quote, base, ok := splitPair(flagValue); ok {
			pair.quote, pair.base = quote, base
		} else {
			log.Warn(ctx, "ignoring malformed -pair flag", "value", flagValue)
		}
	}
	return store, pair
}

func savePair(ctx context.Context, log logger.LoggerInterface, store *prefs.Store, pair watchedPair) {
	if store == nil {
		return
	}
	err := store.Save(prefs.Prefs{
		QuoteCurrencyKey: string(pair.quote),
		BaseCurrencyKey:  string(pair.base),
	})
	if err != nil {
		log.Warn(ctx, "failed to save preferences", "error", err)
	}
}

func splitPair(s string) (quote, base currency.Key, ok bool) {
	for i := range s {
		if s[i] == '/' && i > 0 && i < len(s)-1 {
			return currency.Key(s[:i]), currency.Key(s[i+1:]), true
		}
	}
	return "", "", false
}
