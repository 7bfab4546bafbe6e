// Package main provides the prismd daemon, the multi-chain wallet core.
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/prism-wallet/prism/internal/cache"
	"github.com/prism-wallet/prism/internal/chain"
	"github.com/prism-wallet/prism/internal/chainsvc"
	"github.com/prism-wallet/prism/internal/config"
	"github.com/prism-wallet/prism/internal/loader"
	"github.com/prism-wallet/prism/internal/prices"
	"github.com/prism-wallet/prism/internal/rpc"
	"github.com/prism-wallet/prism/internal/status"
	"github.com/prism-wallet/prism/internal/store"
	"github.com/prism-wallet/prism/internal/swap"
	"github.com/prism-wallet/prism/internal/tokens"
	"github.com/prism-wallet/prism/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", defaultDataDir(), "Data directory")
		configFile  = flag.String("config", "", "Config file path (default: <data-dir>/config.yaml)")
		apiAddr     = flag.String("api", "", "JSON-RPC API address, overrides config")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{
		Level:      "info",
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("prismd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	cfgPath := *configFile
	if cfgPath == "" {
		cfgPath = filepath.Join(*dataDir, "config.yaml")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if *apiAddr != "" {
		cfg.Listen = *apiAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if cfg.DataDir == "" {
		cfg.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config", "error", err)
	}

	log = logging.New(&logging.Config{
		Level:      cfg.LogLevel,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)
	log.Info("Config loaded", "path", cfgPath, "networks", len(cfg.EnabledNetworks()))

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to open store", "error", err)
	}
	defer db.Close()
	log.Info("Store opened", "dir", cfg.DataDir)

	manager := chainsvc.NewManager(cfg, log)
	balances := cache.New(log, cache.WithStore(db), cache.WithTTL(cfg.Loader.BalanceTTL))
	agg := status.NewAggregator(log)
	oracle := prices.NewOracle(cfg.Prices, log)
	engine := swap.NewEngine(cfg.Swap, oracle, log)
	loads := loader.New(manager, balances, agg, cfg.Loader, log)

	var discover *tokens.Discoverer
	if network, ok := cfg.Network("ETH"); ok && network.Enabled {
		params, _ := chain.Get("ETH")
		client, err := ethclient.Dial(network.RPCURL)
		if err != nil {
			log.Warn("Token discovery disabled", "error", err)
		} else {
			discover = tokens.NewDiscoverer(client, params, cfg.Discover, log)
		}
	}

	server := rpc.NewServer(rpc.Deps{
		Store:    db,
		Manager:  manager,
		Loader:   loads,
		Cache:    balances,
		Engine:   engine,
		Status:   agg,
		Discover: discover,
	})
	if err := server.Start(cfg.Listen); err != nil {
		log.Fatal("Failed to start RPC server", "error", err)
	}

	log.Info("prismd started", "version", version, "api", cfg.Listen)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		log.Error("Error stopping RPC server", "error", err)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prism"
	}
	return filepath.Join(home, ".prism")
}
