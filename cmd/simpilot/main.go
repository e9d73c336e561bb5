package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/config"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/importer"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/registry"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/server"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/store"
)

var (
	port    = flag.Int("port", 0, "HTTP port (overrides config.toml)")
	devMode = flag.Bool("dev", false, "development mode")
	dataDir = flag.String("dataDir", "", "data directory (overrides config.toml)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  SimPilot - equipment registry importer")
	fmt.Println("==========================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("failed to load config, falling back to defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger := buildLogger(cfg.Server.DevMode)
	defer logger.Sync()

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}
	fmt.Printf("data directory: %s\n", dir)

	st, err := store.New(filepath.Join(dir, "db", "simpilot.db"))
	if err != nil {
		logger.Fatal("failed to open registry database", zap.Error(err))
	}
	defer st.Close()

	vocab, err := parser.LoadVocabulary()
	if err != nil {
		logger.Fatal("failed to load vocabulary tables", zap.Error(err))
	}
	logger.Info("vocabulary loaded",
		zap.Int("roleVersion", vocab.RoleVersion),
		zap.Int("categoryVersion", vocab.CategoryVersion))

	reg := registry.New(st, logger,
		registry.WithCandidateThreshold(cfg.Ingest.SimilarityThreshold))
	coord := importer.NewCoordinator(reg, vocab, logger)
	srv := server.NewServer(cfg, reg, coord, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		fmt.Printf("listening on %s\n", addr)
		if err := srv.Run(addr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	fmt.Println("\npress Ctrl+C to stop...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nshutting down...")
}

func buildLogger(devMode bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if devMode {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}
