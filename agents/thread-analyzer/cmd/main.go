package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	threadanalyzer "post-analyzer/agents/thread-analyzer"
	"post-analyzer/internal/models"
	"post-analyzer/shared/config"
	"post-analyzer/shared/logging"
	"post-analyzer/shared/scheduler"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.Monitoring.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()
	logger := logging.L()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := threadanalyzer.NewThreadAgent(cfg)
	defer agent.Close()
	s := scheduler.New(cfg, agent)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		if err := agent.Initialize(); err != nil {
			logger.Fatal("failed to initialize agent", zap.Error(err))
		}

		// --once <url> analyzes a single post; bare --once runs the watch list.
		if len(os.Args) > 2 {
			result := agent.Process(ctx, os.Args[2])
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				logger.Error("failed to write result", zap.Error(err))
			}
			if result.Status == models.StatusError {
				logging.Sync()
				os.Exit(1)
			}
			return
		}

		if err := cfg.ValidateWatch(); err != nil {
			logger.Fatal("invalid watch configuration", zap.Error(err))
		}
		if err := s.RunOnce(ctx); err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
		return
	}

	if err := cfg.ValidateWatch(); err != nil {
		logger.Fatal("invalid watch configuration", zap.Error(err))
	}
	logger.Info("starting scheduler")
	if err := s.Start(ctx); err != nil && err != context.Canceled {
		logger.Fatal("scheduler failed", zap.Error(err))
	}
}
