// Package main implements the entry point for the MCP worker, which runs
// background tasks for the MCP server and exposes its metrics, health and
// task submission endpoints over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phrazzld/mcp-worker/internal/config"
	"github.com/phrazzld/mcp-worker/internal/platform/logger"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mcp-worker: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and runs the worker until it is
// signaled or ctx is canceled.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("worker configuration loaded",
		"log_level", cfg.Server.LogLevel,
		"metrics_port", cfg.Metrics.Port,
		"data_dir", cfg.Handlers.DataDir)

	return newApplication(cfg, log).run(ctx)
}
