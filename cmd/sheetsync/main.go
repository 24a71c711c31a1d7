package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/app"
	"github.com/riskibarqy/team-sheet-sync/internal/config"
	"github.com/riskibarqy/team-sheet-sync/internal/observability"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("sheetsync")
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, "sheetsync", logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, "sheetsync", logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	exitCode := 0
	switch cmd := strings.ToLower(strings.TrimSpace(os.Args[1])); cmd {
	case "run":
		input, parseErr := parseRunArgs(os.Args[2:], cfg.Sync.MaxWorkers)
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, parseErr)
			exitCode = 2
			break
		}
		exitCode = runOnce(ctx, container.ContextSync, input, os.Stdout, logger)
	case "schedule":
		if err := runSchedule(ctx, container.ContextSync, cfg.Sync, logger); err != nil {
			logger.Error("scheduler failed", "error", err)
			exitCode = 1
		}
	default:
		printUsage()
		exitCode = 2
	}

	if err := container.Close(); err != nil {
		logger.Error("close app resources", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}
	cancel()
	_ = logger.Sync()
	os.Exit(exitCode)
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <run|schedule> [flags]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s run\n", name)
	fmt.Fprintf(os.Stderr, "  %s run -team-seasons 1,3 -phase master -workers 2\n", name)
	fmt.Fprintf(os.Stderr, "  %s schedule\n", name)
}
