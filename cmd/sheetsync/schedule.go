package main

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/config"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"github.com/robfig/cron/v3"
)

const scheduledRunTimeout = 30 * time.Minute

// newScheduler registers one context run per tick. The returned job shares the
// skip-if-running guard, so a start-up run and a tick never overlap.
func newScheduler(runner contextRunner, cfg config.SyncConfig, logger *logging.Logger) (*cron.Cron, cron.Job, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	input := usecase.ContextSyncInput{Phase: usecase.SyncPhaseAll, MaxWorkers: cfg.MaxWorkers}
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
		defer cancel()

		result, err := runner.Run(ctx, input)
		if err != nil {
			logger.ErrorContext(ctx, "scheduled sync failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "scheduled sync completed",
			"run_id", result.RunID,
			"contexts", result.ContextCount,
			"failed", result.FailedCount,
		)
	}

	job := cron.NewChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(run))

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddJob(cfg.Schedule, job); err != nil {
		return nil, nil, fmt.Errorf("parse SYNC_SCHEDULE %q: %w", cfg.Schedule, err)
	}
	return c, job, nil
}

func runSchedule(ctx context.Context, runner contextRunner, cfg config.SyncConfig, logger *logging.Logger) error {
	c, job, err := newScheduler(runner, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.RunOnStart {
		go job.Run()
	}
	c.Start()
	logger.InfoContext(ctx, "sync scheduler started", "schedule", cfg.Schedule, "timezone", cfg.Timezone, "run_on_start", cfg.RunOnStart)

	<-ctx.Done()
	logger.Info("sync scheduler stopping")
	<-c.Stop().Done()
	return nil
}
