package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/config"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
)

type stubRunner struct {
	mu     sync.Mutex
	inputs []usecase.ContextSyncInput
	result usecase.ContextSyncResult
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (s *stubRunner) Run(_ context.Context, input usecase.ContextSyncInput) (usecase.ContextSyncResult, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func TestParseRunArgs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		input, err := parseRunArgs(nil, 4)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if input.Phase != usecase.SyncPhaseAll || input.MaxWorkers != 4 || len(input.TeamSeasonIDs) != 0 {
			t.Fatalf("unexpected defaults: %+v", input)
		}
	})

	t.Run("flags", func(t *testing.T) {
		input, err := parseRunArgs([]string{"-team-seasons", "3, 1", "-phase", "MASTER", "-workers", "2"}, 4)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if input.Phase != usecase.SyncPhaseMaster || input.MaxWorkers != 2 {
			t.Fatalf("unexpected input: %+v", input)
		}
		if len(input.TeamSeasonIDs) != 2 || input.TeamSeasonIDs[0] != 3 || input.TeamSeasonIDs[1] != 1 {
			t.Fatalf("unexpected ids: %v", input.TeamSeasonIDs)
		}
	})

	for _, args := range [][]string{
		{"-phase", "fixtures"},
		{"-workers", "0"},
		{"-team-seasons", "1,x"},
		{"-team-seasons", "-4"},
		{"extra"},
		{"-unknown"},
	} {
		if _, err := parseRunArgs(args, 4); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestRunOnce_ExitCodes(t *testing.T) {
	logger := logging.NewNop()

	t.Run("all contexts succeed", func(t *testing.T) {
		runner := &stubRunner{result: usecase.ContextSyncResult{
			RunID:        "run-1",
			Phase:        usecase.SyncPhaseAll,
			ContextCount: 1,
			SuccessCount: 1,
			Contexts: []usecase.ContextSyncRow{
				{TeamSeasonID: 1, Name: "Sandbach 2025/26", Status: "success", Matches: 12, Synced: 12},
			},
		}}
		var out bytes.Buffer
		if code := runOnce(context.Background(), runner, usecase.ContextSyncInput{}, &out, logger); code != 0 {
			t.Fatalf("expected exit 0, got %d", code)
		}
		if !strings.Contains(out.String(), "Sandbach 2025/26") || !strings.Contains(out.String(), "run run-1") {
			t.Fatalf("unexpected summary:\n%s", out.String())
		}
	})

	t.Run("failed context", func(t *testing.T) {
		runner := &stubRunner{result: usecase.ContextSyncResult{ContextCount: 1, FailedCount: 1}}
		if code := runOnce(context.Background(), runner, usecase.ContextSyncInput{}, &bytes.Buffer{}, logger); code != 1 {
			t.Fatalf("expected exit 1, got %d", code)
		}
	})

	t.Run("run error", func(t *testing.T) {
		runner := &stubRunner{err: errors.New("boom")}
		if code := runOnce(context.Background(), runner, usecase.ContextSyncInput{}, &bytes.Buffer{}, logger); code != 1 {
			t.Fatalf("expected exit 1, got %d", code)
		}
	})
}

func TestNewScheduler(t *testing.T) {
	logger := logging.NewNop()
	cfg := config.SyncConfig{Schedule: "0 */6 * * *", Timezone: "Europe/London", MaxWorkers: 3}

	t.Run("invalid schedule", func(t *testing.T) {
		bad := cfg
		bad.Schedule = "every six hours"
		if _, _, err := newScheduler(&stubRunner{}, bad, logger); err == nil {
			t.Fatalf("expected error for invalid cron spec")
		}
	})

	t.Run("invalid timezone", func(t *testing.T) {
		bad := cfg
		bad.Timezone = "Nowhere/Special"
		if _, _, err := newScheduler(&stubRunner{}, bad, logger); err == nil {
			t.Fatalf("expected error for invalid timezone")
		}
	})

	t.Run("registers one entry and runs every phase", func(t *testing.T) {
		runner := &stubRunner{}
		c, job, err := newScheduler(runner, cfg, logger)
		if err != nil {
			t.Fatalf("new scheduler: %v", err)
		}
		if len(c.Entries()) != 1 {
			t.Fatalf("expected one cron entry, got %d", len(c.Entries()))
		}
		job.Run()
		if len(runner.inputs) != 1 || runner.inputs[0].Phase != usecase.SyncPhaseAll || runner.inputs[0].MaxWorkers != 3 {
			t.Fatalf("unexpected run input: %+v", runner.inputs)
		}
	})

	t.Run("skips overlapping runs", func(t *testing.T) {
		runner := &stubRunner{block: make(chan struct{})}
		_, job, err := newScheduler(runner, cfg, logger)
		if err != nil {
			t.Fatalf("new scheduler: %v", err)
		}
		done := make(chan struct{})
		go func() {
			job.Run()
			close(done)
		}()
		deadline := time.Now().Add(2 * time.Second)
		for runner.calls.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		job.Run()
		close(runner.block)
		<-done
		if got := runner.calls.Load(); got != 1 {
			t.Fatalf("expected overlapping run to be skipped, got %d calls", got)
		}
	})
}

func TestRunSchedule_StopsOnCancel(t *testing.T) {
	runner := &stubRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.SyncConfig{Schedule: "0 3 * * *", Timezone: "UTC", MaxWorkers: 1, RunOnStart: true}

	errCh := make(chan error, 1)
	go func() { errCh <- runSchedule(ctx, runner, cfg, logging.NewNop()) }()

	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run schedule: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
	if runner.calls.Load() != 1 {
		t.Fatalf("expected start-up run, got %d", runner.calls.Load())
	}
}
