package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var cliTracer = otel.Tracer("team-sheet-sync/cmd/sheetsync")

type contextRunner interface {
	Run(ctx context.Context, input usecase.ContextSyncInput) (usecase.ContextSyncResult, error)
}

func parseRunArgs(args []string, defaultWorkers int) (usecase.ContextSyncInput, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	teamSeasons := fs.String("team-seasons", "", "comma separated team season ids (default: all)")
	phase := fs.String("phase", string(usecase.SyncPhaseAll), "all, master or selections")
	workers := fs.Int("workers", defaultWorkers, "parallel team seasons")
	if err := fs.Parse(args); err != nil {
		return usecase.ContextSyncInput{}, fmt.Errorf("parse run flags: %w", err)
	}
	if fs.NArg() > 0 {
		return usecase.ContextSyncInput{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	parsedPhase, err := usecase.ParseSyncPhase(*phase)
	if err != nil {
		return usecase.ContextSyncInput{}, err
	}
	if *workers < 1 {
		return usecase.ContextSyncInput{}, fmt.Errorf("workers must be >= 1")
	}
	ids, err := parseIDList(*teamSeasons)
	if err != nil {
		return usecase.ContextSyncInput{}, err
	}

	return usecase.ContextSyncInput{
		TeamSeasonIDs: ids,
		Phase:         parsedPhase,
		MaxWorkers:    *workers,
	}, nil
}

func parseIDList(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil || value <= 0 {
			return nil, fmt.Errorf("invalid team season id %q", item)
		}
		out = append(out, value)
	}
	return out, nil
}

// runOnce executes one context run, prints the summary table and returns the
// process exit code: 1 when any context failed or the run could not start.
func runOnce(ctx context.Context, runner contextRunner, input usecase.ContextSyncInput, out io.Writer, logger *logging.Logger) int {
	ctx, span := cliTracer.Start(ctx, "sheetsync.run",
		trace.WithAttributes(attribute.String("sync.phase", string(input.Phase))))
	defer span.End()

	started := time.Now()
	result, err := runner.Run(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, "run failed")
		logger.ErrorContext(ctx, "sync run failed", "error", err)
		return 1
	}
	writeSummary(out, result, time.Since(started))
	logger.InfoContext(ctx, "sync run completed",
		"run_id", result.RunID,
		"contexts", result.ContextCount,
		"success", result.SuccessCount,
		"partial", result.PartialCount,
		"failed", result.FailedCount,
	)
	if result.FailedCount > 0 {
		span.SetStatus(codes.Error, "contexts failed")
		return 1
	}
	return 0
}

func writeSummary(out io.Writer, result usecase.ContextSyncResult, elapsed time.Duration) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM SEASON\tNAME\tSTATUS\tMATCHES\tPLAYERS\tSYNCED\tFAILED\tSELECTIONS\tDURATION")
	for _, row := range result.Contexts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%dms\n",
			row.TeamSeasonID, row.Name, row.Status, row.Matches, row.Players, row.Synced, row.Failed, row.Selections, row.DurationMs)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "run %s phase=%s contexts=%d success=%d partial=%d failed=%d workers=%d elapsed=%s\n",
		result.RunID, result.Phase, result.ContextCount, result.SuccessCount, result.PartialCount,
		result.FailedCount, result.WorkerCount, elapsed.Round(time.Millisecond))
}
