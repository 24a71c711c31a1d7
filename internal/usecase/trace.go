package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("team-sheet-sync/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

const (
	attrTeamSeasonID = attribute.Key("team_season.id")
	attrMatchID      = attribute.Key("match.id")
)

// startUsecaseSpan only opens a child span when the caller is already traced,
// so CLI runs without an HTTP parent stay quiet.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// markSpanFailed records a sync failure on span without ending it.
func markSpanFailed(span trace.Span, reason string) {
	if !span.IsRecording() {
		return
	}
	span.SetStatus(codes.Error, reason)
}
