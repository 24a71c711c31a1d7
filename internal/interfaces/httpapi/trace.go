package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("team-sheet-sync/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// startSpan opens a handler span under the otelhttp request span. Health
// checks are filtered before otelhttp and so never get a parent.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

// pathAttrs copies the named path values into span attributes.
func pathAttrs(r *http.Request, names ...string) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(names))
	for _, name := range names {
		if v := strings.TrimSpace(r.PathValue(name)); v != "" {
			out = append(out, attribute.String("http.path."+name, v))
		}
	}
	return out
}
