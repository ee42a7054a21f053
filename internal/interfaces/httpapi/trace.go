package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("inhouse/internal/interfaces/httpapi")
var passthroughSpan = trace.SpanFromContext(context.Background())

// startSpan opens a child span for handler-level work. Helpers below the
// handler boundary, and requests on filtered routes such as /healthz, reuse
// the ambient span instead of starting root spans of their own.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, passthroughSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, passthroughSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}
