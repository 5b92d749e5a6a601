// Package tracing starts one OpenTelemetry span per node execution,
// parented under a run-level span, generalizing jinterlante1206-AleutianLocal's
// per-request span-per-stage pattern to per-node spans in a DAG run.
package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// NewDefaultProvider builds a TracerProvider that writes spans to stdout,
// for callers who want tracing output without standing up a collector.
// The returned shutdown func should be deferred by the caller; it flushes
// and releases the exporter.
func NewDefaultProvider() (*sdktrace.TracerProvider, func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: new stdout exporter: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	return provider, provider.Shutdown, nil
}

// RunTracer emits one span per run (started by NewRunTracer) and one child
// span per node dispatched within it.
type RunTracer struct {
	tracer  trace.Tracer
	runSpan trace.Span
	runCtx  context.Context

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewRunTracer starts the run-level span using the global otel tracer
// provider and returns a RunTracer whose Hooks() feeds per-node spans.
// Callers should call End(finalStatus) once the run reaches a terminal
// state.
func NewRunTracer(ctx context.Context, runName string) *RunTracer {
	tracer := otel.Tracer("github.com/flowdag/flowdag")
	runCtx, span := tracer.Start(ctx, "flowdag.run", trace.WithAttributes(attribute.String("flowdag.run", runName)))
	return &RunTracer{tracer: tracer, runSpan: span, runCtx: runCtx, spans: make(map[string]trace.Span)}
}

// Hooks adapts the RunTracer into noderunner.Hooks.
func (t *RunTracer) Hooks() noderunner.Hooks {
	return noderunner.Hooks{
		OnDispatch: func(node string, kind topology.Kind) {
			_, span := t.tracer.Start(t.runCtx, "flowdag.node",
				trace.WithAttributes(
					attribute.String("flowdag.node", node),
					attribute.String("flowdag.kind", kind.String()),
				))
			t.mu.Lock()
			t.spans[node] = span
			t.mu.Unlock()
		},
		OnSettle: func(node string, kind topology.Kind, status snapshot.NodeStatus, dur time.Duration) {
			t.mu.Lock()
			span, ok := t.spans[node]
			delete(t.spans, node)
			t.mu.Unlock()
			if !ok {
				return
			}
			span.SetAttributes(attribute.String("flowdag.status", string(status)))
			if status == snapshot.NodeErrored {
				span.SetStatus(codes.Error, "node errored")
			}
			span.End()
		},
	}
}

// End closes the run-level span, stamping the run's terminal status.
func (t *RunTracer) End(status snapshot.RunStatus) {
	t.runSpan.SetAttributes(attribute.String("flowdag.run_status", string(status)))
	if status == snapshot.RunErrored {
		t.runSpan.SetStatus(codes.Error, "run errored")
	}
	t.runSpan.End()
}
