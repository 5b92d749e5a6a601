package flowdag

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowdag/flowdag/internal/metrics"
	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/rundriver"
	"github.com/flowdag/flowdag/internal/tracing"
)

// Option configures optional instrumentation for a Run or Resume call.
// Every run works identically with no options; these only attach
// observability collaborators.
type Option func(*runConfig)

type runConfig struct {
	hooks      []noderunner.Hooks
	withTracer bool
}

// WithMetrics records node dispatch/settlement counts and per-node
// duration histograms against the process-wide Prometheus collector.
func WithMetrics() Option {
	return func(c *runConfig) { c.hooks = append(c.hooks, metrics.Default().Hooks()) }
}

// WithTracing starts one OpenTelemetry span per node, parented under a
// run-level span that closes when Handle.Start returns.
func WithTracing() Option {
	return func(c *runConfig) { c.withTracer = true }
}

func newRunConfig(options []Option) *runConfig {
	c := &runConfig{}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Run builds a fresh run from spec and opts (§6). It does not begin
// execution — call Handle.Start. Every run is stamped with a UUID run ID,
// visible via Handle.ID, so concurrent runs in the same process are
// distinguishable in logs, traces, and collaborator storage keys.
func Run(spec Spec, opts RunOptions, options ...Option) (*Handle, error) {
	cfg := newRunConfig(options)
	runID := uuid.New().String()

	var tracer *tracing.RunTracer
	if cfg.withTracer {
		tracer = tracing.NewRunTracer(context.Background(), runID)
		cfg.hooks = append(cfg.hooks, tracer.Hooks())
	}

	inner, err := rundriver.Run(spec, opts, noderunner.MergeHooks(cfg.hooks...))
	if err != nil {
		return nil, err
	}
	return &Handle{inner: inner, id: runID, tracer: tracer}, nil
}

// Resume continues a run from a previously obtained snapshot (§4.6). A
// snapshot whose status is already completed yields a Handle whose Start
// resolves immediately with no effect.
func Resume(spec Spec, snap *Snapshot, opts ResumeOptions, options ...Option) (*Handle, error) {
	cfg := newRunConfig(options)
	runID := uuid.New().String()

	var tracer *tracing.RunTracer
	if cfg.withTracer {
		tracer = tracing.NewRunTracer(context.Background(), runID)
		cfg.hooks = append(cfg.hooks, tracer.Hooks())
	}

	inner, err := rundriver.Resume(spec, snap, opts, noderunner.MergeHooks(cfg.hooks...))
	if err != nil {
		return nil, err
	}
	return &Handle{inner: inner, id: runID, tracer: tracer}, nil
}
