package flowdag

import (
	"context"

	"github.com/flowdag/flowdag/internal/ctxlog"
	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/rundriver"
	"github.com/flowdag/flowdag/internal/tracing"
)

// Handle is the run handle returned by Run and Resume (§6).
type Handle struct {
	inner  *rundriver.Handle
	id     string
	tracer *tracing.RunTracer
}

// ID returns this run's UUID, stamped at Run/Resume time so concurrent
// runs in the same process stay distinguishable in logs, traces, and any
// collaborator keying persisted data by run.
func (h *Handle) ID() string {
	return h.id
}

// Start begins (or continues) execution; it blocks until the run reaches
// a terminal state. Fails with ErrErroredNodes (naming the failed nodes)
// if any node errored.
func (h *Handle) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("run_id", h.id)
	ctx = ctxlog.WithLogger(ctx, logger)
	err := h.inner.Start(ctx)
	if h.tracer != nil {
		h.tracer.End(h.inner.GetSnapshot().Status)
	}
	return err
}

// Stop requests cancellation; idempotent; returns immediately.
func (h *Handle) Stop() {
	h.inner.Stop()
}

// GetSnapshot returns the live snapshot reference, valid before, during,
// and after termination. Callers must treat it as read-only and Clone
// before mutating or persisting it asynchronously (§9).
func (h *Handle) GetSnapshot() *Snapshot {
	return h.inner.GetSnapshot()
}

// Events exposes the underlying bus so a collaborator (internal/badgersnapshot,
// internal/kafkasink) can subscribe directly rather than through the
// single-callback OnData/OnError/OnDone wrappers.
func (h *Handle) Events() *eventbus.Bus {
	return h.inner.Events()
}

// OnData subscribes fn to every snapshot mutation (§4.7).
func (h *Handle) OnData(fn func(*Snapshot)) {
	h.inner.Events().OnData(eventbus.DataFunc(fn))
}

// OnError subscribes fn to fire once, on terminal failure.
func (h *Handle) OnError(fn func(*Snapshot, error)) {
	h.inner.Events().OnError(eventbus.ErrorFunc(fn))
}

// OnDone subscribes fn to fire once, on terminal success or suspension.
func (h *Handle) OnDone(fn func(*Snapshot)) {
	h.inner.Events().OnDone(eventbus.DoneFunc(fn))
}
