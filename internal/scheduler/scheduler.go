// Package scheduler drives a single run: dispatch ready nodes, await
// progress, detect terminal conditions, finalize (§4.5). It owns the one
// piece of true concurrency in the engine — the in-flight task registry —
// and is the sole writer of run-terminal state.
//
// Grounded on specialistvlad-burstgridgo's internal/executor/executor.go Run/worker: a
// root-discovery step before the loop, a wait-group-style in-flight count,
// and a cleanup stack executed once after the loop exits
// (e.pushCleanup/e.executeCleanupStack), generalized here from per-resource
// destructors to arbitrary run-scoped cleanup (closing a tracer span,
// unregistering metrics).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flowdag/flowdag/internal/ctxlog"
	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/readiness"
	"github.com/flowdag/flowdag/internal/snapshot"
)

// Scheduler drives one run to completion. Not safe for concurrent Run
// calls on the same instance — one Scheduler per run, per §9's "no global
// state... every run owns its own snapshot, event bus, cancellation
// source, and in-flight set".
type Scheduler struct {
	dag    *dag.DAG
	store  *snapshot.Store
	runner *noderunner.Runner

	mu      sync.Mutex
	aborted bool
	cancel  context.CancelFunc

	cleanupMu sync.Mutex
	cleanup   []func()
}

// New builds a Scheduler for one run.
func New(d *dag.DAG, store *snapshot.Store, runner *noderunner.Runner) *Scheduler {
	return &Scheduler{dag: d, store: store, runner: runner}
}

// PushCleanup registers a function to run exactly once, after the
// scheduler loop exits for any reason. Grounded on
// specialistvlad-burstgridgo's pushCleanup/executeCleanupStack pair.
func (s *Scheduler) PushCleanup(fn func()) {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	s.cleanup = append(s.cleanup, fn)
}

func (s *Scheduler) executeCleanupStack() {
	s.cleanupMu.Lock()
	stack := s.cleanup
	s.cleanup = nil
	s.cleanupMu.Unlock()
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i]()
	}
}

// Stop requests cancellation. Idempotent; safe to call before Run starts,
// during it, or after it has already finished (§5 "stop() is idempotent").
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) isAborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Run executes the scheduler loop to a terminal state and returns the
// ErroredNodes failure if the run finished with any node errored (§4.5
// step 7, §7's ErroredNodes). The loop itself never returns early on
// cancellation — in-flight actions are allowed to settle, exactly as §5
// requires.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	aborted := s.aborted
	s.mu.Unlock()
	if aborted {
		cancel()
	}
	defer s.executeCleanupStack()
	defer cancel()

	logger := ctxlog.FromContext(ctx)

	roots := readiness.ReadyToRun(s.dag, s.store.StatusSnapshot(), false)
	sort.Strings(roots)
	logger.Info("run starting", "nodes", s.dag.Len(), "roots", roots)

	done := make(chan noderunner.Settlement)
	inFlight := make(map[string]bool)

	for {
		ready := readiness.ReadyToRun(s.dag, s.store.StatusSnapshot(), s.isAborted())
		if len(ready) == 0 && len(inFlight) == 0 {
			return s.finalize(logger)
		}
		for _, name := range ready {
			inFlight[name] = true
			s.runner.Dispatch(runCtx, name, done)
		}
		if len(inFlight) == 0 {
			continue
		}
		settled := <-done
		delete(inFlight, settled.Node)
	}
}

// finalize implements §4.5 steps 1-7: compute the terminal status from the
// errored/suspended sets, transition every still-pending node according to
// that terminal, publish exactly one of error/done, and surface
// ErroredNodes if appropriate.
func (s *Scheduler) finalize(logger *slog.Logger) error {
	statuses := s.store.StatusSnapshot()

	var errored, suspended, pending []string
	for name, status := range statuses {
		switch status {
		case snapshot.NodeErrored:
			errored = append(errored, name)
		case snapshot.NodeSuspended:
			suspended = append(suspended, name)
		case snapshot.NodePending:
			pending = append(pending, name)
		}
	}
	sort.Strings(errored)
	sort.Strings(suspended)
	sort.Strings(pending)

	var terminal snapshot.RunStatus
	switch {
	case len(errored) > 0:
		terminal = snapshot.RunErrored
	case len(suspended) > 0:
		terminal = snapshot.RunSuspended
	default:
		terminal = snapshot.RunCompleted
	}

	now := time.Now()
	for _, name := range pending {
		switch terminal {
		case snapshot.RunSuspended:
			_ = s.store.SetSuspended(name, now)
		case snapshot.RunCompleted:
			_ = s.store.SetSkipped(name)
			// RunErrored: pending nodes are left untouched — they never ran.
		}
	}

	var termErr error
	if terminal == snapshot.RunErrored {
		termErr = fmt.Errorf("%w: %v", flowerrors.ErrErroredNodes, errored)
	}
	s.store.FinalizeAndPublish(terminal, now, termErr)
	logger.Info("run finished", "status", string(terminal), "errored", errored, "suspended", suspended)
	return termErr
}
