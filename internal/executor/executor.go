// Package executor walks the target graph bottom-up with a pool of workers,
// rebuilding every stale target exactly once per run. Correctness depends
// only on prerequisite edges being respected; the worker pool is just a
// scheduler over the graph's partial order.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/depstore"
	"github.com/masonbuild/mason/internal/graph"
	"github.com/masonbuild/mason/internal/toolchain"
	"github.com/masonbuild/mason/internal/variant"
)

// statCacheSize bounds the memoized stat results; prerequisites shared by
// many targets (headers, sentinels) are stat'ed once per run instead of once
// per edge.
const statCacheSize = 4096

// Executor runs one variant build over a target graph.
type Executor struct {
	graph   *graph.Graph
	workers int
	tc      *toolchain.Toolchain
	store   *depstore.Store
	v       *variant.Variant
	desc    *config.Description
	root    string

	statCache *lru.Cache[string, time.Time]
	wg        sync.WaitGroup
	executed  atomic.Int32
	fresh     atomic.Int32
}

// Result summarizes one run.
type Result struct {
	// Executed counts targets whose action actually ran.
	Executed int
	// UpToDate counts targets found fresh and left untouched.
	UpToDate int
}

// New creates an Executor over a built graph.
func New(g *graph.Graph, workers int, tc *toolchain.Toolchain, store *depstore.Store,
	v *variant.Variant, desc *config.Description, root string) *Executor {
	if workers < 1 {
		workers = 1
	}
	cache, _ := lru.New[string, time.Time](statCacheSize)
	return &Executor{
		graph:     g,
		workers:   workers,
		tc:        tc,
		store:     store,
		v:         v,
		desc:      desc,
		root:      root,
		statCache: cache,
	}
}

// Run executes the graph and returns once every target is done, skipped or
// failed. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *graph.Target, len(e.graph.Targets))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.graph.InitCounters()
	rootCount := 0
	for _, t := range e.graph.Targets {
		if t.DepCount() == 0 {
			readyChan <- t
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "targets", len(e.graph.Targets), "roots", rootCount)

	e.wg.Add(len(e.graph.Targets))
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	result := Result{
		Executed: int(e.executed.Load()),
		UpToDate: int(e.fresh.Load()),
	}

	var failed []string
	var rootCause error
	for _, t := range e.graph.Targets {
		if t.GetState() != graph.Failed {
			continue
		}
		if t.Err != nil && !strings.HasPrefix(t.Err.Error(), "skipped") && !errors.Is(t.Err, context.Canceled) {
			failed = append(failed, t.Path)
			if rootCause == nil {
				rootCause = t.Err
			}
		}
	}
	if rootCause != nil {
		return result, fmt.Errorf("build failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return result, nil
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *graph.Target, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	for t := range readyChan {
		workerLogger := logger.With("workerID", workerID, "target", t.Path)

		if ctx.Err() != nil {
			// A cancelled target releases its dependents too; they will
			// never be queued once their prerequisite is abandoned.
			if t.Skip(ctx.Err(), e.wg.Done) {
				e.skipDependents(ctx, t)
			}
			continue
		}

		t.SetState(graph.Running)
		if err := e.process(ctx, workerLogger, t); err != nil {
			workerLogger.Error("Target failed.", "error", err)
			t.SetState(graph.Failed)
			t.Err = err
			cancel()
			e.skipDependents(ctx, t)
			e.wg.Done()
			continue
		}
		t.SetState(graph.Done)

		for _, dependent := range t.Dependents {
			if dependent.DecrementDepCount() == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

// skipDependents recursively marks all downstream targets as failed.
func (e *Executor) skipDependents(ctx context.Context, t *graph.Target) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range t.Dependents {
		err := fmt.Errorf("skipped due to upstream failure of %q", t.Path)
		if dependent.Skip(err, e.wg.Done) {
			logger.Warn("Skipping dependent target.", "target", dependent.Path, "dependency", t.Path)
			e.skipDependents(ctx, dependent)
		}
	}
}

// process decides staleness for one target and runs its action if needed.
func (e *Executor) process(ctx context.Context, logger *slog.Logger, t *graph.Target) error {
	if err := e.ensureMarker(t); err != nil {
		return err
	}

	stale, err := e.isStale(t)
	if err != nil {
		return err
	}
	if !stale {
		logger.Debug("Target up to date.")
		e.fresh.Add(1)
		return nil
	}

	logger.Info("Building target.", "kind", t.Kind.String())
	if err := e.execute(ctx, t); err != nil {
		return err
	}
	t.MarkRebuilt()
	e.executed.Add(1)
	return nil
}
