package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/masonbuild/mason/internal/graph"
)

// ensureMarker lazily creates the target's per-directory existence marker.
// The marker is created exactly once and never re-touched, so its timestamp
// stays out of staleness decisions (it is an order-only prerequisite).
func (e *Executor) ensureMarker(t *graph.Target) error {
	if _, err := os.Stat(t.Marker); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Marker), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", t.Path, err)
	}
	f, err := os.OpenFile(t.Marker, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		// A concurrent worker may have won the race; existence is all that
		// matters.
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating directory marker %s: %w", t.Marker, err)
	}
	return f.Close()
}

// isStale reports whether the target must be rebuilt: its output is missing,
// a prerequisite was rebuilt this run, or any prerequisite is newer than the
// output.
func (e *Executor) isStale(t *graph.Target) (bool, error) {
	for _, dep := range t.Deps {
		if dep.WasRebuilt() {
			return true, nil
		}
	}

	outTime, ok := e.oldestOutput(t)
	if !ok {
		return true, nil
	}

	for _, fd := range t.FileDeps {
		mt, err := e.mtime(fd)
		if err != nil {
			// A vanished prerequisite (e.g. a deleted header from a stale
			// record) forces a rebuild; the compile refreshes the record.
			return true, nil
		}
		if mt.After(outTime) {
			return true, nil
		}
	}
	for _, dep := range t.Deps {
		mt, err := e.mtime(dep.OutPath)
		if err != nil {
			return true, nil
		}
		if mt.After(outTime) {
			return true, nil
		}
	}
	return false, nil
}

// oldestOutput returns the oldest modification time across the target's
// produced files, or false if any of them is missing.
func (e *Executor) oldestOutput(t *graph.Target) (time.Time, bool) {
	outputs := t.Outputs
	if len(outputs) == 0 {
		outputs = []string{t.OutPath}
	}
	var oldest time.Time
	for i, out := range outputs {
		mt, err := e.mtime(out)
		if err != nil {
			return time.Time{}, false
		}
		if i == 0 || mt.Before(oldest) {
			oldest = mt
		}
	}
	return oldest, true
}

// mtime returns a file's modification time, memoized across the run.
func (e *Executor) mtime(path string) (time.Time, error) {
	if mt, ok := e.statCache.Get(path); ok {
		return mt, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	mt := info.ModTime()
	e.statCache.Add(path, mt)
	return mt, nil
}

// invalidate drops memoized stat results for the target's produced files
// after its action ran.
func (e *Executor) invalidate(t *graph.Target) {
	if len(t.Outputs) > 0 {
		for _, out := range t.Outputs {
			e.statCache.Remove(out)
		}
		return
	}
	e.statCache.Remove(t.OutPath)
}
