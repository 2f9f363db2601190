// Package graph builds and represents the concrete target graph: one node
// per buildable artifact, identified by its output path, with prerequisite
// edges to other targets and to leaf files (sources, discovered headers,
// flag sentinels).
package graph

import (
	"sync"
	"sync/atomic"
)

// Kind enumerates the buildable artifact kinds.
type Kind int

const (
	// ObjectKind is a compiled object derived from one source file.
	ObjectKind Kind = iota
	// ArchiveKind is a static archive aggregating objects.
	ArchiveKind
	// BinaryKind is a statically linked executable.
	BinaryKind
	// SharedLibraryKind is a dynamically linked library.
	SharedLibraryKind
	// GeneratedSourceKind is the product of an external generation step,
	// injected as ordinary source input for later compilation.
	GeneratedSourceKind
)

func (k Kind) String() string {
	switch k {
	case ObjectKind:
		return "object"
	case ArchiveKind:
		return "archive"
	case BinaryKind:
		return "binary"
	case SharedLibraryKind:
		return "shared_library"
	case GeneratedSourceKind:
		return "generated_source"
	}
	return "unknown"
}

// State represents the execution state of a target during a run.
type State int32

const (
	// Pending indicates the target is waiting for its prerequisites.
	Pending State = iota
	// Running indicates a worker is currently processing the target.
	Running
	// Done indicates the target completed (rebuilt or found fresh).
	Done
	// Failed indicates the target's action failed or was skipped.
	Failed
)

// Target is a single vertex in the target graph. Identity is Path, which is
// globally unique. A Target is immutable once the graph is built, except for
// its execution state.
type Target struct {
	// Path is the output path relative to the variant's output tree root.
	// It is the target's global identity.
	Path string
	// OutPath is the absolute location of the produced artifact.
	OutPath string
	Kind    Kind
	// Dir is the directory whose scope declared the target; it selects the
	// flag overrides and the sentinel in effect for it.
	Dir string
	// Language is the compile language for objects and generated sources,
	// and the link driver language for binaries and shared libraries.
	Language string
	// Source is the absolute input path: the translation unit for objects,
	// the schema file for generated sources.
	Source string
	// Outputs lists every file a generated-source target produces
	// (absolute). Empty for other kinds.
	Outputs []string
	// Inputs are the absolute artifact paths fed to the archive or link
	// command, in declaration order.
	Inputs []string
	// Libraries names external link libraries for binaries.
	Libraries []string
	// SuppressWarning is the warning class annotated into generated files.
	SuppressWarning string

	// Deps are prerequisite targets, keyed by identity.
	Deps map[string]*Target
	// Dependents are the reverse edges, keyed by identity.
	Dependents map[string]*Target
	// FileDeps are absolute leaf prerequisites: source files, discovered
	// headers and the directory's flag sentinel.
	FileDeps []string
	// Marker is the per-directory existence marker (absolute). It is an
	// order-only prerequisite: it must exist before the action runs but its
	// timestamp never makes the target stale.
	Marker string

	// Err records the failure that stopped this target, if any.
	Err error

	depCount atomic.Int32
	state    atomic.Int32
	rebuilt  atomic.Bool
	skipOnce sync.Once
}

// SetInitialCounters seeds the unmet-prerequisite counter from the target's
// edges.
func (t *Target) SetInitialCounters() {
	t.depCount.Store(int32(len(t.Deps)))
}

// DepCount atomically returns the number of unmet prerequisites.
func (t *Target) DepCount() int32 {
	return t.depCount.Load()
}

// DecrementDepCount atomically decrements the prerequisite counter and
// returns the new value.
func (t *Target) DecrementDepCount() int32 {
	return t.depCount.Add(-1)
}

// SetState atomically sets the target's execution state.
func (t *Target) SetState(s State) {
	t.state.Store(int32(s))
}

// GetState atomically retrieves the target's execution state.
func (t *Target) GetState() State {
	return State(t.state.Load())
}

// MarkRebuilt records that this run executed the target's action.
func (t *Target) MarkRebuilt() {
	t.rebuilt.Store(true)
}

// WasRebuilt reports whether this run executed the target's action.
func (t *Target) WasRebuilt() bool {
	return t.rebuilt.Load()
}

// Skip marks the target failed exactly once, returning true on the first
// call.
func (t *Target) Skip(err error, done func()) bool {
	var wasSkipped bool
	t.skipOnce.Do(func() {
		t.SetState(Failed)
		t.Err = err
		done()
		wasSkipped = true
	})
	return wasSkipped
}

// Graph is the complete target graph for one variant run.
type Graph struct {
	// Targets holds every node, keyed by identity (root-relative output
	// path).
	Targets map[string]*Target
}

// InitCounters seeds every target's prerequisite counter. Called once before
// execution.
func (g *Graph) InitCounters() {
	for _, t := range g.Targets {
		t.SetInitialCounters()
	}
}
