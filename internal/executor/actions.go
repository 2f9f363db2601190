package executor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/masonbuild/mason/internal/graph"
)

// execute dispatches the external action for one stale target. Every action
// writes its artifact atomically, so an interrupted run leaves nothing that
// looks complete.
func (e *Executor) execute(ctx context.Context, t *graph.Target) error {
	defer e.invalidate(t)

	switch t.Kind {
	case graph.ObjectKind:
		flags := e.tc.CompileFlags(e.v, e.desc, t.Dir, t.Language)
		headers, err := e.tc.Compile(ctx, e.root, t.Language, flags, t.Source, t.OutPath)
		if err != nil {
			return err
		}
		// Persist the discovered header set so the next run sees these
		// edges before any compile happens.
		if err := e.store.Save(t.Path, headers); err != nil {
			return err
		}
		return nil

	case graph.ArchiveKind:
		return e.tc.Archive(ctx, e.root, t.OutPath, t.Inputs)

	case graph.BinaryKind:
		flags := e.tc.LinkFlags(e.v, e.desc, t.Dir)
		return e.tc.Link(ctx, e.root, t.Language, flags, t.OutPath, t.Inputs, t.Libraries)

	case graph.SharedLibraryKind:
		flags := e.tc.LinkFlags(e.v, e.desc, t.Dir)
		return e.tc.LinkShared(ctx, e.root, t.Language, flags, t.OutPath, t.Inputs, t.Libraries)

	case graph.GeneratedSourceKind:
		return e.tc.Generate(ctx, e.root, t.Source, filepath.Dir(t.OutPath), t.Outputs, t.SuppressWarning)
	}
	return fmt.Errorf("target %q has no action for kind %s", t.Path, t.Kind)
}
