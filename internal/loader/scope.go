package loader

import (
	"path"

	"github.com/masonbuild/mason/internal/config"
)

// scope holds the declarations local to one directory during loading. All
// paths inside a scope are relative to the scope's own directory until the
// scope is merged into its parent.
type scope struct {
	// dir is the scope's directory relative to the source root, for
	// diagnostics only; merge arithmetic uses explicit prefixes.
	dir string

	sources   []*config.Source
	targets   []*config.Target
	generates []*config.Generate
	// flags is keyed by directory relative to this scope ("." for the
	// scope's own overrides), then by language.
	flags map[string]map[string]*config.Flags
}

func newScope(dir string) *scope {
	return &scope{
		dir:   dir,
		flags: make(map[string]map[string]*config.Flags),
	}
}

// rewrite prefixes a scope-relative path with the child directory, keeping
// "." stable for the scope's own directory key.
func rewrite(prefix, p string) string {
	if prefix == "" || prefix == "." {
		return p
	}
	return path.Join(prefix, p)
}

// mergeChild folds a fully evaluated child scope into this one. prefix is
// the child's directory relative to this scope. Lists are concatenated with
// path rewrite; flag overrides become directory-keyed map entries and are
// never concatenated.
func (s *scope) mergeChild(child *scope, prefix string) {
	for _, src := range child.sources {
		s.sources = append(s.sources, &config.Source{
			Path:     rewrite(prefix, src.Path),
			Dir:      rewrite(prefix, src.Dir),
			Language: src.Language,
		})
	}
	for _, t := range child.targets {
		s.targets = append(s.targets, &config.Target{
			Name:      rewrite(prefix, t.Name),
			Dir:       rewrite(prefix, t.Dir),
			Kind:      t.Kind,
			Objects:   rewriteAll(prefix, t.Objects),
			Archives:  rewriteAll(prefix, t.Archives),
			Libraries: t.Libraries,
			DependsOn: rewriteAll(prefix, t.DependsOn),
		})
	}
	for _, g := range child.generates {
		s.generates = append(s.generates, &config.Generate{
			Name:            rewrite(prefix, g.Name),
			Dir:             rewrite(prefix, g.Dir),
			Schema:          rewrite(prefix, g.Schema),
			Outputs:         rewriteAll(prefix, g.Outputs),
			Language:        g.Language,
			SuppressWarning: g.SuppressWarning,
		})
	}
	for dir, byLang := range child.flags {
		s.flags[rewrite(prefix, dir)] = byLang
	}
}

func rewriteAll(prefix string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = rewrite(prefix, p)
	}
	return out
}

// description freezes a fully merged root scope into the aggregated model.
func (s *scope) description() *config.Description {
	flags := make(map[string]map[string]*config.Flags, len(s.flags))
	for dir, byLang := range s.flags {
		flags[dir] = byLang
	}
	return &config.Description{
		Sources:   s.sources,
		Targets:   s.targets,
		Generates: s.generates,
		Flags:     flags,
	}
}
