package loader

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/fsutil"
	"github.com/masonbuild/mason/internal/schema"
	"github.com/masonbuild/mason/internal/variant"
)

// DescriptionFileName is the per-directory build description file.
// Description files are never themselves treated as buildable targets.
const DescriptionFileName = "build.hcl"

// Loader discovers and evaluates every build description under a source
// root.
type Loader struct {
	parser *hclparse.Parser
}

// New returns a Loader ready for a single Load call.
func New() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load walks the source tree rooted at root, evaluates every build.hcl
// innermost-first, and returns the aggregated, root-relative description.
// Expressions inside descriptions may reference the selected variant via the
// `variant` object (e.g. variant.name).
func (l *Loader) Load(ctx context.Context, root string, v *variant.Variant) (*config.Description, error) {
	logger := ctxlog.FromContext(ctx)

	// The root output tree and hidden directories at any depth are never
	// part of the source tree walk; this also keeps the engine's own state
	// out of the graph.
	ignore := []string{variant.OutDirName, ".*", "**/.*"}
	files, err := fsutil.FindFilesByName(root, DescriptionFileName, ignore)
	if err != nil {
		return nil, fmt.Errorf("searching for %s files: %w", DescriptionFileName, err)
	}
	logger.Debug("Discovered build descriptions.", "count", len(files))

	scopes := make(map[string]*scope, len(files))
	dirs := make([]string, 0, len(files))
	for _, f := range files {
		dir := path.Dir(f)
		dirs = append(dirs, dir)
		s, err := l.evaluate(ctx, root, dir, v)
		if err != nil {
			return nil, err
		}
		scopes[dir] = s
	}

	rootScope, ok := scopes["."]
	if !ok {
		return nil, fmt.Errorf("no %s found at source root %s", DescriptionFileName, root)
	}

	// Deeper directories merge first, so every child scope is fully folded
	// into its parent before that parent merges upward itself. This is the
	// explicit equivalent of evaluating nested descriptions on a call stack.
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	for _, dir := range dirs {
		if dir == "." {
			continue
		}
		parent, parentDir := nearestAncestor(scopes, dir)
		prefix, err := relDir(parentDir, dir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Merging scope into parent.", "dir", dir, "parent", parentDir)
		parent.mergeChild(scopes[dir], prefix)
	}

	desc := rootScope.description()
	logger.Debug("Description aggregated.",
		"sources", len(desc.Sources), "targets", len(desc.Targets),
		"generates", len(desc.Generates), "flag_dirs", len(desc.Flags))
	return desc, nil
}

// evaluate parses and decodes one directory's build.hcl into a fresh scope.
func (l *Loader) evaluate(ctx context.Context, root, dir string, v *variant.Variant) (*scope, error) {
	logger := ctxlog.FromContext(ctx)
	filePath := path.Join(root, dir, DescriptionFileName)
	logger.Debug("Evaluating build description.", "path", filePath)

	hclFile, diags := l.parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filePath, diags)
	}

	var cfg schema.BuildConfig
	if diags := gohcl.DecodeBody(hclFile.Body, evalContext(v), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filePath, diags)
	}

	s := newScope(dir)
	for _, src := range cfg.Srcs {
		for _, f := range src.Files {
			s.sources = append(s.sources, &config.Source{
				Path:     f,
				Dir:      ".",
				Language: src.Language,
			})
		}
	}
	for _, fs := range cfg.Flags {
		byLang, ok := s.flags["."]
		if !ok {
			byLang = make(map[string]*config.Flags)
			s.flags["."] = byLang
		}
		if _, dup := byLang[fs.Language]; dup {
			return nil, fmt.Errorf("%s: duplicate flags block for language %q", filePath, fs.Language)
		}
		byLang[fs.Language] = &config.Flags{Compile: fs.Compile, Link: fs.Link}
	}
	for _, t := range cfg.Targets {
		kind := config.TargetKind(t.Kind)
		switch kind {
		case config.KindBinary, config.KindArchive, config.KindSharedLibrary:
		default:
			return nil, fmt.Errorf("%s: unknown target kind %q for target %q", filePath, t.Kind, t.Name)
		}
		s.targets = append(s.targets, &config.Target{
			Name:      t.Name,
			Dir:       ".",
			Kind:      kind,
			Objects:   t.Objects,
			Archives:  t.Archives,
			Libraries: t.Libraries,
			DependsOn: t.DependsOn,
		})
	}
	for _, g := range cfg.Generates {
		s.generates = append(s.generates, &config.Generate{
			Name:            g.Name,
			Dir:             ".",
			Schema:          g.Schema,
			Outputs:         g.Outputs,
			Language:        g.Language,
			SuppressWarning: g.SuppressWarning,
		})
	}
	return s, nil
}

// evalContext exposes the selected variant to description expressions.
func evalContext(v *variant.Variant) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"variant": cty.ObjectVal(map[string]cty.Value{
				"name": cty.StringVal(v.Name),
			}),
		},
	}
}

func depth(dir string) int {
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

// nearestAncestor finds the closest enclosing directory that carries its own
// scope. The root scope always exists, so the walk terminates.
func nearestAncestor(scopes map[string]*scope, dir string) (*scope, string) {
	for d := path.Dir(dir); ; d = path.Dir(d) {
		if s, ok := scopes[d]; ok {
			return s, d
		}
		if d == "." {
			// Unreachable once the root scope is present.
			return scopes["."], "."
		}
	}
}

// relDir computes child's path relative to ancestor, both root-relative.
func relDir(ancestor, child string) (string, error) {
	if ancestor == "." {
		return child, nil
	}
	if !strings.HasPrefix(child, ancestor+"/") {
		return "", fmt.Errorf("directory %q is not nested under %q", child, ancestor)
	}
	return child[len(ancestor)+1:], nil
}
