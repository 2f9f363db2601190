package graph

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/fingerprint"
	"github.com/masonbuild/mason/internal/loader"
	"github.com/masonbuild/mason/internal/toolchain"
	"github.com/masonbuild/mason/internal/variant"
)

// patternRules maps a source extension to its compile language. An extension
// with no entry has no pattern rule and is a fatal error.
var patternRules = map[string]string{
	".c":   "c",
	".cc":  "cxx",
	".cpp": "cxx",
}

// MarkerName is the per-directory existence marker file.
const MarkerName = ".dirstamp"

// Build turns an aggregated description into a concrete target graph for one
// variant. records supplies previously discovered header edges keyed by
// object path; sentinels supplies the flag sentinel path per (directory,
// language).
func Build(ctx context.Context, desc *config.Description, v *variant.Variant, root string,
	records map[string][]string, sentinels map[fingerprint.Key]string) (*Graph, error) {

	logger := ctxlog.FromContext(ctx)
	b := &builder{
		g:          &Graph{Targets: make(map[string]*Target)},
		v:          v,
		root:       root,
		sentinels:  sentinels,
		declaredBy: make(map[string]string),
	}

	if err := b.addGeneratedSources(desc); err != nil {
		return nil, err
	}
	if err := b.addObjects(desc); err != nil {
		return nil, err
	}
	if err := b.addDeclaredTargets(desc); err != nil {
		return nil, err
	}
	if err := b.linkDeclaredTargets(desc); err != nil {
		return nil, err
	}
	b.mergeDependencyRecords(records)
	b.attachMarkers()

	if err := b.g.detectCycles(); err != nil {
		return nil, fmt.Errorf("validating target graph: %w", err)
	}
	logger.Debug("Target graph built.", "targets", len(b.g.Targets))
	return b.g, nil
}

type builder struct {
	g         *Graph
	v         *variant.Variant
	root      string
	sentinels map[fingerprint.Key]string
	// declaredBy remembers which directory declared each identity, for the
	// duplicate-target diagnostic.
	declaredBy map[string]string
}

// add inserts a target, enforcing global identity uniqueness and the
// self-protection rule that description files are never buildable targets.
func (b *builder) add(t *Target, declaringDir string) error {
	base := path.Base(t.Path)
	if base == loader.DescriptionFileName || base == toolchain.OverrideFileName {
		return fmt.Errorf("target %q would overwrite a build description file", t.Path)
	}
	if prev, ok := b.g.Targets[t.Path]; ok {
		return fmt.Errorf("duplicate target %q declared by %s and %s",
			t.Path, b.declaredBy[prev.Path], declaringDir)
	}
	t.Deps = make(map[string]*Target)
	t.Dependents = make(map[string]*Target)
	b.g.Targets[t.Path] = t
	b.declaredBy[t.Path] = declaringDir
	return nil
}

// addGeneratedSources creates one target per generate rule and injects its
// compilable outputs as sources.
func (b *builder) addGeneratedSources(desc *config.Description) error {
	for _, gen := range desc.Generates {
		if len(gen.Outputs) == 0 {
			return fmt.Errorf("generate rule %q declares no outputs", gen.Name)
		}
		var outputs []string
		for _, out := range gen.Outputs {
			outputs = append(outputs, filepath.Join(b.v.OutDir, out))
		}
		t := &Target{
			Path:            gen.Outputs[0],
			OutPath:         filepath.Join(b.v.OutDir, gen.Outputs[0]),
			Kind:            GeneratedSourceKind,
			Dir:             gen.Dir,
			Language:        gen.Language,
			Source:          filepath.Join(b.root, gen.Schema),
			Outputs:         outputs,
			SuppressWarning: gen.SuppressWarning,
			FileDeps:        []string{filepath.Join(b.root, gen.Schema)},
		}
		if err := b.add(t, gen.Dir); err != nil {
			return err
		}

		// Derived outputs compile like ordinary sources of the rule's
		// language, except their translation units live in the output tree.
		for _, out := range gen.Outputs {
			ext := path.Ext(out)
			if _, compilable := patternRules[ext]; !compilable {
				continue
			}
			obj, err := b.objectTarget(out, gen.Dir, gen.Language, filepath.Join(b.v.OutDir, out))
			if err != nil {
				return err
			}
			obj.Deps[t.Path] = t
			t.Dependents[obj.Path] = obj
		}
	}
	return nil
}

// addObjects derives one object target per declared source via pattern
// matching.
func (b *builder) addObjects(desc *config.Description) error {
	for _, src := range desc.Sources {
		ext := path.Ext(src.Path)
		if _, ok := patternRules[ext]; !ok {
			return fmt.Errorf("no pattern rule for source file %q (extension %q)", src.Path, ext)
		}
		if _, err := b.objectTarget(src.Path, src.Dir, src.Language, filepath.Join(b.root, src.Path)); err != nil {
			return err
		}
	}
	return nil
}

// objectTarget creates the object node for one translation unit. srcPath is
// root-relative; absSrc is where the unit actually lives (source tree, or
// output tree for generated sources).
func (b *builder) objectTarget(srcPath, dir, lang, absSrc string) (*Target, error) {
	ext := path.Ext(srcPath)
	objPath := strings.TrimSuffix(srcPath, ext) + ".o"

	sentinel, ok := b.sentinels[fingerprint.Key{Dir: dir, Language: lang}]
	if !ok {
		return nil, fmt.Errorf("no flag sentinel for %s (%s)", dir, lang)
	}

	t := &Target{
		Path:     objPath,
		OutPath:  filepath.Join(b.v.OutDir, objPath),
		Kind:     ObjectKind,
		Dir:      dir,
		Language: lang,
		Source:   absSrc,
		FileDeps: []string{absSrc, sentinel},
	}
	if err := b.add(t, dir); err != nil {
		return nil, err
	}
	return t, nil
}

// addDeclaredTargets creates nodes for every declared aggregation or link
// target. Linking happens in a second pass once every node exists.
func (b *builder) addDeclaredTargets(desc *config.Description) error {
	for _, decl := range desc.Targets {
		var kind Kind
		switch decl.Kind {
		case config.KindArchive:
			kind = ArchiveKind
		case config.KindBinary:
			kind = BinaryKind
		case config.KindSharedLibrary:
			kind = SharedLibraryKind
		default:
			return fmt.Errorf("target %q has unknown kind %q", decl.Name, decl.Kind)
		}
		t := &Target{
			Path:      decl.Name,
			OutPath:   filepath.Join(b.v.OutDir, decl.Name),
			Kind:      kind,
			Dir:       decl.Dir,
			Libraries: decl.Libraries,
		}
		if kind == BinaryKind || kind == SharedLibraryKind {
			// Linked targets depend on their directory's link flag sentinel
			// the same way objects depend on the compile one.
			sentinel, ok := b.sentinels[fingerprint.Key{Dir: decl.Dir, Language: fingerprint.LinkLanguage}]
			if !ok {
				return fmt.Errorf("no link flag sentinel for %s", decl.Dir)
			}
			t.FileDeps = append(t.FileDeps, sentinel)
		}
		if err := b.add(t, decl.Dir); err != nil {
			return err
		}
	}
	return nil
}

// linkDeclaredTargets establishes prerequisite edges for declared targets:
// constituent objects and archives, plus explicit depends_on declarations.
func (b *builder) linkDeclaredTargets(desc *config.Description) error {
	for _, decl := range desc.Targets {
		t := b.g.Targets[decl.Name]
		for _, obj := range decl.Objects {
			dep, ok := b.g.Targets[obj]
			if !ok || dep.Kind != ObjectKind {
				return fmt.Errorf("target %q lists unknown object %q", decl.Name, obj)
			}
			b.link(t, dep)
			t.Inputs = append(t.Inputs, dep.OutPath)
		}
		for _, arc := range decl.Archives {
			dep, ok := b.g.Targets[arc]
			if !ok || (dep.Kind != ArchiveKind && dep.Kind != SharedLibraryKind) {
				return fmt.Errorf("target %q lists unknown archive %q", decl.Name, arc)
			}
			b.link(t, dep)
			t.Inputs = append(t.Inputs, dep.OutPath)
		}
		for _, extra := range decl.DependsOn {
			dep, ok := b.g.Targets[extra]
			if !ok {
				return fmt.Errorf("target %q depends on unknown target %q", decl.Name, extra)
			}
			b.link(t, dep)
		}
		if t.Kind == BinaryKind || t.Kind == SharedLibraryKind {
			t.Language = linkDriver(t)
		}
	}
	return nil
}

func (b *builder) link(t, dep *Target) {
	if t == dep {
		return
	}
	t.Deps[dep.Path] = dep
	dep.Dependents[t.Path] = t
}

// linkDriver picks the compiler driver for a link: cxx as soon as any
// reachable object is C++, else c.
func linkDriver(t *Target) string {
	seen := make(map[string]bool)
	var walk func(*Target) bool
	walk = func(n *Target) bool {
		if seen[n.Path] {
			return false
		}
		seen[n.Path] = true
		if n.Kind == ObjectKind && n.Language == "cxx" {
			return true
		}
		for _, dep := range n.Deps {
			if walk(dep) {
				return true
			}
		}
		return false
	}
	if walk(t) {
		return "cxx"
	}
	return "c"
}

// mergeDependencyRecords attaches previously discovered header edges to
// their objects. Records for objects that no longer exist are ignored.
func (b *builder) mergeDependencyRecords(records map[string][]string) {
	for objPath, headers := range records {
		t, ok := b.g.Targets[objPath]
		if !ok || t.Kind != ObjectKind {
			continue
		}
		for _, h := range headers {
			abs := h
			if !filepath.IsAbs(h) {
				abs = filepath.Join(b.root, h)
			}
			t.FileDeps = append(t.FileDeps, abs)
		}
	}
}

// attachMarkers assigns each target its directory's existence marker.
func (b *builder) attachMarkers() {
	for _, t := range b.g.Targets {
		t.Marker = filepath.Join(filepath.Dir(t.OutPath), MarkerName)
	}
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(t *Target) error
	visit = func(t *Target) error {
		visiting[t.Path] = true
		for _, dep := range t.Deps {
			if visiting[dep.Path] {
				return fmt.Errorf("cycle detected involving %q", dep.Path)
			}
			if !visited[dep.Path] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, t.Path)
		visited[t.Path] = true
		return nil
	}

	for _, t := range g.Targets {
		if !visited[t.Path] {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}
