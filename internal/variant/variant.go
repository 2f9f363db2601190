// Package variant implements the build-configuration dispatcher. A variant
// is a named flag profile paired with an isolated output tree; selecting one
// decides where artifacts go and which baseline flags every compile and link
// sees.
package variant

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutDirName is the directory under the source root that holds every
// variant's output tree.
const OutDirName = "out"

// Variant is a named build configuration. It is created once per run and
// immutable thereafter.
type Variant struct {
	// Name identifies the variant ("release", "debug", "coverage").
	Name string
	// OutDir is the variant's isolated output tree root (absolute).
	OutDir string
	// Compile holds the profile's baseline compile flags, keyed by language.
	Compile map[string][]string
	// Link holds the profile's baseline link flags.
	Link []string
}

// profiles defines the built-in flag profiles. Language keys match the
// labels used in build.hcl src blocks.
var profiles = map[string]struct {
	compile map[string][]string
	link    []string
}{
	"release": {
		compile: map[string][]string{
			"c":   {"-O2", "-DNDEBUG"},
			"cxx": {"-O2", "-DNDEBUG"},
		},
	},
	"debug": {
		compile: map[string][]string{
			"c":   {"-g", "-O0"},
			"cxx": {"-g", "-O0"},
		},
	},
	"coverage": {
		compile: map[string][]string{
			"c":   {"--coverage", "-g", "-O0"},
			"cxx": {"--coverage", "-g", "-O0"},
		},
		link: []string{"--coverage"},
	},
}

// IsVariant reports whether name names a known variant.
func IsVariant(name string) bool {
	_, ok := profiles[name]
	return ok
}

// Select resolves the requested goal and environment hints into a concrete
// variant and the goal to forward into its engine run. A goal naming a known
// variant selects it and forwards the "everything" goal (empty string). Any
// other goal is forwarded unmodified into the default variant: release, or
// debug when the debug hint is set.
func Select(root, goal string, debugHint bool) (*Variant, string) {
	name := "release"
	forward := goal
	if IsVariant(goal) {
		name = goal
		forward = ""
	} else if debugHint {
		name = "debug"
	}

	p := profiles[name]
	compile := make(map[string][]string, len(p.compile))
	for lang, flags := range p.compile {
		compile[lang] = append([]string(nil), flags...)
	}

	v := &Variant{
		Name:    name,
		OutDir:  filepath.Join(root, OutDirName, name),
		Compile: compile,
		Link:    append([]string(nil), p.link...),
	}
	return v, forward
}

// EnsureOutDir creates the variant's output tree root if absent. It is
// idempotent.
func (v *Variant) EnsureOutDir() error {
	if err := os.MkdirAll(v.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output tree %s: %w", v.OutDir, err)
	}
	return nil
}

// CleanAll removes every variant's output tree under the source root.
func CleanAll(root string) error {
	if err := os.RemoveAll(filepath.Join(root, OutDirName)); err != nil {
		return fmt.Errorf("removing output trees: %w", err)
	}
	return nil
}
