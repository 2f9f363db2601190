package config

// Description is the aggregated result of loading every build.hcl under the
// source root. All paths are expressed relative to the source root,
// regardless of which directory declared them.
type Description struct {
	// Sources lists every declared source file, in declaration order.
	Sources []*Source
	// Targets lists every declared output target, in declaration order.
	Targets []*Target
	// Generates lists every declared generation rule.
	Generates []*Generate
	// Flags maps a directory (root-relative, "." for the root) to its
	// declared flag overrides, keyed by language. A directory's entry never
	// combines with a sibling's.
	Flags map[string]map[string]*Flags
}

// Source is one declared source file.
type Source struct {
	// Path is the source file path relative to the source root.
	Path string
	// Dir is the directory that declared it, relative to the source root.
	Dir string
	// Language is the declaring src block's language label (e.g. "c").
	Language string
}

// TargetKind enumerates the declarable output target kinds.
type TargetKind string

const (
	KindBinary        TargetKind = "binary"
	KindArchive       TargetKind = "archive"
	KindSharedLibrary TargetKind = "shared_library"
)

// Target is one declared output target.
type Target struct {
	// Name is the output path relative to the source root. It is the
	// target's global identity.
	Name string
	// Dir is the directory that declared it.
	Dir  string
	Kind TargetKind
	// Objects, Archives and DependsOn reference other outputs by their
	// root-relative paths. Libraries name external link libraries (-l).
	Objects   []string
	Archives  []string
	Libraries []string
	DependsOn []string
}

// Generate is one declared generation rule.
type Generate struct {
	// Name is the rule's root-relative identity (directory-prefixed label).
	Name string
	// Dir is the directory that declared it.
	Dir string
	// Schema is the root-relative input schema file.
	Schema string
	// Outputs are the derived files, relative to the source root; they are
	// produced inside the variant's output tree and injected as ordinary
	// sources of Language.
	Outputs []string
	// Language is the language of the derived sources.
	Language string
	// SuppressWarning names one compiler warning class (without the -W
	// prefix) to be suppressed within the generated files only.
	SuppressWarning string
}

// Flags holds one directory's compile/link overrides for one language.
type Flags struct {
	Compile []string
	Link    []string
}
