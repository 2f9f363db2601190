// Package schema defines the HCL shapes of mason's on-disk description
// files: the per-directory build.hcl and the optional project-wide
// toolchain.hcl override.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Per-directory build description (build.hcl) ---

// Src declares the source files of one language in the enclosing directory.
type Src struct {
	Language string   `hcl:"language,label"`
	Files    []string `hcl:"files"`
}

// FlagSet declares directory-scoped compile/link flag overrides for one
// language.
type FlagSet struct {
	Language string   `hcl:"language,label"`
	Compile  []string `hcl:"compile,optional"`
	Link     []string `hcl:"link,optional"`
}

// Target declares a buildable output. Kind is one of "binary", "archive" or
// "shared_library". All member paths are relative to the enclosing directory.
type Target struct {
	Kind      string   `hcl:"kind,label"`
	Name      string   `hcl:"name,label"`
	Objects   []string `hcl:"objects,optional"`
	Archives  []string `hcl:"archives,optional"`
	Libraries []string `hcl:"libraries,optional"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// Generate declares an external generation step turning a schema file into
// derived sources of the given language before compilation.
type Generate struct {
	Name            string   `hcl:"name,label"`
	Schema          string   `hcl:"schema"`
	Outputs         []string `hcl:"outputs"`
	Language        string   `hcl:"language"`
	SuppressWarning string   `hcl:"suppress_warning,optional"`
}

// BuildConfig is the top-level structure of a build.hcl file.
type BuildConfig struct {
	Srcs      []*Src      `hcl:"src,block"`
	Flags     []*FlagSet  `hcl:"flags,block"`
	Targets   []*Target   `hcl:"target,block"`
	Generates []*Generate `hcl:"generate,block"`
	Body      hcl.Body    `hcl:",remain"`
}

// --- Project-wide toolchain override (toolchain.hcl) ---

// ToolchainBlock supplies tool paths and project-wide extra flags.
type ToolchainBlock struct {
	CC        string     `hcl:"cc,optional"`
	CXX       string     `hcl:"cxx,optional"`
	AR        string     `hcl:"ar,optional"`
	Generator string     `hcl:"generator,optional"`
	Flags     []*FlagSet `hcl:"flags,block"`
}

// ToolchainConfig is the top-level structure of a toolchain.hcl file.
type ToolchainConfig struct {
	Toolchain *ToolchainBlock `hcl:"toolchain,block"`
	Body      hcl.Body        `hcl:",remain"`
}
