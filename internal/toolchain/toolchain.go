// Package toolchain wraps the external compiler, archiver, linker and
// schema generator. The tools are opaque to the engine: each invocation gets
// a flag list and either produces its artifact or fails. Every produced file
// is written to a temporary path and renamed into place so an interrupted
// invocation never leaves an output that looks complete.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/schema"
	"github.com/masonbuild/mason/internal/variant"
)

// OverrideFileName is the optional project-wide override file at the source
// root supplying tool paths and extra flags.
const OverrideFileName = "toolchain.hcl"

// Toolchain holds resolved tool paths and project-wide extra flags.
type Toolchain struct {
	CC        string
	CXX       string
	AR        string
	Generator string

	// ExtraCompile and ExtraLink come from the override file and apply to
	// every directory, after the variant profile and before directory
	// overrides.
	ExtraCompile map[string][]string
	ExtraLink    []string
}

// Load resolves the toolchain for a source root: built-in defaults, then the
// optional toolchain.hcl override, then the optional toolsDir prefix for
// relative tool names (the MASON_TOOLS hint).
func Load(root, toolsDir string) (*Toolchain, error) {
	tc := &Toolchain{
		CC:           "cc",
		CXX:          "c++",
		AR:           "ar",
		ExtraCompile: make(map[string][]string),
	}

	overridePath := filepath.Join(root, OverrideFileName)
	if _, err := os.Stat(overridePath); err == nil {
		if err := tc.applyOverride(overridePath); err != nil {
			return nil, err
		}
	}

	if toolsDir != "" {
		tc.CC = prefixTool(toolsDir, tc.CC)
		tc.CXX = prefixTool(toolsDir, tc.CXX)
		tc.AR = prefixTool(toolsDir, tc.AR)
		tc.Generator = prefixTool(toolsDir, tc.Generator)
	}
	return tc, nil
}

func (tc *Toolchain) applyOverride(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing %s: %w", path, diags)
	}
	var cfg schema.ToolchainConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return fmt.Errorf("decoding %s: %w", path, diags)
	}
	if cfg.Toolchain == nil {
		return nil
	}
	b := cfg.Toolchain
	if b.CC != "" {
		tc.CC = b.CC
	}
	if b.CXX != "" {
		tc.CXX = b.CXX
	}
	if b.AR != "" {
		tc.AR = b.AR
	}
	if b.Generator != "" {
		tc.Generator = b.Generator
	}
	for _, fs := range b.Flags {
		tc.ExtraCompile[fs.Language] = append(tc.ExtraCompile[fs.Language], fs.Compile...)
		tc.ExtraLink = append(tc.ExtraLink, fs.Link...)
	}
	return nil
}

func prefixTool(dir, tool string) string {
	if tool == "" || filepath.IsAbs(tool) {
		return tool
	}
	return filepath.Join(dir, tool)
}

// Compiler returns the compiler driver for a language.
func (tc *Toolchain) Compiler(lang string) (string, error) {
	switch lang {
	case "c":
		return tc.CC, nil
	case "cxx":
		return tc.CXX, nil
	}
	return "", fmt.Errorf("no compiler configured for language %q", lang)
}

// CompileFlags assembles the full effective compile flag set for one
// directory and language: variant profile, then project-wide extras, then
// the directory's own override. A directory's override never applies
// anywhere else.
func (tc *Toolchain) CompileFlags(v *variant.Variant, desc *config.Description, dir, lang string) []string {
	var flags []string
	flags = append(flags, v.Compile[lang]...)
	flags = append(flags, tc.ExtraCompile[lang]...)
	if byLang, ok := desc.Flags[dir]; ok {
		if f, ok := byLang[lang]; ok {
			flags = append(flags, f.Compile...)
		}
	}
	return flags
}

// LinkFlags assembles the effective link flag set for a target declared in
// dir. Directory overrides are appended in sorted language order so the set
// is stable across runs.
func (tc *Toolchain) LinkFlags(v *variant.Variant, desc *config.Description, dir string) []string {
	var flags []string
	flags = append(flags, v.Link...)
	flags = append(flags, tc.ExtraLink...)
	if byLang, ok := desc.Flags[dir]; ok {
		langs := make([]string, 0, len(byLang))
		for lang := range byLang {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			flags = append(flags, byLang[lang].Link...)
		}
	}
	return flags
}

// runTool executes one external tool invocation and surfaces its combined
// output on failure.
func runTool(ctx context.Context, dir, tool string, args ...string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Invoking external tool.", "tool", tool, "args", args)

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", tool, err, out.String())
	}
	return nil
}
