package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Generate runs the external schema generator and moves its outputs into
// outDir. The generator is invoked as `<generator> -o <dir> <schema>` and
// must produce every file named in outputs (base names). When
// suppressWarning is non-empty each generated file is annotated at its top
// so that one compiler warning class is disabled within that file only.
func (tc *Toolchain) Generate(ctx context.Context, root, schemaFile, outDir string, outputs []string, suppressWarning string) error {
	if tc.Generator == "" {
		return fmt.Errorf("generating from %s: no generator configured", schemaFile)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(outDir), ".gen-*")
	if err != nil {
		return fmt.Errorf("creating generation staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := runTool(ctx, root, tc.Generator, "-o", tmpDir, schemaFile); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	for _, out := range outputs {
		name := filepath.Base(out)
		staged := filepath.Join(tmpDir, name)
		if suppressWarning != "" {
			if err := annotate(staged, suppressWarning); err != nil {
				return err
			}
		}
		if err := os.Rename(staged, filepath.Join(outDir, name)); err != nil {
			return fmt.Errorf("generator did not produce %s: %w", name, err)
		}
	}
	return nil
}

// annotate prepends a file-scoped diagnostic pragma disabling one warning
// class to a generated file.
func annotate(path, warning string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("annotating generated file %s: %w", path, err)
	}
	prologue := fmt.Sprintf("#pragma GCC diagnostic ignored \"-W%s\"\n", warning)
	return os.WriteFile(path, append([]byte(prologue), data...), 0o644)
}
