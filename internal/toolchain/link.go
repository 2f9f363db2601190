package toolchain

import (
	"context"
	"fmt"
	"os"
)

// Archive creates a static archive from the given object files.
func (tc *Toolchain) Archive(ctx context.Context, root, out string, inputs []string) error {
	tmpOut := out + ".tmp"
	args := append([]string{"rc", tmpOut}, inputs...)
	if err := runTool(ctx, root, tc.AR, args...); err != nil {
		os.Remove(tmpOut)
		return err
	}
	if err := os.Rename(tmpOut, out); err != nil {
		os.Remove(tmpOut)
		return fmt.Errorf("finalizing %s: %w", out, err)
	}
	return nil
}

// Link statically links objects, archives and external libraries into a
// binary, using the given language's compiler driver.
func (tc *Toolchain) Link(ctx context.Context, root, lang string, flags []string, out string, inputs, libraries []string) error {
	return tc.link(ctx, root, lang, flags, out, inputs, libraries, false)
}

// LinkShared links objects into a shared library.
func (tc *Toolchain) LinkShared(ctx context.Context, root, lang string, flags []string, out string, inputs, libraries []string) error {
	return tc.link(ctx, root, lang, flags, out, inputs, libraries, true)
}

func (tc *Toolchain) link(ctx context.Context, root, lang string, flags []string, out string, inputs, libraries []string, shared bool) error {
	compiler, err := tc.Compiler(lang)
	if err != nil {
		return err
	}

	tmpOut := out + ".tmp"
	var args []string
	if shared {
		args = append(args, "-shared")
	}
	args = append(args, flags...)
	args = append(args, inputs...)
	args = append(args, "-o", tmpOut)
	for _, lib := range libraries {
		args = append(args, "-l"+lib)
	}

	if err := runTool(ctx, root, compiler, args...); err != nil {
		os.Remove(tmpOut)
		return err
	}
	if err := os.Rename(tmpOut, out); err != nil {
		os.Remove(tmpOut)
		return fmt.Errorf("finalizing %s: %w", out, err)
	}
	return nil
}
