package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// extForLang maps a language to the file extension of an empty translation
// unit for that language.
var extForLang = map[string]string{
	"c":   ".c",
	"cxx": ".cc",
}

// FlagDump invokes the compiler on an empty translation unit with the full
// effective flag set, requesting its verbose output. The dump
// deterministically encodes compiler identity, target architecture and every
// active flag; callers hash it into a flag fingerprint. A failed invocation
// is an error — fingerprinting must never proceed on an unverified flag set.
func (tc *Toolchain) FlagDump(ctx context.Context, root, lang string, flags []string) ([]byte, error) {
	compiler, err := tc.Compiler(lang)
	if err != nil {
		return nil, err
	}
	ext, ok := extForLang[lang]
	if !ok {
		return nil, fmt.Errorf("no empty translation unit known for language %q", lang)
	}

	tmp, err := os.CreateTemp("", "mason-empty-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("creating empty translation unit: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	args := append([]string{}, flags...)
	args = append(args, "-v", "-E", tmp.Name())

	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("flag fingerprint: %s failed: %w\n%s", compiler, err, out.String())
	}

	// The dump itself can mention the temp file path; normalize it out so
	// the signature is stable across runs.
	text := strings.ReplaceAll(out.String(), tmp.Name(), "<empty-tu>")
	text = strings.ReplaceAll(text, filepath.Base(tmp.Name()), "<empty-tu>")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "compiler: %s\n", compiler)
	fmt.Fprintf(&buf, "flags: %s\n", strings.Join(flags, " "))
	buf.WriteString(text)
	return buf.Bytes(), nil
}
