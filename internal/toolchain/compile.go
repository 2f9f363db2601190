package toolchain

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Compile compiles one translation unit to an object file and returns the
// header files the compiler actually read, as reported by its dependency
// output. Paths are absolute; root is the working directory for the
// invocation. On any failure no partial object remains.
func (tc *Toolchain) Compile(ctx context.Context, root, lang string, flags []string, src, out string) ([]string, error) {
	compiler, err := tc.Compiler(lang)
	if err != nil {
		return nil, err
	}

	tmpOut := out + ".tmp"
	depFile := out + ".tmp.d"
	args := append([]string{}, flags...)
	args = append(args, "-MMD", "-MF", depFile, "-c", src, "-o", tmpOut)

	if err := runTool(ctx, root, compiler, args...); err != nil {
		os.Remove(tmpOut)
		os.Remove(depFile)
		return nil, err
	}

	headers, err := parseDepFile(depFile, src)
	if err != nil {
		os.Remove(tmpOut)
		os.Remove(depFile)
		return nil, err
	}
	os.Remove(depFile)

	if err := os.Rename(tmpOut, out); err != nil {
		os.Remove(tmpOut)
		return nil, fmt.Errorf("finalizing %s: %w", out, err)
	}
	return headers, nil
}

// parseDepFile reads a Make-style dependency file ("out: src hdr1 hdr2 \")
// and returns every prerequisite except the translation unit itself.
func parseDepFile(path, src string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Tools without dependency output contribute no header edges.
			return nil, nil
		}
		return nil, fmt.Errorf("reading dependency file %s: %w", path, err)
	}

	text := strings.ReplaceAll(string(data), "\\\n", " ")
	colon := strings.Index(text, ":")
	if colon < 0 {
		return nil, nil
	}
	var headers []string
	for _, f := range splitDepFields(text[colon+1:]) {
		if f == src {
			continue
		}
		headers = append(headers, f)
	}
	return headers, nil
}

// splitDepFields splits on whitespace while honoring backslash-escaped
// spaces in file names.
func splitDepFields(s string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
