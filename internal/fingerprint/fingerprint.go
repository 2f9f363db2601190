// Package fingerprint computes per-directory flag signatures and maintains
// their on-disk sentinel files. A compile sentinel's content is a hash of
// the compiler's verbose dump under the full effective flag set; a link
// sentinel hashes the drivers and the effective link flags. Overwriting a
// sentinel on change bumps its modification time, which forces rebuilding of
// every dependent artifact through ordinary staleness propagation.
package fingerprint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/fsutil"
	"github.com/masonbuild/mason/internal/toolchain"
	"github.com/masonbuild/mason/internal/variant"
)

// Key identifies one sentinel: a source directory and a language with at
// least one source file there, or a directory's link flag set.
type Key struct {
	Dir      string
	Language string
}

// LinkLanguage is the pseudo-language keying a directory's link flag
// sentinel. It cannot collide with a real src block label because link flag
// sets are not per-language.
const LinkLanguage = "link"

// Oracle recomputes and refreshes flag sentinels.
type Oracle struct {
	tc *toolchain.Toolchain
}

// NewOracle returns an Oracle backed by the given toolchain.
func NewOracle(tc *toolchain.Toolchain) *Oracle {
	return &Oracle{tc: tc}
}

// SentinelPath returns the sentinel file location for a (directory,
// language) pair inside the variant's output tree.
func SentinelPath(v *variant.Variant, dir, lang string) string {
	return filepath.Join(v.OutDir, dir, ".flags-"+lang)
}

// Refresh recomputes the signature of every (directory, language) pair that
// declares at least one source, plus the link flag signature of every
// directory declaring a linked target, compares each against its persisted
// sentinel, and overwrites the sentinel only when the signature changed. It
// returns the sentinel path for every key. A failed signature computation is
// fatal: no compile may proceed on an unverified flag set.
func (o *Oracle) Refresh(ctx context.Context, root string, v *variant.Variant, desc *config.Description) (map[Key]string, error) {
	logger := ctxlog.FromContext(ctx)

	keys := make(map[Key]struct{})
	for _, src := range desc.Sources {
		keys[Key{Dir: src.Dir, Language: src.Language}] = struct{}{}
	}
	for _, gen := range desc.Generates {
		keys[Key{Dir: gen.Dir, Language: gen.Language}] = struct{}{}
	}

	sentinels := make(map[Key]string, len(keys))
	for key := range keys {
		flags := o.tc.CompileFlags(v, desc, key.Dir, key.Language)
		dump, err := o.tc.FlagDump(ctx, root, key.Language, flags)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting %s (%s): %w", key.Dir, key.Language, err)
		}
		path, err := o.refreshSentinel(logger, v, Key{Dir: key.Dir, Language: key.Language}, dump)
		if err != nil {
			return nil, err
		}
		sentinels[key] = path
	}

	// Link flag sets have no compiler-implicit component beyond the driver
	// itself, so their signature hashes the drivers and the effective flags
	// directly instead of a compiler dump.
	for _, t := range desc.Targets {
		if t.Kind != config.KindBinary && t.Kind != config.KindSharedLibrary {
			continue
		}
		key := Key{Dir: t.Dir, Language: LinkLanguage}
		if _, done := sentinels[key]; done {
			continue
		}
		flags := o.tc.LinkFlags(v, desc, t.Dir)
		content := fmt.Sprintf("drivers: %s %s\nflags: %s\n",
			o.tc.CC, o.tc.CXX, strings.Join(flags, " "))
		path, err := o.refreshSentinel(logger, v, key, []byte(content))
		if err != nil {
			return nil, err
		}
		sentinels[key] = path
	}
	return sentinels, nil
}

// refreshSentinel hashes one signature input and rewrites the key's sentinel
// only if the signature differs from the persisted one.
func (o *Oracle) refreshSentinel(logger *slog.Logger, v *variant.Variant, key Key, input []byte) (string, error) {
	sum := blake3.Sum256(input)
	signature := hex.EncodeToString(sum[:])

	path := SentinelPath(v, key.Dir, key.Language)
	previous, readErr := os.ReadFile(path)
	if readErr == nil && string(previous) == signature {
		logger.Debug("Flag sentinel unchanged.", "dir", key.Dir, "language", key.Language)
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating sentinel directory for %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(signature), 0o644); err != nil {
		return "", fmt.Errorf("writing sentinel %s: %w", path, err)
	}
	logger.Info("Effective flags changed, sentinel refreshed.",
		"dir", key.Dir, "language", key.Language)
	return path, nil
}
