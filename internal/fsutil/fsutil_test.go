package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/fsutil"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFilesByName(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "build.hcl")
	touch(t, root, "lib/build.hcl")
	touch(t, root, "lib/inner/build.hcl")
	touch(t, root, "lib/other.txt")
	touch(t, root, "out/release/build.hcl")
	touch(t, root, ".git/build.hcl")

	files, err := fsutil.FindFilesByName(root, "build.hcl", []string{"out", ".*"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"build.hcl", "lib/build.hcl", "lib/inner/build.hcl"}, files)
}

func TestFindFilesByNameEmptyTree(t *testing.T) {
	files, err := fsutil.FindFilesByName(t.TempDir(), "build.hcl", nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel")

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("first"), 0o644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("second"), 0o644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No stray temp files remain.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	err := fsutil.WriteFileAtomic(filepath.Join(t.TempDir(), "no", "such", "dir", "f"), []byte("x"), 0o644)
	require.Error(t, err)
}
