package depstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/depstore"
)

func TestSaveAndLoadAll(t *testing.T) {
	outDir := t.TempDir()
	store := depstore.New(outDir)

	require.NoError(t, store.Save("lib/util.o", []string{"lib/util.h", "/usr/include/stdio.h"}))
	require.NoError(t, store.Save("main.o", nil))

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"lib/util.h", "/usr/include/stdio.h"}, records["lib/util.o"])
	assert.Empty(t, records["main.o"])
}

func TestLoadAllWithoutOutputTree(t *testing.T) {
	store := depstore.New(filepath.Join(t.TempDir(), "never-built"))
	records, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadAllSkipsUnparsableRecords(t *testing.T) {
	outDir := t.TempDir()
	store := depstore.New(outDir)
	require.NoError(t, store.Save("a.o", []string{"a.h"}))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "broken.o.deps"), []byte("{not yaml"), 0o644))

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records, "a.o")
}
