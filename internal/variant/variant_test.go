package variant_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/variant"
)

func TestSelectVariantGoal(t *testing.T) {
	v, forward := variant.Select("/src", "debug", false)
	assert.Equal(t, "debug", v.Name)
	assert.Equal(t, "", forward)
	assert.Equal(t, filepath.Join("/src", "out", "debug"), v.OutDir)
	assert.Equal(t, []string{"-g", "-O0"}, v.Compile["c"])
}

func TestSelectForwardsTargetGoal(t *testing.T) {
	v, forward := variant.Select("/src", "lib/libutil.a", false)
	assert.Equal(t, "release", v.Name)
	assert.Equal(t, "lib/libutil.a", forward)
}

func TestSelectDebugHintAppliesToDefaultOnly(t *testing.T) {
	v, forward := variant.Select("/src", "", true)
	assert.Equal(t, "debug", v.Name)
	assert.Equal(t, "", forward)

	// An explicit variant goal wins over the hint.
	v, _ = variant.Select("/src", "release", true)
	assert.Equal(t, "release", v.Name)
}

func TestSelectCoverageProfileLinksInstrumented(t *testing.T) {
	v, _ := variant.Select("/src", "coverage", false)
	assert.Contains(t, v.Compile["cxx"], "--coverage")
	assert.Equal(t, []string{"--coverage"}, v.Link)
}

func TestEnsureOutDirIsIdempotent(t *testing.T) {
	root := t.TempDir()
	v, _ := variant.Select(root, "release", false)
	require.NoError(t, v.EnsureOutDir())
	require.NoError(t, v.EnsureOutDir())
	info, err := os.Stat(v.OutDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanAllRemovesEveryVariantTree(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"release", "debug"} {
		v, _ := variant.Select(root, name, false)
		require.NoError(t, v.EnsureOutDir())
	}

	require.NoError(t, variant.CleanAll(root))
	_, err := os.Stat(filepath.Join(root, variant.OutDirName))
	assert.True(t, os.IsNotExist(err))

	// Cleaning an already-clean tree succeeds.
	require.NoError(t, variant.CleanAll(root))
}
