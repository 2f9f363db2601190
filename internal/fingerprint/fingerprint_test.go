package fingerprint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/config"
	"github.com/masonbuild/mason/internal/fingerprint"
	"github.com/masonbuild/mason/internal/testutil"
	"github.com/masonbuild/mason/internal/toolchain"
	"github.com/masonbuild/mason/internal/variant"
)

func setup(t *testing.T) (string, *variant.Variant, *toolchain.Toolchain) {
	t.Helper()
	root := t.TempDir()
	v, _ := variant.Select(root, "release", false)
	tools := testutil.WriteFakeTools(t)
	tc := &toolchain.Toolchain{
		CC:           filepath.Join(tools, "cc"),
		CXX:          filepath.Join(tools, "c++"),
		AR:           filepath.Join(tools, "ar"),
		ExtraCompile: map[string][]string{},
	}
	return root, v, tc
}

func TestRefreshCreatesAndStabilizesSentinels(t *testing.T) {
	root, v, tc := setup(t)
	desc := &config.Description{
		Sources: []*config.Source{{Path: "a.c", Dir: ".", Language: "c"}},
		Flags:   map[string]map[string]*config.Flags{},
	}

	oracle := fingerprint.NewOracle(tc)
	sentinels, err := oracle.Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)

	path := sentinels[fingerprint.Key{Dir: ".", Language: "c"}]
	require.NotEmpty(t, path)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	info1, err := os.Stat(path)
	require.NoError(t, err)

	// Unchanged flags leave the sentinel untouched, timestamp included.
	_, err = oracle.Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())

	// A flag change rewrites the sentinel with a new signature.
	desc.Flags["."] = map[string]*config.Flags{"c": {Compile: []string{"-DNEW"}}}
	_, err = oracle.Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second))
}

func TestRefreshSeparatesDirectoriesAndLanguages(t *testing.T) {
	root, v, tc := setup(t)
	desc := &config.Description{
		Sources: []*config.Source{
			{Path: "a.c", Dir: ".", Language: "c"},
			{Path: "sub/b.cc", Dir: "sub", Language: "cxx"},
		},
		Flags: map[string]map[string]*config.Flags{},
	}

	sentinels, err := fingerprint.NewOracle(tc).Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)
	require.Len(t, sentinels, 2)
	assert.NotEqual(t,
		sentinels[fingerprint.Key{Dir: ".", Language: "c"}],
		sentinels[fingerprint.Key{Dir: "sub", Language: "cxx"}])
}

func TestRefreshCoversLinkFlags(t *testing.T) {
	root, v, tc := setup(t)
	desc := &config.Description{
		Sources: []*config.Source{{Path: "a.c", Dir: ".", Language: "c"}},
		Targets: []*config.Target{
			{Name: "app", Dir: ".", Kind: config.KindBinary, Objects: []string{"a.o"}},
		},
		Flags: map[string]map[string]*config.Flags{},
	}

	oracle := fingerprint.NewOracle(tc)
	sentinels, err := oracle.Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)

	path := sentinels[fingerprint.Key{Dir: ".", Language: fingerprint.LinkLanguage}]
	require.NotEmpty(t, path)
	assert.Contains(t, path, ".flags-link")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// A link flag change rewrites the link sentinel but not the compile one.
	compilePath := sentinels[fingerprint.Key{Dir: ".", Language: "c"}]
	compileInfo, err := os.Stat(compilePath)
	require.NoError(t, err)

	desc.Flags["."] = map[string]*config.Flags{"c": {Link: []string{"-lnew"}}}
	_, err = oracle.Refresh(context.Background(), root, v, desc)
	require.NoError(t, err)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second))
	compileInfo2, err := os.Stat(compilePath)
	require.NoError(t, err)
	assert.Equal(t, compileInfo.ModTime(), compileInfo2.ModTime())
}

func TestRefreshFailsWhenCompilerCannotRun(t *testing.T) {
	root, v, tc := setup(t)
	tc.CC = filepath.Join(t.TempDir(), "missing-cc")
	desc := &config.Description{
		Sources: []*config.Source{{Path: "a.c", Dir: ".", Language: "c"}},
		Flags:   map[string]map[string]*config.Flags{},
	}

	_, err := fingerprint.NewOracle(tc).Refresh(context.Background(), root, v, desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprinting")
}
