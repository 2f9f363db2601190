package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masonbuild/mason/internal/app"
)

// BuildResult holds the outcomes of one harnessed engine run.
type BuildResult struct {
	LogOutput string
	Err       error
}

// SetupTools installs the fake toolchain, points the MASON_TOOLS hint at it
// and arranges a per-test invocation journal. It returns the journal path.
func SetupTools(t *testing.T) string {
	t.Helper()
	t.Setenv("MASON_TOOLS", WriteFakeTools(t))
	journal := filepath.Join(t.TempDir(), "journal")
	t.Setenv("MASON_TEST_JOURNAL", journal)
	t.Setenv("MASON_DEBUG", "")
	t.Setenv("MASON_VARIANT", "")
	return journal
}

// RunBuild runs one full engine invocation against root with the given goal
// and captures its log output.
func RunBuild(t *testing.T, root, goal string) *BuildResult {
	t.Helper()
	return RunBuildWorkers(t, root, goal, 4)
}

// RunBuildWorkers is RunBuild with an explicit executor worker count.
func RunBuildWorkers(t *testing.T, root, goal string, workers int) *BuildResult {
	t.Helper()

	cfg, err := app.NewConfig(app.Config{
		Root:        root,
		Goal:        goal,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: workers,
	})
	require.NoError(t, err)

	buf := &SafeBuffer{}
	var engine *app.App
	var panicked any
	func() {
		defer func() { panicked = recover() }()
		engine = app.New(buf, cfg)
	}()
	if panicked != nil {
		return &BuildResult{LogOutput: buf.String(), Err: fmt.Errorf("startup panicked: %v", panicked)}
	}

	runErr := engine.Run(context.Background())
	return &BuildResult{
		LogOutput: buf.String(),
		Err:       runErr,
	}
}
