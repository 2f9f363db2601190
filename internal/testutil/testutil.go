// Package testutil provides shared helpers for engine tests: a thread-safe
// log buffer, temp source-tree construction, fake toolchain scripts and an
// end-to-end build harness.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteTree materializes a map of relative path to content under a fresh
// temp directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	AddFiles(t, root, files)
	return root
}

// AddFiles writes (or overwrites) files under an existing root.
func AddFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// JournalCount counts journal lines containing substr. The fake tools append
// one line per invocation when MASON_TEST_JOURNAL is set.
func JournalCount(t *testing.T, journal, substr string) int {
	t.Helper()
	data, err := os.ReadFile(journal)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" && strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

// ResetJournal truncates the journal between runs.
func ResetJournal(t *testing.T, journal string) {
	t.Helper()
	require.NoError(t, os.WriteFile(journal, nil, 0o644))
}
