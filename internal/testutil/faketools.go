package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCC mimics the three compiler invocations the engine performs: the
// verbose flag dump (-v -E), compilation (-c, with -MMD/-MF dependency
// output derived from #include lines) and linking. Objects and linked
// artifacts are concatenations of their inputs, which lets tests assert on
// content.
const fakeCC = `#!/bin/sh
[ -n "$MASON_TEST_JOURNAL" ] && echo "cc $*" >> "$MASON_TEST_JOURNAL"
case " $* " in
*" -E "*)
  echo "fake-cc 1.0 target x86_64-test"
  echo "args: $*"
  exit 0
  ;;
esac
out=""; dep=""; compile=0; inputs=""; prev=""
for a in "$@"; do
  case "$prev" in
  -o) out="$a"; prev=""; continue ;;
  -MF) dep="$a"; prev=""; continue ;;
  esac
  case "$a" in
  -o|-MF) prev="$a" ;;
  -c) compile=1 ;;
  -*) ;;
  *) inputs="$inputs $a" ;;
  esac
done
if [ "$compile" = "1" ]; then
  set -- $inputs
  src="$1"
  dir=$(dirname "$src")
  hdrs=""
  for h in $(sed -n 's/#include "\(.*\)"/\1/p' "$src"); do
    hdrs="$hdrs $dir/$h"
  done
  { cat "$src"; for h in $hdrs; do cat "$h" 2>/dev/null; done; } > "$out"
  [ -n "$dep" ] && echo "$out: $src$hdrs" > "$dep"
else
  set -- $inputs
  cat "$@" > "$out"
fi
exit 0
`

// fakeAR creates an "archive" by concatenating its members.
const fakeAR = `#!/bin/sh
[ -n "$MASON_TEST_JOURNAL" ] && echo "ar $*" >> "$MASON_TEST_JOURNAL"
shift
out="$1"
shift
cat "$@" > "$out"
exit 0
`

// fakeGenerator reads one output file name per schema line and produces each
// in the requested directory.
const fakeGenerator = `#!/bin/sh
[ -n "$MASON_TEST_JOURNAL" ] && echo "gen $*" >> "$MASON_TEST_JOURNAL"
dir="$2"
schema="$3"
while read -r name; do
  [ -n "$name" ] && printf 'int generated_symbol;\n' > "$dir/$name"
done < "$schema"
exit 0
`

// WriteFakeTools installs fake cc, c++, ar and masongen scripts into a temp
// directory and returns it, for use as the MASON_TOOLS hint.
func WriteFakeTools(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"cc":       fakeCC,
		"c++":      fakeCC,
		"ar":       fakeAR,
		"masongen": fakeGenerator,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o755))
	}
	return dir
}
