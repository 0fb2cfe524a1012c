// Package testutil provides fake build tools for tests. The fakes are small
// POSIX shell scripts that honour the same command lines as tree-sitter, cc
// and ar, so adapters can be exercised without a real toolchain.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// CorruptMarker makes the fake compiler reject a translation unit.
const CorruptMarker = "TSBUILD_CORRUPT"

// BadGrammarMarker makes the fake generator reject a grammar.
// The rejection prints GeneratorDiagnostic.
const BadGrammarMarker = "TSBUILD_BAD_GRAMMAR"

// GeneratorDiagnostic is what the fake generator prints for a rejected
// grammar file.
func GeneratorDiagnostic(grammarFile string) string {
	return "Error: Unexpected token in " + grammarFile + "\n" +
		"  --> " + grammarFile + ":1:1\n"
}

// CompilerDiagnostic is what the fake compiler prints for a source whose
// first line is firstLine.
func CompilerDiagnostic(src, firstLine string) string {
	return src + ":1:1: error: expected identifier or '('\n" +
		"    1 | " + firstLine + "\n"
}

// RequireShell skips the test when no POSIX shell is available.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools require a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not on PATH")
	}
}

// RequireTool skips the test when name is not on PATH and returns its path.
func RequireTool(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not on PATH", name)
	}
	return p
}

// WriteScript writes an executable shell script and returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// Toolchain bundles the fake tools and the log each one appends its
// invocation to (one line per call, arguments space-separated).
type Toolchain struct {
	Dir       string
	Generator string
	CC        string
	AR        string
	GenLog    string
	CCLog     string
	ARLog     string
}

// FakeToolchain installs fake tree-sitter, cc and ar scripts in a temp dir.
//
// The generator writes src/parser.c (content derived from the grammar so
// output is deterministic), src/grammar.json and src/node-types.json, and
// fails when the grammar contains BadGrammarMarker. The compiler writes the
// -o target and fails on sources containing CorruptMarker. The archiver
// writes an ar header to its first operand.
func FakeToolchain(t *testing.T) *Toolchain {
	t.Helper()
	RequireShell(t)
	dir := t.TempDir()

	tc := &Toolchain{
		Dir:    dir,
		GenLog: filepath.Join(dir, "generator.log"),
		CCLog:  filepath.Join(dir, "cc.log"),
		ARLog:  filepath.Join(dir, "ar.log"),
	}

	tc.Generator = WriteScript(t, dir, "tree-sitter", strings.NewReplacer(
		"@LOG@", tc.GenLog, "@BAD@", BadGrammarMarker).Replace(`
echo "$@" >> "@LOG@"
abi=""
out="src"
grammar="grammar.js"
prev=""
for a in "$@"; do
  case "$a" in
    --abi=*) abi="${a#--abi=}" ;;
    *.js|*.json) grammar="$a" ;;
  esac
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
if [ ! -f "$grammar" ]; then
  echo "Error: Failed to read grammar file $grammar: No such file or directory" >&2
  exit 1
fi
if grep -q "@BAD@" "$grammar"; then
  echo "Error: Unexpected token in $grammar" >&2
  echo "  --> $grammar:1:1" >&2
  exit 1
fi
mkdir -p "$out/tree_sitter"
sum=$(cksum < "$grammar" | cut -d' ' -f1)
{
  echo "#include \"tree_sitter/parser.h\""
  echo "#define LANGUAGE_VERSION $abi"
  echo "/* grammar checksum $sum */"
  echo "const void *tree_sitter_grammar(void) { return 0; }"
} > "$out/parser.c"
echo "typedef int TSSymbol;" > "$out/tree_sitter/parser.h"
echo "{}" > "$out/grammar.json"
echo "[]" > "$out/node-types.json"
`))

	tc.CC = WriteScript(t, dir, "cc", strings.NewReplacer(
		"@LOG@", tc.CCLog, "@CORRUPT@", CorruptMarker).Replace(`
echo "$@" >> "@LOG@"
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  case "$a" in
    *.c)
      if grep -q "@CORRUPT@" "$a"; then
        echo "$a:1:1: error: expected identifier or '('" >&2
        echo "    1 | $(head -n 1 "$a")" >&2
        exit 1
      fi
      ;;
  esac
  prev="$a"
done
: > "$out"
`))

	tc.AR = WriteScript(t, dir, "ar", strings.ReplaceAll(`
echo "$@" >> "@LOG@"
printf '!<arch>\n' > "$2"
`, "@LOG@", tc.ARLog))

	return tc
}

// Calls returns the logged invocations of a fake tool; nil if it never ran.
func Calls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// WriteGrammar writes grammar.js into dir/grammar and returns the grammar dir.
func WriteGrammar(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, "grammar")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grammar.js"), []byte(content), 0o644))
	return dir
}

// TwoTokenGrammar is a minimal tree-sitter grammar with two tokens.
const TwoTokenGrammar = `module.exports = grammar({
  name: 'grammar',
  rules: {
    source_file: $ => repeat(choice($.word, $.number)),
    word: $ => /[a-z]+/,
    number: $ => /\d+/,
  }
});
`
