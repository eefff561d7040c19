package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCLIExpression(t *testing.T) {
	code, out, _ := runCLI(t, "", "-e", "(1 + 2) * 3")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "9\n", out)
}

func TestCLIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.hd")
	require.NoError(t, os.WriteFile(path, []byte("1.5 * 2\n"), 0o644))
	code, out, _ := runCLI(t, "", path)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "3\n", out)
}

func TestCLIStdin(t *testing.T) {
	code, out, _ := runCLI(t, "-0.25", "-")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "-0.25\n", out)
}

func TestCLIExitCodes(t *testing.T) {
	code, _, errOut := runCLI(t, "", "-e", "1 +")
	assert.Equal(t, exitCompile, code)
	assert.Contains(t, errOut, "compile error")

	code, _, _ = runCLI(t, "")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "", "-e", "1", "file.hd")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "", "-nope")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "", filepath.Join(t.TempDir(), "missing.hd"))
	assert.Equal(t, exitIOFailed, code)

	code, _, _ = runCLI(t, "", "-h")
	assert.Equal(t, exitOK, code)
}

func TestCLIRuntimeError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "hd.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[vm]\nmax_stack = 1\n"), 0o644))

	code, out, errOut := runCLI(t, "", "-config", cfgPath, "-e", "1 + 2")
	assert.Equal(t, exitRuntime, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "stack overflow")
}

func TestCLIBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "hd.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]\nlevel = \"shouty\"\n"), 0o644))
	code, _, _ := runCLI(t, "", "-config", cfgPath, "-e", "1")
	assert.Equal(t, exitUsage, code)
}

func TestCLIDisasmAndTrace(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-disasm", "-trace", "-e", "-2")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "== <input> ==\n"+
		"0000    1 OP_CONST         0 ; const[0]=2\n"+
		"0002    1 OP_NEG          \n"+
		"0003    1 OP_RETURN       \n"+
		"-2\n", out)
	assert.Contains(t, errOut, "trace 0000 line 1 depth 0 OP_CONST\n")
	assert.Contains(t, errOut, "trace 0003 line 1 depth 1 OP_RETURN\n")
}
