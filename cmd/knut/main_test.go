package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/project"
	"github.com/kdab-labs/knutgo/internal/scriptmgr"
	"github.com/kdab-labs/knutgo/internal/settings"
	"github.com/kdab-labs/knutgo/internal/telemetry"
)

func withCapturedStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func withTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestScriptExitCodeExtractsIntResult(t *testing.T) {
	assert.Equal(t, 3, scriptExitCode(3))
	assert.Equal(t, 3, scriptExitCode(int64(3)))
	assert.Equal(t, 3, scriptExitCode(float64(3)))
	assert.Equal(t, 0, scriptExitCode("not a number"))
	assert.Equal(t, 0, scriptExitCode(nil))
}

func TestListedScriptsMapsFields(t *testing.T) {
	out := listedScripts([]scriptmgr.Script{
		{Name: "a.js", FileName: "/scripts/a.js", Description: "does a thing"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "a.js", out[0].Name)
	assert.Equal(t, "does a thing", out[0].Description)
	assert.Equal(t, "/scripts/a.js", out[0].Path)
}

func TestRunCLIMissingProjectArgFails(t *testing.T) {
	withTempHome(t)
	code := runCLI(nil)
	assert.NotEqual(t, 0, code)
}

func TestRunCLIJSONSettingsDumpsMergedSettings(t *testing.T) {
	withTempHome(t)
	dir := t.TempDir()

	out := withCapturedStdout(t, func() {
		code := runCLI([]string{dir, "--json-settings"})
		assert.Equal(t, 0, code)
	})

	var dumped map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &dumped))
	assert.Contains(t, dumped, "text_editor")
	assert.Contains(t, dumped, "mime_types")
}

func TestRunCLIJSONListDumpsEmptyArrayWithNoScripts(t *testing.T) {
	withTempHome(t)
	dir := t.TempDir()

	out := withCapturedStdout(t, func() {
		code := runCLI([]string{dir, "--json-list"})
		assert.Equal(t, 0, code)
	})

	var scripts []listedScript
	require.NoError(t, json.Unmarshal([]byte(out), &scripts))
	assert.Empty(t, scripts)
}

func TestRunCLIRunWithoutRunnerFails(t *testing.T) {
	withTempHome(t)
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "demo.js")
	require.NoError(t, os.WriteFile(scriptPath, []byte("// demo\n"), 0o644))

	code := runCLI([]string{dir, "-r", scriptPath})
	assert.Equal(t, 1, code)
}

func TestOpenInputPlacesCursorOnTextBuffer(t *testing.T) {
	withTempHome(t)
	dir := t.TempDir()
	filePath := filepath.Join(dir, "main.cpp")
	require.NoError(t, os.WriteFile(filePath, []byte("int main() {\n  return 0;\n}\n"), 0o644))

	s := settings.New(settings.ModeCli)
	require.NoError(t, s.LoadProject(dir))
	proj := project.New(dir, s)

	err := openInput(proj, flags{input: filePath, line: 2, column: 3}, telemetry.Logger("test"))
	require.NoError(t, err)

	doc, err := proj.Get(filePath)
	require.NoError(t, err)
	cursor, ok := doc.(document.Cursor)
	require.True(t, ok, "CppDocument should implement document.Cursor")
	assert.Equal(t, len("int main() {\n")+2, cursor.TextBuffer().Position())
}
