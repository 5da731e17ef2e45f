package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFallsBackToBuiltInDefault(t *testing.T) {
	s := New(ModeCli)
	v, err := s.Get("lsp/enabled")
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestProjectLayerOverridesUserAndBuiltIn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "knut.json"),
		[]byte(`{"lsp":{"enabled":false}}`), 0o644))

	s := New(ModeCli)
	require.NoError(t, s.LoadProject(dir))

	v, err := s.Get("/lsp/enabled")
	require.NoError(t, err)
	require.Equal(t, false, v)
}

func TestSetValueTargetsProjectLayerWhenLoaded(t *testing.T) {
	dir := t.TempDir()
	s := New(ModeCli)
	require.NoError(t, s.LoadProject(dir))

	require.NoError(t, s.SetValue("/rc/dialog_scalex", 2.0))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(filepath.Join(dir, "knut.json"))
	require.NoError(t, err)
	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &saved))
	rc := saved["rc"].(map[string]interface{})
	require.Equal(t, 2.0, rc["dialog_scalex"])

	v, err := s.Get("/rc/dialog_scalex")
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
}

func TestSetValueCreatesMissingIntermediateObjects(t *testing.T) {
	dir := t.TempDir()
	s := New(ModeCli)
	require.NoError(t, s.LoadProject(dir))

	require.NoError(t, s.SetValue("/scripts/last_run/name", "fix_includes"))
	v, err := s.Get("/scripts/last_run/name")
	require.NoError(t, err)
	require.Equal(t, "fix_includes", v)
}

func TestOnChangeFiresWithPointerPath(t *testing.T) {
	s := New(ModeCli)
	require.NoError(t, s.LoadProject(t.TempDir()))

	var seen string
	s.OnChange(func(path string) { seen = path })
	require.NoError(t, s.SetValue("/rc/dialog_scalex", 1.5))
	require.Equal(t, "/rc/dialog_scalex", seen)
}

func TestLSPEnabledGatedByMode(t *testing.T) {
	cli := New(ModeCli)
	require.False(t, cli.LSPEnabled())

	gui := New(ModeGui)
	require.True(t, gui.LSPEnabled())

	test := New(ModeTest)
	require.True(t, test.LSPEnabled())
}

func TestMimeTypeLookup(t *testing.T) {
	s := New(ModeCli)
	kind, ok := s.MimeType(".cpp")
	require.True(t, ok)
	require.Equal(t, "Cpp", kind)

	kind2, ok2 := s.MimeType("rc")
	require.True(t, ok2)
	require.Equal(t, "Rc", kind2)

	_, ok3 := s.MimeType(".nonexistent")
	require.False(t, ok3)
}

func TestDumpJSONIncludesMergedView(t *testing.T) {
	s := New(ModeCli)
	data, err := s.DumpJSON()
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	require.Contains(t, m, "mime_types")
	require.Contains(t, m, "lsp")
}
