package scriptmgr

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result interface{}
	err    error
}

func (f fakeRunner) RunScript(ctx context.Context, fileName string, data json.RawMessage) (interface{}, error) {
	return f.result, f.err
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAddDirectoryDiscoversExistingScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fix_includes.js", "// Fix includes across the project\nfunction main() {}\n")
	writeScript(t, dir, "notes.txt", "not a script\n")

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.AddDirectory(dir))

	scripts := m.Scripts()
	require.Len(t, scripts, 1)
	require.Equal(t, "fix_includes.js", scripts[0].Name)
	require.Equal(t, "Fix includes across the project", scripts[0].Description)
}

func TestAddDirectoryIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.qml", "// a\n")

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.AddDirectory(dir))
	require.NoError(t, m.AddDirectory(dir))
	require.Len(t, m.Scripts(), 1)
	require.Len(t, m.Directories(), 1)
}

func TestRemoveDirectoryDropsItsScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.js", "// a\n")
	writeScript(t, dir, "b.js", "// b\n")

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.AddDirectory(dir))
	require.Len(t, m.Scripts(), 2)

	require.NoError(t, m.RemoveDirectory(dir))
	require.Empty(t, m.Scripts())
	require.Empty(t, m.Directories())
}

func TestAddRemoveScriptEventsFireInOrder(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.js", "// a\n")

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	var events []string
	m.OnAboutToAddScript(func(s Script, index int) { events = append(events, "about-to-add:"+s.Name) })
	m.OnScriptAdded(func(s Script) { events = append(events, "added:"+s.Name) })
	m.OnAboutToRemoveScript(func(s Script, index int) { events = append(events, "about-to-remove:"+s.Name) })
	m.OnScriptRemoved(func(s Script) { events = append(events, "removed:"+s.Name) })

	require.NoError(t, m.AddDirectory(dir))
	require.NoError(t, m.RemoveDirectory(dir))

	require.Equal(t, []string{
		"about-to-add:a.js",
		"added:a.js",
		"about-to-remove:a.js",
		"removed:a.js",
	}, events)
}

func TestWatchPicksUpNewScriptOnDirectoryChange(t *testing.T) {
	dir := t.TempDir()

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.AddDirectory(dir))
	require.Empty(t, m.Scripts())

	writeScript(t, dir, "late.js", "// arrives after the watch starts\n")

	require.Eventually(t, func() bool {
		return len(m.Scripts()) == 1
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, "late.js", m.Scripts()[0].Name)
}

func TestRunScriptSyncReturnsResult(t *testing.T) {
	m, err := New(fakeRunner{result: 42.0})
	require.NoError(t, err)
	defer m.Close()

	var finished []interface{}
	m.OnScriptFinished(func(runID string, result interface{}) { finished = append(finished, result) })

	runID, result, err := m.RunScript(context.Background(), "script.js", nil, false, true)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	require.Equal(t, 42.0, result)
	require.Equal(t, []interface{}{42.0}, finished)
}

func TestRunScriptAsyncNotifiesFinished(t *testing.T) {
	m, err := New(fakeRunner{result: "done"})
	require.NoError(t, err)
	defer m.Close()

	done := make(chan interface{}, 1)
	m.OnScriptFinished(func(runID string, result interface{}) { done <- result })

	runID, result, err := m.RunScript(context.Background(), "script.js", nil, true, false)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	require.Nil(t, result)

	select {
	case result := <-done:
		require.Equal(t, "done", result)
	case <-time.After(2 * time.Second):
		t.Fatal("script_finished was never observed")
	}
}

func TestRunScriptWithoutRunnerErrors(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	_, _, err = m.RunScript(context.Background(), "script.js", nil, false, false)
	require.ErrorIs(t, err, ErrNoRunner)
}

func TestScriptDescriptionIgnoresNonCommentFirstLine(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bare.js", "function main() {}\n")

	m, err := New(nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.AddDirectory(dir))
	require.Equal(t, "", m.Scripts()[0].Description)
}
