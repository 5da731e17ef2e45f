package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/settings"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestProject(t *testing.T) (*Project, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, settings.New(settings.ModeTest)), dir
}

func TestGetDispatchesByMimeTypeAndCaches(t *testing.T) {
	p, dir := newTestProject(t)
	path := writeFile(t, dir, "widget.cpp", "class Widget {};\n")

	doc, err := p.Get(path)
	require.NoError(t, err)
	_, ok := doc.(*document.CppDocument)
	require.True(t, ok)

	again, err := p.Get(path)
	require.NoError(t, err)
	require.Same(t, doc, again)
}

func TestGetFallsBackToTextDocumentForUnknownExtension(t *testing.T) {
	p, dir := newTestProject(t)
	path := writeFile(t, dir, "notes.xyz", "hello\n")

	doc, err := p.Get(path)
	require.NoError(t, err)
	_, ok := doc.(*document.TextDocument)
	require.True(t, ok)
}

func TestOpenMovesToBackOfRecencyListAndSetsCurrent(t *testing.T) {
	p, dir := newTestProject(t)
	a := writeFile(t, dir, "a.cpp", "// a\n")
	b := writeFile(t, dir, "b.cpp", "// b\n")

	_, err := p.Open(a)
	require.NoError(t, err)
	_, err = p.Open(b)
	require.NoError(t, err)

	current, ok := p.Current()
	require.True(t, ok)
	bDoc, err := p.Get(b)
	require.NoError(t, err)
	require.Same(t, bDoc, current)

	// b was opened last, so it is 0 back and a is 1 back.
	prev, err := p.OpenPrevious(1)
	require.NoError(t, err)
	aDoc, err := p.Get(a)
	require.NoError(t, err)
	require.Same(t, aDoc, prev)
}

func TestOpenPreviousOutOfRangeErrors(t *testing.T) {
	p, dir := newTestProject(t)
	a := writeFile(t, dir, "a.cpp", "// a\n")
	_, err := p.Open(a)
	require.NoError(t, err)

	_, err = p.OpenPrevious(5)
	require.Error(t, err)
}

func TestCloseEvictsAndClearsCurrent(t *testing.T) {
	p, dir := newTestProject(t)
	a := writeFile(t, dir, "a.cpp", "// a\n")
	_, err := p.Open(a)
	require.NoError(t, err)

	require.NoError(t, p.Close(a))
	_, ok := p.Current()
	require.False(t, ok)

	reopened, err := p.Get(a)
	require.NoError(t, err)
	require.NotNil(t, reopened)
}

func TestFindInFilesParsesVimgrepOutput(t *testing.T) {
	if _, err := exec.LookPath("rg"); err != nil {
		t.Skip("rg not on PATH")
	}
	p, dir := newTestProject(t)
	writeFile(t, dir, "widget.cpp", "class Widget {\n    void reset();\n};\n")

	results, err := p.FindInFiles(context.Background(), "void reset")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 2, results[0].Line)
}

func TestFindInFilesUnavailableWithoutRg(t *testing.T) {
	p, _ := newTestProject(t)
	oldPath := os.Getenv("PATH")
	require.NoError(t, os.Setenv("PATH", ""))
	defer os.Setenv("PATH", oldPath)

	_, err := p.FindInFiles(context.Background(), "anything")
	require.ErrorIs(t, err, ErrRipgrepUnavailable)
}
