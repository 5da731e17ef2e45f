package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppDataDirEndsInKnut(t *testing.T) {
	dir, err := AppDataDir()
	require.NoError(t, err)
	require.Equal(t, "knut", filepath.Base(dir))
}

func TestRotateNoopsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knut.log")
	require.NoError(t, Rotate(path, MaxLogFiles))
}

func TestRotateShiftsExistingGenerations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knut.log")

	require.NoError(t, os.WriteFile(path, []byte("current"), 0o644))
	require.NoError(t, os.WriteFile(path+".1", []byte("gen1"), 0o644))
	require.NoError(t, os.WriteFile(path+".2", []byte("gen2"), 0o644))

	require.NoError(t, Rotate(path, 5))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	gen1, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Equal(t, "current", string(gen1))

	gen2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	require.Equal(t, "gen1", string(gen2))

	gen3, err := os.ReadFile(path + ".3")
	require.NoError(t, err)
	require.Equal(t, "gen2", string(gen3))
}

func TestRotateDropsOldestGenerationPastMax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knut.log")

	require.NoError(t, os.WriteFile(path, []byte("current"), 0o644))
	require.NoError(t, os.WriteFile(path+".1", []byte("gen1"), 0o644))
	require.NoError(t, os.WriteFile(path+".2", []byte("oldest"), 0o644))

	require.NoError(t, Rotate(path, 3))

	_, err := os.Stat(path + ".2")
	require.NoError(t, err)
	gen2, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	require.Equal(t, "gen1", string(gen2))

	_, err = os.Stat(path + ".3")
	require.True(t, os.IsNotExist(err))
}

func TestConfigureWritesIntoAppDataKnutLog(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	logPath, err := Configure(1)
	require.NoError(t, err)
	require.Equal(t, LogFileName, filepath.Base(logPath))

	dir := filepath.Dir(logPath)
	require.Equal(t, "knut", filepath.Base(dir))
}

func TestFormatCountAddsThousandsSeparators(t *testing.T) {
	require.Equal(t, "1,204", FormatCount(1204))
}

func TestFormatBytesIsHumanReadable(t *testing.T) {
	require.Equal(t, "3.4 kB", FormatBytes(3400))
}
