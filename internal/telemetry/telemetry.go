// Package telemetry wires up process-wide logging: where the log file
// lives, how it rotates, and the human-readable counters the rest of the
// module writes into log lines. Logging entry point is
// commonlog.Configure(verbosity, path); no library in the retrieval pack
// implements log-file rotation, so that part is a justified stdlib
// implementation (§10, §6 "Log file").
package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// LogFileName is the base name of the engine's log file (§6).
const LogFileName = "knut.log"

// MaxLogFiles is the maximum number of log files kept, the active one
// included: knut.log plus knut.log.1..knut.log.4 (§6 "rotated, max 5 files").
const MaxLogFiles = 5

// AppDataDir returns "<platform app data>/knut" (§6), using the stdlib's
// own platform-aware resolution (%AppData% on Windows, ~/Library/Application
// Support on macOS, $XDG_CONFIG_HOME or ~/.config on Linux) since no
// library in the pack offers an app-data-directory helper either.
func AppDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("telemetry: resolve app data dir: %w", err)
	}
	return filepath.Join(dir, "knut"), nil
}

// Configure rotates any existing knut.log generations, then points
// commonlog's process-wide logger at a fresh knut.log under AppDataDir at
// the given verbosity, with a non-nil path so the runtime's stdout/stderr
// stay free for script output. It returns the resolved log file path.
func Configure(verbosity int) (string, error) {
	dir, err := AppDataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("telemetry: create log dir: %w", err)
	}

	logPath := filepath.Join(dir, LogFileName)
	if err := Rotate(logPath, MaxLogFiles); err != nil {
		return "", err
	}

	commonlog.Configure(verbosity, &logPath)
	return logPath, nil
}

// Rotate shifts path.1..path.(maxFiles-1) up by one generation, dropping
// the oldest, then moves path itself to path.1. A missing path is a no-op
// (nothing to rotate on first run).
func Rotate(path string, maxFiles int) error {
	if maxFiles < 1 {
		return fmt.Errorf("telemetry: rotate: maxFiles must be >= 1, got %d", maxFiles)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("telemetry: stat %s: %w", path, err)
	}

	oldest := generationPath(path, maxFiles-1)
	if maxFiles > 1 {
		if _, err := os.Stat(oldest); err == nil {
			if err := os.Remove(oldest); err != nil {
				return fmt.Errorf("telemetry: drop oldest generation %s: %w", oldest, err)
			}
		}
	}

	for i := maxFiles - 2; i >= 1; i-- {
		from := generationPath(path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		to := generationPath(path, i+1)
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("telemetry: rotate %s -> %s: %w", from, to, err)
		}
	}

	if maxFiles == 1 {
		return os.Remove(path)
	}
	if err := os.Rename(path, generationPath(path, 1)); err != nil {
		return fmt.Errorf("telemetry: rotate %s: %w", path, err)
	}
	return nil
}

func generationPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// FormatCount renders n with thousands separators for log messages, e.g.
// "queried 1,204 nodes".
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatBytes renders n as a human-readable size, e.g. "read 3.4 kB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Logger returns a package-scoped logger the way every other package in the
// module does (commonlog.GetLoggerf("knut.<package>")).
func Logger(name string) commonlog.Logger {
	return commonlog.GetLoggerf("knut." + name)
}
