// Package scriptmgr implements Component J: discovery, watching and
// invocation of the scripts a project exposes, grounded on the original's
// Core::ScriptManager (original_source/src/core/scriptmanager.{h,cpp}).
package scriptmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var scriptExtensions = map[string]bool{".js": true, ".qml": true}

// Script is one discovered script file (§4.J script records).
type Script struct {
	Name        string
	FileName    string
	Description string
}

// Runner executes a script file and returns its result value. Evaluating
// scripts is out of scope here; Manager only coordinates discovery and
// invocation bookkeeping around whatever Runner is plugged in.
type Runner interface {
	RunScript(ctx context.Context, fileName string, data json.RawMessage) (interface{}, error)
}

// ErrNoRunner is returned by RunScript when no Runner has been attached.
var ErrNoRunner = errors.New("scriptmgr: no script runtime configured")

type noRunner struct{}

func (noRunner) RunScript(ctx context.Context, fileName string, data json.RawMessage) (interface{}, error) {
	return nil, ErrNoRunner
}

// Manager tracks the scripts available across a set of watched directories
// (§4.J Script Manager).
type Manager struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	runner  Runner
	logger  commonlog.Logger

	directories []string
	scripts     []Script

	onAboutToAdd    []func(script Script, index int)
	onAdded         []func(script Script)
	onAboutToRemove []func(script Script, index int)
	onRemoved       []func(script Script)
	onFinished      []func(runID string, result interface{})
}

// New returns a Manager with no watched directories. Call Close when done.
func New(runner Runner) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scriptmgr: new watcher: %w", err)
	}
	if runner == nil {
		runner = noRunner{}
	}
	m := &Manager{
		watcher: watcher,
		runner:  runner,
		logger:  commonlog.GetLoggerf("knut.scriptmgr"),
	}
	go m.watchLoop()
	return m, nil
}

// Close stops the directory watcher.
func (m *Manager) Close() error {
	return m.watcher.Close()
}

// Scripts returns the current script list, in discovery order.
func (m *Manager) Scripts() []Script {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Script, len(m.scripts))
	copy(out, m.scripts)
	return out
}

// Directories returns the registered watch directories.
func (m *Manager) Directories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.directories))
	copy(out, m.directories)
	return out
}

// AddDirectory registers path for script discovery and watching, scanning
// it immediately for existing scripts.
func (m *Manager) AddDirectory(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}

	m.mu.Lock()
	for _, d := range m.directories {
		if d == abs {
			m.mu.Unlock()
			return nil
		}
	}
	m.directories = append(m.directories, abs)
	m.mu.Unlock()

	if err := m.watcher.Add(abs); err != nil {
		m.logger.Warningf("watch %s: %v", abs, err)
	}

	files, err := scriptFilesIn(abs)
	if err != nil {
		return err
	}
	for _, f := range files {
		m.addScript(f)
	}
	return nil
}

// RemoveDirectory unregisters path, dropping every script it contributed.
func (m *Manager) RemoveDirectory(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for i, d := range m.directories {
		if d == abs {
			m.directories = append(m.directories[:i], m.directories[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	_ = m.watcher.Remove(abs)

	files, err := scriptFilesIn(abs)
	if err != nil {
		return err
	}
	inDir := make(map[string]bool, len(files))
	for _, f := range files {
		inDir[f] = true
	}

	m.mu.Lock()
	var toRemove []string
	for _, s := range m.scripts {
		if inDir[s.FileName] {
			toRemove = append(toRemove, s.FileName)
		}
	}
	m.mu.Unlock()
	for _, f := range toRemove {
		m.removeScript(f)
	}
	return nil
}

func scriptFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !scriptExtensions[filepath.Ext(e.Name())] {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func scriptDescription(fileName string) string {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return ""
	}
	line := data
	if i := indexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	text := string(line)
	for len(text) > 0 && (text[len(text)-1] == '\r' || text[len(text)-1] == ' ') {
		text = text[:len(text)-1]
	}
	if len(text) < 2 || text[0] != '/' || text[1] != '/' {
		return ""
	}
	return trimSpace(text[2:])
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func (m *Manager) addScript(fileName string) {
	script := Script{
		Name:        filepath.Base(fileName),
		FileName:    fileName,
		Description: scriptDescription(fileName),
	}

	m.mu.Lock()
	for _, s := range m.scripts {
		if s.FileName == fileName {
			m.mu.Unlock()
			return
		}
	}
	index := len(m.scripts)
	aboutToAdd := append([]func(Script, int){}, m.onAboutToAdd...)
	added := append([]func(Script){}, m.onAdded...)
	m.mu.Unlock()

	for _, fn := range aboutToAdd {
		fn(script, index)
	}

	m.mu.Lock()
	m.scripts = append(m.scripts, script)
	m.mu.Unlock()

	for _, fn := range added {
		fn(script)
	}
}

func (m *Manager) removeScript(fileName string) {
	m.mu.Lock()
	index := -1
	var script Script
	for i, s := range m.scripts {
		if s.FileName == fileName {
			index, script = i, s
			break
		}
	}
	if index < 0 {
		m.mu.Unlock()
		return
	}
	aboutToRemove := append([]func(Script, int){}, m.onAboutToRemove...)
	removed := append([]func(Script){}, m.onRemoved...)
	m.mu.Unlock()

	for _, fn := range aboutToRemove {
		fn(script, index)
	}

	m.mu.Lock()
	m.scripts = append(m.scripts[:index], m.scripts[index+1:]...)
	m.mu.Unlock()

	for _, fn := range removed {
		fn(script)
	}
}

// updateDirectory re-enumerates a changed directory: scripts that vanished
// are removed, new files on disk are added, unchanged files are left alone
// (mirrors Core::ScriptManager::updateScriptDirectory).
func (m *Manager) updateDirectory(dir string) {
	files, err := scriptFilesIn(dir)
	if err != nil {
		m.logger.Warningf("rescan %s: %v", dir, err)
		return
	}
	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f] = true
	}

	m.mu.Lock()
	var gone []string
	for _, s := range m.scripts {
		if filepath.Dir(s.FileName) == dir && !onDisk[s.FileName] {
			gone = append(gone, s.FileName)
		}
	}
	known := make(map[string]bool, len(m.scripts))
	for _, s := range m.scripts {
		known[s.FileName] = true
	}
	m.mu.Unlock()

	for _, f := range gone {
		m.removeScript(f)
	}
	for _, f := range files {
		if !known[f] {
			m.addScript(f)
		}
	}
}

func (m *Manager) watchLoop() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.updateDirectory(filepath.Dir(ev.Name))
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warningf("watch error: %v", err)
		}
	}
}

// OnAboutToAddScript registers fn to be called just before a discovered
// script is added to the list, with the index it will occupy.
func (m *Manager) OnAboutToAddScript(fn func(script Script, index int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAboutToAdd = append(m.onAboutToAdd, fn)
}

// OnScriptAdded registers fn to be called once a script has been added.
func (m *Manager) OnScriptAdded(fn func(script Script)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAdded = append(m.onAdded, fn)
}

// OnAboutToRemoveScript registers fn to be called just before a script is
// dropped from the list, with its current index.
func (m *Manager) OnAboutToRemoveScript(fn func(script Script, index int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAboutToRemove = append(m.onAboutToRemove, fn)
}

// OnScriptRemoved registers fn to be called once a script has been removed.
func (m *Manager) OnScriptRemoved(fn func(script Script)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemoved = append(m.onRemoved, fn)
}

// OnScriptFinished registers fn to be called with a run's correlation id
// and result once that run completes, sync or async.
func (m *Manager) OnScriptFinished(fn func(runID string, result interface{})) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = append(m.onFinished, fn)
}

// RunScript executes fileName and returns its result, logging entry/exit
// when log is true (§4.J run_script(path, data?, async?, log?)). When async
// is true it returns immediately with a run id while the script runs on its
// own goroutine and OnScriptFinished observers are notified on completion;
// when false it blocks and returns the result directly.
func (m *Manager) RunScript(ctx context.Context, fileName string, data json.RawMessage, async, log bool) (runID string, result interface{}, err error) {
	runID = uuid.NewString()

	run := func() (interface{}, error) {
		if log {
			m.logger.Infof("==> start script %s (%s)", fileName, runID)
		}
		res, runErr := m.runner.RunScript(ctx, fileName, data)
		if log {
			if runErr != nil {
				m.logger.Warningf("<== script %s failed: %v", fileName, runErr)
			} else {
				m.logger.Infof("<== end script %s (%s)", fileName, runID)
			}
		}
		return res, runErr
	}

	if !async {
		result, err = run()
		m.notifyFinished(runID, result)
		return runID, result, err
	}

	go func() {
		res, _ := run()
		m.notifyFinished(runID, res)
	}()
	return runID, nil, nil
}

func (m *Manager) notifyFinished(runID string, result interface{}) {
	m.mu.Lock()
	observers := append([]func(string, interface{}){}, m.onFinished...)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(runID, result)
	}
}
