// Package settings implements Component L: the three-layer JSON settings
// store (built-in defaults, user, project), addressed by JSON-Pointer paths
// and merged later-overrides-earlier, grounded on
// original_source/src/core/settings.cpp.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/xeipuuv/gojsonpointer"
)

// Mode gates which front-ends may enable the LSP client (§4.L: "Test and
// Gui only").
type Mode int

const (
	ModeCli Mode = iota
	ModeGui
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModeGui:
		return "Gui"
	case ModeTest:
		return "Test"
	default:
		return "Cli"
	}
}

func (m Mode) allowsLSP() bool { return m == ModeGui || m == ModeTest }

const saveDebounce = 250 * time.Millisecond

type layer struct {
	path string
	data map[string]interface{}
}

// Settings holds the merged built_in/user/project JSON layers (§4.L).
type Settings struct {
	mu         sync.Mutex
	mode       Mode
	builtIn    layer
	user       layer
	project    layer
	hasProject bool
	onChange   []func(path string)
	saveTimer  *time.Timer
	logger     commonlog.Logger
}

// New returns a Settings seeded with built-in defaults and a user layer
// pointed at $HOME/knut.json (not yet loaded from disk).
func New(mode Mode) *Settings {
	s := &Settings{
		mode:    mode,
		builtIn: layer{data: defaultBuiltIn()},
		user:    layer{data: make(map[string]interface{})},
		project: layer{data: make(map[string]interface{})},
		logger:  commonlog.GetLoggerf("knut.settings"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.user.path = filepath.Join(home, "knut.json")
	}
	return s
}

func defaultBuiltIn() map[string]interface{} {
	return map[string]interface{}{
		"lsp": map[string]interface{}{
			"enabled": true,
			"servers": []interface{}{},
		},
		"mime_types": map[string]interface{}{
			".cpp": "Cpp", ".cc": "Cpp", ".cxx": "Cpp",
			".h": "Cpp", ".hpp": "Cpp", ".hxx": "Cpp",
			".rc": "Rc", ".ui": "Ui", ".ts": "Ts",
			".json": "Json", ".qml": "Qml",
			".png": "Image", ".bmp": "Image", ".ico": "Image",
			".cs": "CSharp", ".rs": "Rust", ".dart": "Dart",
			".slint": "Slint",
		},
		"rc": map[string]interface{}{
			"dialog_flags":             0.0,
			"dialog_scalex":            1.0,
			"dialog_scaley":            1.0,
			"asset_flags":              0.0,
			"asset_transparent_colors": 0.0,
			"language_map":             map[string]interface{}{},
		},
		"script_paths": []interface{}{},
		"text_editor": map[string]interface{}{
			"tab": map[string]interface{}{
				"insertSpaces": false,
				"tabSize":      4.0,
			},
		},
		"toggle_section": map[string]interface{}{
			"tag":           "KNUT_DEBUG",
			"debug":         "qDebug() << %s",
			"return_values": map[string]interface{}{},
		},
		"logs": map[string]interface{}{
			"saveToFile": true,
		},
	}
}

// LoadUser reads $HOME/knut.json into the user layer; a missing file is not
// an error.
func (s *Settings) LoadUser() error {
	s.mu.Lock()
	path := s.user.path
	s.mu.Unlock()
	if path == "" {
		return fmt.Errorf("settings: no home directory for user layer")
	}
	return s.loadLayer(&s.user, path)
}

// LoadProject reads <root>/knut.json into the project layer and marks a
// project as loaded, so SetValue targets it instead of the user layer.
func (s *Settings) LoadProject(root string) error {
	path := filepath.Join(root, "knut.json")
	s.mu.Lock()
	s.hasProject = true
	s.mu.Unlock()
	return s.loadLayer(&s.project, path)
}

func (s *Settings) loadLayer(l *layer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		s.mu.Lock()
		l.path = path
		s.mu.Unlock()
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("settings: read %s: %w", path, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("settings: parse %s: %w", path, err)
	}
	s.mu.Lock()
	l.path = path
	l.data = m
	s.mu.Unlock()
	return nil
}

func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if existing, ok := out[k]; ok {
			if em, ok1 := existing.(map[string]interface{}); ok1 {
				if sm, ok2 := v.(map[string]interface{}); ok2 {
					out[k] = deepMerge(em, sm)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

func (s *Settings) merged() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := deepMerge(s.builtIn.data, s.user.data)
	return deepMerge(m, s.project.data)
}

func normalizePointer(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}

// Get resolves path (a leading "/" is added if missing) against the merged
// view of all three layers.
func (s *Settings) Get(path string) (interface{}, error) {
	ptr, err := gojsonpointer.NewJsonPointer(normalizePointer(path))
	if err != nil {
		return nil, fmt.Errorf("settings: invalid pointer %q: %w", path, err)
	}
	value, _, err := ptr.Get(s.merged())
	if err != nil {
		return nil, fmt.Errorf("settings: get %q: %w", path, err)
	}
	return value, nil
}

func pointerSegments(path string) []string {
	path = normalizePointer(path)
	if path == "/" {
		return nil
	}
	segs := strings.Split(path[1:], "/")
	for i, seg := range segs {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		segs[i] = seg
	}
	return segs
}

// setByPointer writes value at path into root, creating intermediate object
// nodes as needed — gojsonpointer.Set requires the parent to already exist,
// which does not hold for settings keys a script introduces for the first
// time, so this walks and materializes the path by hand instead.
func setByPointer(root map[string]interface{}, path string, value interface{}) error {
	segs := pointerSegments(path)
	if len(segs) == 0 {
		return fmt.Errorf("settings: cannot set the document root")
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			child := make(map[string]interface{})
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("settings: set %q: %q is not an object", path, seg)
		}
		cur = child
	}
	cur[segs[len(segs)-1]] = value
	return nil
}

// SetValue writes value into the project layer if one is loaded, else the
// user layer, and schedules a coalesced async save (§4.L set_value).
func (s *Settings) SetValue(path string, value interface{}) error {
	s.mu.Lock()
	target := &s.user
	if s.hasProject {
		target = &s.project
	}
	if target.data == nil {
		target.data = make(map[string]interface{})
	}
	if err := setByPointer(target.data, path, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.scheduleSaveLocked(target)
	s.mu.Unlock()

	s.fireChange(path)
	return nil
}

func (s *Settings) scheduleSaveLocked(l *layer) {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := s.saveLayer(l); err != nil {
			s.logger.Errorf("settings: save %s: %v", l.path, err)
		}
	})
}

func (s *Settings) saveLayer(l *layer) error {
	s.mu.Lock()
	path := l.path
	data, err := json.MarshalIndent(l.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("settings: no path for layer")
	}
	return os.WriteFile(path, data, 0o644)
}

// Flush cancels any pending coalesced save and writes the current target
// layer (project if loaded, else user) to disk immediately.
func (s *Settings) Flush() error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	target := &s.user
	if s.hasProject {
		target = &s.project
	}
	s.mu.Unlock()
	return s.saveLayer(target)
}

// OnChange registers a callback invoked with the pointer path after every
// SetValue.
func (s *Settings) OnChange(fn func(path string)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Settings) fireChange(path string) {
	s.mu.Lock()
	subs := append([]func(string)(nil), s.onChange...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(path)
	}
}

// LSPEnabled reports whether both the mode gate and /lsp/enabled allow
// starting an LSP client (§4.L).
func (s *Settings) LSPEnabled() bool {
	if !s.mode.allowsLSP() {
		return false
	}
	v, err := s.Get("/lsp/enabled")
	if err != nil {
		return false
	}
	enabled, _ := v.(bool)
	return enabled
}

// MimeType returns the Document::Type string configured for suffix (e.g.
// ".cpp" or "cpp"), from the merged /mime_types map.
func (s *Settings) MimeType(suffix string) (string, bool) {
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	v, err := s.Get("/mime_types/" + suffix)
	if err != nil {
		return "", false
	}
	kind, ok := v.(string)
	return kind, ok
}

// DumpJSON returns the merged settings as pretty-printed JSON, for the
// --json-settings CLI flag.
func (s *Settings) DumpJSON() ([]byte, error) {
	return json.MarshalIndent(s.merged(), "", "  ")
}
