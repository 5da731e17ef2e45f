// Package project implements Component I: the open-document set a script
// operates against, an MRU-ordered store with no size cap, generalized to typed-document
// dispatch via internal/settings' mime-types map.
package project

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/settings"
	"github.com/kdab-labs/knutgo/internal/syntax"
)

// Document is the subset of every typed document's API that Project needs;
// all of document.Cpp/Rc/Ui/QtTs/Json/Image/Code/Text Document satisfy it
// via their embedded *document.Document.
type Document interface {
	Load(path string) error
	Close() error
}

type entry struct {
	path string
	doc  Document
}

// Project is the open-document set a script sees as Project.get/open/...
// (§4.I).
type Project struct {
	mu       sync.Mutex
	root     string
	settings *settings.Settings
	entries  []*entry
	index    map[string]*entry
	current  string
}

// New returns a Project rooted at root, dispatching file types through s's
// mime-types map.
func New(root string, s *settings.Settings) *Project {
	return &Project{
		root:     root,
		settings: s,
		index:    make(map[string]*entry),
	}
}

// Root returns the project's root directory.
func (p *Project) Root() string { return p.root }

func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func (p *Project) newDocumentFor(path string) Document {
	kindStr, ok := p.settings.MimeType(filepath.Ext(path))
	if !ok {
		kindStr = string(document.TypeText)
	}
	return newDocumentForKind(document.Type(kindStr))
}

func newDocumentForKind(kind document.Type) Document {
	switch kind {
	case document.TypeCpp:
		return document.NewCppDocument()
	case document.TypeRc:
		return document.NewRcDocument()
	case document.TypeUi:
		return document.NewUiDocument()
	case document.TypeTs:
		return document.NewQtTsDocument()
	case document.TypeJson:
		return document.NewJsonDocument()
	case document.TypeImage:
		return document.NewImageDocument()
	case document.TypeCSharp:
		return document.NewCodeDocument(document.TypeCSharp, syntax.LanguageCSharp)
	case document.TypeRust:
		return document.NewCodeDocument(document.TypeRust, syntax.LanguageRust)
	case document.TypeDart:
		return document.NewCodeDocument(document.TypeDart, syntax.LanguageDart)
	case document.TypeQml:
		return document.NewCodeDocument(document.TypeQml, syntax.LanguageQml)
	default:
		return document.NewTextDocument(kind)
	}
}

// Get returns path's already-open Document, or loads and caches one
// (§4.I get()). It never changes Current; an open document keeps its place
// in recency order, and a newly loaded one is appended at the most-recent end.
func (p *Project) Get(path string) (Document, error) {
	path = normalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("project: get: empty path")
	}

	p.mu.Lock()
	if e, ok := p.index[path]; ok {
		p.mu.Unlock()
		return e.doc, nil
	}
	p.mu.Unlock()

	doc := p.newDocumentFor(path)
	if err := doc.Load(path); err != nil {
		return nil, fmt.Errorf("project: open %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.index[path]; ok {
		return e.doc, nil
	}
	e := &entry{path: path, doc: doc}
	p.entries = append(p.entries, e)
	p.index[path] = e
	return doc, nil
}

// Open is Get plus making path current and moving it to the back (most
// recent) of the recency list (§4.I open()).
func (p *Project) Open(path string) (Document, error) {
	doc, err := p.Get(path)
	if err != nil {
		return nil, err
	}
	path = normalizePath(path)

	p.mu.Lock()
	p.moveToEndLocked(path)
	p.current = path
	p.mu.Unlock()
	return doc, nil
}

func (p *Project) moveToEndLocked(path string) {
	idx := -1
	for i, e := range p.entries {
		if e.path == path {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(p.entries)-1 {
		return
	}
	e := p.entries[idx]
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	p.entries = append(p.entries, e)
}

// OpenPrevious returns the n-th most recently used document (0 is the
// current document, 1 the one before it, and so on) (§4.I open_previous()).
func (p *Project) OpenPrevious(n int) (Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.entries) - 1 - n
	if idx < 0 || idx >= len(p.entries) {
		return nil, fmt.Errorf("project: open previous: no entry %d back", n)
	}
	return p.entries[idx].doc, nil
}

// Current returns the document most recently passed to Open, if any.
func (p *Project) Current() (Document, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return nil, false
	}
	e, ok := p.index[p.current]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// Close closes and evicts path's document, if open.
func (p *Project) Close(path string) error {
	path = normalizePath(path)
	p.mu.Lock()
	e, ok := p.index[path]
	if !ok {
		p.mu.Unlock()
		return nil
	}
	delete(p.index, path)
	for i, other := range p.entries {
		if other == e {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	if p.current == path {
		p.current = ""
	}
	p.mu.Unlock()
	return e.doc.Close()
}

// FindResult is one parsed ripgrep --vimgrep match (§4.I find_in_files()).
type FindResult struct {
	File   string
	Line   int
	Column int
	Text   string
}

// ErrRipgrepUnavailable is returned by FindInFiles when "rg" is not on PATH.
var ErrRipgrepUnavailable = errors.New("project: ripgrep (rg) not found on PATH")

// FindInFiles runs `rg --vimgrep -U --multiline-dotall <pattern> <root>` and
// parses its `file:line:col:text` output.
func (p *Project) FindInFiles(ctx context.Context, pattern string) ([]FindResult, error) {
	rgPath, err := exec.LookPath("rg")
	if err != nil {
		return nil, ErrRipgrepUnavailable
	}

	cmd := exec.CommandContext(ctx, rgPath, "--vimgrep", "-U", "--multiline-dotall", pattern, p.root)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil // rg's exit code for "no matches"
		}
		return nil, fmt.Errorf("project: find in files: %w", err)
	}
	return parseVimgrepLines(string(out)), nil
}

func parseVimgrepLines(output string) []FindResult {
	var results []FindResult
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) < 4 {
			continue
		}
		lineNo, errLine := strconv.Atoi(parts[1])
		col, errCol := strconv.Atoi(parts[2])
		if errLine != nil || errCol != nil {
			continue
		}
		results = append(results, FindResult{File: parts[0], Line: lineNo, Column: col, Text: parts[3]})
	}
	return results
}
