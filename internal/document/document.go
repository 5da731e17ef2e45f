// Package document implements Component G: the Document base type and the
// typed documents built on top of it.
package document

import (
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"
)

// Type enumerates the polymorphic Document kinds (§3 Document).
type Type string

const (
	TypeCpp    Type = "Cpp"
	TypeText   Type = "Text"
	TypeRc     Type = "Rc"
	TypeUi     Type = "Ui"
	TypeTs     Type = "Ts"
	TypeJson   Type = "Json"
	TypeImage  Type = "Image"
	TypeSlint  Type = "Slint"
	TypeQml    Type = "Qml"
	TypeCSharp Type = "CSharp"
	TypeRust   Type = "Rust"
	TypeDart   Type = "Dart"
)

// ConflictResolution is the embedding UI's answer when the on-disk file
// changed since it was loaded (§4.G resolve_conflicts_on_save).
type ConflictResolution int

const (
	// ConflictOverwrite replaces the on-disk content with the in-memory one.
	ConflictOverwrite ConflictResolution = iota
	// ConflictKeepDisk aborts the save, leaving the file untouched.
	ConflictKeepDisk
)

// ConflictResolver asks the embedding UI how to resolve a save conflict.
// The CLI's default resolver always overwrites (§1: a headless engine has
// no UI to ask, so silent overwrite is the only sensible default).
type ConflictResolver func(path string) ConflictResolution

// Backend is implemented by each typed document for its type-specific I/O
// (§4.G "load(): ... type-specific do_load()").
type Backend interface {
	DoLoad(path string, data []byte) error
	DoSave(path string) ([]byte, error)
}

// Document is the base embedded by every typed document (§3 Document).
type Document struct {
	FilePath           string
	Kind               Type
	HasChanged         bool
	ErrorString        string
	LastModifiedOnDisk time.Time

	logger   commonlog.Logger
	resolver ConflictResolver
	backend  Backend
}

// NewDocument constructs a base Document of the given type, wrapping
// backend for type-specific I/O.
func NewDocument(kind Type, backend Backend) *Document {
	return &Document{
		Kind:     kind,
		backend:  backend,
		logger:   commonlog.GetLoggerf("knut.document"),
		resolver: func(string) ConflictResolution { return ConflictOverwrite },
	}
}

// SetConflictResolver overrides the default overwrite-always resolver.
func (d *Document) SetConflictResolver(r ConflictResolver) {
	if r != nil {
		d.resolver = r
	}
}

// Load implements the §4.G gateway: read the file, do_load, record mtime.
// It does not close or save the previously loaded content first; unsaved
// edits are replaced by the file's contents.
func (d *Document) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		d.ErrorString = err.Error()
		return fmt.Errorf("document: load %s: %w", path, err)
	}
	if err := d.backend.DoLoad(path, data); err != nil {
		d.ErrorString = err.Error()
		return fmt.Errorf("document: parse %s: %w", path, err)
	}
	d.FilePath = path
	d.HasChanged = false
	d.ErrorString = ""
	d.recordMtime(path)
	return nil
}

// Save implements the §4.G gateway: resolve_conflicts_on_save, do_save,
// clear dirty, record mtime.
func (d *Document) Save() error {
	return d.saveTo(d.FilePath)
}

// SaveAs saves to a new path. If the path differs from the current one, the
// caller is responsible for the did_close(old)+did_open(new) notification
// around this call (§4.G: "around do_save").
func (d *Document) SaveAs(path string) error {
	return d.saveTo(path)
}

func (d *Document) saveTo(path string) error {
	if path == "" {
		return fmt.Errorf("document: save: no path set")
	}
	if res := d.resolveConflicts(path); res == ConflictKeepDisk {
		d.logger.Infof("%s: save aborted, disk copy kept", path)
		return nil
	}

	data, err := d.backend.DoSave(path)
	if err != nil {
		d.ErrorString = err.Error()
		return fmt.Errorf("document: save %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.ErrorString = err.Error()
		return fmt.Errorf("document: write %s: %w", path, err)
	}
	d.FilePath = path
	d.HasChanged = false
	d.ErrorString = ""
	d.recordMtime(path)
	return nil
}

// resolveConflicts asks the resolver only when the on-disk mtime differs
// from the one recorded at load/save time (§4.G resolve_conflicts_on_save).
func (d *Document) resolveConflicts(path string) ConflictResolution {
	info, err := os.Stat(path)
	if err != nil {
		return ConflictOverwrite // file doesn't exist yet: nothing to conflict with
	}
	if info.ModTime().Equal(d.LastModifiedOnDisk) {
		return ConflictOverwrite
	}
	return d.resolver(path)
}

// Close auto-saves if dirty (§4.G close(): "if dirty → save(); did_close").
func (d *Document) Close() error {
	if d.HasChanged {
		return d.Save()
	}
	return nil
}

// Reload re-runs do_load against the current path (§4.G reload()).
func (d *Document) Reload() error {
	return d.Load(d.FilePath)
}

func (d *Document) recordMtime(path string) {
	if info, err := os.Stat(path); err == nil {
		d.LastModifiedOnDisk = info.ModTime()
	}
}

// MarkChanged flags the document dirty; typed documents call this from
// every mutating operation.
func (d *Document) MarkChanged() { d.HasChanged = true }
