package document

import (
	"bytes"

	"github.com/kdab-labs/knutgo/internal/buffer"
)

// LineEnding is the detected/used newline convention (§3 TextDocument).
type LineEnding int

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextDocument owns a TextBuffer plus the load-time BOM/line-ending flags
// that Save must reverse (§3 TextDocument).
type TextDocument struct {
	*Document
	Buffer     *buffer.Buffer
	LineEnding LineEnding
	UTF8BOM    bool
}

// NewTextDocument returns an empty TextDocument of kind.
func NewTextDocument(kind Type) *TextDocument {
	t := &TextDocument{Buffer: buffer.NewBuffer("")}
	t.Document = NewDocument(kind, t)
	return t
}

// Cursor is implemented by every document kind backed by a text buffer
// (TextDocument and everything embedding it), letting callers place the
// cursor without a type switch over the concrete document type.
type Cursor interface {
	TextBuffer() *buffer.Buffer
}

// TextBuffer implements Cursor.
func (t *TextDocument) TextBuffer() *buffer.Buffer { return t.Buffer }

// DoLoad implements Backend: detect BOM, detect line ending from the first
// `\n`, normalize CRLF to LF in the buffer (§3 TextDocument load rules).
func (t *TextDocument) DoLoad(_ string, data []byte) error {
	hasBOM := bytes.HasPrefix(data, utf8BOM)
	if hasBOM {
		data = data[len(utf8BOM):]
	}
	t.UTF8BOM = hasBOM
	t.LineEnding = detectLineEnding(data)
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	t.Buffer = buffer.NewBuffer(string(normalized))
	return nil
}

// DoSave implements Backend: reverse the BOM/line-ending normalization.
func (t *TextDocument) DoSave(_ string) ([]byte, error) {
	out := []byte(t.Buffer.Text())
	if t.LineEnding == LineEndingCRLF {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if t.UTF8BOM {
		out = append(append([]byte(nil), utf8BOM...), out...)
	}
	return out, nil
}

// detectLineEnding inspects the first '\n' in data; CRLF if preceded by
// '\r', LF otherwise. Files with no newline default to LF.
func detectLineEnding(data []byte) LineEnding {
	idx := bytes.IndexByte(data, '\n')
	if idx > 0 && data[idx-1] == '\r' {
		return LineEndingCRLF
	}
	return LineEndingLF
}
