// Package refactor implements Component H: the C++ refactoring operations
// that scripts compose out of Components A (buffer), D (tree-sitter), F
// (symbols) and E (LSP), grounded on original_source/src/core/cppdocument.cpp.
package refactor

import (
	"context"
	"unicode/utf8"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/tliron/commonlog"
)

var logger = commonlog.GetLoggerf("knut.refactor")

// byteToRune converts a tree-sitter byte offset into a buffer rune offset.
// Tree-sitter nodes are indexed into the UTF-8 byte encoding of the exact
// string passed to Helper.Reparse; buffer.Buffer indexes the same text by
// rune. The two coincide for ASCII source and only diverge inside non-ASCII
// identifiers/comments/strings, which is rare enough in C++ sources that a
// single utf8.RuneCountInString pass is the right cost/complexity trade-off
// here (no need for a rope/index library).
func byteToRune(text string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(text) {
		return utf8.RuneCountInString(text)
	}
	return utf8.RuneCountInString(text[:byteOffset])
}

// runeToByte is the inverse of byteToRune: converts a buffer rune offset
// into the matching byte offset of the same text.
func runeToByte(text string, runeOffset int) int {
	if runeOffset <= 0 {
		return 0
	}
	count := 0
	for i := range text {
		if count == runeOffset {
			return i
		}
		count++
	}
	return len(text)
}

// reparse re-syncs doc's syntax tree (and LSP, if attached) with its buffer
// after an edit, matching the ordering guarantee of §5: every content change
// invalidates the tree and pushes a didChange before any further API call
// observes the new text.
func reparse(ctx context.Context, doc *document.CppDocument) error {
	return doc.OnContentChanged(ctx)
}
