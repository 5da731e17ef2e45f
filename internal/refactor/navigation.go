package refactor

import (
	"context"
	"fmt"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/syntax"
)

var openBrackets = map[rune]rune{'{': '}', '(': ')', '[': ']'}
var closeBrackets = map[rune]rune{'}': '{', ')': '(', ']': '['}

// blockAt returns the innermost {}/()/[] pair enclosing runeOffset, found
// by a plain nesting-counter scan of the text rather than the syntax tree,
// so it still works on code that does not currently parse (§4.H "Block
// navigation").
func blockAt(runes []rune, runeOffset int) (openAt, closeAt int, ok bool) {
	if runeOffset > len(runes) {
		runeOffset = len(runes)
	}

	depth := 0
	openAt = -1
	for i := runeOffset - 1; i >= 0; i-- {
		r := runes[i]
		if _, isClose := closeBrackets[r]; isClose {
			depth++
			continue
		}
		if _, isOpen := openBrackets[r]; isOpen {
			if depth == 0 {
				openAt = i
				break
			}
			depth--
		}
	}
	if openAt == -1 {
		return 0, 0, false
	}

	open := runes[openAt]
	want := openBrackets[open]
	depth = 0
	for i := openAt + 1; i < len(runes); i++ {
		switch runes[i] {
		case open:
			depth++
		case want:
			if depth == 0 {
				return openAt, i, true
			}
			depth--
		}
	}
	return 0, 0, false
}

// GotoBlockStart returns the rune offset of the opening bracket of the
// innermost block enclosing cursorOffset.
func GotoBlockStart(doc *document.CppDocument, cursorOffset int) (int, error) {
	runes := []rune(doc.Buffer.Text())
	start, _, ok := blockAt(runes, cursorOffset)
	if !ok {
		return 0, fmt.Errorf("refactor: goto block start: no enclosing block at offset %d", cursorOffset)
	}
	return start, nil
}

// GotoBlockEnd returns the rune offset just past the closing bracket of the
// innermost block enclosing cursorOffset.
func GotoBlockEnd(doc *document.CppDocument, cursorOffset int) (int, error) {
	runes := []rune(doc.Buffer.Text())
	_, end, ok := blockAt(runes, cursorOffset)
	if !ok {
		return 0, fmt.Errorf("refactor: goto block end: no enclosing block at offset %d", cursorOffset)
	}
	return end + 1, nil
}

// SelectBlockStart returns the range from the block's opening bracket
// (inclusive) to cursorOffset; the buffer's selection is not changed.
func SelectBlockStart(ctx context.Context, doc *document.CppDocument, cursorOffset int) (start, end int, err error) {
	runes := []rune(doc.Buffer.Text())
	open, _, ok := blockAt(runes, cursorOffset)
	if !ok {
		return 0, 0, fmt.Errorf("refactor: select block start: no enclosing block at offset %d", cursorOffset)
	}
	return open, cursorOffset, nil
}

// SelectBlockEnd returns the range from cursorOffset to the block's closing
// bracket (inclusive); the buffer's selection is not changed.
func SelectBlockEnd(ctx context.Context, doc *document.CppDocument, cursorOffset int) (start, end int, err error) {
	runes := []rune(doc.Buffer.Text())
	_, close_, ok := blockAt(runes, cursorOffset)
	if !ok {
		return 0, 0, fmt.Errorf("refactor: select block end: no enclosing block at offset %d", cursorOffset)
	}
	return cursorOffset, close_ + 1, nil
}

// SelectBlockUp returns the range of the innermost block enclosing
// cursorOffset, bracket pair included; the buffer's selection is not changed.
func SelectBlockUp(doc *document.CppDocument, cursorOffset int) (start, end int, err error) {
	runes := []rune(doc.Buffer.Text())
	open, close_, ok := blockAt(runes, cursorOffset)
	if !ok {
		return 0, 0, fmt.Errorf("refactor: select block up: no enclosing block at offset %d", cursorOffset)
	}
	return open, close_ + 1, nil
}

// SelectLargerSyntaxNode selects the text of the next larger syntax node
// that the selection is in, count times, and returns the new cursor
// position (§4.D "Selection navigation", §8 scenario: cursor inside `x` of
// `return x + 1;`, selectLargerSyntaxNode(1) selects `x`, (2) selects
// `x + 1`, and so on).
func SelectLargerSyntaxNode(doc *document.CppDocument, count int) (int, error) {
	if doc.Syntax == nil {
		return 0, fmt.Errorf("refactor: select larger syntax node: document has no syntax tree")
	}
	selStart, selEnd := doc.Buffer.SelectionStart(), doc.Buffer.SelectionEnd()
	node, ok := doc.Syntax.NodeCoveringRange(selStart, selEnd)
	if !ok {
		return 0, fmt.Errorf("refactor: select larger syntax node: no node covers [%d, %d)", selStart, selEnd)
	}
	larger := syntax.SelectLarger(node, selStart, selEnd, count)
	doc.Buffer.SelectRegion(int(larger.StartByte()), int(larger.EndByte()))
	return doc.Buffer.Position(), nil
}

// SelectSmallerSyntaxNode selects the left-most next smaller syntax node
// within the current selection, count times, and returns the new cursor
// position. It is a no-op, returning an error, if the current node has no
// named children to descend into (§4.D).
func SelectSmallerSyntaxNode(doc *document.CppDocument, count int) (int, error) {
	if doc.Syntax == nil {
		return 0, fmt.Errorf("refactor: select smaller syntax node: document has no syntax tree")
	}
	selStart, selEnd := doc.Buffer.SelectionStart(), doc.Buffer.SelectionEnd()
	node, ok := doc.Syntax.NodeCoveringRange(selStart, selEnd)
	if !ok {
		return 0, fmt.Errorf("refactor: select smaller syntax node: no node covers [%d, %d)", selStart, selEnd)
	}
	smaller, ok := syntax.SelectSmaller(node, selStart, selEnd, count)
	if !ok {
		return 0, fmt.Errorf("refactor: select smaller syntax node: no smaller node within [%d, %d)", selStart, selEnd)
	}
	doc.Buffer.SelectRegion(int(smaller.StartByte()), int(smaller.EndByte()))
	return doc.Buffer.Position(), nil
}

// SelectNextSyntaxNode selects the next syntax node following the current
// selection, count times, ascending to the next larger syntax node and
// searching from there whenever the current level has no more siblings
// (§4.D).
func SelectNextSyntaxNode(doc *document.CppDocument, count int) (int, error) {
	if doc.Syntax == nil {
		return 0, fmt.Errorf("refactor: select next syntax node: document has no syntax tree")
	}
	selStart, selEnd := doc.Buffer.SelectionStart(), doc.Buffer.SelectionEnd()
	node, ok := doc.Syntax.NodeCoveringRange(selStart, selEnd)
	if !ok {
		return 0, fmt.Errorf("refactor: select next syntax node: no node covers [%d, %d)", selStart, selEnd)
	}
	next := syntax.SelectNextSyntaxNode(node, count)
	doc.Buffer.SelectRegion(int(next.StartByte()), int(next.EndByte()))
	return doc.Buffer.Position(), nil
}

// SelectPreviousSyntaxNode is the mirror of SelectNextSyntaxNode.
func SelectPreviousSyntaxNode(doc *document.CppDocument, count int) (int, error) {
	if doc.Syntax == nil {
		return 0, fmt.Errorf("refactor: select previous syntax node: document has no syntax tree")
	}
	selStart, selEnd := doc.Buffer.SelectionStart(), doc.Buffer.SelectionEnd()
	node, ok := doc.Syntax.NodeCoveringRange(selStart, selEnd)
	if !ok {
		return 0, fmt.Errorf("refactor: select previous syntax node: no node covers [%d, %d)", selStart, selEnd)
	}
	prev := syntax.SelectPreviousSyntaxNode(node, count)
	doc.Buffer.SelectRegion(int(prev.StartByte()), int(prev.EndByte()))
	return doc.Buffer.Position(), nil
}
