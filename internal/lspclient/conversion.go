package lspclient

import protocol "github.com/tliron/glsp/protocol_3_16"

// lineStarts returns the offset of the first rune of every line in content
// (line 0 starts at offset 0).
func lineStarts(content []rune) []int {
	starts := []int{0}
	for i, r := range content {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// OffsetToPosition converts a 0-based rune offset into an LSP Position:
// line = block number at offset, character = offset − block_start (§4.E
// offset_to_lsp_position).
func OffsetToPosition(content []rune, offset int) protocol.Position {
	starts := lineStarts(content)
	line := 0
	for i, s := range starts {
		if s <= offset {
			line = i
		} else {
			break
		}
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(offset - starts[line])}
}

// PositionToOffset converts an LSP Position to a 0-based rune offset,
// clamping the line to [0, line_count) and the character to the line's
// length (§4.E lsp_position_to_offset).
func PositionToOffset(content []rune, pos protocol.Position) int {
	starts := lineStarts(content)
	line := int(pos.Line)
	if line < 0 {
		line = 0
	}
	if line >= len(starts) {
		line = len(starts) - 1
	}
	lineStart := starts[line]
	lineEnd := len(content)
	if line+1 < len(starts) {
		lineEnd = starts[line+1] - 1 // exclude the trailing '\n'
		if lineEnd < lineStart {
			lineEnd = lineStart
		}
	}
	col := int(pos.Character)
	if col < 0 {
		col = 0
	}
	if lineStart+col > lineEnd {
		col = lineEnd - lineStart
	}
	return lineStart + col
}
