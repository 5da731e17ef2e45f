package syntax

import sitter "github.com/alexaandru/go-tree-sitter-bare"

// SelectLarger climbs count named ancestors starting from current, the node
// at or containing [selStart, selEnd) (§4.D: "if the current node already
// exactly spans the selection, the first ascent counts; otherwise the
// containing node is the first step"). On every further ascent, if the new
// parent's span is identical to the node it replaced, that ascent didn't
// actually grow the selection, so one extra ascent is taken to compensate.
func SelectLarger(current sitter.Node, selStart, selEnd int, count int) sitter.Node {
	node := current
	spansSelection := int(node.StartByte()) == selStart && int(node.EndByte()) == selEnd
	if !spansSelection {
		// The containing node itself is the first step.
		count--
	}
	for ; count > 0; count-- {
		parent := node.Parent()
		if parent.IsNull() {
			break
		}
		if int(parent.StartByte()) == int(node.StartByte()) && int(parent.EndByte()) == int(node.EndByte()) {
			// Same span as the node it replaced: not a real change, climb
			// one extra time to compensate.
			count++
		}
		node = parent
	}
	return node
}

// SelectSmaller descends count times to the left-most named node within
// current's span. If a candidate exactly spans [selStart, selEnd), that
// descent didn't actually shrink the selection, so one extra descent is
// taken to compensate (§4.D). Returns false if current has no named
// children at all.
func SelectSmaller(current sitter.Node, selStart, selEnd int, count int) (sitter.Node, bool) {
	candidates := NamedChildren(current)
	var node sitter.Node
	found := false
	for ; count > 0; count-- {
		if len(candidates) == 0 {
			break
		}
		node = candidates[0]
		found = true
		if int(node.StartByte()) == selStart && int(node.EndByte()) == selEnd {
			count++
		}
		candidates = NamedChildren(node)
	}
	if !found {
		return sitter.Node{}, false
	}
	return node, true
}

// SelectNextSyntaxNode walks to the next named sibling count times,
// ascending when the current level runs out of siblings (§4.D Next/
// Previous). If a step finds no further sibling at any level, the walk
// stops early and the furthest node reached is returned.
func SelectNextSyntaxNode(current sitter.Node, count int) sitter.Node {
	node := current
	for ; count > 0; count-- {
		next, ok := NextNamedSibling(node)
		if !ok {
			break
		}
		node = next
	}
	return node
}

// SelectPreviousSyntaxNode is the mirror of SelectNextSyntaxNode.
func SelectPreviousSyntaxNode(current sitter.Node, count int) sitter.Node {
	node := current
	for ; count > 0; count-- {
		prev, ok := PreviousNamedSibling(node)
		if !ok {
			break
		}
		node = prev
	}
	return node
}
