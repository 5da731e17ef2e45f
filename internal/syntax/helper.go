package syntax

import (
	"context"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/tliron/commonlog"

	"github.com/kdab-labs/knutgo/internal/telemetry"
)

// Helper lazily parses and reparses one document's source against a fixed
// language, and answers node-at-position / sibling-navigation / query
// questions over the current tree (§4.D). The owner calls Reparse with the
// new content after each change; the parse is incremental when an InputEdit
// is supplied and full otherwise.
type Helper struct {
	mu       sync.RWMutex
	parser   *sitter.Parser
	language sitter.Language
	tree     *sitter.Tree
	content  []byte
	queries  map[string]*sitter.Query
	logger   commonlog.Logger
}

// NewHelper returns a Helper bound to language. The first call to Reparse
// performs the initial full parse.
func NewHelper(language sitter.Language) *Helper {
	parser := sitter.NewParser()
	_ = parser.SetLanguage(language)
	return &Helper{
		parser:   parser,
		language: language,
		queries:  make(map[string]*sitter.Query),
		logger:   telemetry.Logger("syntax"),
	}
}

// Reparse re-parses content, incrementally if edit is non-nil and a
// previous tree exists, full otherwise. It invalidates the previous tree.
func (h *Helper) Reparse(ctx context.Context, content []byte, edit *sitter.InputEdit) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var oldTree *sitter.Tree
	if h.tree != nil && edit != nil {
		h.tree.Edit(*edit)
		oldTree = h.tree
	} else if h.tree != nil {
		h.tree.Close()
	}

	tree, err := h.parser.ParseString(ctx, oldTree, content)
	if err != nil {
		return err
	}
	if oldTree != nil {
		oldTree.Close()
	}
	h.tree = tree
	h.content = content
	return nil
}

// Invalidate drops the current tree without reparsing; Root, NodeAt and the
// other tree queries report no node until Reparse is called again.
func (h *Helper) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tree != nil {
		h.tree.Close()
		h.tree = nil
	}
}

// Close releases the current tree and its parser resources.
func (h *Helper) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tree != nil {
		h.tree.Close()
		h.tree = nil
	}
}

// Query parses and caches source as a tree-sitter query bound to this
// Helper's language, compiling the query string once per distinct source
// (§4.D construct_query).
func (h *Helper) Query(source string) (*sitter.Query, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if q, ok := h.queries[source]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery(h.language, []byte(source))
	if err != nil {
		return nil, err
	}
	h.queries[source] = q
	return q, nil
}

// Root returns the tree's root node and whether one exists yet.
func (h *Helper) Root() (sitter.Node, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.tree == nil {
		return sitter.Node{}, false
	}
	root := h.tree.RootNode()
	return root, !root.IsNull()
}

// RunQuery compiles (or reuses) source and runs it against the whole tree
// (§4.D).
func (h *Helper) RunQuery(source string) ([]Match, error) {
	query, err := h.Query(source)
	if err != nil {
		return nil, err
	}
	root, ok := h.Root()
	if !ok {
		return nil, nil
	}
	matches := Run(query, root, h.Content())
	h.logger.Debugf("query matched %s node(s) over %s of source", telemetry.FormatCount(len(matches)), telemetry.FormatBytes(int64(len(h.content))))
	return matches, nil
}

// Content returns a defensive copy of the content the current tree was
// parsed from.
func (h *Helper) Content() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]byte(nil), h.content...)
}

// NodeAt returns the smallest node whose byte range contains offset (§4.D
// node_at).
func (h *Helper) NodeAt(offset int) (sitter.Node, bool) {
	root, ok := h.Root()
	if !ok {
		return sitter.Node{}, false
	}
	point := h.offsetToPoint(offset)
	node := root.NamedDescendantForPointRange(point, point)
	return node, !node.IsNull()
}

// NodeCoveringRange returns the smallest node whose range fully contains
// [start,end] (§4.D node_covering_range).
func (h *Helper) NodeCoveringRange(start, end int) (sitter.Node, bool) {
	root, ok := h.Root()
	if !ok {
		return sitter.Node{}, false
	}
	sp, ep := h.offsetToPoint(start), h.offsetToPoint(end)
	node := root.NamedDescendantForPointRange(sp, ep)
	return node, !node.IsNull()
}

// NodesInRange returns every node whose range is fully inside [start,end],
// deepest first then left-to-right (§4.D nodes_in_range).
func (h *Helper) NodesInRange(start, end int) []sitter.Node {
	root, ok := h.Root()
	if !ok {
		return nil
	}
	var result []sitter.Node
	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		s, e := int(n.StartByte()), int(n.EndByte())
		if s < start || e > end {
			return
		}
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(n.NamedChild(uint32(i)))
		}
		result = append(result, n)
	}
	walk(root)
	return result
}

// NamedChildren returns only the named children of n (§4.D named_children).
func NamedChildren(n sitter.Node) []sitter.Node {
	count := int(n.NamedChildCount())
	children := make([]sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, n.NamedChild(uint32(i)))
	}
	return children
}

// NextNamedSibling returns the next named sibling, ascending through parents
// when the current level has none (§4.D: "ascend until one is found").
func NextNamedSibling(n sitter.Node) (sitter.Node, bool) {
	cur := n
	for {
		sib := cur.NextNamedSibling()
		if !sib.IsNull() {
			return sib, true
		}
		parent := cur.Parent()
		if parent.IsNull() {
			return sitter.Node{}, false
		}
		cur = parent
	}
}

// PreviousNamedSibling is the mirror of NextNamedSibling.
func PreviousNamedSibling(n sitter.Node) (sitter.Node, bool) {
	cur := n
	for {
		sib := cur.PrevNamedSibling()
		if !sib.IsNull() {
			return sib, true
		}
		parent := cur.Parent()
		if parent.IsNull() {
			return sitter.Node{}, false
		}
		cur = parent
	}
}

// offsetToPoint converts a byte offset to a tree-sitter Point by counting
// newlines in the current content.
func (h *Helper) offsetToPoint(offset int) sitter.Point {
	row, col := 0, 0
	if offset > len(h.content) {
		offset = len(h.content)
	}
	for i := 0; i < offset; i++ {
		if h.content[i] == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return sitter.Point{Row: uint(row), Column: uint(col)}
}
