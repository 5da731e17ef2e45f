package symbol

import (
	"sort"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/kdab-labs/knutgo/internal/syntax"
)

// KindCapture maps a query capture name to the Kind it produces (a language
// binds its own query text together with this table — e.g. C++ captures
// "class.name" for classes, "function.name" for free functions).
type KindCapture struct {
	NameCapture       string
	RangeCapture      string
	SelectionCapture  string
	ReturnTypeCapture string
	ParameterCapture  string
	Kind              Kind
}

// Extract runs query against root and builds one Symbol per match, using
// table to decide each match's Kind and which captures feed which fields
// (§4.F "Each match carries captures name, range, selectionRange, and
// optional return-type, parameters").
func Extract(query *sitter.Query, root sitter.Node, content []byte, table []KindCapture) []Symbol {
	matches := syntax.Run(query, root, content)
	var symbols []Symbol
	for _, m := range matches {
		for _, entry := range table {
			nameNode, ok := m.Get(entry.NameCapture)
			if !ok {
				continue
			}
			rangeNode := nameNode
			if entry.RangeCapture != "" {
				if n, ok := m.Get(entry.RangeCapture); ok {
					rangeNode = n
				}
			}
			selNode := nameNode
			if entry.SelectionCapture != "" {
				if n, ok := m.Get(entry.SelectionCapture); ok {
					selNode = n
				}
			}
			sym := Symbol{
				Name:           nameNode.Content(content),
				Kind:           entry.Kind,
				Range:          Range{Start: int(rangeNode.StartByte()), End: int(rangeNode.EndByte())},
				SelectionRange: Range{Start: int(selNode.StartByte()), End: int(selNode.EndByte())},
			}
			if entry.ReturnTypeCapture != "" {
				if n, ok := m.Get(entry.ReturnTypeCapture); ok {
					sym.ReturnType = n.Content(content)
				}
			}
			if entry.ParameterCapture != "" {
				for _, n := range m.GetAll(entry.ParameterCapture) {
					sym.Parameters = append(sym.Parameters, n.Content(content))
				}
			}
			symbols = append(symbols, sym)
		}
	}
	return QualifyScopes(symbols)
}

// QualifyScopes walks the flat symbol list in document order, pushing a
// scope name whenever a Class/Struct symbol is entered and qualifying every
// symbol nested inside it by "::"-joining the active scope chain. A
// Function nested in a Class/Struct scope becomes a Method (§4.F).
func QualifyScopes(symbols []Symbol) []Symbol {
	sorted := make([]Symbol, len(symbols))
	copy(sorted, symbols)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Range.Start != sorted[j].Range.Start {
			return sorted[i].Range.Start < sorted[j].Range.Start
		}
		return sorted[i].Range.End > sorted[j].Range.End
	})

	type scopeEntry struct {
		name string
		rng  Range
	}
	var stack []scopeEntry

	for i := range sorted {
		s := &sorted[i]
		for len(stack) > 0 && !stack[len(stack)-1].rng.Contains(s.Range) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			names := make([]string, len(stack))
			for i, e := range stack {
				names[i] = e.name
			}
			s.Name = strings.Join(names, "::") + "::" + s.Name
			if s.Kind == KindFunction {
				s.Kind = KindMethod
			}
		}
		if s.Kind == KindClass || s.Kind == KindStruct {
			stack = append(stack, scopeEntry{name: sorted[i].localName(s.Name), rng: s.Range})
		}
	}
	return sorted
}

// localName strips any scope qualification already applied to qualified,
// returning only the name segment just appended for this symbol (used when
// pushing a Class/Struct's own name, never the already-qualified chain).
func (s Symbol) localName(qualified string) string {
	if idx := strings.LastIndex(qualified, "::"); idx >= 0 {
		return qualified[idx+2:]
	}
	return qualified
}
