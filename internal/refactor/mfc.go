package refactor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/syntax"
)

// DDXEntry is one `DDX_*(pDX, IDC_..., member)` call found in a
// DoDataExchange body.
type DDXEntry struct {
	Function  string
	ControlID string
	Member    string
}

// DataExchange is the mapping between dialog control ids and member
// variables extracted from a class's DoDataExchange (§4.H "MFC DDX
// extraction").
type DataExchange struct {
	ClassName string
	Entries   []DDXEntry
}

const qualifiedMethodDefinitionQuery = `
(function_definition
    declarator: (_ (qualified_identifier
        scope: (_) @scope
        name: (identifier) @name))
    body: (compound_statement) @body) @definition
`

// queryMethodDefinitionBody returns the byte range of the body of
// scope::name's definition, generalizing
// CppDocument::queryMethodDefinition(scope, name) to just the body range.
func queryMethodDefinitionBody(doc *document.CppDocument, scope, name string) (bodyStart, bodyEnd int, ok bool) {
	matches, err := doc.Syntax.RunQuery(qualifiedMethodDefinitionQuery)
	if err != nil {
		return 0, 0, false
	}
	content := doc.Syntax.Content()
	for _, m := range matches {
		s, hasScope := m.Get("scope")
		n, hasName := m.Get("name")
		if !hasScope || !hasName || s.Content(content) != scope || n.Content(content) != name {
			continue
		}
		body, hasBody := m.Get("body")
		if !hasBody {
			continue
		}
		return int(body.StartByte()), int(body.EndByte()), true
	}
	return 0, 0, false
}

var ddxCallRe = regexp.MustCompile(`\b(DDX_\w+)\s*\(\s*\w+\s*,\s*(\w+)\s*,\s*([A-Za-z_][A-Za-z0-9_.>-]*)\s*\)`)

// ExtractDDX parses every DDX_* call out of className's DoDataExchange body
// (§4.H "MFC DDX extraction").
func ExtractDDX(doc *document.CppDocument, className string) (*DataExchange, error) {
	bodyStart, bodyEnd, ok := queryMethodDefinitionBody(doc, className, "DoDataExchange")
	if !ok {
		return nil, fmt.Errorf("refactor: extract DDX: no DoDataExchange found in %s", className)
	}
	text := doc.Buffer.Text()
	runes := []rune(text)
	bodyText := string(runes[byteToRune(text, bodyStart):byteToRune(text, bodyEnd)])

	dx := &DataExchange{ClassName: className}
	for _, m := range ddxCallRe.FindAllStringSubmatch(bodyText, -1) {
		dx.Entries = append(dx.Entries, DDXEntry{Function: m[1], ControlID: m[2], Member: m[3]})
	}
	return dx, nil
}

// MessageMapEntry is one `ON_...(args)` row between BEGIN_MESSAGE_MAP and
// END_MESSAGE_MAP.
type MessageMapEntry struct {
	Name       string
	Parameters []string
}

// MessageMap is the parsed contents of an MFC MESSAGE_MAP block (§4.H "MFC
// MESSAGE_MAP extraction").
type MessageMap struct {
	ClassName  string
	SuperClass string
	Entries    []MessageMapEntry
}

const beginMessageMapQuery = `
(call_expression
    function: (identifier) @ident
    arguments: (argument_list
        (identifier) @class
        (identifier) @superclass)) @call
`

const endMessageMapQuery = `
(call_expression
    function: (identifier) @ident) @call
`

const anyCallStatementQuery = `
(expression_statement
    (call_expression
        function: (identifier) @name
        arguments: (argument_list) @args)) @statement
`

// ExtractMessageMap finds the BEGIN_MESSAGE_MAP(class, super) ... ON_...
// ... END_MESSAGE_MAP() block, restricting to className if non-empty
// (§4.H "MFC MESSAGE_MAP extraction").
func ExtractMessageMap(doc *document.CppDocument, className string) (*MessageMap, error) {
	root, hasRoot := doc.Syntax.Root()
	if !hasRoot {
		return nil, fmt.Errorf("refactor: extract message map: document not parsed")
	}
	content := doc.Syntax.Content()

	beginQuery, err := doc.Syntax.Query(beginMessageMapQuery)
	if err != nil {
		return nil, err
	}
	var begin *syntax.Match
	for _, m := range syntax.Run(beginQuery, root, content) {
		ident, ok := m.Get("ident")
		if !ok || ident.Content(content) != "BEGIN_MESSAGE_MAP" {
			continue
		}
		class, ok := m.Get("class")
		if !ok || (className != "" && class.Content(content) != className) {
			continue
		}
		match := m
		begin = &match
		break
	}
	if begin == nil {
		return nil, fmt.Errorf("refactor: extract message map: no BEGIN_MESSAGE_MAP found")
	}
	classNode, _ := begin.Get("class")
	superNode, _ := begin.Get("superclass")
	beginCall, _ := begin.Get("call")
	beginEnd := int(beginCall.EndByte())

	endQuery, err := doc.Syntax.Query(endMessageMapQuery)
	if err != nil {
		return nil, err
	}
	endStart := -1
	for _, m := range syntax.Run(endQuery, root, content) {
		ident, ok := m.Get("ident")
		if !ok || ident.Content(content) != "END_MESSAGE_MAP" {
			continue
		}
		call, _ := m.Get("call")
		start := int(call.StartByte())
		if start > beginEnd && (endStart == -1 || start < endStart) {
			endStart = start
		}
	}
	if endStart == -1 {
		return nil, fmt.Errorf("refactor: extract message map: no matching END_MESSAGE_MAP found")
	}

	statementQuery, err := doc.Syntax.Query(anyCallStatementQuery)
	if err != nil {
		return nil, err
	}
	mm := &MessageMap{ClassName: classNode.Content(content), SuperClass: superNode.Content(content)}
	for _, m := range syntax.Run(statementQuery, root, content) {
		stmt, _ := m.Get("statement")
		start := int(stmt.StartByte())
		if start <= beginEnd || start >= endStart {
			continue
		}
		name, _ := m.Get("name")
		args, _ := m.Get("args")
		mm.Entries = append(mm.Entries, MessageMapEntry{
			Name:       name.Content(content),
			Parameters: splitArguments(args.Content(content)),
		})
	}
	return mm, nil
}

// splitArguments splits a "(...)" argument list on top-level commas.
func splitArguments(argList string) []string {
	trimmed := strings.TrimSpace(argList)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	if strings.TrimSpace(trimmed) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range trimmed {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(trimmed[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(trimmed[start:]))
	return parts
}
