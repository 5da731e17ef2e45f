package refactor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/syntax"
)

// ToggleSectionConfig carries the user-defined debug tag, message format,
// and per-return-type literal map used by ToggleSection (§4.H "Toggle
// section").
type ToggleSectionConfig struct {
	Tag            string
	DebugFormat    string // e.g. "qDebug() << %s", %s replaced by the function name
	ReturnLiterals map[string]string
}

func defaultReturnLiteral(cfg ToggleSectionConfig, returnType string) string {
	if lit, ok := cfg.ReturnLiterals[returnType]; ok {
		return "return " + lit + ";"
	}
	switch {
	case returnType == "" || returnType == "void":
		return "return;"
	case strings.HasSuffix(returnType, "*"):
		return "return nullptr;"
	default:
		return "return {};"
	}
}

const functionDefinitionQuery = `
(function_definition
    type: (_)? @return-type
    declarator: (_) @declarator
    body: (compound_statement) @body) @definition
`

var functionNameRe = regexp.MustCompile(`([A-Za-z_~][A-Za-z0-9_]*)\s*\(`)

func extractFunctionName(declarator string) string {
	matches := functionNameRe.FindAllStringSubmatch(declarator, -1)
	if len(matches) == 0 {
		return declarator
	}
	return matches[len(matches)-1][1]
}

// enclosingFunction walks up from the node at byteOffset to the nearest
// function_definition ancestor and returns its definition/body byte ranges
// plus its return type and name.
func enclosingFunction(doc *document.CppDocument, byteOffset int) (defStart, defEnd, bodyStart, bodyEnd int, returnType, name string, ok bool) {
	node, found := doc.Syntax.NodeAt(byteOffset)
	if !found {
		return
	}

	var fn sitter.Node
	for cur := node; !cur.IsNull(); cur = cur.Parent() {
		if cur.Type() == "function_definition" {
			fn = cur
			break
		}
	}
	if fn.IsNull() {
		return
	}

	query, err := doc.Syntax.Query(functionDefinitionQuery)
	if err != nil {
		return
	}
	content := doc.Syntax.Content()
	matches := syntax.Run(query, fn, content)
	if len(matches) == 0 {
		return
	}
	m := matches[0]
	body, hasBody := m.Get("body")
	def, hasDef := m.Get("definition")
	if !hasBody || !hasDef {
		return
	}
	if declarator, hasDecl := m.Get("declarator"); hasDecl {
		name = extractFunctionName(declarator.Content(content))
	}
	if rt, hasRT := m.Get("return-type"); hasRT {
		returnType = rt.Content(content)
	}
	return int(def.StartByte()), int(def.EndByte()), int(body.StartByte()), int(body.EndByte()), returnType, name, true
}

// ToggleSection wraps the function body enclosing cursorOffset in
// `#ifdef TAG / #else / #endif`, or unwraps it if already wrapped (detected
// by the trailing `#endif // TAG` marker) (§4.H "Toggle section").
func ToggleSection(ctx context.Context, doc *document.CppDocument, cursorOffset int, cfg ToggleSectionConfig) error {
	text := doc.Buffer.Text()
	byteOffset := runeToByte(text, cursorOffset)
	defStart, defEnd, bodyStart, bodyEnd, returnType, name, ok := enclosingFunction(doc, byteOffset)
	if !ok {
		return fmt.Errorf("refactor: toggle section: no enclosing function at offset %d", cursorOffset)
	}

	endifMarker := fmt.Sprintf("#endif // %s", cfg.Tag)
	if bodyEnd > bodyStart && strings.HasSuffix(strings.TrimRight(text[bodyStart:bodyEnd-1], " \t\n"), endifMarker) {
		return unwrapSection(ctx, doc, defStart, defEnd, cfg)
	}

	runes := []rune(text)
	bodyRuneStart, bodyRuneEnd := byteToRune(text, bodyStart), byteToRune(text, bodyEnd)
	inner := strings.TrimSpace(string(runes[bodyRuneStart+1 : bodyRuneEnd-1]))

	elseBranch := fmt.Sprintf(cfg.DebugFormat, name) + "; " + defaultReturnLiteral(cfg, returnType)
	wrapped := fmt.Sprintf("{\n#ifdef %s\n%s\n#else\n%s\n#endif // %s\n}", cfg.Tag, inner, elseBranch, cfg.Tag)

	doc.Buffer.ReplaceRange(bodyRuneStart, bodyRuneEnd, wrapped)
	logger.Infof("%s: wrapped %s in #ifdef %s", doc.FilePath, name, cfg.Tag)
	return reparse(ctx, doc)
}

func unwrapSection(ctx context.Context, doc *document.CppDocument, defStart, defEnd int, cfg ToggleSectionConfig) error {
	text := doc.Buffer.Text()
	endifMarker := fmt.Sprintf("#endif // %s", cfg.Tag)
	if strings.LastIndex(text[defStart:defEnd], endifMarker) == -1 {
		return fmt.Errorf("refactor: toggle section: missing %q", endifMarker)
	}
	totalEnd := defEnd

	region := text[defStart:totalEnd]
	ifdefTag := fmt.Sprintf("#ifdef %s", cfg.Tag)
	ifdefIdx := strings.Index(region, ifdefTag)
	elseIdx := strings.Index(region, "\n#else")
	braceIdx := strings.Index(region, "{")
	if ifdefIdx == -1 || elseIdx == -1 || braceIdx == -1 {
		return fmt.Errorf("refactor: toggle section: malformed wrapped section")
	}
	inner := strings.TrimSpace(region[ifdefIdx+len(ifdefTag) : elseIdx])
	head := region[:braceIdx]
	restored := head + "{\n" + inner + "\n}"

	runeStart, runeEnd := byteToRune(text, defStart), byteToRune(text, totalEnd)
	doc.Buffer.ReplaceRange(runeStart, runeEnd, restored)
	logger.Infof("%s: unwrapped #ifdef %s", doc.FilePath, cfg.Tag)
	return reparse(ctx, doc)
}
