package refactor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kdab-labs/knutgo/internal/document"
)

// AccessSpecifier mirrors a class's access sections (§4.H "Add member /
// method declaration").
type AccessSpecifier int

const (
	Public AccessSpecifier = iota
	Protected
	Private
)

func (a AccessSpecifier) String() string {
	switch a {
	case Public:
		return "public"
	case Protected:
		return "protected"
	default:
		return "private"
	}
}

const classDefinitionQuery = `
[(class_specifier
    name: (_) @name
    body: (_) @body)
 (struct_specifier
    name: (_) @name
    body: (_) @body)]
`

// queryClassDefinition returns the byte range of className's body (including
// the surrounding braces), grounded on CppDocument::queryClassDefinition.
func queryClassDefinition(doc *document.CppDocument, className string) (bodyStart, bodyEnd int, ok bool) {
	matches, err := doc.Syntax.RunQuery(classDefinitionQuery)
	if err != nil {
		return 0, 0, false
	}
	content := doc.Syntax.Content()
	for _, m := range matches {
		name, hasName := m.Get("name")
		if !hasName || name.Content(content) != className {
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

var accessHeaderRe = regexp.MustCompile(`(?m)^[ \t]*(public|protected|private)\s*:\s*$`)

// detectIndent returns the leading whitespace of the first non-empty,
// non-section-header, non-brace line of a class body, defaulting to four
// spaces if the body has no members yet.
func detectIndent(bodyText string) string {
	for _, l := range strings.Split(bodyText, "\n") {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || trimmed == "{" || trimmed == "}" || strings.HasSuffix(trimmed, ":") {
			continue
		}
		lead := strings.TrimLeft(l, " \t")
		if len(lead) < len(l) {
			return l[:len(l)-len(lead)]
		}
		return ""
	}
	return "    "
}

// AddMemberDeclaration inserts member after the last declaration of the
// matching access section, or appends a brand-new section just before the
// closing brace if none exists (§4.H "Add member / method declaration").
func AddMemberDeclaration(ctx context.Context, doc *document.CppDocument, className string, access AccessSpecifier, member string) error {
	bodyStartByte, bodyEndByte, ok := queryClassDefinition(doc, className)
	if !ok {
		return fmt.Errorf("refactor: add member: class %q not found", className)
	}

	text := doc.Buffer.Text()
	runes := []rune(text)
	bodyStart := byteToRune(text, bodyStartByte)
	bodyEnd := byteToRune(text, bodyEndByte)
	bodyText := string(runes[bodyStart:bodyEnd])
	indent := detectIndent(bodyText)
	target := access.String()

	matches := accessHeaderRe.FindAllStringSubmatchIndex(bodyText, -1)
	for i, m := range matches {
		if bodyText[m[2]:m[3]] != target {
			continue
		}
		sectionEnd := len(bodyText)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		trimmed := strings.TrimRight(bodyText[:sectionEnd], " \t\n")
		offset := bodyStart + byteToRune(bodyText, len(trimmed))
		doc.Buffer.InsertAtPosition(offset, "\n"+indent+member)
		logger.Infof("%s: added %s member to %s", doc.FilePath, target, className)
		return reparse(ctx, doc)
	}

	trimmed := strings.TrimRight(bodyText, " \t\n")
	offset := bodyStart + byteToRune(bodyText, len(trimmed)-1) // just before the closing brace
	doc.Buffer.InsertAtPosition(offset, fmt.Sprintf("\n\n%s:\n%s%s", target, indent, member))
	logger.Infof("%s: added new %s section to %s", doc.FilePath, target, className)
	return reparse(ctx, doc)
}
