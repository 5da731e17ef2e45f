package refactor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kdab-labs/knutgo/internal/document"
)

const classBaseClauseQuery = `
[(class_specifier
    name: (_) @name
    (base_class_clause) @base)
 (struct_specifier
    name: (_) @name
    (base_class_clause) @base)]
`

func wordBoundaryReplace(text, old, newName string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)
	return re.ReplaceAllString(text, newName)
}

// ChangeBaseClass rewrites className's base clause in headerDoc, patches
// forward declarations and includes referencing oldBase in both documents,
// and renames qualified `oldBase::` usages (including constructor
// initializer lists) in sourceDoc (§4.H "Change base class").
func ChangeBaseClass(ctx context.Context, headerDoc, sourceDoc *document.CppDocument, className, oldBase, newBase string) error {
	if err := changeBaseClause(ctx, headerDoc, className, oldBase, newBase); err != nil {
		return err
	}
	if err := rewriteIncludesAndForwardDecls(ctx, headerDoc, oldBase, newBase); err != nil {
		return err
	}
	if err := rewriteIncludesAndForwardDecls(ctx, sourceDoc, oldBase, newBase); err != nil {
		return err
	}
	return renameQualifiedUsages(ctx, sourceDoc, oldBase, newBase)
}

func changeBaseClause(ctx context.Context, doc *document.CppDocument, className, oldBase, newBase string) error {
	matches, err := doc.Syntax.RunQuery(classBaseClauseQuery)
	if err != nil {
		return err
	}
	content := doc.Syntax.Content()
	for _, m := range matches {
		name, ok := m.Get("name")
		if !ok || name.Content(content) != className {
			continue
		}
		base, ok := m.Get("base")
		if !ok {
			return fmt.Errorf("refactor: change base class: %q has no base clause", className)
		}
		text := doc.Buffer.Text()
		start, end := byteToRune(text, int(base.StartByte())), byteToRune(text, int(base.EndByte()))
		runes := []rune(text)
		updated := wordBoundaryReplace(string(runes[start:end]), oldBase, newBase)
		doc.Buffer.ReplaceRange(start, end, updated)
		logger.Infof("%s: changed base class of %s from %s to %s", doc.FilePath, className, oldBase, newBase)
		return reparse(ctx, doc)
	}
	return fmt.Errorf("refactor: change base class: class %q not found", className)
}

func forwardDeclAndIncludeRe(name string) (*regexp.Regexp, *regexp.Regexp) {
	fwd := regexp.MustCompile(`(?m)^(\s*class\s+)` + regexp.QuoteMeta(name) + `(\s*;)`)
	inc := regexp.MustCompile(`(#include\s*[<"])` + regexp.QuoteMeta(name) + `((?:\.[A-Za-z0-9]+)?[>"])`)
	return fwd, inc
}

func rewriteIncludesAndForwardDecls(ctx context.Context, doc *document.CppDocument, oldBase, newBase string) error {
	text := doc.Buffer.Text()
	fwd, inc := forwardDeclAndIncludeRe(oldBase)
	updated := fwd.ReplaceAllString(text, "${1}"+newBase+"$2")
	updated = inc.ReplaceAllString(updated, "${1}"+newBase+"$2")
	if updated == text {
		return nil
	}
	doc.Buffer.ReplaceRange(0, doc.Buffer.Length(), updated)
	logger.Infof("%s: rewrote forward declarations/includes for %s -> %s", doc.FilePath, oldBase, newBase)
	return reparse(ctx, doc)
}

var constructorInitListRe = regexp.MustCompile(`(::\s*\w+\s*\([^)]*\)\s*:\s*)([^{]*)(\{)`)

// renameQualifiedUsages replaces "oldBase::" everywhere and "oldBase("
// inside every constructor's initializer list (§4.H "Change base class":
// "range = [definition.start, body.start)").
func renameQualifiedUsages(ctx context.Context, doc *document.CppDocument, oldBase, newBase string) error {
	text := doc.Buffer.Text()
	qualified := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldBase) + `::`)
	updated := qualified.ReplaceAllString(text, newBase+"::")
	updated = constructorInitListRe.ReplaceAllStringFunc(updated, func(s string) string {
		m := constructorInitListRe.FindStringSubmatch(s)
		return m[1] + wordBoundaryReplace(m[2], oldBase, newBase) + m[3]
	})
	if updated == text {
		return nil
	}
	doc.Buffer.ReplaceRange(0, doc.Buffer.Length(), updated)
	logger.Infof("%s: renamed qualified usages of %s -> %s", doc.FilePath, oldBase, newBase)
	return reparse(ctx, doc)
}
