package refactor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kdab-labs/knutgo/internal/document"
	"github.com/kdab-labs/knutgo/internal/symbol"
)

var (
	declarationModifierRe = regexp.MustCompile(`\b(override|final|virtual|static|Q_INVOKABLE|Q_SLOT|Q_SIGNAL)\b`)
	methodDeclarationRe   = regexp.MustCompile(`^\s*(.+?)\s+([A-Za-z_~][A-Za-z0-9_]*)\s*(\([^)]*\))\s*;?\s*$`)
)

func stripDeclarationModifiers(decl string) string {
	decl = declarationModifierRe.ReplaceAllString(decl, "")
	return strings.Join(strings.Fields(decl), " ")
}

// AddMethodDefinition strips declaration-only modifiers, parses
// "<return> <name>(<params>)" out of declaration, and appends
// "<return> <class>::<name>(<params>) { <body> }" at the end of the file
// (§4.H "Add method definition").
func AddMethodDefinition(ctx context.Context, doc *document.CppDocument, className, declaration, body string) error {
	stripped := stripDeclarationModifiers(declaration)
	m := methodDeclarationRe.FindStringSubmatch(stripped)
	if m == nil {
		return fmt.Errorf("refactor: add method definition: cannot parse declaration %q", declaration)
	}
	returnType, name, params := m[1], m[2], m[3]
	definition := fmt.Sprintf("%s %s::%s%s\n{\n%s\n}\n", returnType, className, name, params, body)

	text := doc.Buffer.Text()
	lastBrace := strings.LastIndexByte(text, '}')
	if lastBrace == -1 {
		doc.Buffer.InsertAtPosition(doc.Buffer.Length(), "\n"+definition)
	} else {
		doc.Buffer.InsertAtPosition(byteToRune(text, lastBrace+1), "\n\n"+definition)
	}
	logger.Infof("%s: added definition for %s::%s", doc.FilePath, className, name)
	return reparse(ctx, doc)
}

// AddMethodBoth adds the declaration to headerDoc and the definition to
// sourceDoc (§4.H "Add method (both)").
func AddMethodBoth(ctx context.Context, headerDoc, sourceDoc *document.CppDocument, className string, access AccessSpecifier, declaration, body string) error {
	if err := AddMemberDeclaration(ctx, headerDoc, className, access, declaration); err != nil {
		return err
	}
	return AddMethodDefinition(ctx, sourceDoc, className, declaration, body)
}

// DeleteMethod deletes each symbol's text span plus leading same-line
// whitespace, a trailing ';', and one trailing '\n', processing symbols in
// start-offset-descending order so earlier deletions don't invalidate later
// ranges (§4.H "Delete method").
func DeleteMethod(ctx context.Context, doc *document.CppDocument, methods []symbol.Symbol) error {
	if len(methods) == 0 {
		return nil
	}
	sorted := append([]symbol.Symbol(nil), methods...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Start > sorted[j].Range.Start })

	for _, s := range sorted {
		text := doc.Buffer.Text()
		start, end := s.Range.Start, s.Range.End
		for start > 0 && text[start-1] != '\n' && (text[start-1] == ' ' || text[start-1] == '\t') {
			start--
		}
		if end < len(text) && text[end] == ';' {
			end++
		}
		if end < len(text) && text[end] == '\n' {
			end++
		}
		doc.Buffer.DeleteRange(byteToRune(text, start), byteToRune(text, end))
	}
	logger.Infof("%s: deleted %d method(s)", doc.FilePath, len(sorted))
	return reparse(ctx, doc)
}

// HeaderSourceCache memoizes correspondingHeaderSource lookups in both
// directions (§4.H correspondingHeaderSource).
type HeaderSourceCache struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewHeaderSourceCache returns an empty cache.
func NewHeaderSourceCache() *HeaderSourceCache {
	return &HeaderSourceCache{cache: make(map[string]string)}
}

// CorrespondingHeaderSource finds the file paired with path: first the same
// directory with a matching base name and a suffix from wantSuffixes, else
// the candidate (anywhere in the project) whose path has the longest
// case-insensitive common prefix with path.
func (c *HeaderSourceCache) CorrespondingHeaderSource(path string, candidates, wantSuffixes []string) (string, bool) {
	c.mu.Lock()
	if v, ok := c.cache[path]; ok {
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	dir := filepath.Dir(path)
	base := baseNameNoExt(path)
	for _, suf := range wantSuffixes {
		candidate := filepath.Join(dir, base+suf)
		if containsPath(candidates, candidate) {
			c.store(path, candidate)
			return candidate, true
		}
	}

	best, bestLen := "", -1
	lowerPath := strings.ToLower(path)
	for _, cand := range candidates {
		if !hasAnySuffix(cand, wantSuffixes) {
			continue
		}
		if n := commonPrefixLen(strings.ToLower(cand), lowerPath); n > bestLen {
			bestLen, best = n, cand
		}
	}
	if best == "" {
		return "", false
	}
	c.store(path, best)
	return best, true
}

func (c *HeaderSourceCache) store(a, b string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[a] = b
	c.cache[b] = a
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

func baseNameNoExt(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		return base[:idx]
	}
	return base
}

func containsPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}
	return false
}
