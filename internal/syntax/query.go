package syntax

import (
	"regexp"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// QueryCache parses and caches tree-sitter S-expression queries per source
// string, per language, so construct_query (§4.D) only pays the parse cost
// once per document.
type QueryCache struct {
	language sitter.Language
	queries  map[string]*sitter.Query
}

// NewQueryCache returns an empty cache bound to language.
func NewQueryCache(language sitter.Language) *QueryCache {
	return &QueryCache{language: language, queries: make(map[string]*sitter.Query)}
}

// Construct returns the cached Query for source, parsing and storing it on
// first use (§4.D construct_query).
func (c *QueryCache) Construct(source string) (*sitter.Query, error) {
	if q, ok := c.queries[source]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery(c.language, []byte(source))
	if err != nil {
		return nil, err
	}
	c.queries[source] = q
	return q, nil
}

// Capture is one named capture of a QueryMatch.
type Capture struct {
	Name string
	Node sitter.Node
}

// Match is one evaluated query match: predicates already applied, so every
// Match that reaches caller code is a true positive.
type Match struct {
	Captures []Capture
}

// Get returns the unique capture named name, if any (§4.D QueryMatch.get).
func (m Match) Get(name string) (sitter.Node, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node, true
		}
	}
	return sitter.Node{}, false
}

// GetAll returns every capture named name (§4.D QueryMatch.get_all).
func (m Match) GetAll(name string) []sitter.Node {
	var nodes []sitter.Node
	for _, c := range m.Captures {
		if c.Name == name {
			nodes = append(nodes, c.Node)
		}
	}
	return nodes
}

// Run executes query against node, evaluating #eq?/#not-eq?/#match?/#like?/
// #exclude! predicates against content, and returns only the matches that
// satisfy every predicate (§4.D "Predicates object ... evaluate built-in
// predicates").
func Run(query *sitter.Query, node sitter.Node, content []byte) []Match {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	it := cursor.Matches(query, node, content)
	var results []Match
	for {
		m := it.Next()
		if m == nil {
			break
		}
		if !evaluatePredicates(query, m, content) {
			continue
		}
		results = append(results, toMatch(query, m))
	}
	return results
}

// QueryIn re-executes query rooted at node (§4.D query_in: "look inside a
// class body, etc.").
func QueryIn(query *sitter.Query, node sitter.Node, content []byte) []Match {
	return Run(query, node, content)
}

func toMatch(query *sitter.Query, m *sitter.QueryMatch) Match {
	captures := make([]Capture, 0, len(m.Captures))
	for _, c := range m.Captures {
		captures = append(captures, Capture{Name: query.CaptureNameForID(c.Index), Node: c.Node})
	}
	return Match{Captures: captures}
}

// evaluatePredicates checks every #eq?/#not-eq?/#match?/#like?/#exclude!
// predicate attached to m's pattern, resolving capture names against query
// and node text against content.
func evaluatePredicates(query *sitter.Query, m *sitter.QueryMatch, content []byte) bool {
	predicates := query.PredicatesForPattern(m.PatternIndex)
	for _, steps := range predicates {
		if len(steps) == 0 {
			continue
		}
		name := stepText(query, steps[0])
		args := steps[1:]
		if !evaluateOnePredicate(name, args, m, query, content) {
			return false
		}
	}
	return true
}

func evaluateOnePredicate(name string, args []sitter.QueryPredicateStep, m *sitter.QueryMatch, query *sitter.Query, content []byte) bool {
	switch name {
	case "eq?":
		return evalComparison(args, m, query, content, func(a, b string) bool { return a == b })
	case "not-eq?":
		return evalComparison(args, m, query, content, func(a, b string) bool { return a != b })
	case "match?":
		return evalMatch(args, m, query, content, false)
	case "like?":
		return evalMatch(args, m, query, content, true)
	case "exclude!":
		return evalExclude(args, m, query)
	default:
		// Unknown predicates are accepted (no-op), matching the convention
		// that unhandled directives don't fail the match.
		return true
	}
}

// captureText returns the source text of the capture named by step in m, if
// step refers to a capture.
func captureText(query *sitter.Query, m *sitter.QueryMatch, step sitter.QueryPredicateStep, content []byte) (string, bool) {
	if step.Type != sitter.QueryPredicateStepTypeCapture {
		return "", false
	}
	name := query.CaptureNameForID(step.ValueId)
	for _, c := range m.Captures {
		if query.CaptureNameForID(c.Index) == name {
			return c.Node.Content(content), true
		}
	}
	return "", false
}

func stepText(query *sitter.Query, step sitter.QueryPredicateStep) string {
	if step.Type == sitter.QueryPredicateStepTypeString {
		return query.StringValueForID(step.ValueId)
	}
	return query.CaptureNameForID(step.ValueId)
}

func evalComparison(args []sitter.QueryPredicateStep, m *sitter.QueryMatch, query *sitter.Query, content []byte, cmp func(a, b string) bool) bool {
	if len(args) != 2 {
		return true
	}
	left, ok := resolveArg(args[0], m, query, content)
	if !ok {
		return true
	}
	right, ok := resolveArg(args[1], m, query, content)
	if !ok {
		return true
	}
	return cmp(left, right)
}

func resolveArg(step sitter.QueryPredicateStep, m *sitter.QueryMatch, query *sitter.Query, content []byte) (string, bool) {
	if step.Type == sitter.QueryPredicateStepTypeString {
		return query.StringValueForID(step.ValueId), true
	}
	return captureText(query, m, step, content)
}

func evalMatch(args []sitter.QueryPredicateStep, m *sitter.QueryMatch, query *sitter.Query, content []byte, caseInsensitive bool) bool {
	if len(args) != 2 {
		return true
	}
	text, ok := captureText(query, m, args[0], content)
	if !ok {
		return true
	}
	pattern := query.StringValueForID(args[1].ValueId)
	re, err := compileMatchPattern(pattern, caseInsensitive)
	if err != nil {
		return true
	}
	return re.MatchString(text)
}

func evalExclude(args []sitter.QueryPredicateStep, m *sitter.QueryMatch, query *sitter.Query) bool {
	if len(args) < 2 {
		return true
	}
	captureName := query.CaptureNameForID(args[0].ValueId)
	excluded := make(map[string]bool, len(args)-1)
	for _, s := range args[1:] {
		excluded[query.StringValueForID(s.ValueId)] = true
	}
	for _, c := range m.Captures {
		if query.CaptureNameForID(c.Index) == captureName && excluded[c.Node.Type()] {
			return false
		}
	}
	return true
}

var matchPatternCache = map[string]*regexp.Regexp{}

// compileMatchPattern compiles and caches pattern, prefixing `(?i)` for the
// case-insensitive `#like?` predicate (§4.D).
func compileMatchPattern(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	key := pattern
	if caseInsensitive {
		key = "(?i)" + pattern
	}
	if re, ok := matchPatternCache[key]; ok {
		return re, nil
	}
	re, err := regexp.Compile(key)
	if err != nil {
		return nil, err
	}
	matchPatternCache[key] = re
	return re, nil
}
