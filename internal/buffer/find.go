package buffer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// compilePattern turns a find pattern + options into a *regexp.Regexp.
// Plain (non-regexp) patterns are quoted; FindWholeWords wraps the pattern
// in Unicode word boundaries (§4.A).
func compilePattern(pattern string, opts FindOption) (*regexp.Regexp, error) {
	expr := pattern
	if !opts.has(FindRegexp) {
		expr = regexp.QuoteMeta(pattern)
	}
	if opts.has(FindWholeWords) {
		expr = `\b(?:` + expr + `)\b`
	}
	if !opts.has(FindCaseSensitively) {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// Find searches for pattern starting at the cursor (or one character before
// it when FindBackward is set, per §4.A), returning the match span. Search
// conceptually scans block-by-block (line-by-line) to allow early
// termination; Go's regexp engine already does this efficiently over the
// full text, so we search the whole buffer and pick the nearest match in the
// requested direction.
func (b *Buffer) Find(pattern string, opts FindOption) (start, end int, found bool) {
	re, err := compilePattern(pattern, opts)
	if err != nil {
		return 0, 0, false
	}
	return b.findWith(re, opts)
}

// FindRegexp is Find with FindRegexp forced on.
func (b *Buffer) FindRegexp(pattern string, opts FindOption) (start, end int, found bool) {
	return b.Find(pattern, opts|FindRegexp)
}

func (b *Buffer) findWith(re *regexp.Regexp, opts FindOption) (start, end int, found bool) {
	text := b.Text()
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	if opts.has(FindBackward) {
		origin := b.cur.position - 1
		best := -1
		for i, m := range matches {
			if charOffset(text, m[0]) <= origin || origin < 0 {
				best = i
			}
		}
		if best == -1 {
			// wrap: take the last match in the document
			best = len(matches) - 1
		}
		m := matches[best]
		return charOffset(text, m[0]), charOffset(text, m[1]), true
	}
	origin := b.cur.position
	for _, m := range matches {
		if charOffset(text, m[0]) >= origin {
			return charOffset(text, m[0]), charOffset(text, m[1]), true
		}
	}
	// wrap: take the first match
	m := matches[0]
	return charOffset(text, m[0]), charOffset(text, m[1]), true
}

// charOffset converts a byte offset in a string into a rune offset; the
// buffer's public positions are rune-indexed (§9: full-codepoint casing).
func charOffset(s string, byteOffset int) int {
	return len([]rune(s[:byteOffset]))
}

// Match reports whether pattern matches starting exactly at the cursor.
func (b *Buffer) Match(pattern string, opts FindOption) bool {
	re, err := compilePattern(pattern, opts)
	if err != nil {
		return false
	}
	tail := b.sliceRunes(b.cur.position, b.Length())
	loc := re.FindStringIndex(tail)
	return loc != nil && loc[0] == 0
}

// expandEscapes expands \1..\n and $1..$n backreferences in a regexp
// replacement string against the given submatches (FindRegexp, §4.A).
func expandEscapes(replacement string, groups []string) string {
	var out strings.Builder
	runes := []rune(replacement)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '\\' || r == '$') && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			j := i + 1
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			n := 0
			for _, d := range runes[i+1 : j] {
				n = n*10 + int(d-'0')
			}
			if n >= 0 && n < len(groups) {
				out.WriteString(groups[n])
			}
			i = j - 1
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// preserveCase applies the PreserveCase casing rule (§4.A) to replacement
// given the casing pattern observed in matched.
func preserveCase(matched, replacement string) string {
	switch {
	case matched == "":
		return replacement
	case isAllUpper(matched):
		return strings.ToUpper(replacement)
	case isAllLower(matched):
		return strings.ToLower(replacement)
	case isCapitalized(matched):
		return titleCaser.String(strings.ToLower(replacement))
	default:
		return replacement
	}
}

func isAllUpper(s string) bool {
	seenLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			seenLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return seenLetter
}

func isAllLower(s string) bool {
	seenLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			seenLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return seenLetter
}

func isCapitalized(s string) bool {
	runes := []rune(s)
	first := true
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			continue
		}
		if first {
			if !unicode.IsUpper(r) {
				return false
			}
			first = false
			continue
		}
		if !unicode.IsLower(r) {
			return false
		}
	}
	return !first
}

// ReplaceOne replaces the next occurrence of find (from the cursor) with
// replacement, honoring opts, and returns whether a replacement was made.
func (b *Buffer) ReplaceOne(find, replacement string, opts FindOption) bool {
	re, err := compilePattern(find, opts)
	if err != nil {
		return false
	}
	start, end, found := b.findWith(re, opts)
	if !found {
		return false
	}
	matched := b.sliceRunes(start, end)
	repl := resolveReplacement(re, matched, replacement, opts)
	b.ReplaceRange(start, end, repl)
	return true
}

func resolveReplacement(re *regexp.Regexp, matched, replacement string, opts FindOption) string {
	repl := replacement
	if opts.has(FindRegexp) {
		groups := re.FindStringSubmatch(matched)
		repl = expandEscapes(replacement, groups)
	}
	if opts.has(PreserveCase) {
		repl = preserveCase(matched, repl)
	}
	return repl
}

// ReplaceAll replaces every occurrence of find in the whole buffer and
// returns the number of replacements made.
func (b *Buffer) ReplaceAll(find, replacement string, opts FindOption) int {
	return b.ReplaceAllInRange(find, replacement, 0, b.Length(), opts)
}

// ReplaceAllInRange replaces every occurrence of find within [rangeStart,
// rangeEnd) and returns the count. Matches are applied back-to-front so
// earlier offsets remain valid as later ones are rewritten.
func (b *Buffer) ReplaceAllInRange(find, replacement string, rangeStart, rangeEnd int, opts FindOption) int {
	re, err := compilePattern(find, opts)
	if err != nil {
		return 0
	}
	text := b.sliceRunes(rangeStart, rangeEnd)
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return 0
	}
	count := 0
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		matched := text[loc[0]:loc[1]]
		repl := resolveReplacement(re, matched, replacement, opts)
		start := rangeStart + charOffset(text, loc[0])
		end := rangeStart + charOffset(text, loc[1])
		b.ReplaceRange(start, end, repl)
		count++
	}
	return count
}

// ReplaceAllRegexp is ReplaceAll with FindRegexp forced on.
func (b *Buffer) ReplaceAllRegexp(pattern, replacement string, opts FindOption) int {
	return b.ReplaceAll(pattern, replacement, opts|FindRegexp)
}
