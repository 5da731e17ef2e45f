package refactor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kdab-labs/knutgo/internal/document"
)

var includeLineRe = regexp.MustCompile(`^\s*#include\s*([<"])([^>"]+)[>"]\s*$`)

// IncludeLine is one parsed `#include` directive.
type IncludeLine struct {
	Line   int // 0-indexed line number
	Angled bool
	Name   string
}

// IncludeGroup is a maximal run of consecutive include lines (§4.H
// "Insert include").
type IncludeGroup struct {
	Lines []IncludeLine
}

// IncludeHelper holds every include group found in a document.
type IncludeHelper struct {
	Groups []IncludeGroup
}

// ParseIncludes scans text for `#include` directives, grouping maximal runs
// of consecutive lines.
func ParseIncludes(text string) *IncludeHelper {
	h := &IncludeHelper{}
	var current *IncludeGroup
	for i, l := range strings.Split(text, "\n") {
		m := includeLineRe.FindStringSubmatch(l)
		if m == nil {
			current = nil
			continue
		}
		entry := IncludeLine{Line: i, Angled: m[1] == "<", Name: m[2]}
		if current == nil {
			h.Groups = append(h.Groups, IncludeGroup{})
			current = &h.Groups[len(h.Groups)-1]
		}
		current.Lines = append(current.Lines, entry)
	}
	return h
}

func (h *IncludeHelper) allLines() []IncludeLine {
	var out []IncludeLine
	for _, g := range h.Groups {
		out = append(out, g.Lines...)
	}
	return out
}

func formatInclude(name string, angled bool) string {
	if angled {
		return fmt.Sprintf("#include <%s>", name)
	}
	return fmt.Sprintf("#include %q", name)
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// lineOffset returns the rune offset of the start of 0-indexed line within
// text; a line number past the end of text returns the text's length.
func lineOffset(text string, line int) int {
	if line <= 0 {
		return 0
	}
	count, offset := 0, 0
	for _, r := range text {
		if count == line {
			return offset
		}
		offset++
		if r == '\n' {
			count++
		}
	}
	return offset
}

// firstIncludePosition returns the line a brand-new include block should
// start on: right after `#pragma once`, right after a `#ifndef`/`#define`
// header guard pair, or the very first line otherwise (§4.H "Insert
// include", case 1).
func firstIncludePosition(text string) int {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "#pragma once" {
			return i + 1
		}
	}
	for i := 0; i+1 < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "#ifndef") &&
			strings.HasPrefix(strings.TrimSpace(lines[i+1]), "#define") {
			return i + 2
		}
	}
	return 0
}

// groupScope reports whether g contains at least one include of the
// requested scope (angled vs quoted) — groups can mix both, the way the
// original accumulates a bitmask of every member's scope.
func groupScope(g IncludeGroup, angled bool) bool {
	for _, l := range g.Lines {
		if l.Angled == angled {
			return true
		}
	}
	return false
}

// groupPrefix folds commonPrefixLen pairwise across every member of g into
// one shared prefix, mirroring the original's processGroup building
// IncludeGroup::prefix incrementally rather than comparing name-by-name.
func groupPrefix(g IncludeGroup) string {
	if len(g.Lines) == 0 {
		return ""
	}
	prefix := g.Lines[0].Name
	for _, l := range g.Lines[1:] {
		prefix = prefix[:commonPrefixLen(prefix, l.Name)]
	}
	return prefix
}

// bestGroup returns the include group whose folded common prefix shares
// the most leading characters with name, restricted to groups carrying a
// matching scope, or nil if no group has a matching scope. Ties favor the
// later group, per the original's `commonLength <= prefixLength`.
func bestGroup(h *IncludeHelper, name string, angled bool) *IncludeGroup {
	bestIdx, bestLen := -1, 0
	for i, g := range h.Groups {
		if !groupScope(g, angled) {
			continue
		}
		if n := commonPrefixLen(groupPrefix(g), name); bestIdx == -1 || bestLen <= n {
			bestIdx, bestLen = i, n
		}
	}
	if bestIdx == -1 {
		return nil
	}
	return &h.Groups[bestIdx]
}

// InsertInclude adds `#include <name>` (or `"name"` if !angled) following
// the three placement rules of §4.H "Insert include". newGroup forces a new
// group separated by a blank line rather than joining the closest-matching
// existing group.
func InsertInclude(ctx context.Context, doc *document.CppDocument, name string, angled, newGroup bool) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("refactor: insert include: empty name")
	}

	text := doc.Buffer.Text()
	helper := ParseIncludes(text)
	all := helper.allLines()

	for _, l := range all {
		if l.Name == name && l.Angled == angled {
			logger.Debugf("%s: %s already included, skipping", doc.FilePath, formatInclude(name, angled))
			return nil
		}
	}

	var insertLine int
	var prefix string
	switch {
	case len(all) == 0:
		insertLine = firstIncludePosition(text)
	case newGroup:
		insertLine = all[len(all)-1].Line + 1
		prefix = "\n"
	default:
		group := bestGroup(helper, name, angled)
		if group == nil {
			insertLine = all[len(all)-1].Line + 1
			prefix = "\n"
			break
		}
		insertLine = group.Lines[len(group.Lines)-1].Line + 1
	}

	doc.Buffer.InsertAtPosition(lineOffset(text, insertLine), prefix+formatInclude(name, angled)+"\n")
	logger.Infof("%s: inserted %s", doc.FilePath, formatInclude(name, angled))
	return reparse(ctx, doc)
}

// RemoveInclude deletes the line matching name+scope, a no-op if absent.
func RemoveInclude(ctx context.Context, doc *document.CppDocument, name string, angled bool) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("refactor: remove include: empty name")
	}

	text := doc.Buffer.Text()
	for _, l := range ParseIncludes(text).allLines() {
		if l.Name == name && l.Angled == angled {
			start := lineOffset(text, l.Line)
			end := lineOffset(text, l.Line+1)
			doc.Buffer.DeleteRange(start, end)
			logger.Infof("%s: removed %s", doc.FilePath, formatInclude(name, angled))
			return reparse(ctx, doc)
		}
	}
	return nil
}
