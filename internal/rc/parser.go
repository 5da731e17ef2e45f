package rc

import "strings"

// Parser is a recursive-descent parser over an RC token stream (§4.B). Top
// level is a repeated `<id> <keyword> ...` production; unknown keywords are
// skipped by consuming tokens up to the next top-level boundary.
type Parser struct {
	lex   *Lexer
	file  *RcFile
	valid bool
}

// ParseFile parses an entire `.rc` source into a multi-language RcFile.
// IsValid is set per-language iff parsing reached EOF without a fatal
// tokenization error (§4.B).
func ParseFile(src []byte) *RcFile {
	p := &Parser{lex: NewLexer(src), file: NewRcFile(), valid: true}
	p.parseTopLevel()
	for _, d := range p.file.Languages {
		d.IsValid = p.valid
	}
	return p.file
}

func (p *Parser) data() *RcData { return p.file.Data(p.file.CurrentLanguage) }

func (p *Parser) parseTopLevel() {
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return
		}

		if tok.Type == TokenDirective {
			p.lex.Next()
			p.parseDirective(tok)
			continue
		}

		// A leading identifier (Word, String, or Integer) names the
		// resource; the following Keyword determines its block type.
		if tok.Type == TokenWord || tok.Type == TokenString || tok.Type == TokenInteger {
			id := p.tokenAsID(tok)
			p.lex.Next()
			kw, ok := p.lex.Peek()
			if !ok || kw.Type != TokenKeyword {
				p.skipToTopLevelBoundary()
				continue
			}
			p.lex.Next()
			p.dispatch(id, kw, tok.Line)
			continue
		}

		if tok.Type == TokenKeyword && tok.Text == "LANGUAGE" {
			p.lex.Next()
			p.parseLanguageStatement()
			continue
		}

		// A block keyword with no leading id (STRINGTABLE, VERSIONINFO, ...).
		if tok.Type == TokenKeyword {
			p.lex.Next()
			p.dispatch("", tok, tok.Line)
			continue
		}

		// Can't make sense of this token at top level; consume it and
		// keep going rather than looping forever.
		p.lex.Next()
	}
}

func (p *Parser) tokenAsID(tok Token) string {
	switch tok.Type {
	case TokenString:
		return tok.String
	case TokenInteger:
		return tok.Text
	default:
		return tok.Text
	}
}

func (p *Parser) parseDirective(tok Token) {
	text := strings.TrimSpace(tok.Text)
	if strings.HasPrefix(text, "#include") {
		rest := strings.TrimSpace(strings.TrimPrefix(text, "#include"))
		d := p.data()
		d.Includes = append(d.Includes, rest)
	}
	// Other directives (#ifdef, #define, #pragma, ...) are informational
	// only for our purposes and are otherwise ignored, matching the RC
	// compiler's "pass-through" treatment of preprocessor lines that don't
	// affect resource layout.
}

func (p *Parser) parseLanguageStatement() {
	// LANGUAGE LANG_ID, SUBLANG_ID
	var parts []string
	line := -1
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			break
		}
		if line == -1 {
			line = p.currentStatementLine(tok)
		} else if p.currentStatementLine(tok) != line {
			break
		}
		if tok.Type == TokenWord || tok.Type == TokenKeyword {
			parts = append(parts, tok.Text)
			p.lex.Next()
			continue
		}
		if tok.Type == TokenComma {
			p.lex.Next()
			continue
		}
		break
	}
	if len(parts) > 0 {
		p.file.CurrentLanguage = strings.Join(parts, ",")
	}
}

// currentStatementLine returns the line tok starts on; parseLanguageStatement
// stops at the first token on a later line than the statement's first token.
func (p *Parser) currentStatementLine(tok Token) int { return tok.Line }

func (p *Parser) dispatch(id string, kw Token, line int) {
	switch kw.Text {
	case "DIALOG", "DIALOGEX":
		p.parseDialog(id, line)
	case "STRINGTABLE":
		p.parseStringTable()
	case "MENU", "MENUEX":
		p.parseMenu(id)
	case "ACCELERATORS":
		p.parseAccelerators(id)
	case "TOOLBAR":
		p.parseToolbar(id, line)
	case "ICON", "BITMAP", "PNG", "CURSOR":
		p.parseAsset(id, kw.Text, line)
	default:
		p.skipToTopLevelBoundary()
	}
}

func (p *Parser) parseAsset(id, kind string, line int) {
	tok, ok := p.lex.Next()
	file := ""
	if ok && tok.Type == TokenString {
		file = tok.String
	}
	asset := Asset{ID: id, File: file, Line: line, Exists: false}
	d := p.data()
	if kind == "ICON" || kind == "CURSOR" {
		d.Icons[id] = asset
	} else {
		d.Assets[id] = asset
	}
}

// parseDialog parses `DIALOG(EX) x,y,w,h [statements] BEGIN controls END`.
func (p *Parser) parseDialog(id string, line int) {
	dlg := Dialog{ID: id, Line: line}
	dlg.X, dlg.Y, dlg.W, dlg.H = p.parseFourInts()

	for {
		tok, ok := p.lex.Peek()
		if !ok {
			break
		}
		if tok.Type == TokenKeyword && tok.Text == "BEGIN" {
			p.lex.Next()
			break
		}
		switch {
		case tok.Type == TokenKeyword && tok.Text == "CAPTION":
			p.lex.Next()
			if s, ok := p.lex.Next(); ok && s.Type == TokenString {
				dlg.Caption = s.String
			}
		case tok.Type == TokenKeyword && tok.Text == "MENU":
			p.lex.Next()
			if s, ok := p.lex.Next(); ok {
				dlg.Menu = p.tokenAsID(s)
			}
		case tok.Type == TokenKeyword && tok.Text == "CLASS":
			p.lex.Next()
			if s, ok := p.lex.Next(); ok {
				dlg.ClassName = p.tokenAsID(s)
			}
		case tok.Type == TokenKeyword && tok.Text == "STYLE":
			p.lex.Next()
			dlg.Styles = p.parseStyleList()
		case tok.Type == TokenKeyword && tok.Text == "EXSTYLE":
			p.lex.Next()
			dlg.ExStyles = p.parseStyleList()
		case tok.Type == TokenKeyword && tok.Text == "FONT":
			p.lex.Next()
			p.skipStatementTail()
		case tok.Type == TokenKeyword && (tok.Text == "CHARACTERISTICS" || tok.Text == "LANGUAGE"):
			p.lex.Next()
			p.skipStatementTail()
		default:
			// Unknown dialog-level statement or stray token: advance.
			p.lex.Next()
		}
	}

	dlg.Controls = p.parseControls()
	p.data().Dialogs = append(p.data().Dialogs, dlg)
}

// parseStyleList reads a `|`-separated list of style tokens until the next
// keyword statement or BEGIN/END boundary.
func (p *Parser) parseStyleList() []string {
	var styles []string
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return styles
		}
		if tok.Type == TokenWord || (tok.Type == TokenKeyword && tok.Text != "BEGIN" && tok.Text != "END") {
			// Stop if this keyword actually starts the next statement
			// (CAPTION, MENU, CLASS, FONT, ...); style tokens are always
			// Word tokens like WS_CAPTION, not reserved RC keywords,
			// except BUTTON/NOT which double as style-adjacent words.
			if tok.Type == TokenKeyword && isDialogStatementKeyword(tok.Text) {
				return styles
			}
			styles = append(styles, tok.Text)
			p.lex.Next()
			continue
		}
		if tok.Type == TokenOr {
			p.lex.Next()
			continue
		}
		if tok.Type == TokenInteger {
			styles = append(styles, tok.Text)
			p.lex.Next()
			continue
		}
		return styles
	}
}

func isDialogStatementKeyword(word string) bool {
	switch word {
	case "CAPTION", "MENU", "CLASS", "STYLE", "EXSTYLE", "FONT", "CHARACTERISTICS", "LANGUAGE", "BEGIN", "END":
		return true
	}
	return false
}

func (p *Parser) skipStatementTail() {
	startLine := -1
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return
		}
		if startLine == -1 {
			startLine = tok.Line
		} else if tok.Line != startLine {
			return
		}
		if tok.Type == TokenKeyword && (tok.Text == "BEGIN" || tok.Text == "END") {
			return
		}
		p.lex.Next()
	}
}

// parseControls parses dialog control rows until END.
func (p *Parser) parseControls() []Control {
	var controls []Control
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return controls
		}
		if tok.Type == TokenKeyword && tok.Text == "END" {
			p.lex.Next()
			return controls
		}
		if tok.Type != TokenKeyword {
			// Stray token between controls; skip it defensively.
			p.lex.Next()
			continue
		}
		controls = append(controls, p.parseControl(tok))
	}
}

func (p *Parser) parseControl(kw Token) Control {
	p.lex.Next() // consume the control keyword
	c := Control{Type: kw.Text, Line: kw.Line}

	// CONTROL "text", id, class, style, x, y, w, h [, exstyle]
	// PUSHBUTTON/LTEXT/... "text", id, x, y, w, h [, style [, exstyle]]
	if s, ok := p.lex.Peek(); ok && s.Type == TokenString {
		p.lex.Next()
		c.Text = s.String
		p.skipComma()
	}

	if idTok, ok := p.lex.Next(); ok {
		c.ID = p.tokenAsID(idTok)
	}
	p.skipComma()

	if kw.Text == "CONTROL" {
		if cls, ok := p.lex.Next(); ok {
			c.ClassName = p.tokenAsID(cls)
		}
		p.skipComma()
		c.Styles = p.parseStyleList()
		p.skipComma()
	}

	nums := p.parseIntList(4)
	if len(nums) == 4 {
		c.X, c.Y, c.W, c.H = nums[0], nums[1], nums[2], nums[3]
	}

	if tok, ok := p.lex.Peek(); ok && tok.Line == kw.Line && (tok.Type == TokenWord || tok.Type == TokenOr || tok.Type == TokenInteger) {
		p.skipComma()
		c.Styles = append(c.Styles, p.parseStyleList()...)
		if tok2, ok := p.lex.Peek(); ok && tok2.Line == kw.Line {
			p.skipComma()
			c.ExStyles = p.parseStyleList()
		}
	}

	return c
}

func (p *Parser) skipComma() {
	if tok, ok := p.lex.Peek(); ok && tok.Type == TokenComma {
		p.lex.Next()
	}
}

func (p *Parser) parseFourInts() (a, b, c, d int) {
	nums := p.parseIntList(4)
	for len(nums) < 4 {
		nums = append(nums, 0)
	}
	return nums[0], nums[1], nums[2], nums[3]
}

func (p *Parser) parseIntList(n int) []int {
	var nums []int
	for len(nums) < n {
		tok, ok := p.lex.Peek()
		if !ok || tok.Type != TokenInteger {
			break
		}
		p.lex.Next()
		nums = append(nums, tok.Integer)
		p.skipComma()
	}
	return nums
}

func (p *Parser) parseStringTable() {
	tok, ok := p.lex.Next()
	if !ok || tok.Type != TokenKeyword || tok.Text != "BEGIN" {
		return
	}
	d := p.data()
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return
		}
		if tok.Type == TokenKeyword && tok.Text == "END" {
			p.lex.Next()
			return
		}
		idTok, ok := p.lex.Next()
		if !ok {
			return
		}
		id := p.tokenAsID(idTok)
		if s, ok := p.lex.Next(); ok && s.Type == TokenString {
			d.Strings[id] = StringEntry{Line: idTok.Line, Text: s.String}
		}
	}
}

func (p *Parser) parseMenu(id string) {
	tok, ok := p.lex.Next()
	if !ok || tok.Type != TokenKeyword || tok.Text != "BEGIN" {
		return
	}
	menu := Menu{ID: id}
	menu.Items = p.parseMenuItems()
	p.data().Menus = append(p.data().Menus, menu)
}

func (p *Parser) parseMenuItems() []MenuItem {
	var items []MenuItem
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			return items
		}
		if tok.Type == TokenKeyword && tok.Text == "END" {
			p.lex.Next()
			return items
		}
		if tok.Type == TokenKeyword && tok.Text == "POPUP" {
			p.lex.Next()
			item := MenuItem{}
			if s, ok := p.lex.Next(); ok && s.Type == TokenString {
				item.Text = s.String
			}
			if b, ok := p.lex.Next(); ok && b.Type == TokenKeyword && b.Text == "BEGIN" {
				item.Children = p.parseMenuItems()
			}
			items = append(items, item)
			continue
		}
		if tok.Type == TokenKeyword && tok.Text == "MENUITEM" {
			p.lex.Next()
			item := p.parseMenuItemLeaf()
			items = append(items, item)
			continue
		}
		p.lex.Next()
	}
}

func (p *Parser) parseMenuItemLeaf() MenuItem {
	var item MenuItem
	if tok, ok := p.lex.Peek(); ok && tok.Type == TokenKeyword && tok.Text == "SEPARATOR" {
		p.lex.Next()
		return item
	}
	startLine := -1
	if s, ok := p.lex.Next(); ok && s.Type == TokenString {
		item.Text = s.String
		startLine = s.Line
	}
	p.skipComma()
	if idTok, ok := p.lex.Next(); ok {
		item.ID = p.tokenAsID(idTok)
		if startLine == -1 {
			startLine = idTok.Line
		}
	}
	for {
		tok, ok := p.lex.Peek()
		if !ok || tok.Line != startLine {
			break
		}
		if tok.Type == TokenComma {
			p.lex.Next()
			continue
		}
		if tok.Type == TokenWord || tok.Type == TokenKeyword {
			item.Flags = append(item.Flags, tok.Text)
			p.lex.Next()
			continue
		}
		break
	}
	return item
}

func (p *Parser) parseAccelerators(id string) {
	tok, ok := p.lex.Next()
	if !ok || tok.Type != TokenKeyword || tok.Text != "BEGIN" {
		return
	}
	table := AcceleratorTable{ID: id}
	for {
		tok, ok := p.lex.Peek()
		if !ok {
			break
		}
		if tok.Type == TokenKeyword && tok.Text == "END" {
			p.lex.Next()
			break
		}
		shortcutTok, ok := p.lex.Next()
		if !ok {
			break
		}
		shortcut := p.tokenAsID(shortcutTok)
		p.skipComma()
		idTok, ok := p.lex.Next()
		if !ok {
			break
		}
		entryID := p.tokenAsID(idTok)
		table.Entries = append(table.Entries, AcceleratorEntry{
			ID: entryID, Shortcut: shortcut, Line: shortcutTok.Line,
		})
		// Consume trailing flags (ASCII/VIRTKEY/NOINVERT/ALT/SHIFT/CONTROL)
		// on the same line.
		for {
			t, ok := p.lex.Peek()
			if !ok || t.Line != shortcutTok.Line {
				break
			}
			if t.Type == TokenComma {
				p.lex.Next()
				continue
			}
			if t.Type == TokenWord || t.Type == TokenKeyword {
				p.lex.Next()
				continue
			}
			break
		}
	}
	p.data().AcceleratorTables = append(p.data().AcceleratorTables, table)
}

func (p *Parser) parseToolbar(id string, line int) {
	tb := ToolBar{ID: id}
	tb.Width, tb.Height = p.parseTwoInts()
	tok, ok := p.lex.Next()
	if !ok || tok.Type != TokenKeyword || tok.Text != "BEGIN" {
		return
	}
	for {
		t, ok := p.lex.Peek()
		if !ok {
			break
		}
		if t.Type == TokenKeyword && t.Text == "END" {
			p.lex.Next()
			break
		}
		if t.Type == TokenKeyword && t.Text == "SEPARATOR" {
			p.lex.Next()
			tb.Buttons = append(tb.Buttons, ToolBarButton{Separator: true})
			continue
		}
		if t.Type == TokenKeyword && t.Text == "BUTTON" {
			p.lex.Next()
			if idTok, ok := p.lex.Next(); ok {
				tb.Buttons = append(tb.Buttons, ToolBarButton{ID: p.tokenAsID(idTok)})
			}
			continue
		}
		p.lex.Next()
	}
	p.data().ToolBars = append(p.data().ToolBars, tb)
}

func (p *Parser) parseTwoInts() (a, b int) {
	nums := p.parseIntList(2)
	for len(nums) < 2 {
		nums = append(nums, 0)
	}
	return nums[0], nums[1]
}

// blockKeywords are the keywords that can open a new top-level construct;
// used by skipToTopLevelBoundary to recognize where an unrecognized,
// BEGIN/END-less statement ends.
func isBlockKeyword(word string) bool {
	switch word {
	case "DIALOG", "DIALOGEX", "STRINGTABLE", "MENU", "MENUEX", "ACCELERATORS",
		"TOOLBAR", "ICON", "BITMAP", "PNG", "CURSOR", "VERSIONINFO", "DESIGNINFO",
		"AFX_DIALOG_LAYOUT", "DLGINIT", "RCDATA", "MESSAGETABLE", "TEXTINCLUDE",
		"FONT", "LANGUAGE":
		return true
	}
	return false
}

// startsNextTopLevelConstruct reports whether the token at lookahead index i
// looks like the beginning of the next top-level `<id> <keyword>` or bare
// `<keyword>` production.
func (p *Parser) startsNextTopLevelConstruct(i int) bool {
	tok, ok := p.lex.PeekAt(i)
	if !ok {
		return true // EOF counts as a boundary
	}
	if tok.Type == TokenKeyword && isBlockKeyword(tok.Text) {
		return true
	}
	if tok.Type == TokenWord || tok.Type == TokenString || tok.Type == TokenInteger {
		next, ok := p.lex.PeekAt(i + 1)
		return ok && next.Type == TokenKeyword && isBlockKeyword(next.Text)
	}
	return false
}

// skipToTopLevelBoundary consumes tokens until a BEGIN/END pair has been
// fully skipped, or until the start of the next recognizable top-level
// construct — the two shapes of "top-level boundary" named in §4.B.
func (p *Parser) skipToTopLevelBoundary() {
	depth := 0
	for {
		if depth == 0 && p.startsNextTopLevelConstruct(0) {
			return
		}
		tok, ok := p.lex.Next()
		if !ok {
			return
		}
		switch {
		case tok.Type == TokenKeyword && tok.Text == "BEGIN":
			depth++
		case tok.Type == TokenKeyword && tok.Text == "END":
			if depth > 0 {
				depth--
			}
		}
	}
}
