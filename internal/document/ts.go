package document

// Message is a wrapper object over a <message> node of a Qt Linguist .ts
// file, identified by its enclosing <context>'s name plus its <source>
// text (§3 QtTsDocument).
type Message struct {
	node    *XMLNode
	Context string
}

// Source returns the message's <source> text.
func (m *Message) Source() string {
	if c := m.node.ChildrenNamed("source"); len(c) > 0 {
		return c[0].Text
	}
	return ""
}

// Translation returns the message's <translation> text and whether the
// translation is marked "unfinished".
func (m *Message) Translation() (text string, unfinished bool) {
	c := m.node.ChildrenNamed("translation")
	if len(c) == 0 {
		return "", true
	}
	if t, ok := c[0].Attr("type"); ok && t == "unfinished" {
		unfinished = true
	}
	return c[0].Text, unfinished
}

// SetTranslation sets the translation text and clears the "unfinished" mark.
func (m *Message) SetTranslation(text string) {
	c := m.node.ChildrenNamed("translation")
	if len(c) == 0 {
		t := &XMLNode{Name: "translation", Parent: m.node}
		m.node.Children = append(m.node.Children, t)
		c = []*XMLNode{t}
	}
	c[0].Text = text
	filtered := c[0].Attrs[:0]
	for _, a := range c[0].Attrs {
		if a.Name.Local != "type" {
			filtered = append(filtered, a)
		}
	}
	c[0].Attrs = filtered
}

// QtTsDocument owns the parsed tree of a Qt Linguist .ts translation file
// plus a flat, identity-preserving list of Message wrappers (§3 QtTsDocument).
type QtTsDocument struct {
	*Document
	root     *XMLNode
	messages []*Message
}

// NewQtTsDocument returns an empty QtTsDocument.
func NewQtTsDocument() *QtTsDocument {
	t := &QtTsDocument{}
	t.Document = NewDocument(TypeTs, t)
	return t
}

// DoLoad implements Backend: parse the XML tree and index every <message>.
func (t *QtTsDocument) DoLoad(_ string, data []byte) error {
	root, err := parseXMLTree(data)
	if err != nil {
		return err
	}
	t.root = root
	t.messages = nil
	for _, ctx := range root.ChildrenNamed("context") {
		name := ""
		if n := ctx.ChildrenNamed("name"); len(n) > 0 {
			name = n[0].Text
		}
		for _, msg := range ctx.ChildrenNamed("message") {
			t.messages = append(t.messages, &Message{node: msg, Context: name})
		}
	}
	return nil
}

// DoSave implements Backend: serialize the current tree.
func (t *QtTsDocument) DoSave(_ string) ([]byte, error) {
	return renderXMLTree(t.root), nil
}

// Messages returns every <message> wrapper found at load time.
func (t *QtTsDocument) Messages() []*Message { return t.messages }

// UnfinishedCount returns how many messages still need translation.
func (t *QtTsDocument) UnfinishedCount() int {
	n := 0
	for _, m := range t.messages {
		if _, unfinished := m.Translation(); unfinished {
			n++
		}
	}
	return n
}
