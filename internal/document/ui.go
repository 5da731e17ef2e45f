package document

import "encoding/xml"

// Widget is a wrapper object over a <widget> node of a Qt Designer .ui
// file; its pointer stays valid across edits since UiDocument never
// discards the underlying XMLNode tree (§3 UiDocument).
type Widget struct {
	node *XMLNode
}

// Class returns the widget's "class" attribute.
func (w *Widget) Class() string {
	v, _ := w.node.Attr("class")
	return v
}

// Name returns the widget's "name" attribute, or "" if absent.
func (w *Widget) Name() string {
	v, _ := w.node.Attr("name")
	return v
}

// Property returns the <property name="..."> value node's text, if present.
func (w *Widget) Property(name string) (string, bool) {
	for _, p := range w.node.ChildrenNamed("property") {
		if n, _ := p.Attr("name"); n == name {
			if len(p.Children) > 0 {
				return p.Children[0].Text, true
			}
			return p.Text, true
		}
	}
	return "", false
}

// SetProperty sets or creates a <property name="name"><value/></property>
// child. It does not mark the owning document dirty.
func (w *Widget) SetProperty(name, valueTag, value string) {
	for _, p := range w.node.ChildrenNamed("property") {
		if n, _ := p.Attr("name"); n == name {
			if len(p.Children) > 0 {
				p.Children[0].Text = value
			} else {
				p.Children = append(p.Children, &XMLNode{Name: valueTag, Text: value, Parent: p})
			}
			return
		}
	}
	prop := &XMLNode{Name: "property", Attrs: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}}, Parent: w.node}
	prop.Children = append(prop.Children, &XMLNode{Name: valueTag, Text: value, Parent: prop})
	w.node.Children = append(w.node.Children, prop)
}

// Children returns the nested <widget> wrappers, in document order.
func (w *Widget) Children() []*Widget {
	var out []*Widget
	for _, c := range w.node.ChildrenNamed("widget") {
		out = append(out, &Widget{node: c})
	}
	return out
}

// UiDocument owns the parsed tree of a Qt Designer .ui file plus a flat,
// identity-preserving list of Widget wrappers over its <widget> nodes
// (§3 UiDocument).
type UiDocument struct {
	*Document
	root    *XMLNode
	widgets []*Widget
}

// NewUiDocument returns an empty UiDocument.
func NewUiDocument() *UiDocument {
	u := &UiDocument{}
	u.Document = NewDocument(TypeUi, u)
	return u
}

// DoLoad implements Backend: parse the XML tree and index every <widget>.
func (u *UiDocument) DoLoad(_ string, data []byte) error {
	root, err := parseXMLTree(data)
	if err != nil {
		return err
	}
	u.root = root
	u.widgets = nil
	u.walk(root)
	return nil
}

func (u *UiDocument) walk(n *XMLNode) {
	if n.Name == "widget" {
		u.widgets = append(u.widgets, &Widget{node: n})
	}
	for _, c := range n.Children {
		u.walk(c)
	}
}

// DoSave implements Backend: serialize the current tree.
func (u *UiDocument) DoSave(_ string) ([]byte, error) {
	return renderXMLTree(u.root), nil
}

// Widgets returns every <widget> wrapper found at load time, in document order.
func (u *UiDocument) Widgets() []*Widget { return u.widgets }

// TopLevelWidget returns the document's root <widget>, if any.
func (u *UiDocument) TopLevelWidget() (*Widget, bool) {
	for _, c := range u.root.ChildrenNamed("widget") {
		return &Widget{node: c}, true
	}
	return nil, false
}
