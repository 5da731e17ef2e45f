package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// XMLNode is a hand-rolled XML tree node used by UiDocument and QtTsDocument
// instead of unmarshalling into fixed Go structs: both formats need their
// node objects (Widget, Message) to stay valid pointers into the SAME tree
// across in-place edits, which encoding/xml's struct-unmarshal discards on
// every re-decode (§3 "wrapper objects over XML nodes preserving node
// identity across edits").
type XMLNode struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*XMLNode
	Parent   *XMLNode
}

// Attr returns the value of the named attribute, if present.
func (n *XMLNode) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func (n *XMLNode) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// ChildrenNamed returns the direct children whose tag matches name.
func (n *XMLNode) ChildrenNamed(name string) []*XMLNode {
	var out []*XMLNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// parseXMLTree decodes data into an XMLNode tree rooted at the document element.
func parseXMLTree(data []byte) (*XMLNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root, current *XMLNode
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("document: parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &XMLNode{Name: t.Name.Local, Attrs: append([]xml.Attr(nil), t.Attr...), Parent: current}
			if current != nil {
				current.Children = append(current.Children, node)
			} else {
				root = node
			}
			current = node
		case xml.EndElement:
			if current != nil {
				current = current.Parent
			}
		case xml.CharData:
			if current != nil {
				current.Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("document: parse xml: empty document")
	}
	return root, nil
}

// renderXMLTree serializes an XMLNode tree back to XML, writing the
// standard declaration expected by Qt's .ui/.ts readers.
func renderXMLTree(root *XMLNode) []byte {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	writeXMLNode(&buf, root, 0)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func writeXMLNode(buf *bytes.Buffer, n *XMLNode, depth int) {
	indent := bytes.Repeat([]byte("  "), depth)
	buf.Write(indent)
	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		fmt.Fprintf(buf, " %s=%q", a.Name.Local, a.Value)
	}
	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	if len(n.Children) == 0 {
		xml.EscapeText(buf, []byte(n.Text))
	} else {
		for _, c := range n.Children {
			buf.WriteByte('\n')
			writeXMLNode(buf, c, depth+1)
		}
		buf.WriteByte('\n')
		buf.Write(indent)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}
