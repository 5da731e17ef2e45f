package document

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JsonNode is a wrapper object over a JSON value, addressed by its
// gjson/sjson dotted path within the document. Unlike the XML-backed
// documents, JsonDocument has no mutable node tree to point into; the path
// itself is the identity that survives edits, re-resolved against the raw
// buffer on every access (§3 JsonDocument).
type JsonNode struct {
	doc  *JsonDocument
	Path string
}

// Value re-resolves this node's current value from the document's raw bytes.
func (n *JsonNode) Value() gjson.Result {
	return gjson.GetBytes(n.doc.raw, n.Path)
}

// Set writes value at this node's path and marks the document changed; the
// bytes are re-indented only when the document is saved.
func (n *JsonNode) Set(value any) error {
	return n.doc.setValue(n.Path, value)
}

// JsonDocument owns the raw JSON bytes plus a flat list of JsonNode
// wrappers over every object key discovered at load time (§3 JsonDocument).
type JsonDocument struct {
	*Document
	raw   []byte
	nodes []*JsonNode
}

// NewJsonDocument returns an empty JsonDocument.
func NewJsonDocument() *JsonDocument {
	j := &JsonDocument{raw: []byte("{}")}
	j.Document = NewDocument(TypeJson, j)
	return j
}

// DoLoad implements Backend: store the raw bytes and index every path.
func (j *JsonDocument) DoLoad(_ string, data []byte) error {
	if !gjson.ValidBytes(data) {
		data = []byte("{}")
	}
	j.raw = data
	j.nodes = nil
	collectPaths(gjson.ParseBytes(data), "", j)
	return nil
}

func collectPaths(v gjson.Result, path string, j *JsonDocument) {
	if path != "" {
		j.nodes = append(j.nodes, &JsonNode{doc: j, Path: path})
	}
	if !v.IsObject() {
		return
	}
	v.ForEach(func(key, value gjson.Result) bool {
		child := key.String()
		if path != "" {
			child = path + "." + child
		}
		collectPaths(value, child, j)
		return true
	})
}

// DoSave implements Backend: pretty-print the current raw bytes.
func (j *JsonDocument) DoSave(_ string) ([]byte, error) {
	return pretty.Pretty(j.raw), nil
}

// Get resolves a gjson dotted path (e.g. "editor.tabSize") against the
// document.
func (j *JsonDocument) Get(path string) gjson.Result {
	return gjson.GetBytes(j.raw, path)
}

// SetValue writes value at path, growing intermediate objects as needed.
func (j *JsonDocument) SetValue(path string, value any) error {
	return j.setValue(path, value)
}

func (j *JsonDocument) setValue(path string, value any) error {
	out, err := sjson.SetBytes(j.raw, path, value)
	if err != nil {
		return err
	}
	j.raw = out
	j.MarkChanged()
	return nil
}

// Node returns a JsonNode wrapper addressing path, without requiring the
// path to already exist in the document.
func (j *JsonDocument) Node(path string) *JsonNode {
	return &JsonNode{doc: j, Path: path}
}

// Nodes returns the object-key wrappers discovered at load time.
func (j *JsonDocument) Nodes() []*JsonNode { return j.nodes }
