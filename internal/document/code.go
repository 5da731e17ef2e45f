package document

import (
	"context"

	"github.com/kdab-labs/knutgo/internal/lspclient"
	"github.com/kdab-labs/knutgo/internal/syntax"
)

// CodeDocument additionally owns a tree-sitter Helper and an optional LSP
// client reference; every content change invalidates the tree and, if an
// LSP client is attached, sends a full-buffer didChange (§3 CodeDocument).
type CodeDocument struct {
	*TextDocument
	Syntax *syntax.Helper
	LSP    *lspclient.Client
	URI    string
}

// NewCodeDocument returns a CodeDocument parsing with language.
func NewCodeDocument(kind Type, language syntax.LanguageID) *CodeDocument {
	c := &CodeDocument{TextDocument: NewTextDocument(kind)}
	if lang, ok := syntax.Resolve(language); ok {
		c.Syntax = syntax.NewHelper(lang)
	}
	return c
}

// AttachLSP configures the LSP client this document notifies on change.
func (c *CodeDocument) AttachLSP(client *lspclient.Client, uri string) {
	c.LSP = client
	c.URI = uri
}

// OnContentChanged invalidates the syntax tree and, once an LSP client is
// attached, pushes a full-document didChange (§3: "Each content change
// invalidates the tree ... sends a didChange with the full buffer").
func (c *CodeDocument) OnContentChanged(ctx context.Context) error {
	c.MarkChanged()
	text := c.Buffer.Text()
	if c.Syntax != nil {
		if err := c.Syntax.Reparse(ctx, []byte(text), nil); err != nil {
			return err
		}
	}
	if c.LSP != nil && c.URI != "" {
		c.LSP.DidChange(ctx, c.URI, text)
	}
	return nil
}
