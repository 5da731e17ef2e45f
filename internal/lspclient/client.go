// Package lspclient implements Component E: a thin LSP client wrapping one
// child language-server process per project over stdio JSON-RPC. It sits on
// the client side of the wire, reusing glsp's protocol types but driving
// sourcegraph/jsonrpc2 directly instead of glsp's server dispatcher.
package lspclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// UriToPath converts a "file://" URI to a filesystem path (§4.E position/
// uri conversion is the caller's responsibility).
func UriToPath(u string) string {
	if parsed, err := url.Parse(u); err == nil && parsed.Scheme == "file" {
		return parsed.Path
	}
	return u
}

// PathToURI converts a filesystem path to a "file://" URI.
func PathToURI(p string) string {
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// Client is one language-server connection, scoped to a single project root
// (§4.E "a type-keyed map of LSP clients" lives in Project, one Client per
// entry). A Client with no backing process is safe to call: every method
// becomes a no-op that returns the zero value. Hover, Declaration,
// References and DidOpen log a warning when they do nothing; DidClose,
// DidChange and Shutdown return without logging.
type Client struct {
	logger commonlog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	conn    *jsonrpc2.Conn
	started bool

	revision atomic.Int64
}

// New returns an unconfigured Client; call Initialize to start the server.
func New() *Client {
	return &Client{logger: commonlog.GetLoggerf("knut.lspclient")}
}

// stdioStream adapts a child process's stdin/stdout into a jsonrpc2.Stream
// using LSP's Content-Length-framed codec.
type stdioStream struct {
	in  io.WriteCloser
	out io.ReadCloser
}

func (s stdioStream) Read(p []byte) (int, error)  { return s.out.Read(p) }
func (s stdioStream) Write(p []byte) (int, error) { return s.in.Write(p) }
func (s stdioStream) Close() error {
	_ = s.in.Close()
	return s.out.Close()
}

// Initialize starts command as a child process in root and performs the LSP
// "initialize" handshake (§4.E initialize(root)).
func (c *Client) Initialize(ctx context.Context, command []string, root string) error {
	if len(command) == 0 {
		c.logger.Warningf("no language server command configured for %s", root)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = root
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("lspclient: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("lspclient: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("lspclient: start %s: %w", command[0], err)
	}

	stream := jsonrpc2.NewBufferedStream(stdioStream{in: stdin, out: stdout}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, c)

	c.cmd = cmd
	c.conn = conn
	c.started = true

	rootURI := PathToURI(root)
	params := protocol.InitializeParams{
		RootURI: &rootURI,
	}
	var result protocol.InitializeResult
	if err := conn.Call(ctx, "initialize", params, &result); err != nil {
		c.logger.Warningf("initialize failed for %s: %v", root, err)
		return err
	}
	return conn.Notify(ctx, "initialized", protocol.InitializedParams{})
}

// Handle implements jsonrpc2.Handler for server-to-client requests
// (publishDiagnostics, window/showMessage, ...). None are acted on yet; the
// engine only consumes call results, not push notifications.
func (c *Client) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

// configured reports whether a backing process/connection exists.
func (c *Client) configured() (*jsonrpc2.Conn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.started
}

// CloseProject shuts down and exits the language server (§4.E
// close_project; spec names it separately from Shutdown so a Client can be
// reused by re-Initializing against a new root).
func (c *Client) CloseProject(ctx context.Context) error {
	return c.Shutdown(ctx)
}

// Shutdown performs the LSP shutdown/exit sequence and releases the
// process.
func (c *Client) Shutdown(ctx context.Context) error {
	conn, ok := c.configured()
	if !ok {
		return nil
	}
	if err := conn.Call(ctx, "shutdown", nil, nil); err != nil {
		c.logger.Warningf("shutdown call failed: %v", err)
	}
	_ = conn.Notify(ctx, "exit", nil)
	err := conn.Close()

	c.mu.Lock()
	c.conn = nil
	c.started = false
	cmd := c.cmd
	c.cmd = nil
	c.mu.Unlock()

	if cmd != nil {
		_ = cmd.Wait()
	}
	return err
}

// DidOpen notifies the server of a newly opened document (§4.E did_open).
func (c *Client) DidOpen(ctx context.Context, uri, languageID, text string) {
	conn, ok := c.configured()
	if !ok {
		c.logger.Warningf("did_open(%s): no language server configured", uri)
		return
	}
	rev := c.revision.Add(1)
	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: languageID,
			Version:    int32(rev),
			Text:       text,
		},
	}
	if err := conn.Notify(ctx, "textDocument/didOpen", params); err != nil {
		c.logger.Warningf("did_open(%s): %v", uri, err)
	}
}

// DidClose notifies the server a document was closed (§4.E did_close).
func (c *Client) DidClose(ctx context.Context, uri string) {
	conn, ok := c.configured()
	if !ok {
		return
	}
	params := protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	if err := conn.Notify(ctx, "textDocument/didClose", params); err != nil {
		c.logger.Warningf("did_close(%s): %v", uri, err)
	}
}

// DidChange sends a full-document sync for uri with a monotonically
// incrementing revision (§3 CodeDocument: "sends a didChange with the full
// buffer and a monotonically-incrementing revision").
func (c *Client) DidChange(ctx context.Context, uri, fullText string) {
	conn, ok := c.configured()
	if !ok {
		return
	}
	rev := c.revision.Add(1)
	params := protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                int32(rev),
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEventWhole{Text: fullText},
		},
	}
	if err := conn.Notify(ctx, "textDocument/didChange", params); err != nil {
		c.logger.Warningf("did_change(%s): %v", uri, err)
	}
}

// Hover requests hover information at pos (§4.E hover → Hover?).
func (c *Client) Hover(ctx context.Context, uri string, pos protocol.Position) (*protocol.Hover, error) {
	conn, ok := c.configured()
	if !ok {
		c.logger.Warningf("hover(%s): no language server configured", uri)
		return nil, nil
	}
	params := protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	}
	var result *protocol.Hover
	if err := conn.Call(ctx, "textDocument/hover", params, &result); err != nil {
		c.logger.Warningf("hover(%s): %v", uri, err)
		return nil, err
	}
	return result, nil
}

// Declaration requests the declaration location(s) of the symbol at pos
// (§4.E declaration → Location|Location[]|LocationLink[]).
func (c *Client) Declaration(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error) {
	conn, ok := c.configured()
	if !ok {
		c.logger.Warningf("declaration(%s): no language server configured", uri)
		return nil, nil
	}
	params := protocol.DeclarationParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	}
	var result []protocol.Location
	if err := conn.Call(ctx, "textDocument/declaration", params, &result); err != nil {
		c.logger.Warningf("declaration(%s): %v", uri, err)
		return nil, err
	}
	return result, nil
}

// References requests every reference to the symbol at pos (§4.E
// references → Location[]).
func (c *Client) References(ctx context.Context, uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	conn, ok := c.configured()
	if !ok {
		c.logger.Warningf("references(%s): no language server configured", uri)
		return nil, nil
	}
	params := protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
	}
	var result []protocol.Location
	if err := conn.Call(ctx, "textDocument/references", params, &result); err != nil {
		c.logger.Warningf("references(%s): %v", uri, err)
		return nil, err
	}
	return result, nil
}
