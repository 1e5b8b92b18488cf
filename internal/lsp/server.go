// Package lsp serves a Workspace over the Language Server Protocol on
// stdio. It translates protocol notifications into document edits and
// requests into workspace queries; every request answers with a well-typed
// result, empty when the document is unknown.
package lsp

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/jward/bendlens"
	"github.com/jward/bendlens/internal/logging"
)

// Name is the server name reported to clients.
const Name = "bendlens"

// Server adapts a Workspace to the glsp handler set.
type Server struct {
	ws      *bendlens.Workspace
	logger  *log.Logger
	version string
	debug   bool
	handler protocol.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithDebug turns on protocol tracing in the transport.
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.debug = debug
	}
}

// New creates a server over ws.
func New(ws *bendlens.Workspace, opts ...Option) *Server {
	s := &Server{ws: ws, logger: ws.Analyzer().Logger()}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.didOpen,
		TextDocumentDidChange:          s.didChange,
		TextDocumentDidClose:           s.didClose,
		TextDocumentCompletion:         s.completion,
		TextDocumentDefinition:         s.definition,
		TextDocumentSemanticTokensFull: s.semanticTokensFull,
		WorkspaceSymbol:                s.workspaceSymbol,
	}
	return s
}

// Handler returns the protocol handler, for transports other than stdio.
func (s *Server) Handler() *protocol.Handler { return &s.handler }

// RunStdio serves the protocol on stdin and stdout until the client
// disconnects.
func (s *Server) RunStdio() error {
	return server.NewServer(&s.handler, Name, s.debug).RunStdio()
}

// context returns the context requests run under. glsp does not carry one.
func (s *Server) context() context.Context {
	return logging.WithLogger(context.Background(), s.logger)
}

// Capabilities lists what the server supports: incremental sync, completion,
// definition, full-document semantic tokens and workspace symbols.
func (s *Server) Capabilities() protocol.ServerCapabilities {
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	return protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &openClose,
			Change:    &change,
		},
		CompletionProvider: &protocol.CompletionOptions{},
		DefinitionProvider: true,
		SemanticTokensProvider: protocol.SemanticTokensOptions{
			Legend: s.ws.Analyzer().Legend().Protocol(),
			Full:   true,
		},
		WorkspaceSymbolProvider: true,
	}
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	client := "unknown"
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	s.logger.Info("initialize", "client", client)

	info := &protocol.InitializeResultServerInfo{Name: Name}
	if s.version != "" {
		v := s.version
		info.Version = &v
	}
	return protocol.InitializeResult{Capabilities: s.Capabilities(), ServerInfo: info}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.logger.Info("shutdown")
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	td := params.TextDocument
	s.ws.Open(s.context(), td.URI, td.Version, td.Text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	changes, err := toChanges(params.ContentChanges)
	if err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if err := s.ws.Change(s.context(), uri, params.TextDocument.Version, changes...); err != nil {
		s.logger.Warn("change dropped", logging.FieldURI, uri, logging.FieldError, err)
	}
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	if err := s.ws.Close(uri); err != nil {
		s.logger.Debug("close", logging.FieldURI, uri, logging.FieldError, err)
	}
	return nil
}

func (s *Server) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, err := s.ws.Document(params.TextDocument.URI)
	if err != nil {
		s.logger.Debug("completion", logging.FieldError, err)
		return []protocol.CompletionItem{}, nil
	}
	return doc.Completion(s.context(), params.Position), nil
}

func (s *Server) definition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, err := s.ws.Document(params.TextDocument.URI)
	if err != nil {
		s.logger.Debug("definition", logging.FieldError, err)
		return []protocol.Location{}, nil
	}
	return doc.Definition(s.context(), params.Position), nil
}

func (s *Server) semanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, err := s.ws.Document(params.TextDocument.URI)
	if err != nil {
		s.logger.Debug("semantic tokens", logging.FieldError, err)
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}
	return doc.SemanticTokens(s.context()), nil
}

func (s *Server) workspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	syms, err := s.ws.Symbols(s.context(), params.Query, 0)
	if err != nil {
		s.logger.Warn("workspace symbol", logging.FieldError, err)
		return []protocol.SymbolInformation{}, nil
	}
	return syms, nil
}

// toChanges converts protocol content changes. Events without a range
// replace the whole text.
func toChanges(events []any) ([]bendlens.Change, error) {
	out := make([]bendlens.Change, 0, len(events))
	for i, e := range events {
		switch c := e.(type) {
		case protocol.TextDocumentContentChangeEvent:
			out = append(out, bendlens.Change{Range: c.Range, Text: c.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			out = append(out, bendlens.Change{Text: c.Text})
		default:
			return nil, fmt.Errorf("lsp: change %d: unexpected %T", i, e)
		}
	}
	return out, nil
}
