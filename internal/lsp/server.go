// Package lsp serves parse diagnostics over the Language Server Protocol.
//
// Documents are synced in full. Every open, change and save reparses the
// document with the grammar picked by its extension and publishes either a
// single error diagnostic at the failure position or an empty list.
package lsp

import (
	"net/url"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/roach88/picoparse/internal/grammar"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "picoparse"

// Server is a diagnostics-only language server.
type Server struct {
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	fallback   *grammar.Grammar
	whitespace string

	mu   sync.Mutex
	docs map[protocol.DocumentUri]string
}

// Option configures a Server.
type Option func(*Server)

// WithFallbackGrammar parses documents whose extension no grammar claims
// with g. Without it those documents get no diagnostics.
func WithFallbackGrammar(g grammar.Grammar) Option {
	return func(s *Server) { s.fallback = &g }
}

// WithWhitespace overrides the whitespace set of every grammar.
func WithWhitespace(set string) Option {
	return func(s *Server) { s.whitespace = set }
}

// NewServer creates a server. debug enables glsp's protocol logging.
func NewServer(version string, debug bool, opts ...Option) *Server {
	s := &Server{
		version: version,
		log:     commonlog.GetLogger("picoparse.lsp"),
		docs:    make(map[protocol.DocumentUri]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
	}
	s.server = server.NewServer(&s.handler, lsName, debug)
	return s
}

// RunStdio serves requests on stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.log.Infof("initialized, grammars: %v", grammar.Names())
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.log.Info("shutdown")
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.store(uri, params.TextDocument.Text)
	s.publish(ctx, uri, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := change.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		s.log.Warningf("ignoring incremental change to %s", params.TextDocument.URI)
		return nil
	}

	uri := params.TextDocument.URI
	s.store(uri, whole.Text)
	s.publish(ctx, uri, whole.Text)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	var content string
	if params.Text != nil {
		content = *params.Text
		s.store(uri, content)
	} else {
		s.mu.Lock()
		text, ok := s.docs[uri]
		s.mu.Unlock()
		if !ok {
			return nil
		}
		content = text
	}
	s.publish(ctx, uri, content)
	return nil
}

func (s *Server) store(uri protocol.DocumentUri, content string) {
	s.mu.Lock()
	s.docs[uri] = content
	s.mu.Unlock()
}

func (s *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri, content string) {
	g, ok := s.grammarFor(uri)
	if !ok {
		s.log.Debugf("no grammar for %s", uri)
		return
	}

	diags, err := Diagnose(g, content)
	if err != nil {
		s.log.Errorf("parse %s: %s", uri, err)
		return
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// grammarFor picks the grammar for a document by extension, falling back
// to the configured grammar.
func (s *Server) grammarFor(uri protocol.DocumentUri) (grammar.Grammar, bool) {
	g, ok := grammar.ForExtension(uriPath(uri))
	if !ok {
		if s.fallback == nil {
			return grammar.Grammar{}, false
		}
		g = *s.fallback
	}
	return g.WithWhitespace(s.whitespace), true
}

// uriPath returns the path component of a document URI, or the URI itself
// when it does not parse.
func uriPath(uri protocol.DocumentUri) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Path == "" {
		return uri
	}
	return parsed.Path
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
