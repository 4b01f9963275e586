// Package lsp implements the stdio JSON-RPC language server: session
// lifecycle, live document tracking, and debounced publication of
// compiler diagnostics.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rafaeldeoliveira/java-language-server/internal/compiler"
	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
	"github.com/rafaeldeoliveira/java-language-server/internal/infer"
	"github.com/rafaeldeoliveira/java-language-server/internal/uri"
	"github.com/rafaeldeoliveira/java-language-server/internal/watch"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// lifecycleState is the session lifecycle. Transitions only move
// forward; a terminated session is never reused.
type lifecycleState uint8

const (
	stateUninitialized lifecycleState = iota
	stateInitialized
	stateShuttingDown
	stateTerminated
)

func (st lifecycleState) String() string {
	switch st {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateShuttingDown:
		return "shutting-down"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// InferFunc derives a classpath from a workspace root.
type InferFunc func(root string) ([]string, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce       time.Duration
	Construct      compiler.Factory
	Infer          InferFunc
	MaxDiagnostics int
	Logger         *slog.Logger

	// WatchConfig starts a filesystem watch on the workspace root so
	// build-configuration edits trigger a compiler rebuild even when
	// the client never sends workspace/didChangeWatchedFiles.
	WatchConfig bool
}

// Server handles stdio JSON-RPC for the Java language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	// mu guards lifecycle and document state. compilerMu guards the
	// compiler handle alone so a slow lint never blocks didChange.
	mu        sync.Mutex
	state     lifecycleState
	openDocs  map[string]string
	versions  map[string]int
	published map[string]struct{}

	compilerMu sync.Mutex
	linter     compiler.Linter

	workspaceRoot  string
	watchConfig    bool
	watcher        *watch.Watcher
	debounce       time.Duration
	debounceTimer  *time.Timer
	lintSeq        uint64
	latestSeq      uint64
	construct      compiler.Factory
	inferClasspath InferFunc
	maxDiagnostics int
	baseCtx        context.Context
	logger         *slog.Logger
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	inferFn := opts.Infer
	if inferFn == nil {
		inferFn = infer.Classpath
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		openDocs:       make(map[string]string),
		versions:       make(map[string]int),
		published:      make(map[string]struct{}),
		debounce:       debounce,
		watchConfig:    opts.WatchConfig,
		construct:      opts.Construct,
		inferClasspath: inferFn,
		maxDiagnostics: maxDiagnostics,
		logger:         opts.Logger,
	}
}

// Run serves LSP requests until exit or read failure. ErrExit reports a
// clean exit after shutdown; ErrExitWithoutShutdown an abrupt one.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit()
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != stateInitialized {
		if len(msg.ID) > 0 {
			if state == stateShuttingDown {
				return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
			}
			return s.sendError(msg.ID, codeServerNotInitialized, "server not initialized")
		}
		return nil
	}

	switch msg.Method {
	case "workspace/didChangeWatchedFiles":
		return s.handleDidChangeWatchedFiles(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/completion":
		return s.sendResponse(msg.ID, completionList{Items: []completionItem{}})
	case "completionItem/resolve":
		return s.sendResponse(msg.ID, msg.Params)
	case "textDocument/hover", "textDocument/signatureHelp":
		return s.sendResponse(msg.ID, nil)
	case "textDocument/definition", "textDocument/references",
		"textDocument/documentSymbol", "textDocument/codeAction",
		"workspace/symbol":
		return s.sendResponse(msg.ID, []any{})
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

// capabilitySet is fixed: the same set is advertised for every session.
func capabilitySet() serverCapabilities {
	return serverCapabilities{
		TextDocumentSync: textDocumentSyncOptions{
			OpenClose: true,
			Change:    2,
			Save: saveOptions{
				IncludeText: true,
			},
		},
		HoverProvider:           true,
		DefinitionProvider:      true,
		ReferencesProvider:      true,
		DocumentSymbolProvider:  true,
		WorkspaceSymbolProvider: true,
		CodeActionProvider:      true,
		CompletionProvider: &completionOptions{
			ResolveProvider:   true,
			TriggerCharacters: []string{"."},
		},
		SignatureHelpProvider: &signatureHelpOptions{
			TriggerCharacters: []string{"(", ","},
		},
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != stateUninitialized {
		return s.sendError(msg.ID, codeInvalidRequest, "server already initialized")
	}

	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uri.ToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		if abs, err := filepath.Abs(params.RootPath); err == nil {
			root = abs
		}
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uri.ToPath(params.WorkspaceFolders[0].URI)
	}
	if root == "" {
		return s.sendError(msg.ID, codeInvalidParams, "no usable workspace root")
	}

	// Construction failure leaves the session Uninitialized so the
	// client can retry with a different root.
	s.compilerMu.Lock()
	linter, err := s.createCompiler(root)
	if err == nil {
		s.linter = linter
	}
	s.compilerMu.Unlock()
	if err != nil {
		s.logf("compiler construction failed: %v", err)
		return s.sendError(msg.ID, codeInternalError, fmt.Sprintf("cannot construct compiler: %v", err))
	}

	s.mu.Lock()
	s.workspaceRoot = root
	s.openDocs = make(map[string]string)
	s.versions = make(map[string]int)
	s.published = make(map[string]struct{})
	s.state = stateInitialized
	s.mu.Unlock()

	if s.watchConfig {
		s.startConfigWatcher(root)
	}
	return s.sendResponse(msg.ID, initializeResult{Capabilities: capabilitySet()})
}

// startConfigWatcher is a fallback channel for clients that never
// register file watchers; didChangeWatchedFiles stays authoritative.
func (s *Server) startConfigWatcher(root string) {
	w, err := watch.New(root, time.Second, s.onWatchedPaths)
	if err != nil {
		s.logf("config watcher unavailable: %v", err)
		return
	}
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := w.Start(ctx); err != nil {
		s.logf("config watcher failed to start: %v", err)
		w.Stop()
		return
	}
	s.watcher = w
}

func (s *Server) onWatchedPaths(paths []string) {
	for _, path := range paths {
		if !infer.IsBuildFile(path) {
			continue
		}
		// The rebuild is a full replace; one per batch is enough.
		if err := s.UpdateConfig(path); err != nil {
			s.logf("config update failed: %v", err)
		}
		return
	}
}

// createCompiler infers the classpath for root and constructs a fresh
// handle. Callers hold compilerMu.
func (s *Server) createCompiler(root string) (compiler.Linter, error) {
	classpath, err := s.inferClasspath(root)
	if err != nil {
		return nil, err
	}
	construct := s.construct
	if construct == nil {
		cfg, _, err := infer.LoadConfig(root)
		if err != nil {
			return nil, err
		}
		construct = compiler.NewExternalFactory(cfg.Lint.Command)
	}
	return construct(classpath)
}

// UpdateConfig rebuilds the compiler handle from a freshly inferred
// classpath. The rebuild is a full replace of the handle; which file
// changed does not matter. A failed rebuild keeps the old handle.
func (s *Server) UpdateConfig(configFile string) error {
	s.mu.Lock()
	state := s.state
	root := s.workspaceRoot
	s.mu.Unlock()
	if state != stateInitialized {
		return nil
	}
	s.logf("config changed (%s), rebuilding compiler", configFile)

	s.compilerMu.Lock()
	linter, err := s.createCompiler(root)
	if err != nil {
		s.compilerMu.Unlock()
		return fmt.Errorf("rebuild compiler: %w", err)
	}
	s.linter = linter
	s.compilerMu.Unlock()

	s.scheduleLint()
	return nil
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	if s.state != stateInitialized {
		state := s.state
		s.mu.Unlock()
		return s.sendError(msg.ID, codeInvalidRequest, fmt.Sprintf("shutdown received while %s", state))
	}
	s.state = stateShuttingDown
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.clearPublished()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleExit() error {
	s.mu.Lock()
	prev := s.state
	s.state = stateTerminated
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if prev == stateShuttingDown {
		return ErrExit
	}
	return ErrExitWithoutShutdown
}

func (s *Server) handleDidChangeWatchedFiles(msg *rpcMessage) error {
	var params didChangeWatchedFilesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	for _, change := range params.Changes {
		path := uri.ToPath(change.URI)
		if path == "" || !infer.IsBuildFile(path) {
			continue
		}
		if err := s.UpdateConfig(path); err != nil {
			s.logf("config update failed: %v", err)
		}
	}
	return nil
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	u := canonicalURI(params.TextDocument.URI)
	if u == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[u] = params.TextDocument.Text
	s.versions[u] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleLint()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	u := canonicalURI(params.TextDocument.URI)
	if u == "" {
		return nil
	}
	s.mu.Lock()
	text := s.openDocs[u]
	text = applyChanges(text, params.ContentChanges)
	s.openDocs[u] = text
	s.versions[u] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleLint()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	u := canonicalURI(params.TextDocument.URI)
	if u == "" {
		return nil
	}
	s.mu.Lock()
	if params.Text != nil {
		s.openDocs[u] = *params.Text
	}
	s.mu.Unlock()
	s.scheduleLint()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	u := canonicalURI(params.TextDocument.URI)
	if u == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, u)
	delete(s.versions, u)
	_, hadDiagnostics := s.published[u]
	delete(s.published, u)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(u, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	s.scheduleLint()
	return nil
}

// contentOf resolves live document text for the diagnostic bridge.
func (s *Server) contentOf(u string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.openDocs[u]
	if !ok {
		return "", fmt.Errorf("%s: %w", u, diag.ErrNotFound)
	}
	return text, nil
}

// canonicalURI normalizes a document URI through its path form so the
// store never holds two spellings of the same file.
func canonicalURI(raw string) string {
	path := uri.ToPath(raw)
	if path == "" {
		return ""
	}
	return uri.FromPath(path)
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf(format, args...))
		return
	}
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}

func (s *Server) isLatestSeq(seq uint64) bool {
	if seq == 0 {
		return false
	}
	return seq == atomic.LoadUint64(&s.latestSeq)
}
