// Package oberonlsp implements a minimal stdio Language Server Protocol
// server for Oberon-07, the -lsp CLI flag's backing implementation.
// Structurally this mirrors the teacher's internal/lsp/server.go: a
// bufio-wrapped reader driving a Content-Length-framed JSON-RPC loop,
// one goroutine, a documents map keyed by URI. Where the teacher's
// server re-lexes/re-parses its own language on every change, this one
// drives the real single-pass compiler (internal/parser.Compile) and
// turns diag.Sink entries into LSP diagnostics.
package oberonlsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"oberon/internal/diag"
	"oberon/internal/parser"
)

// Server is the LSP server implementation for this module's Oberon-07
// subset.
type Server struct {
	in      *bufio.Reader
	out     io.Writer
	mu      sync.Mutex
	docs    map[string]string
	running bool
}

// NewServer returns a server reading requests from in and writing
// responses to out (normally os.Stdin/os.Stdout).
func NewServer(in io.Reader, out io.Writer) *Server {
	return &Server{in: bufio.NewReader(in), out: out, docs: make(map[string]string)}
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
}

type rpcNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// Start runs the read-decode-dispatch loop until stdin closes.
func (s *Server) Start() error {
	s.running = true
	for s.running {
		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			fmt.Fprintf(os.Stderr, "oberonlsp: %v\n", err)
			continue
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			fmt.Fprintf(os.Stderr, "oberonlsp: malformed request: %v\n", err)
			continue
		}
		s.dispatch(req)
	}
	return nil
}

// readMessage reads one Content-Length-framed JSON-RPC message, the
// standard LSP transport framing.
func (s *Server) readMessage() ([]byte, error) {
	var length int
	for {
		line, err := s.in.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return nil, fmt.Errorf("bad Content-Length: %w", err)
			}
			length = n
		}
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.in, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Server) write(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func (s *Server) dispatch(req rpcRequest) {
	switch req.Method {
	case "initialize":
		s.write(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync": 1, // full-document sync
			},
		}})
	case "initialized", "$/setTrace":
		// No response required for notifications.
	case "shutdown":
		s.write(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: nil})
	case "exit":
		s.running = false
	case "textDocument/didOpen":
		s.handleDidOpen(req.Params)
	case "textDocument/didChange":
		s.handleDidChange(req.Params)
	}
}

type textDocumentItem struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

func (s *Server) handleDidOpen(raw json.RawMessage) {
	var p didOpenParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	s.docs[p.TextDocument.URI] = p.TextDocument.Text
	s.publishDiagnostics(p.TextDocument.URI, p.TextDocument.Text)
}

type versionedTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type contentChange struct {
	Text string `json:"text"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                 `json:"contentChanges"`
}

func (s *Server) handleDidChange(raw json.RawMessage) {
	var p didChangeParams
	if err := json.Unmarshal(raw, &p); err != nil || len(p.ContentChanges) == 0 {
		return
	}
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	s.docs[p.TextDocument.URI] = text
	s.publishDiagnostics(p.TextDocument.URI, text)
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Message  string   `json:"message"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

// publishDiagnostics compiles text and pushes a textDocument/publishDiagnostics
// notification built from the resulting diag.Sink, discarding the
// generated code image (the LSP client only wants error feedback).
func (s *Server) publishDiagnostics(uri, text string) {
	diags := diag.NewSink(uri)
	mem := make([]int32, 4096)
	parser.Compile(uri, text, mem, diags)

	out := make([]lspDiagnostic, 0, len(diags.Diagnostics()))
	for _, d := range diags.Diagnostics() {
		line := d.Location.Line - 1
		if line < 0 {
			line = 0
		}
		col := d.Location.Column - 1
		if col < 0 {
			col = 0
		}
		out = append(out, lspDiagnostic{
			Range: lspRange{
				Start: lspPosition{Line: line, Character: col},
				End:   lspPosition{Line: line, Character: col + 1},
			},
			Severity: 1, // Error
			Message:  d.Message,
		})
	}
	s.write(rpcNotification{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]interface{}{
			"uri":         uri,
			"diagnostics": out,
		},
	})
}
