package oberonlsp

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestStartRespondsToInitializeThenExits(t *testing.T) {
	var in bytes.Buffer
	in.WriteString(frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	in.WriteString(frame(`{"jsonrpc":"2.0","method":"exit"}`))

	var out bytes.Buffer
	s := NewServer(&in, &out)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(out.String(), "capabilities") {
		t.Fatalf("response missing capabilities: %q", out.String())
	}
}

func TestDidOpenPublishesDiagnosticsForBadSource(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(strings.NewReader(""), &out)
	s.handleDidOpen([]byte(`{"textDocument":{"uri":"file:///bad.Mod","text":"MODULE M; BEGIN x := 1 END M."}}`))

	resp := out.String()
	if !strings.Contains(resp, "publishDiagnostics") {
		t.Fatalf("expected a publishDiagnostics notification, got %q", resp)
	}
	if !strings.Contains(resp, "undeclared") && !strings.Contains(resp, "x") {
		t.Fatalf("expected a diagnostic mentioning the undeclared identifier, got %q", resp)
	}
}

func TestDidOpenPublishesNoDiagnosticsForCleanSource(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(strings.NewReader(""), &out)
	s.handleDidOpen([]byte(`{"textDocument":{"uri":"file:///ok.Mod","text":"MODULE M; BEGIN END M."}}`))

	resp := out.String()
	if !strings.Contains(resp, `"diagnostics":[]`) {
		t.Fatalf("expected an empty diagnostics array for clean source, got %q", resp)
	}
}
