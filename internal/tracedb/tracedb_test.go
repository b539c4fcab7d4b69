package tracedb

import (
	"path/filepath"
	"testing"
)

func TestOpenRecordSessionDiagnosticAndRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	sessionID, err := r.BeginSession("m.Mod")
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if sessionID == "" {
		t.Fatal("BeginSession returned an empty session id")
	}

	if err := r.RecordDiagnostic(3, 5, "undeclared identifier y"); err != nil {
		t.Fatalf("RecordDiagnostic: %v", err)
	}
	if err := r.RecordRun("halted", -1, 42); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
}

func TestOpenReusesExistingDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	r1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	r1.Close()

	r2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open on existing file: %v", err)
	}
	defer r2.Close()
}
