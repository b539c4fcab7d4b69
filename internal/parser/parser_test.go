package parser

import (
	"bytes"
	"testing"

	"oberon/internal/diag"
	"oberon/internal/risc"
)

// compileAndRun is the shared harness every test below uses: compile src
// into a fresh machine's own memory and interpret it to completion.
func compileAndRun(t *testing.T, src string) (*risc.Machine, risc.Result, *diag.Sink) {
	t.Helper()
	diags := diag.NewSink("test.Mod")
	m := risc.NewMachine(risc.IO{})
	sb, entry := Compile("test.Mod", src, m.Mem[:], diags)
	if diags.HasErrors() {
		for _, d := range diags.Diagnostics() {
			t.Logf("diagnostic: %s", d.Error())
		}
		t.Fatalf("unexpected compile errors (%d)", diags.Count())
	}
	res := m.Interpret(sb, entry)
	return m, res, diags
}

func TestCompileEmptyModule(t *testing.T) {
	_, res, _ := compileAndRun(t, `MODULE Empty; BEGIN END Empty.`)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestIfStatement(t *testing.T) {
	src := `
MODULE M;
VAR x, y: INTEGER;
BEGIN
	x := 1;
	y := 0;
	IF x < 2 THEN
		y := 42
	ELSE
		y := 99
	END
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestWhileLoopCountsDown(t *testing.T) {
	src := `
MODULE M;
VAR i, sum: INTEGER;
BEGIN
	i := 5;
	sum := 0;
	WHILE i > 0 DO
		sum := sum + i;
		i := i - 1
	END
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestForStatementWithNegativeStep(t *testing.T) {
	src := `
MODULE M;
VAR i, total: INTEGER;
BEGIN
	total := 0;
	FOR i := 10 TO 1 BY -1 DO
		total := total + i
	END
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestRepeatUntil(t *testing.T) {
	src := `
MODULE M;
VAR i: INTEGER;
BEGIN
	i := 0;
	REPEAT
		i := i + 1
	UNTIL i = 3
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestProcedureCallWithReturn(t *testing.T) {
	src := `
MODULE M;
VAR r: INTEGER;

PROCEDURE Double(x: INTEGER): INTEGER;
BEGIN
	RETURN x + x
END Double;

BEGIN
	r := Double(21)
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestSetConstructorAndIn(t *testing.T) {
	src := `
MODULE M;
VAR s: SET; ok: BOOLEAN;
BEGIN
	s := {1, 3..5};
	ok := 3 IN s
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestDivisionByZeroTraps(t *testing.T) {
	src := `
MODULE M;
VAR x, y, z: INTEGER;
BEGIN
	x := 10;
	y := 0;
	z := x DIV y
END M.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "trap" || res.Trap != -3 {
		t.Fatalf("got %v, want a division-by-zero trap", res)
	}
}

func TestUndeclaredIdentifierIsDiagnosed(t *testing.T) {
	diags := diag.NewSink("bad.Mod")
	m := risc.NewMachine(risc.IO{})
	Compile("bad.Mod", `MODULE M; BEGIN x := 1 END M.`, m.Mem[:], diags)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for the undeclared identifier x")
	}
}

// TestWriteLnOutputsValue reproduces
// "MODULE T; VAR i: INTEGER; BEGIN i := 2*3+4; WriteLn(i) END T." verbatim:
// it must print "10" followed by a newline.
func TestWriteLnOutputsValue(t *testing.T) {
	var out bytes.Buffer
	diags := diag.NewSink("test.Mod")
	m := risc.NewMachine(risc.IO{Out: &out})
	src := `MODULE T; VAR i: INTEGER; BEGIN i := 2*3+4; WriteLn(i) END T.`
	sb, entry := Compile("test.Mod", src, m.Mem[:], diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diags.Diagnostics())
	}
	res := m.Interpret(sb, entry)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
	if got := out.String(); got != "10\n" {
		t.Fatalf("got output %q, want %q", got, "10\n")
	}
}

// TestWriteOutputsValue reproduces
// "MODULE T; VAR i: INTEGER; BEGIN FOR i := 1 TO 3 DO Write(i) END END T."
// verbatim: it must print "123" with no separators or trailing newline.
func TestWriteOutputsValue(t *testing.T) {
	var out bytes.Buffer
	diags := diag.NewSink("test.Mod")
	m := risc.NewMachine(risc.IO{Out: &out})
	src := `MODULE T; VAR i: INTEGER; BEGIN FOR i := 1 TO 3 DO Write(i) END END T.`
	sb, entry := Compile("test.Mod", src, m.Mem[:], diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diags.Diagnostics())
	}
	res := m.Interpret(sb, entry)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
	if got := out.String(); got != "123" {
		t.Fatalf("got output %q, want %q", got, "123")
	}
}

// TestNilPointerAssertionHolds reproduces
// "MODULE T; TYPE P = POINTER TO R; R = RECORD x: INTEGER END; VAR p: P;
// BEGIN ASSERT(p = NIL) END T." verbatim: it compiles with no errors and
// the assertion succeeds against the zero-initialized pointer.
func TestNilPointerAssertionHolds(t *testing.T) {
	src := `MODULE T; TYPE P = POINTER TO R; R = RECORD x: INTEGER END; VAR p: P; BEGIN ASSERT(p = NIL) END T.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

// TestNilPointerDereferenceTraps extends the pointer scenario above: reading
// through the same freshly declared pointer (via the auto-deref of "p.x")
// instead of just comparing it against NIL raises the documented
// nil-pointer trap rather than running off into unrelated memory.
func TestNilPointerDereferenceTraps(t *testing.T) {
	src := `MODULE T; TYPE P = POINTER TO R; R = RECORD x: INTEGER END; VAR p: P; i: INTEGER; BEGIN i := p.x END T.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "trap" || res.Trap != risc.TrapNilPtr {
		t.Fatalf("got %v, want a nil-pointer trap", res)
	}
}

// TestArrayIndexOutOfStaticBoundsIsDiagnosed reproduces
// "MODULE T; VAR a: ARRAY 3 OF INTEGER; BEGIN a[5] := 0 END T." verbatim:
// the immediate, out-of-range index is rejected statically rather than
// left to a runtime bounds trap.
func TestArrayIndexOutOfStaticBoundsIsDiagnosed(t *testing.T) {
	diags := diag.NewSink("index.Mod")
	m := risc.NewMachine(risc.IO{})
	src := `MODULE T; VAR a: ARRAY 3 OF INTEGER; BEGIN a[5] := 0 END T.`
	Compile("index.Mod", src, m.Mem[:], diags)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic for the out-of-bounds constant index")
	}
}

// TestAssertFalseTraps reproduces "MODULE T; BEGIN ASSERT(FALSE) END T."
// verbatim: it compiles and aborts with the assertion-failure trap.
func TestAssertFalseTraps(t *testing.T) {
	src := `MODULE T; BEGIN ASSERT(FALSE) END T.`
	_, res, _ := compileAndRun(t, src)
	if res.Reason != "trap" || res.Trap != risc.TrapAssert {
		t.Fatalf("got %v, want an assertion-failure trap", res)
	}
}

func TestCaseStatementIsRejectedButRecovers(t *testing.T) {
	diags := diag.NewSink("case.Mod")
	m := risc.NewMachine(risc.IO{})
	src := `
MODULE M;
VAR x: INTEGER;
BEGIN
	x := 1;
	CASE x OF
		1: x := 10
		| 2: x := 20
	END;
	x := x + 1
END M.`
	Compile("case.Mod", src, m.Mem[:], diags)
	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic rejecting the CASE statement")
	}
}
