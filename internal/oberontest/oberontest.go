// Package oberontest provides a small harness for exercising whole
// Oberon-07 modules end to end, adapted from the teacher's
// internal/testing test-discovery/runner shape (TestSuite/TestResult,
// DiscoverTests glob-then-run) onto this module's compile-then-interpret
// pipeline instead of a bytecode VM.
package oberontest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oberon/internal/diag"
	"oberon/internal/parser"
	"oberon/internal/risc"
)

// Result is the outcome of compiling and running one module fixture.
type Result struct {
	File        string
	Diagnostics []string
	Run         risc.Result
	Duration    time.Duration
}

// Passed reports whether the fixture compiled cleanly and halted
// normally.
func (r Result) Passed() bool {
	return len(r.Diagnostics) == 0 && r.Run.Reason == "halted"
}

// RunFile compiles and interprets the module at path, feeding stdin/out
// through in/out so a fixture's WRITE/READ statements can be asserted
// against by the caller.
func RunFile(path string, in *os.File, out *os.File) (Result, error) {
	start := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("oberontest: %w", err)
	}

	diags := diag.NewSink(path)
	machine := risc.NewMachine(risc.IO{In: in, Out: out})
	sb, entry := parser.Compile(path, string(source), machine.Mem[:], diags)

	res := Result{File: path, Duration: time.Since(start)}
	for _, d := range diags.Diagnostics() {
		res.Diagnostics = append(res.Diagnostics, d.Error())
	}
	if len(res.Diagnostics) > 0 {
		return res, nil
	}
	res.Run = machine.Interpret(sb, entry)
	return res, nil
}

// DiscoverFixtures finds module fixtures matching pattern (e.g.
// "*_test.Mod") under dir, the equivalent of the teacher's
// testing.DiscoverTests glob helper.
func DiscoverFixtures(dir, pattern string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, pattern))
}
