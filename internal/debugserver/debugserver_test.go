package debugserver

import (
	"testing"
	"time"

	"oberon/internal/risc"
)

func haltingProgram(m *risc.Machine) int32 {
	m.Mem[1] = int32(risc.EncodeF1(risc.OpMov, 0, 0, 0, false, false))
	m.Mem[2] = int32(risc.EncodeF3Reg(risc.CondTrue, 0, false))
	return 3
}

func TestRunWithNoBreakpointsCompletesImmediately(t *testing.T) {
	m := risc.NewMachine(risc.IO{})
	sb := haltingProgram(m)
	s := New(m, sb)

	res := s.Run(1)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestSetBreakpointPausesUntilResume(t *testing.T) {
	m := risc.NewMachine(risc.IO{})
	sb := haltingProgram(m)
	s := New(m, sb)
	s.SetBreakpoint(1)

	done := make(chan risc.Result, 1)
	go func() { done <- s.Run(1) }()

	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		state := s.state
		s.mu.Unlock()
		if state == Paused {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the server to pause at the breakpoint")
		default:
		}
	}

	s.resume <- struct{}{}

	select {
	case res := <-done:
		if res.Reason != "halted" {
			t.Fatalf("got %v, want halted", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to finish after resume")
	}
}

func TestClearBreakpointRemovesIt(t *testing.T) {
	s := &Server{breakpoints: make(map[int32]bool)}
	s.SetBreakpoint(5)
	if !s.breakpoints[5] {
		t.Fatal("SetBreakpoint should record the breakpoint")
	}
	s.ClearBreakpoint(5)
	if s.breakpoints[5] {
		t.Fatal("ClearBreakpoint should remove the breakpoint")
	}
}
