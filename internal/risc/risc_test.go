package risc

import "testing"

func TestEncodeDecodeF0RoundTrips(t *testing.T) {
	ir := EncodeF0(OpAdd, 1, 2, 3, false)
	got := Decode(ir)
	want := "ADD R1, R2, R3"
	if got != want {
		t.Fatalf("Decode(%08x) = %q, want %q", ir, got, want)
	}
}

func TestInterpretHaltsOnZeroPC(t *testing.T) {
	m := NewMachine(IO{})
	// A single MOV R0, 0 followed by BR R0 (branch to 0, i.e. halt).
	m.Mem[1] = int32(EncodeF1(OpMov, 0, 0, 0, false, false))
	m.Mem[2] = int32(EncodeF3Reg(CondTrue, 0, false))
	res := m.Interpret(3, 1)
	if res.Reason != "halted" {
		t.Fatalf("got %v, want halted", res)
	}
}

func TestInterpretTrapsOnDivByZero(t *testing.T) {
	m := NewMachine(IO{})
	m.R[1] = 10
	m.R[2] = 0
	m.Mem[1] = int32(EncodeF0(OpDiv, 1, 1, 2, false))
	m.Mem[2] = int32(EncodeF3Off(CondTrue, 0, false)) // BR falls to PC==2, loops to itself until trap fires first
	res := m.Interpret(3, 1)
	if res.Reason != "trap" || res.Trap != TrapDivByZero {
		t.Fatalf("got %v, want division-by-zero trap", res)
	}
}

func TestOnStepPausesAndResumes(t *testing.T) {
	m := NewMachine(IO{})
	m.Mem[1] = int32(EncodeF1(OpMov, 0, 0, 7, false, false))
	m.Mem[2] = int32(EncodeF3Reg(CondTrue, 1, false)) // BR R1, still 0: halt

	paused := false
	m.OnStep = func(mm *Machine) bool {
		if mm.PC == 2 && !paused {
			paused = true
			return false
		}
		return true
	}

	res := m.Interpret(3, 1)
	if res.Reason != "paused" {
		t.Fatalf("got %v, want paused", res)
	}
	if m.R[0] != 7 {
		t.Fatalf("R0 = %d, want 7 (first instruction should have run)", m.R[0])
	}

	res = m.Resume(3)
	if res.Reason != "halted" {
		t.Fatalf("after resume got %v, want halted", res)
	}
}
