package risc

import (
	"bufio"
	"fmt"
)

// ioLoad services a load from a negative effective address: integer or
// character reads from the machine's input stream (spec.md §6).
func (m *Machine) ioLoad(addr int32) int32 {
	if m.IO.In == nil {
		m.PC = TrapIO
		return 0
	}
	if m.inReader == nil {
		m.inReader = bufio.NewReader(m.IO.In)
	}
	r := m.inReader
	switch addr {
	case IOInt:
		var v int32
		if _, err := fmt.Fscan(r, &v); err != nil {
			m.PC = TrapIO
			return 0
		}
		return v
	case IOChar:
		c, _, err := r.ReadRune()
		if err != nil {
			m.PC = TrapIO
			return 0
		}
		return int32(c)
	}
	m.PC = TrapIO
	return 0
}

// ioStore services a store to a negative effective address: integer,
// character, string-pool-address, or newline writes to the machine's
// output stream.
func (m *Machine) ioStore(addr, val int32) {
	if m.IO.Out == nil {
		m.PC = TrapIO
		return
	}
	var err error
	switch addr {
	case IOInt:
		_, err = fmt.Fprintf(m.IO.Out, "%d", val)
	case IOChar:
		_, err = fmt.Fprintf(m.IO.Out, "%c", rune(val))
	case IOString:
		_, err = fmt.Fprint(m.IO.Out, m.readPoolString(val))
	case IONewline:
		_, err = fmt.Fprintln(m.IO.Out)
	default:
		m.PC = TrapIO
		return
	}
	if err != nil {
		m.PC = TrapIO
	}
}

// readPoolString reads a little-endian-packed, null-terminated string
// starting at byte address a out of the string pool (WriteStr in risc.c).
func (m *Machine) readPoolString(a int32) string {
	var b []byte
	for {
		if a < 0 || int(a/4) >= len(m.Mem) {
			break
		}
		word := uint32(m.Mem[a/4])
		shift := uint((a % 4) * 8)
		c := byte(word >> shift)
		if c == 0 {
			break
		}
		b = append(b, c)
		a++
	}
	return string(b)
}

// Dump renders the register file, flags, and a memory window, matching
// the reference interpreter's post-abort Dump().
func (m *Machine) Dump() string {
	var out []byte
	app := func(s string) { out = append(out, s...) }
	app(fmt.Sprintf("PC=%d H=%d flags N=%v Z=%v C=%v V=%v\n", m.PC, m.H, m.N, m.Z, m.C, m.V))
	for i := 0; i < 16; i++ {
		app(fmt.Sprintf("R%-2d=%-12d", i, m.R[i]))
		if i%4 == 3 {
			app("\n")
		}
	}
	return string(out)
}
