package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Open resets the generator for a fresh module compilation: pc starts at
// 1 (word 0 reserved, spec.md §3), the register and global-variable
// allocators are empty, and the string pool is cleared (org.c's
// ORG_Open).
func (g *Gen) Open() {
	g.PC = 1
	g.RH = 0
	g.Frame = 0
	g.varSize = 0
	g.pool = g.pool[:0]
	g.strX = 0
}

// Global reserves size bytes of global-variable storage, returning the
// SB-relative byte offset for the new variable (org.c's allocation step
// inside the declaration parser, factored out here since symtab owns
// declaration order but codegen owns the address space).
func (g *Gen) Global(size int) int32 {
	addr := g.varSize
	g.varSize += int32(size)
	return addr
}

// Local reserves size bytes of local-variable storage within the
// procedure currently being compiled, returning the SP-relative byte
// offset; locals are allocated upward from 0 above the SP that Enter
// leaves, inside the localSize bytes its single SUB instruction reserves
// below the saved return address.
func (g *Gen) Local(frameSize *int32, size int) int32 {
	off := *frameSize
	*frameSize += int32(size)
	return off
}

// InternString appends s and a NUL terminator to the module's string
// pool, returning its byte
// offset from the start of the pool. Identical strings are not
// deduplicated, matching the reference compiler's append-only pool.
func (g *Gen) InternString(s string) int32 {
	off := g.strX
	g.pool = append(g.pool, s...)
	g.pool = append(g.pool, 0)
	g.strX = int32(len(g.pool))
	return off
}

// StringItem interns s and returns an item addressing it, for use as a
// WRITE argument or COPY source (org.c's ORG_MakeStringItem). The pool sits
// immediately after the global-variable block (see Close), and the
// module's variable section is always fully declared before the first
// procedure body or statement that could contain a string literal, so
// g.varSize has already reached its final value here.
func (g *Gen) StringItem(s string) Item {
	off := g.InternString(s)
	globalWords := (g.varSize + 3) / 4
	return Item{Mode: ModeStringConst, Type: symtab.StringType, A: globalWords*4 + off, B: int32(len(s) + 1)}
}

// Close ends the module body with a branch through risc.RegMT (always
// zero) to address 0, which Interpret reports as "halted", then writes
// the global-variable block (zeroed, implicit in a freshly allocated Mem)
// and the string pool after that last instruction, and returns the start-of-globals word offset (sb) the
// caller records for RISC_Interpret (org.c's ORG_Close / spec.md §6's
// code image format: "byte i goes into bit position 8*(i mod 4) of word
// pc_of_pool + i/4").
func (g *Gen) Close() (sb int32) {
	g.Put3(risc.OpBr, risc.CondTrue, int32(risc.RegMT))
	sb = g.PC
	globalWords := (g.varSize + 3) / 4
	poolStart := sb + globalWords
	for i, b := range g.pool {
		word := int(poolStart) + i/4
		if word >= len(g.Mem) {
			g.mark("code image overflow writing string pool")
			break
		}
		shift := uint((i % 4) * 8)
		g.Mem[word] |= int32(uint32(b) << shift)
	}
	g.PC = poolStart + int32((len(g.pool)+3)/4)
	return sb
}
