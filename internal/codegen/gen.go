package codegen

import (
	"oberon/internal/diag"
	"oberon/internal/risc"
)

// maxRegister is the first reserved register (12..15 are
// risc.RegMT..risc.RegLNK); the operand stack stays below it.
const maxRegister = risc.RegMT

// Gen is the code generator's private module-lifetime state (org.c's
// g_pc/g_rh/g_frame/g_pool/g_strx file-scope globals), bundled into a
// struct per spec.md's Design Notes ("represent as an explicit compiler
// context structure").
type Gen struct {
	Mem []int32 // shared code/data/string-pool image
	PC  int32

	RH    int // next free register
	Frame int // bytes pushed onto the operand stack in memory (mid-call spill)

	varSize int32 // running allocator for global variable addresses
	pool    []byte
	strX    int32 // byte offset of the next free string-pool slot

	diags *diag.Sink
}

// NewGen returns a generator writing into mem, word 0 reserved.
func NewGen(mem []int32, diags *diag.Sink) *Gen {
	return &Gen{Mem: mem, PC: 1, diags: diags}
}

func (g *Gen) mark(format string, args ...interface{}) {
	if g.diags != nil {
		g.diags.Mark(diag.Location{}, "", format, args...)
	}
}

// Here returns the current instruction address (ORG_Here).
func (g *Gen) Here() int32 { return g.PC }

func (g *Gen) emit(ir uint32) {
	if int(g.PC) >= len(g.Mem) {
		g.mark("code image overflow")
		return
	}
	g.Mem[g.PC] = int32(ir)
	g.PC++
}

// Put0 emits a three-register instruction (org.c's Put0).
func (g *Gen) Put0(op, a, b, c int) { g.emit(risc.EncodeF0(op, a, b, c, false)) }

// Put1 emits a register-immediate instruction with sign extension
// (org.c's Put1).
func (g *Gen) Put1(op, a, b int, n int32) {
	g.emit(risc.EncodeF1(op, a, b, n, false, true))
}

// Put1a chooses the cheapest encoding of R.a := R.b op n: a single
// instruction when n fits in 16 signed bits, or materializing n via a
// MOV-upper-16/OR-lower-16 pair (into R.a for MOV, otherwise into the
// next free register RH) and then combining R.b with it (org.c's Put1a,
// also used directly by immediate Load).
func (g *Gen) Put1a(op, a, b int, n int32) {
	if fitsSigned16(n) {
		g.Put1(op, a, b, n)
		return
	}
	r := a
	if op != risc.OpMov {
		r = g.RH
	}
	g.emit(risc.EncodeF1(risc.OpMov, r, 0, n>>16, true, false))
	g.emit(risc.EncodeF1(risc.OpIor, r, r, n&0xFFFF, false, false))
	if op == risc.OpMov {
		return
	}
	g.Put0(op, a, b, r)
}

func fitsSigned16(n int32) bool { return n >= -32768 && n <= 32767 }

// Put2 emits a memory instruction (org.c's Put2). off is the full 20-bit
// field, resolving the Put2/decoder width inconsistency noted in
// SPEC_FULL.md in favor of the documented 20-bit field.
func (g *Gen) Put2(op, a, b int, off int32) {
	store := op == risc.OpStr || op == risc.OpStr+1
	byteMode := op == risc.OpLdr+1 || op == risc.OpStr+1
	g.emit(risc.EncodeF2(a, b, off, store, byteMode))
}

// Put3 emits a branch instruction (org.c's Put3). For register targets,
// n is a register number; for PC-relative branches, n is the offset
// relative to the instruction following this one.
func (g *Gen) Put3(op, cond int, n int32) {
	link := op == risc.OpBlr || op == risc.OpBl
	pcRelative := op == risc.OpBc || op == risc.OpBl
	if pcRelative {
		g.emit(risc.EncodeF3Off(cond, n, link))
	} else {
		g.emit(risc.EncodeF3Reg(cond, int(n), link))
	}
}

// IncR advances the register stack, reporting overflow (org.c's IncR).
func (g *Gen) IncR() {
	if g.RH >= maxRegister-1 {
		g.mark("too complex expression, out of registers")
		return
	}
	g.RH++
}

// CheckRegs enforces the statement-boundary invariant that the register
// stack is empty and the spill frame is unwound (spec.md §5's check_regs).
func (g *Gen) CheckRegs() {
	if g.RH != 0 {
		g.mark("internal error: register stack not empty at statement boundary")
		g.RH = 0
	}
	if g.Frame != 0 {
		g.mark("internal error: call frame not unwound at statement boundary")
		g.Frame = 0
	}
}

// Trap emits a conditional branch to one of the negative trap sentinels
// (org.c's Trap).
func (g *Gen) Trap(cond, trap int) {
	g.Put3(risc.OpBc, cond, int32(trap)-g.PC-1)
}

// Fix overwrites the 24-bit PC-relative offset field of the branch
// instruction at address at so it jumps to target (org.c's Fix).
func (g *Gen) Fix(at, target int32) {
	ir := uint32(g.Mem[at])
	off := uint32(target-at-1) & 0xFFFFFF
	g.Mem[at] = int32(ir&0xFF000000 | off)
}

// FixLinkWith walks the chain headed at l, rewriting every instruction's
// offset field to target (org.c's FixLinkWith). Pending links store the
// absolute address of the next chain member in their low 18 bits, the same
// convention fixOne/merge use to build the chain in the first place; Fix
// overwrites those bits with the real relative branch offset once a link
// is resolved, so the next-pointer must be read out first.
func (g *Gen) FixLinkWith(l, target int32) {
	for l != 0 {
		ir := uint32(g.Mem[l])
		next := int32(ir & chainLinkMask18)
		g.Fix(l, target)
		l = next
	}
}

// FixLink resolves chain l to the current pc (org.c's ORG_FixLink).
func (g *Gen) FixLink(l int32) {
	g.FixLinkWith(l, g.PC)
}

// chainLinkMask18 is the 18 low-order bits used to thread F-/T-chains
// through their host instructions' offset fields, distinct from the
// 24-bit field Fix/FixLinkWith use for ordinary jumps (spec.md §4.4).
const chainLinkMask18 = 0x3FFFF

// fixOne appends this instruction (at address at) onto the chain headed
// by l and returns the new chain head, threading through the 18
// low-order bits (org.c's ORG_FixOne / the and/or chain splice step).
func (g *Gen) fixOne(l, at int32) int32 {
	ir := uint32(g.Mem[at])
	link := uint32(l) & chainLinkMask18
	g.Mem[at] = int32(ir&^chainLinkMask18 | link)
	return at
}

// merge splices chain b onto the end of chain a by walking a to its
// terminator and writing b there (org.c's Merged, used when combining an
// And/Or right operand's own chains with the inherited ones).
func (g *Gen) merge(a, b int32) int32 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	p := a
	for {
		ir := uint32(g.Mem[p])
		next := int32(ir & chainLinkMask18)
		if next == 0 {
			g.Mem[p] = int32(ir&^uint32(chainLinkMask18) | uint32(b)&chainLinkMask18)
			return a
		}
		p = next
	}
}
