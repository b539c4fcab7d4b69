package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Load brings x into a register, in place (org.c's Load — the single
// most involved function in the generator, covering every item mode except ModeType).
func (g *Gen) Load(x *Item) {
	switch x.Mode {
	case ModeReg:
		// Already resident.
	case ModeRegI:
		r := x.R
		g.Put2(memOp(risc.OpLdr, x.Type), r, r, x.A)
		x.Mode = ModeReg
	case ModeImmediate:
		if x.Type != nil && x.Type.Form == symtab.FormProc {
			// Procedure-constant item: materialize its address via a
			// branch-and-link-plus-subtract trick, so the constant's
			// value ends up PC-independent in the register.
			g.Put3(risc.OpBl, risc.CondTrue, 0)
			g.Put1(risc.OpSub, g.RH, risc.RegLNK, g.PC-x.A)
		} else {
			g.Put1a(risc.OpMov, g.RH, 0, x.A)
		}
		x.Mode = ModeReg
		x.R = g.RH
		g.IncR()
	case ModeDirect:
		base := risc.RegSB
		if x.R > 0 {
			base = risc.RegSP
		}
		g.Put2(memOp(risc.OpLdr, x.Type), g.RH, base, x.A)
		x.Mode = ModeReg
		x.R = g.RH
		g.IncR()
	case ModeParam:
		g.Put2(risc.OpLdr, g.RH, risc.RegSP, x.A)
		g.Put2(memOp(risc.OpLdr, x.Type), g.RH, g.RH, x.B)
		x.Mode = ModeReg
		x.R = g.RH
		g.IncR()
	case ModeCond:
		g.materializeCond(x)
		x.Mode = ModeReg
	case ModeStringConst:
		g.LoadStringAdr(x)
	}
}

// materializeCond writes 0 or 1 into a fresh register depending on
// whether x's condition holds, splicing both chains so every pending
// branch lands on the correct one-instruction group: the F-chain (x.A)
// and a fallthrough test of x.R both land on the "write 0" code, the
// T-chain (x.B) and the other fallthrough land on the "write 1" code.
func (g *Gen) materializeCond(x *Item) {
	testBranch := g.Here()
	g.Put3(risc.OpBc, risc.Negate(x.R), 0) // patched below to the false code

	g.FixLink(x.B)
	g.Put1(risc.OpMov, g.RH, 0, 1)
	skip := g.Here()
	g.Put3(risc.OpBc, risc.CondTrue, 0) // patched below to the end

	g.Fix(testBranch, g.Here())
	g.FixLink(x.A)
	g.Put1(risc.OpMov, g.RH, 0, 0)

	g.Fix(skip, g.Here())
	x.R = g.RH
	g.IncR()
}

// LoadAdr parallels Load but yields an effective address rather than a
// value (org.c's LoadAdr).
func (g *Gen) LoadAdr(x *Item) {
	switch x.Mode {
	case ModeDirect:
		base := risc.RegSB
		if x.R > 0 {
			base = risc.RegSP
		}
		g.Put1(risc.OpAdd, g.RH, base, x.A)
		x.Mode = ModeReg
		x.R = g.RH
		g.IncR()
	case ModeParam:
		g.Put2(risc.OpLdr, g.RH, risc.RegSP, x.A)
		if x.B != 0 {
			g.Put1(risc.OpAdd, g.RH, g.RH, x.B)
		}
		x.Mode = ModeReg
		x.R = g.RH
		g.IncR()
	case ModeRegI:
		if x.A != 0 {
			g.Put1(risc.OpAdd, x.R, x.R, x.A)
		}
		x.Mode = ModeReg
	case ModeStringConst:
		g.LoadStringAdr(x)
	default:
		g.Load(x)
	}
}

// LoadStringAdr loads the address of a string-pool constant (org.c's
// LoadStringAdr): the pool lives at the tail of the code image, past the
// global-variable block, so its address is SB-relative.
func (g *Gen) LoadStringAdr(x *Item) {
	g.Put1(risc.OpAdd, g.RH, risc.RegSB, x.A)
	x.Mode = ModeReg
	x.R = g.RH
	g.IncR()
}

// LoadCond forces x into Cond mode, comparing a register value against
// zero when necessary (org.c's LoadCond), with the constant-boolean
// shortcut x.r = 15 - x.a*8 preserved for folded boolean items.
func (g *Gen) LoadCond(x *Item) {
	switch x.Mode {
	case ModeCond:
		return
	case ModeImmediate:
		if x.Type != nil && x.Type.Form == symtab.FormBool {
			x.Mode = ModeCond
			x.R = risc.CondFalse - int(x.A)*8
			x.A, x.B = 0, 0
			return
		}
	}
	g.Load(x)
	g.Put1(risc.OpSub, g.RH, x.R, 0)
	g.RH--
	x.Mode = ModeCond
	x.R = risc.CondNE
	x.A, x.B = 0, 0
}

// Log2 returns log2(n) for n a positive power of two, or -1 otherwise
// (org.c's Log2, used by division/modulo strength reduction).
func Log2(n int32) int {
	if n <= 0 || n&(n-1) != 0 {
		return -1
	}
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}
