package codegen

import "oberon/internal/risc"

// Store writes src into the location dst denotes (org.c's Store), loading
// src into a register first and freeing every register it consumed.
func (g *Gen) Store(dst, src *Item) {
	g.Load(src)
	switch dst.Mode {
	case ModeDirect:
		base := risc.RegSB
		if dst.R > 0 {
			base = risc.RegSP
		}
		g.Put2(memOp(risc.OpStr, dst.Type), src.R, base, dst.A)
		g.RH--
	case ModeParam:
		addr := g.RH
		g.Put2(risc.OpLdr, addr, risc.RegSP, dst.A)
		g.Put2(memOp(risc.OpStr, dst.Type), src.R, addr, dst.B)
		g.RH--
	case ModeRegI:
		g.Put2(memOp(risc.OpStr, dst.Type), src.R, dst.R, dst.A)
		g.RH -= 2
	default:
		g.mark("internal error: store to non-lvalue item")
		g.RH--
	}
}

// StoreStruct copies size bytes from the address src denotes to the
// address dst denotes, one word at a time (org.c's structured-assignment
// store, used for record- and array-valued assignment whose static size
// exceeds one word). size must be a multiple of 4.
func (g *Gen) StoreStruct(dst, src *Item, size int32) {
	g.LoadAdr(src)
	g.LoadAdr(dst)
	words := size / 4
	tmp := g.RH
	for i := int32(0); i < words; i++ {
		g.Put2(risc.OpLdr, tmp, src.R, i*4)
		g.Put2(risc.OpStr, tmp, dst.R, i*4)
	}
	g.RH -= 2
}

// CopyString copies a NUL-terminated source string into a fixed-capacity
// destination array of dstLen bytes, trapping if the source doesn't fit
// including its terminator (spec.md's COPY/string-assignment semantics).
func (g *Gen) CopyString(dst, src *Item, dstLen int32) {
	g.LoadAdr(src)
	g.LoadAdr(dst)
	i := g.RH
	g.Put1(risc.OpMov, i, 0, 0)
	g.IncR()
	c := g.RH
	g.IncR()

	loop := g.Here()
	g.Put2(risc.OpLdr+1, c, src.R, 0)
	g.Put2(risc.OpStr+1, c, dst.R, 0)
	g.Put1(risc.OpAdd, src.R, src.R, 1)
	g.Put1(risc.OpAdd, dst.R, dst.R, 1)
	g.Put1(risc.OpAdd, i, i, 1)
	g.Put1(risc.OpSub, c, c, 0) // re-test c: was the just-copied byte the NUL terminator?
	atEnd := g.Here()
	g.Put3(risc.OpBc, risc.CondEQ, 0)
	g.Put1(risc.OpSub, c, i, dstLen)
	g.Trap(risc.CondGE, risc.TrapBounds)
	g.Put3(risc.OpBc, risc.CondTrue, loop-g.Here()-1)

	g.Fix(atEnd, g.Here())
	g.RH -= 4
}
