package codegen

import "oberon/internal/risc"

// PrepCall readies the register stack before a procedure call's actual
// parameters are evaluated (org.c's ORG_PrepCall): evaluating parameter
// expressions can itself need registers, so any already-live registers
// must be spilled first. It is a thin alias for SaveRegs, named for the
// call site in the parser where it's invoked.
func (g *Gen) PrepCall() int { return g.SaveRegs() }

// SaveRegs spills every currently live register (0..RH-1) into the "red
// zone" just below SP, bytes no other code touches, and frees the
// register stack (org.c's ORG_SaveRegs). Returns the count so
// RestoreRegs can reload them.
func (g *Gen) SaveRegs() int {
	n := g.RH
	for i := 0; i < n; i++ {
		g.Frame += 4
		g.Put2(risc.OpStr, i, risc.RegSP, -g.Frame)
	}
	g.RH = 0
	return n
}

// RestoreRegs reloads the n registers SaveRegs spilled, in reverse order,
// and restores the register stack (org.c's ORG_RestoreRegs).
func (g *Gen) RestoreRegs(n int) {
	for i := n - 1; i >= 0; i-- {
		g.Put2(risc.OpLdr, i, risc.RegSP, -g.Frame)
		g.Frame -= 4
	}
	g.RH = n
}

// AdjustSP grows (delta < 0) or shrinks (delta > 0) the stack pointer by
// |delta| bytes. Callers open a parameter block with a negative delta
// before a call and close it with the same magnitude, positive, after.
func (g *Gen) AdjustSP(delta int32) {
	switch {
	case delta < 0:
		g.Put1(risc.OpSub, risc.RegSP, risc.RegSP, -delta)
	case delta > 0:
		g.Put1(risc.OpAdd, risc.RegSP, risc.RegSP, delta)
	}
}

// PushParam stores one actual parameter at byte offset off within the
// callee's incoming parameter block, which the caller must already have
// opened via AdjustSP (org.c's ORG_Parameter). byRef parameters (VAR
// formals) store the argument's address; value parameters store its
// loaded value.
func (g *Gen) PushParam(x *Item, byRef bool, off int32) {
	if byRef {
		g.LoadAdr(x)
	} else {
		g.Load(x)
	}
	g.Put2(risc.OpStr, x.R, risc.RegSP, off)
	g.RH--
}

// PushOpenArrayParam stores an open-array actual parameter's address and
// runtime element count as an adjacent pair of words at offset off/off+4
// within the callee's incoming parameter block, the layout LEN's ModeParam
// branch expects (org.c's open-array calling convention).
func (g *Gen) PushOpenArrayParam(x *Item, off int32) {
	length := g.Len(x)
	g.Load(&length)
	g.Put2(risc.OpStr, length.R, risc.RegSP, off+4)
	g.RH--
	g.LoadAdr(x)
	g.Put2(risc.OpStr, x.R, risc.RegSP, off)
	g.RH--
}

// Call emits a procedure call: an immediate-mode item (a forward or
// already-defined procedure constant) branches PC-relative; anything
// else is loaded into a register first and branches indirectly (org.c's
// ORG_Call).
func (g *Gen) Call(proc *Item) {
	switch proc.Mode {
	case ModeImmediate:
		g.Put3(risc.OpBl, risc.CondTrue, proc.A-g.PC-1)
	default:
		g.Load(proc)
		g.Put3(risc.OpBlr, risc.CondTrue, int32(proc.R))
		g.RH--
	}
}

// Enter emits a procedure prologue: save the return address below the
// new frame and reserve localSize bytes of local-variable storage
// (org.c's ORG_Enter).
func (g *Gen) Enter(localSize int32) {
	g.Put2(risc.OpStr, risc.RegLNK, risc.RegSP, -4)
	g.Put1(risc.OpSub, risc.RegSP, risc.RegSP, localSize+4)
}

// Return emits a procedure epilogue: unwind the frame, restore the
// return address, and branch back to the caller (org.c's ORG_Return).
func (g *Gen) Return(localSize int32) {
	g.Put1(risc.OpAdd, risc.RegSP, risc.RegSP, localSize+4)
	g.Put2(risc.OpLdr, risc.RegLNK, risc.RegSP, -4)
	g.Put3(risc.OpBr, risc.CondTrue, int32(risc.RegLNK))
}

// FJump emits an unconditional forward branch, returning its address for
// a later Fixup (org.c's ORG_FJump, used by IF's trailing ELSE skip).
func (g *Gen) FJump() int32 {
	at := g.Here()
	g.Put3(risc.OpBc, risc.CondTrue, 0)
	return at
}

// CFJump emits a conditional forward branch taken when x is false,
// consuming x and returning the combined forward-chain address for a
// later Fixup; any already-pending F-chain on x is merged in, and x's
// T-chain is resolved to fall straight into the following code (org.c's
// ORG_CFJump, used by IF/WHILE conditions).
func (g *Gen) CFJump(x *Item) int32 {
	g.LoadCond(x)
	at := g.Here()
	g.Put3(risc.OpBc, risc.Negate(x.R), 0)
	chain := g.fixOne(x.A, at)
	g.FixLink(x.B)
	return chain
}

// BJump emits an unconditional backward branch to target (org.c's
// ORG_BJump, used by WHILE/LOOP to return to the loop head).
func (g *Gen) BJump(target int32) {
	at := g.Here()
	g.Put3(risc.OpBc, risc.CondTrue, target-at-1)
}

// CBJump emits a conditional backward branch to target taken when x is
// false (org.c's ORG_CBJump, used by REPEAT..UNTIL: loop back while the
// condition is false). x's own F-chain is redirected to target too; its
// T-chain falls through to exit the loop.
func (g *Gen) CBJump(x *Item, target int32) {
	g.LoadCond(x)
	at := g.Here()
	g.Put3(risc.OpBc, risc.Negate(x.R), target-at-1)
	g.FixLinkWith(x.A, target)
	g.FixLink(x.B)
}

// Fixup resolves a forward branch chain, as returned by FJump/CFJump, to
// the current instruction address.
func (g *Gen) Fixup(chain int32) { g.FixLink(chain) }

// For0 stores the loop variable's initial value and marks the loop head
// the backward branch will return to (org.c's ORG_For0).
func (g *Gen) For0(v, lower *Item) int32 {
	g.Load(lower)
	g.Store(v, lower)
	return g.Here()
}

// For1 compares the loop variable against the upper bound and emits a
// placeholder forward exit branch, returning its address for For2
// (org.c's ORG_For1). descending selects TO vs DOWNTO.
func (g *Gen) For1(v, upper *Item, descending bool) int32 {
	lv := *v
	g.Load(&lv)
	g.Load(upper)
	g.Put0(risc.OpSub, lv.R, lv.R, upper.R)
	g.RH -= 2
	cond := risc.CondGT
	if descending {
		cond = risc.CondLT
	}
	at := g.Here()
	g.Put3(risc.OpBc, cond, 0)
	return at
}

// For2 emits the loop variable's step and the backward branch to
// loopTop, then patches the forward exit branch For1 returned to land
// just past it (org.c's ORG_For2).
func (g *Gen) For2(v *Item, step int32, loopTop, exitBranch int32) {
	lv := *v
	g.Load(&lv)
	g.Put1(risc.OpAdd, lv.R, lv.R, step)
	g.Store(v, &lv)
	back := g.Here()
	g.Put3(risc.OpBc, risc.CondTrue, loopTop-back-1)
	g.Fix(exitBranch, g.Here())
}
