package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Increment implements INC/DEC (symtab.DispatchINC/DispatchDEC): x := x +
// n, n defaulting to 1 when the call had only one actual parameter.
func (g *Gen) Increment(dec bool, x *Item, n *Item) {
	delta := Item{Mode: ModeImmediate, Type: symtab.IntType, A: 1}
	if n != nil {
		delta = *n
	}
	if dec {
		g.Neg(&delta)
	}
	lv := *x
	g.Load(&lv)
	if delta.Mode == ModeImmediate {
		g.Put1a(risc.OpAdd, lv.R, lv.R, delta.A)
	} else {
		g.Load(&delta)
		g.Put0(risc.OpAdd, lv.R, lv.R, delta.R)
		g.RH--
	}
	g.Store(x, &lv)
}

// Include implements INCL/EXCL (symtab.DispatchINCL/DispatchEXCL): x := x
// with bit y added or removed, for a SET-typed variable x.
func (g *Gen) Include(exclude bool, x *Item, y *Item) {
	lv := *x
	g.Load(&lv)
	if y.Mode == ModeImmediate {
		mask := int32(1) << uint32(y.A)
		op := risc.OpIor
		if exclude {
			op = risc.OpAnn
		}
		g.Put1a(op, lv.R, lv.R, mask)
	} else {
		g.Load(y)
		mask := g.RH
		g.Put1(risc.OpMov, mask, 0, 1)
		g.Put0(risc.OpLsl, mask, mask, y.R)
		op := risc.OpIor
		if exclude {
			op = risc.OpAnn
		}
		g.Put0(op, lv.R, lv.R, mask)
		g.RH--
	}
	g.Store(x, &lv)
}

// SetElem ORs bit into set, folding the common case where both are
// already compile-time constants (a SET constructor literal's element);
// mirrors Include's register-combining path but returns a plain value
// item instead of storing into an addressable variable.
func (g *Gen) SetElem(set *Item, bit *Item) Item {
	if set.Mode == ModeImmediate && bit.Mode == ModeImmediate {
		return Const(symtab.SetType, set.A|int32(1)<<uint32(bit.A))
	}
	g.Load(set)
	if bit.Mode == ModeImmediate {
		g.Put1a(risc.OpIor, set.R, set.R, int32(1)<<uint32(bit.A))
		return *set
	}
	b := *bit
	g.Load(&b)
	mask := g.RH
	g.Put1(risc.OpMov, mask, 0, 1)
	g.Put0(risc.OpLsl, mask, mask, b.R)
	g.Put0(risc.OpIor, set.R, set.R, mask)
	g.RH--
	return *set
}

// Assert implements ASSERT (symtab.DispatchASSERT): traps when cond does
// not hold. Any short-circuit chains already pending on cond (from a
// compound boolean expression) are routed to the same trap.
func (g *Gen) Assert(cond *Item) {
	g.LoadCond(cond)
	if cond.A == 0 {
		g.Trap(risc.Negate(cond.R), risc.TrapAssert)
	} else {
		at := g.Here()
		g.Put3(risc.OpBc, cond.R, 0)
		cond.B = g.fixOne(cond.B, at)
		g.FixLink(cond.A)
		g.Trap(risc.CondTrue, risc.TrapAssert)
	}
	g.FixLink(cond.B)
}

// ioAddress picks the I/O sentinel address for x's static type.
func ioAddress(x *Item) int32 {
	switch {
	case x.Type != nil && x.Type.Form == symtab.FormChar:
		return risc.IOChar
	case x.Type != nil && x.Type.Form == symtab.FormString:
		return risc.IOString
	default:
		return risc.IOInt
	}
}

// Read implements READ (standard Oberon-07 procedure, not a SYSTEM one):
// load one value from the appropriate I/O address and store it into x.
// risc.RegMT (reserved, never written by generated code) doubles as the
// permanent zero base register the I/O addresses are offset from.
func (g *Gen) Read(x *Item) {
	reg := g.RH
	g.Put2(risc.OpLdr, reg, risc.RegMT, ioAddress(x))
	g.IncR()
	val := Item{Mode: ModeReg, Type: x.Type, R: reg}
	g.Store(x, &val)
}

// Write implements WRITE: string-typed arguments write their address (the
// I/O trap walks the bytes itself), everything else writes its value.
func (g *Gen) Write(x *Item) {
	if x.Type != nil && x.Type.Form == symtab.FormString {
		g.LoadAdr(x)
	} else {
		g.Load(x)
	}
	g.Put2(risc.OpStr, x.R, risc.RegMT, ioAddress(x))
	g.RH--
}

// WriteLn implements WRITELN: writes the newline sentinel address.
func (g *Gen) WriteLn() {
	scratch := g.RH
	g.Put1(risc.OpMov, scratch, 0, 0)
	g.Put2(risc.OpStr, scratch, risc.RegMT, risc.IONewline)
}

// Get implements SYSTEM.GET(adr, x): x := Mem[adr] (symtab.DispatchGET).
func (g *Gen) Get(adr, x *Item) {
	g.Load(adr)
	reg := g.RH
	g.Put2(risc.OpLdr, reg, adr.R, 0)
	g.IncR()
	val := Item{Mode: ModeReg, Type: x.Type, R: reg}
	g.Store(x, &val)
	g.RH--
}

// Put implements SYSTEM.PUT(adr, x): Mem[adr] := x (symtab.DispatchPUT).
func (g *Gen) Put(adr, x *Item) {
	g.Load(adr)
	g.Load(x)
	g.Put2(risc.OpStr, x.R, adr.R, 0)
	g.RH -= 2
}

// SystemCopy implements SYSTEM.COPY(src, dst, n): copies n words
// (symtab.DispatchCOPY).
func (g *Gen) SystemCopy(src, dst, n *Item) {
	g.Load(src)
	g.Load(dst)
	g.Load(n)
	top := g.Here()
	g.Put1(risc.OpSub, n.R, n.R, 0)
	exit := g.Here()
	g.Put3(risc.OpBc, risc.CondLE, 0)
	tmp := g.RH
	g.Put2(risc.OpLdr, tmp, src.R, 0)
	g.Put2(risc.OpStr, tmp, dst.R, 0)
	g.Put1(risc.OpAdd, src.R, src.R, 4)
	g.Put1(risc.OpAdd, dst.R, dst.R, 4)
	g.Put1(risc.OpSub, n.R, n.R, 1)
	g.Put3(risc.OpBc, risc.CondTrue, top-g.Here()-1)
	g.Fix(exit, g.Here())
	g.RH -= 3
}

// Abs implements ABS (symtab.DispatchABS), folding immediates and
// otherwise branching around a register negation.
func (g *Gen) Abs(x *Item) {
	if x.Mode == ModeImmediate {
		if x.A < 0 {
			x.A = -x.A
		}
		return
	}
	g.Load(x)
	g.Put1(risc.OpSub, g.RH, x.R, 0)
	skip := g.Here()
	g.Put3(risc.OpBc, risc.CondGE, 0)
	scratch := g.RH
	g.Put1(risc.OpMov, scratch, 0, 0)
	g.Put0(risc.OpSub, x.R, scratch, x.R)
	g.Fix(skip, g.Here())
}

// Odd implements ODD (symtab.DispatchODD): tests the operand's low bit.
func (g *Gen) Odd(x *Item) Item {
	if x.Mode == ModeImmediate {
		return ConstBool(x.A&1 != 0)
	}
	g.Load(x)
	g.Put1(risc.OpAnd, x.R, x.R, 1)
	g.RH--
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: risc.CondNE}
}

// Ord implements ORD (symtab.DispatchORD): CHR/BOOL/SET share INTEGER's
// representation in this implementation, so converting to ORD is purely
// a static retype, no code emitted.
func (g *Gen) Ord(x *Item) { x.Type = symtab.IntType }

// Chr implements CHR (symtab.DispatchCHR), the converse retype.
func (g *Gen) Chr(x *Item) { x.Type = symtab.CharType }

// Len implements LEN (symtab.DispatchLEN): a compile-time constant for a
// fixed-size array, or a runtime load of the length word carried
// alongside an open array parameter's address.
func (g *Gen) Len(x *Item) Item {
	if x.Type != nil && x.Type.Len >= 0 {
		return Const(symtab.IntType, int32(x.Type.Len))
	}
	if x.Mode == ModeParam {
		reg := g.RH
		g.Put2(risc.OpLdr, reg, risc.RegSP, x.A+4)
		g.IncR()
		return Item{Mode: ModeReg, Type: symtab.IntType, R: reg}
	}
	g.LoadAdr(x)
	g.Put2(risc.OpLdr, x.R, x.R, 4)
	return Item{Mode: ModeReg, Type: symtab.IntType, R: x.R}
}

// Shift implements the predeclared LSL/ASR/ROR (symtab.DispatchLSL/ASR/ROR). op is
// one of risc.OpLsl/OpAsr/OpRor.
func (g *Gen) Shift(op int, x, n *Item) {
	g.Load(x)
	if n.Mode == ModeImmediate {
		g.Put1(op, x.R, x.R, n.A)
		return
	}
	g.Load(n)
	g.Put0(op, x.R, x.R, n.R)
	g.RH--
}

// Bit implements SYSTEM.BIT(adr, n) (symtab.DispatchBIT): tests bit n of
// the word stored at adr.
func (g *Gen) Bit(adr, n *Item) Item {
	g.Load(adr)
	g.Load(n)
	g.Put2(risc.OpLdr, adr.R, adr.R, 0)
	g.Put0(risc.OpAsr, adr.R, adr.R, n.R)
	g.Put1(risc.OpAnd, adr.R, adr.R, 1)
	g.RH -= 2
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: risc.CondNE}
}

// Register implements SYSTEM.REG(n) (symtab.DispatchREG): a raw reference
// to machine register n, for low-level code that addresses registers
// directly rather than through the compiler's operand stack.
func (g *Gen) Register(n *Item) Item {
	return Item{Mode: ModeReg, Type: symtab.IntType, R: int(n.A)}
}

// Val implements SYSTEM.VAL(T, x) (symtab.DispatchVAL): reinterprets x's
// bits as type t without converting, a static retype only.
func (g *Gen) Val(t *symtab.Type, x *Item) { x.Type = t }

// Adr implements SYSTEM.ADR(x) (symtab.DispatchADR).
func (g *Gen) Adr(x *Item) Item {
	g.LoadAdr(x)
	return Item{Mode: ModeReg, Type: symtab.IntType, R: x.R}
}

// SizeOf implements SYSTEM.SIZE(T) (symtab.DispatchSIZE).
func (g *Gen) SizeOf(t *symtab.Type) Item {
	return Const(symtab.IntType, int32(t.Size))
}

// Condition implements SYSTEM.COND(n) (symtab.DispatchCOND): materializes
// hardware condition code n directly as a Cond item, per spec.md's Design
// Notes on the reference disassembler's COND/MOV rendering.
func (g *Gen) Condition(n int32) Item {
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: int(n)}
}
