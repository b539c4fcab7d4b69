package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Field advances x to address field's storage within the record it
// denotes (org.c's Field): for direct, indexed and parameter items a
// compile-time offset adjustment with no code emitted, since records are
// addressed structurally like arrays; any other item has its address
// loaded into a register first.
func (g *Gen) Field(x *Item, field *symtab.Object) {
	switch x.Mode {
	case ModeDirect, ModeRegI:
		x.A += int32(field.Val)
	case ModeParam:
		x.B += int32(field.Val)
	default:
		g.LoadAdr(x)
		x.Mode = ModeRegI
		x.A = int32(field.Val)
	}
	x.Type = field.Type
}

// Index advances x to address element y of the array it denotes (org.c's
// Index), emitting a bounds-check trap against the array's static length
// (or, for an open array parameter, its length word, per spec.md §4.4's
// addressing note for record/array selectors).
func (g *Gen) Index(x *Item, y *Item, openLen *Item) {
	elemSize := int32(1)
	if x.Type != nil && x.Type.Base != nil {
		elemSize = int32(x.Type.Base.Size)
	}

	if y.Mode == ModeImmediate {
		if openLen == nil && x.Type != nil && (y.A < 0 || int(y.A) >= x.Type.Len) {
			g.mark("index out of static bounds")
		} else if openLen != nil {
			g.boundsCheckImmediate(y.A, openLen)
		}
		switch x.Mode {
		case ModeDirect, ModeRegI:
			x.A += y.A * elemSize
		case ModeParam:
			x.B += y.A * elemSize
		default:
			g.LoadAdr(x)
			x.Mode = ModeRegI
			x.A = y.A * elemSize
		}
		if x.Type != nil {
			x.Type = x.Type.Base
		}
		return
	}

	g.Load(y)
	if openLen != nil {
		g.boundsCheck(y, openLen)
	} else if x.Type != nil {
		g.boundsCheckConst(y, int32(x.Type.Len))
	}
	if elemSize != 1 {
		if n := Log2(elemSize); n >= 0 {
			g.Put1(risc.OpLsl, y.R, y.R, int32(n))
		} else {
			g.Put1a(risc.OpMul, y.R, y.R, elemSize)
		}
	}

	g.LoadAdr(x)
	g.Put0(risc.OpAdd, x.R, x.R, y.R)
	g.RH--
	x.Mode = ModeRegI
	x.A = 0
	x.Type = x.Type.Base
}

// boundsCheck traps when register item y's value is outside [0, len) for
// a runtime-determined len (an open array's length word), both already
// loaded into registers (org.c's bounds-check sequence inside Index).
// Two signed comparisons are used, rather than a single unsigned one,
// since both only need the N flag's plain "result < 0" meaning.
func (g *Gen) boundsCheck(y, length *Item) {
	g.Load(length)
	scratch := g.RH
	g.Put0(risc.OpSub, scratch, y.R, length.R)
	g.Trap(risc.CondGE, risc.TrapBounds) // y - length >= 0  =>  y >= length
	g.Put1(risc.OpSub, scratch, y.R, 0)
	g.Trap(risc.CondMI, risc.TrapBounds) // y < 0
	g.RH--
}

// boundsCheckConst traps when register item y's value is outside
// [0, n) for a compile-time-known n.
func (g *Gen) boundsCheckConst(y *Item, n int32) {
	g.Put1(risc.OpSub, g.RH, y.R, n)
	g.Trap(risc.CondGE, risc.TrapBounds)
	g.Put1(risc.OpSub, g.RH, y.R, 0)
	g.Trap(risc.CondMI, risc.TrapBounds)
}

// boundsCheckImmediate traps at run time when a statically non-negative
// constant index turns out to be outside a runtime-determined length;
// since the length isn't known until run time, the check still has to be
// emitted, but only one comparison is needed (the index's own sign is
// already known at compile time).
func (g *Gen) boundsCheckImmediate(idx int32, length *Item) {
	g.Load(length)
	g.Put1(risc.OpSub, length.R, length.R, idx)
	g.Trap(risc.CondLE, risc.TrapBounds)
	g.RH--
}

// Deref advances x to the pointee of the pointer it denotes, emitting a
// nil-check trap (org.c's Field handling of dereference, spec.md §4.2's
// NIL-safety note).
func (g *Gen) Deref(x *Item) {
	g.Load(x)
	g.Put1(risc.OpSub, g.RH, x.R, 0)
	g.Trap(risc.CondEQ, risc.TrapNilPtr)
	x.Mode = ModeRegI
	x.A = 0
	if x.Type != nil {
		x.Type = x.Type.Base
	}
}
