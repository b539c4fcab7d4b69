package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Neg implements unary minus (org.c's Op1(OpMIN, x)): constant-folds
// immediates, otherwise negates a loaded register via a zero-scratch
// subtraction since the instruction set has no dedicated RSB.
func (g *Gen) Neg(x *Item) {
	if x.Mode == ModeImmediate {
		x.A = -x.A
		return
	}
	g.Load(x)
	scratch := g.RH
	g.Put1(risc.OpMov, scratch, 0, 0)
	g.Put0(risc.OpSub, x.R, scratch, x.R)
}

// AddOp implements "+" and "-" (org.c's Op2 for kPlus/kMinus), folding
// constants and using the immediate-operand encoding when only the right
// side is constant.
func (g *Gen) AddOp(add bool, x, y *Item) {
	op := risc.OpAdd
	if !add {
		op = risc.OpSub
	}
	switch {
	case x.Mode == ModeImmediate && y.Mode == ModeImmediate:
		if add {
			x.A += y.A
		} else {
			x.A -= y.A
		}
	case y.Mode == ModeImmediate:
		g.Load(x)
		g.Put1a(op, x.R, x.R, y.A)
	default:
		g.Load(x)
		g.Load(y)
		g.Put0(op, x.R, x.R, y.R)
		g.RH--
	}
}

// MulOp implements "*" (org.c's Op2 for kTimes), strength-reducing
// multiplication by a power-of-two constant to a shift.
func (g *Gen) MulOp(x, y *Item) {
	switch {
	case x.Mode == ModeImmediate && y.Mode == ModeImmediate:
		x.A *= y.A
	case y.Mode == ModeImmediate:
		if n := Log2(y.A); n >= 0 {
			g.Load(x)
			g.Put1(risc.OpLsl, x.R, x.R, int32(n))
			return
		}
		g.Load(x)
		g.Put1a(risc.OpMul, x.R, x.R, y.A)
	default:
		g.Load(x)
		g.Load(y)
		g.Put0(risc.OpMul, x.R, x.R, y.R)
		g.RH--
	}
}

// DivOp implements "DIV" and "MOD" (org.c's Op2 for kDiv/kMod),
// strength-reducing division/remainder by a positive power-of-two constant
// to a shift/mask. Division by zero against a non-constant divisor is left
// to the interpreter's runtime trap (risc.Machine's alu already branches to
// TrapDivByZero); a constant divisor or modulus that is zero or negative is
// instead reported statically, matching ORG_DivOp.
func (g *Gen) DivOp(mod bool, x, y *Item) {
	if y.Mode == ModeImmediate {
		if y.A <= 0 {
			if mod {
				g.mark("bad modulus")
			} else {
				g.mark("bad divisor")
			}
			return
		}
		if n := Log2(y.A); n >= 0 {
			g.Load(x)
			if mod {
				if n > 16 {
					// y.A-1 no longer fits the 16-bit immediate field, so
					// clear the top 32-n bits with a logical shift pair
					// instead of an AND mask (org.c:681-688).
					g.Put1(risc.OpLsl, x.R, x.R, int32(32-n))
					g.Put1(risc.OpRor, x.R, x.R, int32(32-n))
				} else {
					g.emit(risc.EncodeF1(risc.OpAnd, x.R, x.R, y.A-1, false, false))
				}
			} else {
				g.Put1(risc.OpAsr, x.R, x.R, int32(n))
			}
			return
		}
	}
	g.Load(x)
	g.Load(y)
	g.Put0(risc.OpDiv, x.R, x.R, y.R)
	if mod {
		g.Put1(risc.OpMovH, x.R, 0, 0)
	}
	g.RH--
}

// IntRel implements the six relational operators over INTEGER/BYTE/CHAR
// operands (org.c's Op2 for relational operators). cond is the condition
// code the caller has already mapped the operator token to: Eql->EQ,
// Neq->NE, Lss->LT, Leq->LE, Gtr->GT, Geq->GE.
func (g *Gen) IntRel(cond int, x, y *Item) {
	switch {
	case x.Mode == ModeImmediate && y.Mode == ModeImmediate:
		*x = foldRel(cond, x.A, y.A)
	case y.Mode == ModeImmediate:
		g.Load(x)
		g.Put1(risc.OpSub, x.R, x.R, y.A)
		g.RH--
		x.Mode = ModeCond
		x.R = cond
		x.A, x.B = 0, 0
	default:
		g.Load(x)
		g.Load(y)
		g.Put0(risc.OpSub, x.R, x.R, y.R)
		g.RH -= 2
		x.Mode = ModeCond
		x.R = cond
		x.A, x.B = 0, 0
	}
}

func foldRel(cond int, a, b int32) Item {
	var v bool
	switch cond {
	case risc.CondEQ:
		v = a == b
	case risc.CondNE:
		v = a != b
	case risc.CondLT:
		v = a < b
	case risc.CondLE:
		v = a <= b
	case risc.CondGT:
		v = a > b
	case risc.CondGE:
		v = a >= b
	}
	return ConstBool(v)
}

// Not implements unary "~" (org.c's Op1 for kNot): negates the condition
// and swaps the F/T chains rather than emitting any code.
func (g *Gen) Not(x *Item) {
	g.LoadCond(x)
	x.R = risc.Negate(x.R)
	x.A, x.B = x.B, x.A
}

// And1 is called with the left operand of "&" already parsed, right
// before the right operand is parsed (org.c's Op1 for kAnd): it appends a
// branch-if-false to x's F-chain (short-circuiting past the right operand
// when x is already false) and resolves x's T-chain to fall into the
// right operand's code.
func (g *Gen) And1(x *Item) {
	g.LoadCond(x)
	at := g.Here()
	g.Put3(risc.OpBc, risc.Negate(x.R), 0)
	x.A = g.fixOne(x.A, at)
	g.FixLink(x.B)
	x.B = 0
}

// And2 is called once the right operand y has been parsed: it brings y
// into Cond mode, then combines x's inherited F-chain into y's (org.c's
// Op2 for kAnd). y's own condition and T-chain carry through unchanged.
func (g *Gen) And2(x, y *Item) {
	g.LoadCond(y)
	y.A = g.merge(x.A, y.A)
}

// Or1 is the De Morgan dual of And1, for "OR" (org.c's Op1 for kOr).
func (g *Gen) Or1(x *Item) {
	g.LoadCond(x)
	at := g.Here()
	g.Put3(risc.OpBc, x.R, 0)
	x.B = g.fixOne(x.B, at)
	g.FixLink(x.A)
	x.A = 0
}

// Or2 is the dual of And2, for "OR" (org.c's Op2 for kOr).
func (g *Gen) Or2(x, y *Item) {
	g.LoadCond(y)
	y.B = g.merge(x.B, y.B)
}

// SetIn implements set membership "x IN s" (org.c's Op2 for kIn): tests
// bit x of set value s, the same test Bit performs against a word in
// memory but over an already-loaded SET value instead.
func (g *Gen) SetIn(elem, set *Item) Item {
	g.Load(set)
	g.Load(elem)
	g.Put0(risc.OpAsr, set.R, set.R, elem.R)
	g.Put1(risc.OpAnd, set.R, set.R, 1)
	g.RH -= 2
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: risc.CondNE}
}

// StringRel compares two NUL-terminated byte buffers for equality or
// ordering (spec.md's string-compare addressing note in §4.4), used
// whenever at least one operand is a multi-character string rather than a
// bare CHAR. aAddr/bAddr are items yielding the two buffers' addresses;
// the result is a Cond item testing cond against the outcome of the final
// byte subtraction: zero while scanning matching non-NUL bytes, nonzero
// (with the mismatching bytes' sign) at the first difference or when one
// buffer ends before the other.
func (g *Gen) StringRel(cond int, aAddr, bAddr *Item) Item {
	g.Load(aAddr)
	g.Load(bAddr)
	ca, cb := g.RH, g.RH+1
	g.IncR()
	g.IncR()

	loop := g.Here()
	g.Put2(risc.OpLdr+1, ca, aAddr.R, 0)
	g.Put2(risc.OpLdr+1, cb, bAddr.R, 0)
	g.Put0(risc.OpSub, ca, ca, cb)
	mismatch := g.Here()
	g.Put3(risc.OpBc, risc.CondNE, 0)
	g.Put1(risc.OpAdd, aAddr.R, aAddr.R, 1)
	g.Put1(risc.OpAdd, bAddr.R, bAddr.R, 1)
	g.Put1(risc.OpSub, cb, cb, 0) // re-test: was the just-matched byte the NUL terminator?
	atEnd := g.Here()
	g.Put3(risc.OpBc, risc.CondEQ, 0)
	g.Put3(risc.OpBc, risc.CondTrue, loop-g.Here()-1)

	g.Fix(atEnd, g.Here())
	g.Fix(mismatch, g.Here())
	g.RH -= 4
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: cond}
}
