package parser

import (
	"oberon/internal/codegen"
	"oberon/internal/risc"
	"oberon/internal/scanner"
	"oberon/internal/symtab"
)

// qualIdent parses QualIdent = ident ["." ident], the second ident only
// ever resolving through SYSTEM, the sole importable module in this subset
// (orp.c's qualident).
func (p *Parser) qualIdent() *symtab.Object {
	name := p.id
	p.expect(scanner.KindIdent, "identifier")
	obj := p.tab.This(name)
	if obj == nil {
		p.mark("undefined identifier %q", name)
		return nil
	}
	if obj.Class == symtab.ClassModule && p.sym == scanner.KindPeriod {
		p.next()
		sub := p.id
		p.expect(scanner.KindIdent, "identifier")
		imported := p.tab.ThisImport(obj, sub)
		if imported == nil {
			p.mark("undefined identifier %s.%s", name, sub)
		}
		return imported
	}
	return obj
}

// selectorChain consumes a Designator's trailing {"." ident | "[" ExprList
// "]" | "^"} part, mutating x in place (orp.c's selector). A record
// pointer is dereferenced automatically before a field selector, matching
// Oberon-07's "p.f" shorthand for "p^.f".
func (p *Parser) selectorChain(x *codegen.Item) {
	for {
		switch p.sym {
		case scanner.KindPeriod:
			p.next()
			name := p.id
			p.expect(scanner.KindIdent, "field name")
			if x.Type != nil && x.Type.Form == symtab.FormPointer {
				p.gen.Deref(x)
			}
			if x.Type == nil || x.Type.Form != symtab.FormRecord {
				p.mark("%q is not a record", name)
				continue
			}
			field := p.tab.ThisField(x.Type, name)
			if field == nil {
				p.mark("undefined field %q", name)
				continue
			}
			p.gen.Field(x, field)
		case scanner.KindLBrak:
			p.next()
			for {
				if x.Type != nil && x.Type.Form == symtab.FormPointer {
					p.gen.Deref(x)
				}
				idx := p.expression()
				var openLen *codegen.Item
				if x.Type != nil && x.Type.Form == symtab.FormArray && x.Type.Len < 0 {
					probe := *x
					l := p.gen.Len(&probe)
					openLen = &l
				}
				p.gen.Index(x, &idx, openLen)
				if p.sym != scanner.KindComma {
					break
				}
				p.next()
			}
			p.expect(scanner.KindRBrak, "]")
		case scanner.KindCaret:
			p.next()
			p.gen.Deref(x)
		default:
			return
		}
	}
}

// designator parses Designator = QualIdent {Selector}, dispatching
// standard-procedure/function identifiers to their dedicated code-
// generation path instead of treating them as ordinary addressable items.
// obj comes back nil when the identifier is undefined or names a type, a
// module or a built-in (whose call has already consumed its actual
// parameters); otherwise it is the designated object, and the caller
// decides from its type whether "(...)" actual parameters follow.
func (p *Parser) designator() (codegen.Item, *symtab.Object) {
	obj := p.qualIdent()
	if obj == nil {
		return codegen.Const(symtab.IntType, 0), nil
	}
	switch obj.Class {
	case symtab.ClassStdFunc:
		return p.stdFuncCall(obj), nil
	case symtab.ClassStdProc:
		return p.stdProcCall(obj), nil
	case symtab.ClassType:
		p.mark("%q is a type, not a value", obj.Name)
		return codegen.Const(symtab.IntType, 0), nil
	case symtab.ClassModule:
		p.mark("%q is a module, not a value", obj.Name)
		return codegen.Const(symtab.IntType, 0), nil
	}
	x := codegen.FromObject(obj, p.level)
	p.selectorChain(&x)
	return x, obj
}

// addressable reports whether x denotes a storage location, required of
// every actual argument bound to a VAR formal.
func addressable(x *codegen.Item) bool {
	return x.Mode == codegen.ModeDirect || x.Mode == codegen.ModeParam || x.Mode == codegen.ModeRegI
}

// recordExtends reports whether sub is sup or a type extending it,
// walking the Base chain record extension builds (orp.c's extension test).
func recordExtends(sub, sup *symtab.Type) bool {
	for t := sub; t != nil; t = t.Base {
		if t == sup {
			return true
		}
		if t.Form != symtab.FormRecord {
			break
		}
	}
	return false
}

// assignable reports whether a value of type src may be stored where a
// variable of type dst is expected (orp.c's CompTypes, restricted to the
// conversions actually needed by assignment and parameter passing: exact
// identity, BYTE/INTEGER widening since both carry FormInt, NIL or an
// extended record into a pointer, and record extension).
func assignable(dst, src *symtab.Type) bool {
	if dst == nil || src == nil || dst == src {
		return true
	}
	if dst.Form == symtab.FormInt && src.Form == symtab.FormInt {
		return true
	}
	switch dst.Form {
	case symtab.FormPointer:
		if src.Form == symtab.FormNil {
			return true
		}
		return src.Form == symtab.FormPointer && recordExtends(src.Base, dst.Base)
	case symtab.FormRecord:
		return src.Form == symtab.FormRecord && recordExtends(src, dst)
	}
	return false
}

func stringLike(t *symtab.Type) bool {
	return t != nil && (t.Form == symtab.FormString || (t.Form == symtab.FormArray && t.Base == symtab.CharType))
}

var relConds = map[scanner.Kind]int{
	scanner.KindEql: risc.CondEQ,
	scanner.KindNeq: risc.CondNE,
	scanner.KindLss: risc.CondLT,
	scanner.KindLeq: risc.CondLE,
	scanner.KindGtr: risc.CondGT,
	scanner.KindGeq: risc.CondGE,
}

// relate applies a relational or set-membership operator, dispatching to
// StringRel instead of IntRel whenever both sides are character arrays or
// (necessarily multi-character) string literals.
func (p *Parser) relate(op scanner.Kind, x, y codegen.Item) codegen.Item {
	switch op {
	case scanner.KindIn:
		return p.gen.SetIn(&x, &y)
	case scanner.KindIs:
		p.mark("type tests are not supported")
		return codegen.ConstBool(false)
	}
	cond, ok := relConds[op]
	if !ok {
		p.mark("internal: unmapped relational operator")
		return codegen.ConstBool(false)
	}
	if stringLike(x.Type) && stringLike(y.Type) {
		ax, ay := x, y
		p.gen.LoadAdr(&ax)
		p.gen.LoadAdr(&ay)
		return p.gen.StringRel(cond, &ax, &ay)
	}
	p.gen.IntRel(cond, &x, &y)
	return x
}

// expression parses Expression = SimpleExpression [relation
// SimpleExpression] (orp.c's expression).
func (p *Parser) expression() codegen.Item {
	x := p.simpleExpression()
	if p.sym.IsRelOp() {
		op := p.sym
		p.next()
		y := p.simpleExpression()
		x = p.relate(op, x, y)
	}
	return x
}

// simpleExpression parses ["+"|"-"] Term {AddOperator Term} (orp.c's
// SimpleExpression), splicing the short-circuit OR chain across the loop
// the way And is spliced in term().
func (p *Parser) simpleExpression() codegen.Item {
	negate := false
	switch p.sym {
	case scanner.KindPlus:
		p.next()
	case scanner.KindMinus:
		negate = true
		p.next()
	}
	x := p.term()
	if negate {
		p.gen.Neg(&x)
	}
	for p.sym.IsAddOp() {
		op := p.sym
		if op == scanner.KindOr {
			p.gen.Or1(&x)
			p.next()
			y := p.term()
			p.gen.Or2(&x, &y)
			x = y
			continue
		}
		p.next()
		y := p.term()
		p.gen.AddOp(op == scanner.KindPlus, &x, &y)
	}
	return x
}

// term parses Factor {MulOperator Factor} (orp.c's term), splicing the
// short-circuit AND chain across the loop.
func (p *Parser) term() codegen.Item {
	x := p.factor()
	for p.sym.IsMulOp() {
		op := p.sym
		if op == scanner.KindAnd {
			p.gen.And1(&x)
			p.next()
			y := p.factor()
			p.gen.And2(&x, &y)
			x = y
			continue
		}
		p.next()
		y := p.factor()
		switch op {
		case scanner.KindTimes:
			p.gen.MulOp(&x, &y)
		case scanner.KindDiv:
			p.gen.DivOp(false, &x, &y)
		case scanner.KindMod:
			p.gen.DivOp(true, &x, &y)
		case scanner.KindSlash:
			p.mark("real division is not supported")
		}
	}
	return x
}

// factor parses Factor = number | string | NIL | TRUE | FALSE |
// SetConstructor | "(" Expression ")" | "~" Factor | Designator (orp.c's
// factor). A one-character string literal is folded to a CHAR constant
// per the Oberon-07 report's "a string of length 1 is also a character".
func (p *Parser) factor() codegen.Item {
	switch p.sym {
	case scanner.KindNumber:
		v := p.ival
		p.next()
		return codegen.Const(symtab.IntType, v)
	case scanner.KindString:
		s, n := p.str, p.slen
		p.next()
		if n == 2 {
			return codegen.Const(symtab.CharType, int32(s[0]))
		}
		return p.gen.StringItem(s)
	case scanner.KindNil:
		p.next()
		return codegen.Item{Mode: codegen.ModeImmediate, Type: symtab.NilType}
	case scanner.KindTrue:
		p.next()
		return codegen.ConstBool(true)
	case scanner.KindFalse:
		p.next()
		return codegen.ConstBool(false)
	case scanner.KindLBrace:
		return p.setConstructor()
	case scanner.KindLParen:
		p.next()
		x := p.expression()
		p.expect(scanner.KindRParen, ")")
		return x
	case scanner.KindNot:
		p.next()
		x := p.factor()
		p.gen.Not(&x)
		return x
	case scanner.KindIdent:
		x, obj := p.designator()
		if obj != nil && x.Type != nil && x.Type.Form == symtab.FormProc {
			return p.callProcedure(&x)
		}
		return x
	default:
		p.mark("expression expected")
		p.next()
		return codegen.Const(symtab.IntType, 0)
	}
}

// setConstructor parses "{" [element {"," element}] "}", element being
// Expression [".." Expression] (orp.c's set allocation, kept small since
// the subset's only set-building actual need is INCL/EXCL plus literals).
func (p *Parser) setConstructor() codegen.Item {
	p.next() // "{"
	set := codegen.Const(symtab.SetType, 0)
	if p.sym != scanner.KindRBrace {
		for {
			lo := p.expression()
			if p.sym == scanner.KindUpArrow {
				p.next()
				hi := p.constIntExpr()
				for n := lo.A; n <= hi; n++ {
					set = p.setInclude(set, n)
				}
			} else {
				set = p.gen.SetElem(&set, &lo)
			}
			if p.sym != scanner.KindComma {
				break
			}
			p.next()
		}
	}
	p.expect(scanner.KindRBrace, "}")
	return set
}

func (p *Parser) setInclude(set codegen.Item, bit int32) codegen.Item {
	elem := codegen.Const(symtab.IntType, bit)
	return p.gen.SetElem(&set, &elem)
}

// stdFuncCall parses the actual parameters of a standard/SYSTEM function
// and dispatches on its universe.go dispatch id (orp.c's StandFunc).
func (p *Parser) stdFuncCall(obj *symtab.Object) codegen.Item {
	switch obj.Val {
	case symtab.DispatchSIZE:
		p.expect(scanner.KindLParen, "(")
		t := p.typeExpr()
		p.expect(scanner.KindRParen, ")")
		return p.gen.SizeOf(t)
	case symtab.DispatchVAL:
		p.expect(scanner.KindLParen, "(")
		t := p.typeExpr()
		p.expect(scanner.KindComma, ",")
		x := p.expression()
		p.expect(scanner.KindRParen, ")")
		p.gen.Val(t, &x)
		return x
	case symtab.DispatchCOND:
		args := p.actualArgs()
		if len(args) != 1 || args[0].Mode != codegen.ModeImmediate {
			p.mark("COND expects one constant argument")
			return codegen.ConstBool(false)
		}
		return p.gen.Condition(args[0].A)
	case symtab.DispatchREG:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.Const(symtab.IntType, 0)
		}
		return p.gen.Register(&args[0])
	case symtab.DispatchADR:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.Const(symtab.IntType, 0)
		}
		return p.gen.Adr(&args[0])
	case symtab.DispatchBIT:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 2) {
			return codegen.ConstBool(false)
		}
		return p.gen.Bit(&args[0], &args[1])
	case symtab.DispatchABS:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.Const(symtab.IntType, 0)
		}
		x := args[0]
		p.gen.Abs(&x)
		return x
	case symtab.DispatchODD:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.ConstBool(false)
		}
		x := args[0]
		return p.gen.Odd(&x)
	case symtab.DispatchORD:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.Const(symtab.IntType, 0)
		}
		x := args[0]
		p.gen.Ord(&x)
		return x
	case symtab.DispatchCHR:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 1) {
			return codegen.Const(symtab.CharType, 0)
		}
		x := args[0]
		p.gen.Chr(&x)
		return x
	case symtab.DispatchLEN:
		args := p.actualArgs()
		if len(args) < 1 {
			p.mark("LEN expects at least one argument")
			return codegen.Const(symtab.IntType, 0)
		}
		return p.gen.Len(&args[0])
	case symtab.DispatchLSL, symtab.DispatchASR, symtab.DispatchROR:
		args := p.actualArgs()
		if !p.expectArity(obj.Name, args, 2) {
			return codegen.Const(symtab.IntType, 0)
		}
		x, n := args[0], args[1]
		op := risc.OpLsl
		switch obj.Val {
		case symtab.DispatchASR:
			op = risc.OpAsr
		case symtab.DispatchROR:
			op = risc.OpRor
		}
		p.gen.Shift(op, &x, &n)
		return x
	}
	p.mark("internal: unknown standard function %q", obj.Name)
	return codegen.Const(symtab.IntType, 0)
}

// stdProcCall parses the actual parameters of a standard/SYSTEM procedure
// and dispatches on its universe.go dispatch id (orp.c's StandProc).
func (p *Parser) stdProcCall(obj *symtab.Object) codegen.Item {
	switch obj.Val {
	case symtab.DispatchWRITELN:
		if p.sym == scanner.KindLParen {
			args := p.actualArgs()
			if len(args) == 1 {
				p.gen.Write(&args[0])
			} else if len(args) > 1 {
				p.expectArity(obj.Name, args, 1)
			}
		}
		p.gen.WriteLn()
	case symtab.DispatchWRITE:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 1) {
			p.gen.Write(&args[0])
		}
	case symtab.DispatchREAD:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 1) {
			p.gen.Read(&args[0])
		}
	case symtab.DispatchASSERT:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 1) {
			p.gen.Assert(&args[0])
		}
	case symtab.DispatchINC, symtab.DispatchDEC:
		p.expect(scanner.KindLParen, "(")
		x := p.expression()
		var n *codegen.Item
		if p.sym == scanner.KindComma {
			p.next()
			v := p.expression()
			n = &v
		}
		p.expect(scanner.KindRParen, ")")
		p.gen.Increment(obj.Val == symtab.DispatchDEC, &x, n)
	case symtab.DispatchINCL, symtab.DispatchEXCL:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 2) {
			p.gen.Include(obj.Val == symtab.DispatchEXCL, &args[0], &args[1])
		}
	case symtab.DispatchGET, symtab.DispatchPUT:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 2) {
			if obj.Val == symtab.DispatchGET {
				p.gen.Get(&args[0], &args[1])
			} else {
				p.gen.Put(&args[0], &args[1])
			}
		}
	case symtab.DispatchCOPY:
		args := p.actualArgs()
		if p.expectArity(obj.Name, args, 3) {
			p.gen.SystemCopy(&args[0], &args[1], &args[2])
		}
	}
	return codegen.Item{Type: symtab.NoneType}
}

func (p *Parser) expectArity(name string, args []codegen.Item, n int) bool {
	if len(args) != n {
		p.mark("%s expects %d argument(s), got %d", name, n, len(args))
		return false
	}
	return true
}

// actualArgs parses "(" [Expression {"," Expression}] ")".
func (p *Parser) actualArgs() []codegen.Item {
	var args []codegen.Item
	p.expect(scanner.KindLParen, "(")
	if p.sym != scanner.KindRParen {
		for {
			args = append(args, p.expression())
			if p.sym != scanner.KindComma {
				break
			}
			p.next()
		}
	}
	p.expect(scanner.KindRParen, ")")
	return args
}

// callProcedure parses an optional actual-parameter list and emits a user
// procedure call, implementing the calling convention formalParams laid
// out: each actual is pushed into the callee's parameter block at its
// formal's fixed offset, by address for VAR/structured formals and by
// value otherwise, with an open-array actual additionally pushing its
// runtime length. A function result surfaces in the very next free
// register, stashed across RestoreRegs since that call clobbers R0 while
// reloading whatever was spilled before the call (orp.c's StandFuncCall /
// ORG_Call sequence).
func (p *Parser) callProcedure(proc *codegen.Item) codegen.Item {
	pt := proc.Type
	var args []codegen.Item
	if p.sym == scanner.KindLParen {
		p.next()
		if p.sym != scanner.KindRParen {
			for {
				args = append(args, p.expression())
				if p.sym != scanner.KindComma {
					break
				}
				p.next()
			}
		}
		p.expect(scanner.KindRParen, ")")
	}
	if len(args) != len(pt.Fields) {
		p.mark("expected %d argument(s), got %d", len(pt.Fields), len(args))
	}

	n := p.gen.PrepCall()
	p.gen.AdjustSP(-int32(pt.Size))
	for i, formal := range pt.Fields {
		if i >= len(args) {
			break
		}
		actual := args[i]
		if formal.ByRef && !addressable(&actual) {
			p.mark("argument %d (%s) must be a variable", i+1, formal.Name)
		}
		if !assignable(formal.Type, actual.Type) {
			p.mark("argument %d (%s) has an incompatible type", i+1, formal.Name)
		}
		if formal.Type.Form == symtab.FormArray && formal.Type.Len < 0 {
			p.gen.PushOpenArrayParam(&actual, int32(formal.Val))
		} else {
			p.gen.PushParam(&actual, formal.ByRef, int32(formal.Val))
		}
	}
	p.gen.Call(proc)
	p.gen.AdjustSP(int32(pt.Size))

	isFunc := pt.Base != nil && pt.Base.Form != symtab.FormNone
	if isFunc {
		p.gen.Put0(risc.OpMov, n, 0, 0)
	}
	p.gen.RestoreRegs(n)
	if isFunc {
		p.gen.IncR()
		return codegen.Item{Mode: codegen.ModeReg, Type: pt.Base, R: n}
	}
	return codegen.Item{Type: symtab.NoneType}
}
