package parser

import (
	"oberon/internal/codegen"
	"oberon/internal/scanner"
	"oberon/internal/symtab"
)

// declarations parses DeclarationSequence = [CONST {...}] [TYPE {...}]
// [VAR {...}] {ProcedureDeclaration ";"} (orp.c's Declarations). frameSize
// is nil at module scope (variables are globals) and points at the
// enclosing procedure's running local-frame size otherwise.
func (p *Parser) declarations(frameSize *int32) {
	if p.sym == scanner.KindConst {
		p.next()
		for p.sym == scanner.KindIdent {
			p.constDecl()
			p.expect(scanner.KindSemicolon, ";")
		}
	}
	if p.sym == scanner.KindType {
		p.next()
		for p.sym == scanner.KindIdent {
			p.typeDecl()
			p.expect(scanner.KindSemicolon, ";")
		}
		for unresolved := range p.forwardTypes {
			p.mark("undefined record type %q used in POINTER TO", unresolved)
			delete(p.forwardTypes, unresolved)
		}
	}
	if p.sym == scanner.KindVar {
		p.next()
		for p.sym == scanner.KindIdent {
			p.varDecl(frameSize)
			p.expect(scanner.KindSemicolon, ";")
		}
	}
	for p.sym == scanner.KindProcedure {
		p.procedureDecl()
		p.expect(scanner.KindSemicolon, ";")
	}
}

// constDecl parses ident "=" ConstExpression, entering a ClassConst object
// whose value is folded entirely at compile time (orp.c's ConstDeclaration).
func (p *Parser) constDecl() {
	name, exported := p.identDef()
	p.expect(scanner.KindEql, "=")
	val := p.constExpr()
	obj := p.tab.New(name, symtab.ClassConst)
	obj.Type = val.Type
	obj.Val = int(val.A)
	obj.Exported = exported
}

// constExpr evaluates an expression and requires it to have folded to a
// compile-time constant, reporting an error and returning a zero constant
// otherwise so the caller can keep going.
func (p *Parser) constExpr() codegen.Item {
	x := p.expression()
	switch x.Mode {
	case codegen.ModeImmediate:
		return x
	case codegen.ModeCond:
		// A folded BOOLEAN constant surfaces as a degenerate always-true or
		// always-false condition (codegen.ConstBool); anything else means a
		// real runtime test snuck into what must be a constant expression.
		if x.A == 0 && x.B == 0 {
			return codegen.Const(x.Type, boolCondValue(x.R))
		}
	}
	p.mark("not a constant expression")
	return codegen.Const(symtab.IntType, 0)
}

func boolCondValue(cond int) int32 {
	if cond == 7 { // risc.CondTrue
		return 1
	}
	return 0
}

// constIntExpr parses and folds a constant integer expression, used for
// array bounds.
func (p *Parser) constIntExpr() int32 {
	x := p.constExpr()
	return x.A
}

// typeDecl parses ident "=" Type, pre-registering the name before parsing
// its right-hand side so a record referring to "POINTER TO itself" (the
// standard linked-list idiom) resolves to the very type under
// construction, and so a POINTER TO an as-yet-undeclared record elsewhere
// in the same TYPE section can be patched in place once this declaration
// completes (forwardTypes).
func (p *Parser) typeDecl() {
	name, exported := p.identDef()
	p.expect(scanner.KindEql, "=")

	obj := p.tab.New(name, symtab.ClassType)
	placeholder := &symtab.Type{Form: symtab.FormRecord}
	hadForward := false
	if fwd, ok := p.forwardTypes[name]; ok {
		placeholder = fwd
		hadForward = true
		delete(p.forwardTypes, name)
	}
	obj.Type = placeholder

	real := p.typeExpr()
	if real.Form == symtab.FormRecord {
		*placeholder = *real
		obj.Type = placeholder
	} else {
		if hadForward {
			p.mark("%q was used as POINTER TO %s but is not a record type", name, name)
		}
		obj.Type = real
	}
	obj.Exported = exported
	obj.Type.NamedBy = obj
}

// typeExpr parses Type = NamedType | ArrayType | RecordType | PointerType
// | ProcedureType (orp.c's Type).
func (p *Parser) typeExpr() *symtab.Type {
	switch p.sym {
	case scanner.KindIdent:
		name := p.id
		p.next()
		obj := p.tab.This(name)
		if obj == nil {
			p.mark("undefined type %q", name)
			return symtab.IntType
		}
		if obj.Class != symtab.ClassType {
			p.mark("%q is not a type", name)
			return symtab.IntType
		}
		return obj.Type
	case scanner.KindArray:
		return p.arrayType()
	case scanner.KindRecord:
		return p.recordType()
	case scanner.KindPointer:
		return p.pointerType()
	case scanner.KindProcedure:
		return p.procedureType()
	default:
		p.mark("type expected")
		p.next()
		return symtab.IntType
	}
}

// arrayType parses "ARRAY" [length {"," length}] "OF" Type. No explicit
// lengths at all means an open array, legal only as a formal parameter
// type (orp.c's ArrayType).
func (p *Parser) arrayType() *symtab.Type {
	p.next() // ARRAY
	var lens []int32
	if p.sym != scanner.KindOf {
		for {
			lens = append(lens, p.constIntExpr())
			if p.sym != scanner.KindComma {
				break
			}
			p.next()
		}
	}
	p.expect(scanner.KindOf, "OF")
	elem := p.typeExpr()

	if len(lens) == 0 {
		p.mark("open arrays are allowed only as the outermost formal parameter type")
		return &symtab.Type{Form: symtab.FormArray, Base: elem, Len: -1}
	}
	typ := elem
	for i := len(lens) - 1; i >= 0; i-- {
		n := lens[i]
		if n <= 0 {
			p.mark("array length must be positive")
			n = 1
		}
		typ = &symtab.Type{Form: symtab.FormArray, Base: typ, Len: int(n), Size: int(n) * typ.Size}
	}
	return typ
}

const wordAlign = 4

func align(n int) int { return (n + wordAlign - 1) &^ (wordAlign - 1) }

// recordType parses "RECORD" ["(" baseIdent ")"] FieldListSequence "END"
// (orp.c's RecordType / FPSection's field layout). Fields are laid out in
// declaration order, word-aligning any 4-byte field so it never straddles
// a machine word (see codegen's memOp on byte-vs-word addressing).
func (p *Parser) recordType() *symtab.Type {
	p.next() // RECORD
	var base *symtab.Type
	extLevel := 0
	if p.sym == scanner.KindLParen {
		p.next()
		name := p.id
		if obj := p.tab.This(name); obj != nil && obj.Class == symtab.ClassType && obj.Type.Form == symtab.FormRecord {
			base = obj.Type
			extLevel = base.Len + 1
		} else {
			p.mark("base type %q is not a record type", name)
		}
		p.expect(scanner.KindIdent, "base type name")
		p.expect(scanner.KindRParen, ")")
	}

	size := 0
	if base != nil {
		size = base.Size
	}
	var fields []*symtab.Object
	for p.sym == scanner.KindIdent {
		var names []string
		for {
			n, _ := p.identDef()
			names = append(names, n)
			if p.sym != scanner.KindComma {
				break
			}
			p.next()
		}
		p.expect(scanner.KindColon, ":")
		ftype := p.typeExpr()
		if ftype.Size == 4 {
			size = align(size)
		}
		for _, n := range names {
			for _, f := range fields {
				if f.Name == n {
					p.mark("duplicate field %q", n)
				}
			}
			fields = append(fields, &symtab.Object{Name: n, Class: symtab.ClassField, Type: ftype, Val: size})
			size += ftype.Size
		}
		if p.sym != scanner.KindSemicolon {
			break
		}
		p.next()
	}
	p.expect(scanner.KindEnd, "END")

	if base != nil {
		all := make([]*symtab.Object, 0, len(base.Fields)+len(fields))
		all = append(all, base.Fields...)
		all = append(all, fields...)
		fields = all
	}
	return &symtab.Type{Form: symtab.FormRecord, Base: base, Len: extLevel, Fields: fields, Size: align(size)}
}

// pointerType parses "POINTER" "TO" Type. A named base that has not been
// declared yet is registered as a forward reference (forwardTypes); the
// subset restricts POINTER bases to record types, matching this compiler's
// in-place forward-completion trick in typeDecl.
func (p *Parser) pointerType() *symtab.Type {
	p.next() // POINTER
	p.expect(scanner.KindTo, "TO")

	if p.sym == scanner.KindIdent {
		name := p.id
		if obj := p.tab.This(name); obj != nil {
			p.next()
			if obj.Class != symtab.ClassType {
				p.mark("%q is not a type", name)
				return &symtab.Type{Form: symtab.FormPointer, Base: symtab.IntType, Size: 4}
			}
			return &symtab.Type{Form: symtab.FormPointer, Base: obj.Type, Size: 4}
		}
		base, ok := p.forwardTypes[name]
		if !ok {
			base = &symtab.Type{Form: symtab.FormRecord}
			p.forwardTypes[name] = base
		}
		p.next()
		return &symtab.Type{Form: symtab.FormPointer, Base: base, Size: 4}
	}

	base := p.typeExpr()
	if base.Form != symtab.FormRecord {
		p.mark("POINTER base must be a record type")
	}
	return &symtab.Type{Form: symtab.FormPointer, Base: base, Size: 4}
}

// procedureType parses "PROCEDURE" [FormalParameters], a procedure-valued
// variable's type. Procedure variables may be declared but, since this
// compiler addresses user procedures as compile-time ClassConst items
// (spec.md's single-pass design), calling through one goes via Call's
// indirect (register) branch rather than the immediate one.
func (p *Parser) procedureType() *symtab.Type {
	p.next() // PROCEDURE
	typ := &symtab.Type{Form: symtab.FormProc, Base: symtab.NoneType}
	if p.sym == scanner.KindLParen {
		p.formalParams(typ)
	}
	return typ
}

// varDecl parses IdentList ":" Type, allocating each name either as a
// global (frameSize == nil) or a local (frameSize != nil).
func (p *Parser) varDecl(frameSize *int32) {
	var names []string
	var exports []bool
	for {
		n, ex := p.identDef()
		names = append(names, n)
		exports = append(exports, ex)
		if p.sym != scanner.KindComma {
			break
		}
		p.next()
	}
	p.expect(scanner.KindColon, ":")
	typ := p.typeExpr()

	for i, n := range names {
		obj := p.tab.New(n, symtab.ClassVar)
		obj.Type = typ
		obj.Exported = exports[i]
		if frameSize == nil {
			obj.Val = int(p.gen.Global(typ.Size))
			obj.Level = 0
		} else {
			obj.Val = int(p.gen.Local(frameSize, typ.Size))
			obj.Level = p.level
		}
	}
}

// formalParams parses "(" [FPSection {";" FPSection}] ")" [":" ResultType]
// into procType, assigning each parameter a caller-relative frame offset
// (0, 4, 8, ... from the start of the incoming parameter block); these are
// fixed up to callee-SP-relative offsets once the enclosing procedure's
// local frame size is known (see procedureDecl).
func (p *Parser) formalParams(procType *symtab.Type) {
	p.expect(scanner.KindLParen, "(")
	var off int32
	for p.sym == scanner.KindVar || p.sym == scanner.KindIdent {
		isVar := false
		if p.sym == scanner.KindVar {
			isVar = true
			p.next()
		}
		var names []string
		for {
			n := p.id
			p.expect(scanner.KindIdent, "parameter name")
			names = append(names, n)
			if p.sym != scanner.KindComma {
				break
			}
			p.next()
		}
		p.expect(scanner.KindColon, ":")
		ptype := p.formalType()

		structured := ptype.Form == symtab.FormRecord || ptype.Form == symtab.FormArray
		byRef := isVar || structured
		readOnly := structured && !isVar
		slot := int32(4)
		if ptype.Form == symtab.FormArray && ptype.Len < 0 {
			slot = 8
		}
		for _, n := range names {
			obj := p.tab.New(n, symtab.ClassParam)
			obj.Type = ptype
			obj.ByRef = byRef
			obj.ReadOnly = readOnly
			obj.Level = p.level
			obj.Val = int(off)
			procType.Fields = append(procType.Fields, obj)
			off += slot
		}
		if p.sym != scanner.KindSemicolon {
			break
		}
		p.next()
	}
	p.expect(scanner.KindRParen, ")")
	procType.Len = len(procType.Fields)
	procType.Size = int(off)

	if p.sym == scanner.KindColon {
		p.next()
		name := p.id
		p.expect(scanner.KindIdent, "result type")
		obj := p.tab.This(name)
		if obj == nil || obj.Class != symtab.ClassType {
			p.mark("undefined result type %q", name)
			procType.Base = symtab.IntType
		} else {
			procType.Base = obj.Type
		}
	} else {
		procType.Base = symtab.NoneType
	}
}

// formalType parses a formal parameter's type: a named type, or a
// one-dimensional open array "ARRAY OF T" whose element type T is parsed
// as an ordinary type, so an inner open array (a multi-dimensional open
// array) is reported by arrayType.
func (p *Parser) formalType() *symtab.Type {
	if p.sym == scanner.KindArray {
		p.next()
		p.expect(scanner.KindOf, "OF")
		return &symtab.Type{Form: symtab.FormArray, Base: p.typeExpr(), Len: -1}
	}
	return p.typeExpr()
}

// procedureDecl parses ProcedureDeclaration = "PROCEDURE" IdentDef
// [FormalParameters] ";" DeclarationSequence ["BEGIN" StatementSequence]
// "END" ident (orp.c's ProcedureDecl). The procedure name is entered in
// the enclosing scope as a ClassConst/FormProc item (so recursive and
// later calls see it as an immediate, branch-able item) before its own
// scope and body are parsed; its entry address is known as soon as code
// generation reaches the prologue, well before the body that might
// recursively call it.
func (p *Parser) procedureDecl() {
	p.next() // PROCEDURE
	name, exported := p.identDef()

	procObj := p.tab.New(name, symtab.ClassConst)
	procType := &symtab.Type{Form: symtab.FormProc}
	procObj.Type = procType
	procObj.Exported = exported

	p.tab.OpenScope()
	p.arenas.Push()
	p.level++

	if p.sym == scanner.KindLParen {
		p.formalParams(procType)
	} else {
		procType.Base = symtab.NoneType
	}
	p.expect(scanner.KindSemicolon, ";")

	var frameSize int32
	p.declarations(&frameSize)

	entry := p.gen.Here()
	p.gen.Enter(frameSize)
	procObj.Val = int(entry)
	for _, prm := range procType.Fields {
		prm.Val += int(frameSize) + 4
	}

	if p.sym == scanner.KindBegin {
		p.next()
		p.statementSequence()
	}
	p.gen.CheckRegs()
	p.gen.Return(frameSize)

	p.expect(scanner.KindEnd, "END")
	closing := p.id
	p.expect(scanner.KindIdent, "procedure name")
	if closing != "" && closing != name {
		p.mark("closing name %q does not match PROCEDURE %q", closing, name)
	}

	p.arenas.Pop()
	p.tab.CloseScope()
	p.level--
}
