package parser

import (
	"oberon/internal/codegen"
	"oberon/internal/scanner"
	"oberon/internal/symtab"
)

// statementSequence parses Statement {";" Statement} (orp.c's
// StatementSequence).
func (p *Parser) statementSequence() {
	p.statement()
	for p.sym == scanner.KindSemicolon {
		p.next()
		p.statement()
	}
}

// statement parses one Statement, silently accepting the empty statement
// (two consecutive semicolons, or none before END/ELSE/UNTIL) the grammar
// allows (orp.c's StatementSequence loop body).
func (p *Parser) statement() {
	switch p.sym {
	case scanner.KindIdent:
		p.assignmentOrCall()
	case scanner.KindIf:
		p.ifStatement()
	case scanner.KindWhile:
		p.whileStatement()
	case scanner.KindRepeat:
		p.repeatStatement()
	case scanner.KindFor:
		p.forStatement()
	case scanner.KindCase:
		p.mark("CASE statements are not supported")
		p.skipCase()
	default:
		return
	}
	p.gen.CheckRegs()
}

// skipCase recovers from an unsupported CASE statement by consuming
// tokens up to its matching END, tracking nesting of the other
// END-terminated constructs so an inner IF/WHILE/FOR/RECORD/CASE doesn't
// end the skip early.
func (p *Parser) skipCase() {
	p.next() // CASE
	depth := 1
	for depth > 0 && p.sym != scanner.KindEot {
		switch p.sym {
		case scanner.KindIf, scanner.KindWhile, scanner.KindFor, scanner.KindCase, scanner.KindRecord:
			depth++
		case scanner.KindEnd:
			depth--
		}
		p.next()
	}
}

// assign stores src into dst, choosing the word-store, structured-copy,
// or NUL-terminated-string-copy path by dst's type (orp.c's assignment
// handling inside StatementSequence).
func (p *Parser) assign(dst, src *codegen.Item) {
	if dst.ReadOnly {
		p.mark("cannot assign to a read-only parameter")
	}
	switch {
	case dst.Type != nil && dst.Type.Form == symtab.FormArray && dst.Type.Base == symtab.CharType &&
		src.Type != nil && src.Type.Form == symtab.FormString:
		p.gen.CopyString(dst, src, int32(dst.Type.Size))
	case dst.Type != nil && (dst.Type.Form == symtab.FormRecord || dst.Type.Form == symtab.FormArray):
		if !(dst.Type == src.Type || recordExtends(src.Type, dst.Type)) {
			p.mark("incompatible assignment")
		}
		p.gen.StoreStruct(dst, src, int32(dst.Type.Size))
	default:
		if !assignable(dst.Type, src.Type) {
			p.mark("incompatible assignment")
		}
		p.gen.Store(dst, src)
	}
}

// assignmentOrCall parses Designator ":=" Expression | ProcedureCall, the
// two statement forms whose first token is an identifier (orp.c merges
// these since both start by reading a Designator).
func (p *Parser) assignmentOrCall() {
	x, obj := p.designator()
	switch {
	case obj != nil && p.sym == scanner.KindBecomes:
		p.next()
		src := p.expression()
		p.assign(&x, &src)
	case obj != nil && x.Type != nil && x.Type.Form == symtab.FormProc:
		p.callProcedure(&x)
	case obj == nil:
		// A standard procedure call already fully parsed and emitted by
		// designator's stdProcCall path.
	default:
		p.mark("not a statement")
	}
}

// ifStatement parses "IF" Expression "THEN" StatementSequence {"ELSIF"
// Expression "THEN" StatementSequence} ["ELSE" StatementSequence] "END"
// (orp.c's IfStatement).
func (p *Parser) ifStatement() {
	p.next() // IF
	cond := p.expression()
	falseChain := p.gen.CFJump(&cond)
	p.expect(scanner.KindThen, "THEN")
	p.statementSequence()

	var exits []int32
	for p.sym == scanner.KindElsif {
		exits = append(exits, p.gen.FJump())
		p.gen.Fixup(falseChain)
		p.next()
		c := p.expression()
		falseChain = p.gen.CFJump(&c)
		p.expect(scanner.KindThen, "THEN")
		p.statementSequence()
	}
	if p.sym == scanner.KindElse {
		exits = append(exits, p.gen.FJump())
		p.gen.Fixup(falseChain)
		p.next()
		p.statementSequence()
	} else {
		p.gen.Fixup(falseChain)
	}
	for _, e := range exits {
		p.gen.Fixup(e)
	}
	p.expect(scanner.KindEnd, "END")
}

// whileStatement parses "WHILE" Expression "DO" StatementSequence
// {"ELSIF" Expression "DO" StatementSequence} "END" (orp.c's
// WhileStatement). Every clause's body ends with a branch back to the one
// shared loop head, so the guards are re-tested from the first clause on
// each iteration; a false guard falls through to the next clause, and the
// loop exits once no guard holds.
func (p *Parser) whileStatement() {
	p.next() // WHILE
	top := p.gen.Here()
	cond := p.expression()
	falseChain := p.gen.CFJump(&cond)
	p.expect(scanner.KindDo, "DO")
	p.statementSequence()
	p.gen.BJump(top)
	p.gen.Fixup(falseChain)

	for p.sym == scanner.KindElsif {
		p.next()
		c := p.expression()
		eFalse := p.gen.CFJump(&c)
		p.expect(scanner.KindDo, "DO")
		p.statementSequence()
		p.gen.BJump(top)
		p.gen.Fixup(eFalse)
	}
	p.expect(scanner.KindEnd, "END")
}

// repeatStatement parses "REPEAT" StatementSequence "UNTIL" Expression
// (orp.c's RepeatStatement).
func (p *Parser) repeatStatement() {
	p.next() // REPEAT
	top := p.gen.Here()
	p.statementSequence()
	p.expect(scanner.KindUntil, "UNTIL")
	cond := p.expression()
	p.gen.CBJump(&cond, top)
}

// forStatement parses "FOR" ident ":=" Expression "TO" Expression ["BY"
// ConstExpression] "DO" StatementSequence "END" (orp.c's ForStatement). A
// negative BY constant counts down; the Oberon-07 report has no separate
// DOWNTO keyword.
func (p *Parser) forStatement() {
	p.next() // FOR
	name := p.id
	p.expect(scanner.KindIdent, "identifier")
	obj := p.tab.This(name)
	if obj == nil || obj.Class != symtab.ClassVar {
		p.mark("%q is not a variable", name)
		obj = &symtab.Object{Class: symtab.ClassVar, Type: symtab.IntType}
	}
	v := codegen.FromObject(obj, p.level)

	p.expect(scanner.KindBecomes, ":=")
	lower := p.expression()
	p.expect(scanner.KindTo, "TO")
	upper := p.expression()

	step := int32(1)
	if p.sym == scanner.KindBy {
		p.next()
		step = p.constIntExpr()
		if step == 0 {
			p.mark("BY constant must not be zero")
			step = 1
		}
	}

	top := p.gen.For0(&v, &lower)
	exit := p.gen.For1(&v, &upper, step < 0)
	p.expect(scanner.KindDo, "DO")
	p.statementSequence()
	p.gen.For2(&v, step, top, exit)
	p.expect(scanner.KindEnd, "END")
}
