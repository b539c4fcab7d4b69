// Package parser implements the single-pass Oberon-07 parser: a
// recursive-descent reader that drives internal/symtab and
// internal/codegen directly as it reads, with no intermediate AST,
// grounded on the reference implementation's ORP module (orp.c/orp.h)
// and on the teacher's match/advance/skip-to-follow-set parser idiom.
package parser

import (
	"oberon/internal/arena"
	"oberon/internal/codegen"
	"oberon/internal/diag"
	"oberon/internal/scanner"
	"oberon/internal/symtab"
)

// Parser holds the one-token lookahead and the three collaborators a
// single-pass compiler drives in lockstep: the scanner, the symbol table,
// and the code generator.
type Parser struct {
	sc     *scanner.Scanner
	tab    *symtab.Table
	gen    *codegen.Gen
	arenas *arena.Stack
	diags  *diag.Sink

	sym  scanner.Kind
	id   string
	ival int32
	str  string
	slen int

	level int // static procedure-nesting depth, 0 at module scope

	// forwardTypes holds placeholder record types for POINTER TO X where X
	// has not yet been declared in the enclosing TYPE section (orp.c's
	// fixlist, reworked here as a name-keyed map since Go has no trouble
	// mutating a type's fields in place once X is finally declared).
	forwardTypes map[string]*symtab.Type
}

// Compile parses and generates code for one module's source text, writing
// into mem and reporting diagnostics to diags. It returns the start-of-
// globals word offset (sb) and the module body's entry address, the pair
// RISC_Interpret needs to run it.
func Compile(file, src string, mem []int32, diags *diag.Sink) (sb, entry int32) {
	sc := scanner.New(file, src, diags)
	arenas := arena.NewStack()
	tab := symtab.New(arenas, func(msg string) {
		diags.Mark(diag.Location{}, "", msg)
	})
	gen := codegen.NewGen(mem, diags)

	p := &Parser{sc: sc, tab: tab, gen: gen, arenas: arenas, diags: diags, forwardTypes: map[string]*symtab.Type{}}
	p.next()
	return p.module()
}

func (p *Parser) mark(format string, args ...interface{}) {
	if p.diags != nil {
		p.diags.Mark(diag.Location{}, "", format, args...)
	}
}

// next advances the lookahead token, copying the scanner's literal side
// channels immediately since the next Get() call overwrites them.
func (p *Parser) next() {
	tok := p.sc.Get()
	p.sym = tok.Kind
	p.id = p.sc.Id
	p.ival = int32(p.sc.Ival)
	p.str = p.sc.Str
	p.slen = p.sc.Slen
}

// expect consumes sym if it matches k, otherwise reports what was wanted
// and leaves the cursor in place for the caller's recovery logic.
func (p *Parser) expect(k scanner.Kind, what string) {
	if p.sym == k {
		p.next()
		return
	}
	p.mark("expected %s", what)
}

// identDef parses IdentDef = ident ["*"], the optional export mark kept
// only for source compatibility: a single-module program never imports
// these declarations back, so the mark has no semantic effect here.
func (p *Parser) identDef() (name string, exported bool) {
	name = p.id
	p.expect(scanner.KindIdent, "identifier")
	if p.sym == scanner.KindTimes {
		exported = true
		p.next()
	}
	return
}

// skipToStatement advances past tokens that cannot start a statement,
// the recovery step after a malformed one (orp.c's error-skip using the
// same follow-set test StartsStatement encodes).
func (p *Parser) skipToStatement() {
	for p.sym != scanner.KindEot && !p.sym.StartsStatement() &&
		p.sym != scanner.KindEnd && p.sym != scanner.KindElse &&
		p.sym != scanner.KindElsif && p.sym != scanner.KindUntil {
		p.next()
	}
}

// module parses Module = MODULE ident ";" [ImportList] DeclarationSequence
// [BEGIN StatementSequence] END ident "." (orp.c's Module).
func (p *Parser) module() (sb, entry int32) {
	p.expect(scanner.KindModule, "MODULE")
	name := p.id
	p.expect(scanner.KindIdent, "module name")
	p.expect(scanner.KindSemicolon, ";")

	if p.sym == scanner.KindImport {
		p.importList()
	}

	p.gen.Open()
	p.arenas.Push()
	p.declarations(nil)

	entry = p.gen.Here()
	if p.sym == scanner.KindBegin {
		p.next()
		p.statementSequence()
	}
	p.gen.CheckRegs()

	p.expect(scanner.KindEnd, "END")
	closing := p.id
	p.expect(scanner.KindIdent, "module name")
	if closing != "" && closing != name {
		p.mark("closing name %q does not match MODULE %q", closing, name)
	}
	p.expect(scanner.KindPeriod, ".")

	for unresolved := range p.forwardTypes {
		p.mark("undefined record type %q used in POINTER TO", unresolved)
	}

	p.arenas.Pop()
	sb = p.gen.Close()
	return sb, entry
}

// importList accepts IMPORT ident {"," ident} ";", the only module name it
// recognizes meaningfully being the built-in SYSTEM pseudo-module that is
// already present in the universe; any other name is accepted syntactically
// and reported, since separate compilation of user modules is out of scope.
func (p *Parser) importList() {
	p.next() // IMPORT
	for {
		name := p.id
		p.expect(scanner.KindIdent, "imported module name")
		if p.sym == scanner.KindBecomes {
			p.next()
			name = p.id
			p.expect(scanner.KindIdent, "imported module name")
		}
		if name != "SYSTEM" {
			p.mark("module %q cannot be imported: only SYSTEM is available", name)
		}
		if p.sym != scanner.KindComma {
			break
		}
		p.next()
	}
	p.expect(scanner.KindSemicolon, ";")
}
