// Package symtab implements the nested-scope symbol table and type model
// of spec.md §3/§4.2, grounded on the reference implementation's ORB
// module (orb.c/orb.h): scopes are singly linked lists of objects fronted
// by a scope-head sentinel, and type identity is by pointer, matching the
// TYPE(tag,size) macro's shared predeclared singletons.
package symtab

import "oberon/internal/arena"

// Form tags a Type the way orb.h's form_t does.
type Form int

const (
	FormByte Form = iota
	FormBool
	FormChar
	FormInt
	FormSet
	FormPointer
	FormNil
	FormNone
	FormProc
	FormString
	FormArray
	FormRecord
)

// Class tags an Object the way orb.h's class_t does.
type Class int

const (
	ClassScopeHead Class = iota
	ClassConst
	ClassVar
	ClassParam
	ClassField
	ClassType
	ClassStdProc
	ClassStdFunc
	ClassModule
)

// Type mirrors orb.h's type_t. Base/Fields/Len are overloaded per form as
// documented in spec.md §3.
type Type struct {
	Form    Form
	Base    *Type   // element type (array), extended base (record), return type (proc), pointee (pointer)
	Fields  []*Object // fields (record) or ordered params (proc)
	Size    int
	Len     int     // array length (-1 = open), nofpar (proc), ext depth (record)
	NamedBy *Object
}

// Object mirrors orb.h's object_t.
type Object struct {
	Name     string
	Class    Class
	Type     *Type
	Val      int
	Level    int
	Exported bool
	ReadOnly bool
	ByRef    bool // parameter passed by address: every VAR parameter, plus every value parameter of record/array type (copying those is not implemented; see DESIGN.md)

	Next *Object // rlink: next object declared in the same scope
	Down *Object // dlink: enclosing scope (objects) or export list (modules) or fields (records)
}

// Predeclared type singletons (orb.c's g_byte_type, g_bool_type, ...).
// BYTE is tagged FormByte per orb.h's form_t but orb.c's TYPE(kTypeInt,1)
// macro call actually stamps it with the Int tag at size 1; the reference
// implementation has no distinct runtime form for BYTE beyond its size,
// so ByteType reuses FormInt here to match that behavior exactly and
// differs from IntType only in its size.
var (
	ByteType   = &Type{Form: FormInt, Size: 1}
	BoolType   = &Type{Form: FormBool, Size: 1}
	CharType   = &Type{Form: FormChar, Size: 1}
	IntType    = &Type{Form: FormInt, Size: 4}
	SetType    = &Type{Form: FormSet, Size: 4}
	NilType    = &Type{Form: FormNil, Size: 4}
	NoneType   = &Type{Form: FormNone, Size: 4}
	StringType = &Type{Form: FormString, Size: 8}
)

// Table is one compilation's symbol table: the scope stack plus the arena
// stack backing its allocations. Reconstructed per-compile per spec.md's
// Design Notes ("acceptable to reconstruct the universe on each
// compilation provided the produced object graph is isomorphic").
type Table struct {
	Top      *Object // current scope's head
	Universe *Object
	System   *Object // SYSTEM pseudo-module object

	arenas *arena.Stack

	// markFunc reports a duplicate-definition diagnostic; wired by the
	// caller so symtab stays independent of the diag package's Location.
	markFunc func(msg string)
}

// New returns a symbol table with its universe already populated.
func New(arenas *arena.Stack, mark func(msg string)) *Table {
	t := &Table{arenas: arenas, markFunc: mark}
	t.initUniverse()
	return t
}

func (t *Table) mark(msg string) {
	if t.markFunc != nil {
		t.markFunc(msg)
	}
}

// OpenScope pushes a new scope head, becoming the current scope.
func (t *Table) OpenScope() {
	head := &Object{Class: ClassScopeHead, Down: t.Top}
	t.Top = head
}

// CloseScope pops the current scope.
func (t *Table) CloseScope() {
	if t.Top == nil {
		panic("symtab: close of empty scope stack")
	}
	t.Top = t.Top.Down
}

// New allocates a fresh object in the given class, or returns the
// existing object of the same name in the current scope after reporting
// "mult def" (ORB_New).
func (t *Table) New(name string, class Class) *Object {
	if t.Top == nil {
		panic("symtab: no open scope")
	}
	it := t.Top
	for it.Next != nil && it.Next.Name != name {
		it = it.Next
	}
	if it.Next != nil {
		t.mark("mult def")
		return it.Next
	}
	obj := &Object{Name: name, Class: class, Type: NoneType}
	if a := t.arenas.Top(); a != nil {
		a.Alloc(obj)
	}
	it.Next = obj
	return obj
}

// NewModule allocates a detached module object (ORB_NewModule), used for
// the synthetic SYSTEM pseudo-module.
func (t *Table) NewModule(name string) *Object {
	return &Object{Name: name, Class: ClassModule, Type: NoneType}
}

// This looks up name starting from the current scope outward through
// enclosing scopes (ORB_This).
func (t *Table) This(name string) *Object {
	for sc := t.Top; sc != nil; sc = sc.Down {
		for it := sc.Next; it != nil; it = it.Next {
			if it.Name == name {
				return it
			}
		}
	}
	return nil
}

// ThisImport looks up name among mod's exported declarations. Only a
// module marked ReadOnly (exported) can be searched this way (ORB_ThisImport);
// this is the mechanism that makes SYSTEM the only reachable qualified module.
func (t *Table) ThisImport(mod *Object, name string) *Object {
	if mod == nil || mod.Class != ClassModule || !mod.ReadOnly {
		return nil
	}
	for it := mod.Down; it != nil; it = it.Next {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// ThisField looks up name among typ's record fields (ORB_ThisField).
func (t *Table) ThisField(typ *Type, name string) *Object {
	if typ == nil || typ.Form != FormRecord {
		return nil
	}
	for _, f := range typ.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
