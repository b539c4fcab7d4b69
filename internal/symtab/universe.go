package symtab

// Dispatch identifiers for built-in functions and procedures. Each
// encodes both a dispatch tag and expected arity as kind*10 + arity,
// reproduced verbatim from the reference ORB_Init (orb.c) since spec.md
// §4.2 requires these exact values.
const (
	DispatchABS  = 1
	DispatchODD  = 11
	DispatchORD  = 21
	DispatchCHR  = 31
	DispatchLEN  = 41
	DispatchLSL  = 52
	DispatchASR  = 62
	DispatchROR  = 72

	DispatchINC     = 1
	DispatchDEC     = 11
	DispatchINCL    = 22
	DispatchEXCL    = 32
	DispatchASSERT  = 41
	DispatchREAD    = 51
	DispatchWRITE   = 61
	DispatchWRITELN = 71

	// SYSTEM pseudo-module built-ins.
	DispatchBIT  = 82
	DispatchREG  = 91
	DispatchVAL  = 102
	DispatchADR  = 111
	DispatchSIZE = 121
	DispatchCOND = 131
	DispatchGET  = 82
	DispatchPUT  = 92
	DispatchCOPY = 103
)

// enter prepends a new predeclared object to list, mirroring orb.c's
// static Enter helper. When the class is ClassType, the type's NamedBy
// back-reference is set too.
func enter(list *[]*Object, name string, class Class, typ *Type, val int) *Object {
	obj := &Object{Name: name, Class: class, Type: typ, Val: val}
	obj.Next = nil
	if len(*list) > 0 {
		obj.Next = (*list)[len(*list)-1]
	}
	*list = append(*list, obj)
	if class == ClassType {
		typ.NamedBy = obj
	}
	return obj
}

// chain links a slice of objects built by enter into a rlink list and
// returns the head (last entered, matching the reference's prepend order).
func chain(list []*Object) *Object {
	if len(list) == 0 {
		return nil
	}
	head := list[len(list)-1]
	cur := head
	for i := len(list) - 2; i >= 0; i-- {
		cur.Next = list[i]
		cur = list[i]
	}
	cur.Next = nil
	return head
}

// initUniverse populates the outermost scope with predeclared types,
// built-in functions/procedures, and the SYSTEM pseudo-module (ORB_Init).
func (t *Table) initUniverse() {
	var list []*Object

	enter(&list, "ROR", ClassStdFunc, IntType, DispatchROR)
	enter(&list, "ASR", ClassStdFunc, IntType, DispatchASR)
	enter(&list, "LSL", ClassStdFunc, IntType, DispatchLSL)
	enter(&list, "LEN", ClassStdFunc, IntType, DispatchLEN)
	enter(&list, "CHR", ClassStdFunc, CharType, DispatchCHR)
	enter(&list, "ORD", ClassStdFunc, IntType, DispatchORD)
	enter(&list, "ODD", ClassStdFunc, BoolType, DispatchODD)
	enter(&list, "ABS", ClassStdFunc, IntType, DispatchABS)

	enter(&list, "WriteLn", ClassStdProc, NoneType, DispatchWRITELN)
	enter(&list, "Write", ClassStdProc, NoneType, DispatchWRITE)
	enter(&list, "Read", ClassStdProc, NoneType, DispatchREAD)
	enter(&list, "ASSERT", ClassStdProc, NoneType, DispatchASSERT)
	enter(&list, "EXCL", ClassStdProc, NoneType, DispatchEXCL)
	enter(&list, "INCL", ClassStdProc, NoneType, DispatchINCL)
	enter(&list, "DEC", ClassStdProc, NoneType, DispatchDEC)
	enter(&list, "INC", ClassStdProc, NoneType, DispatchINC)

	enter(&list, "SET", ClassType, SetType, 0)
	enter(&list, "BOOLEAN", ClassType, BoolType, 0)
	enter(&list, "BYTE", ClassType, ByteType, 0)
	enter(&list, "CHAR", ClassType, CharType, 0)
	enter(&list, "INTEGER", ClassType, IntType, 0)

	t.Top = nil
	t.OpenScope()
	t.Top.Next = chain(list)
	t.Universe = t.Top

	var system []*Object
	enter(&system, "COND", ClassStdFunc, BoolType, DispatchCOND)
	enter(&system, "SIZE", ClassStdFunc, IntType, DispatchSIZE)
	enter(&system, "ADR", ClassStdFunc, IntType, DispatchADR)
	enter(&system, "VAL", ClassStdFunc, IntType, DispatchVAL)
	enter(&system, "REG", ClassStdFunc, IntType, DispatchREG)
	enter(&system, "BIT", ClassStdFunc, BoolType, DispatchBIT)
	enter(&system, "COPY", ClassStdProc, NoneType, DispatchCOPY)
	enter(&system, "PUT", ClassStdProc, NoneType, DispatchPUT)
	enter(&system, "GET", ClassStdProc, NoneType, DispatchGET)

	sysHead := chain(system)
	mod := t.NewModule("SYSTEM")
	mod.ReadOnly = true
	mod.Down = sysHead
	mod.Next = t.Top.Next
	t.Top.Next = mod
	t.System = mod
}
