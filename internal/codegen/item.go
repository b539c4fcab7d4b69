// Package codegen implements the item abstraction and RISC instruction
// emission of spec.md §4.4, grounded function-for-function on the
// reference implementation's ORG module (org.c/org.h) and on the
// teacher's internal/compiler/stmt_compiler.go jump-placeholder-then-patch
// idiom for branch fixups.
package codegen

import (
	"oberon/internal/risc"
	"oberon/internal/symtab"
)

// Mode is an item's addressing mode (org.h's mode_t).
type Mode int

const (
	ModeImmediate Mode = iota
	ModeDirect
	ModeParam
	ModeType
	ModeReg
	ModeRegI
	ModeCond
	ModeStringConst
)

// Item is the code generator's running representation of an evaluated or
// partially evaluated expression (org.h's item_t), per spec.md §3's mode
// table.
type Item struct {
	Mode     Mode
	Type     *symtab.Type
	A        int32 // immediate value / rel. addr / F-chain head / offset
	B        int32 // string length / secondary offset / T-chain head
	R        int   // static level / register / condition code
	ReadOnly bool
}

// Const builds an immediate item from a constant value (ORG_MakeConst).
func Const(typ *symtab.Type, val int32) Item {
	return Item{Mode: ModeImmediate, Type: typ, A: val}
}

// ConstBool builds a boolean constant item, represented directly as a
// Cond item with a degenerate always-true/always-false condition so it
// composes with LoadCond without a special case.
func ConstBool(v bool) Item {
	cond := risc.CondFalse
	if v {
		cond = risc.CondTrue
	}
	return Item{Mode: ModeCond, Type: symtab.BoolType, R: cond}
}

// memOp selects the byte-mode variant of a load/store opcode (op+1) for a
// single-byte scalar (BYTE/BOOLEAN/CHAR, or a CHAR array element reached
// through Index), and the word-mode opcode for everything else. Every
// scalar in this implementation occupies exactly sizeof(its type) bytes
// rather than being padded to a word, so the addressing mode has to track
// the operand's actual size at each access, not just at declaration.
func memOp(op int, t *symtab.Type) int {
	if t != nil && t.Size == 1 {
		return op + 1
	}
	return op
}

// FromObject builds an item referencing a declared symbol
// (ORG_MakeItem), given the current static nesting level so Direct items
// can distinguish local (positive level), global (zero), and imported
// (negative level) addressing.
func FromObject(obj *symtab.Object, curLevel int) Item {
	switch obj.Class {
	case symtab.ClassVar:
		return Item{Mode: ModeDirect, Type: obj.Type, A: int32(obj.Val), R: obj.Level, ReadOnly: obj.ReadOnly}
	case symtab.ClassParam:
		// A by-reference parameter's frame slot holds a pointer (ModeParam's
		// double indirection); a by-value scalar parameter's slot holds the
		// value itself, addressed directly like a local variable.
		if obj.ByRef {
			return Item{Mode: ModeParam, Type: obj.Type, A: int32(obj.Val), R: obj.Level, ReadOnly: obj.ReadOnly}
		}
		return Item{Mode: ModeDirect, Type: obj.Type, A: int32(obj.Val), R: obj.Level, ReadOnly: obj.ReadOnly}
	case symtab.ClassConst:
		return Item{Mode: ModeImmediate, Type: obj.Type, A: int32(obj.Val)}
	case symtab.ClassType:
		return Item{Mode: ModeType, Type: obj.Type}
	case symtab.ClassStdProc, symtab.ClassStdFunc:
		return Item{Mode: ModeImmediate, Type: obj.Type, A: int32(obj.Val)}
	default:
		return Item{Mode: ModeDirect, Type: obj.Type, A: int32(obj.Val), R: obj.Level}
	}
}
