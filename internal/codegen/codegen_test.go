package codegen

import (
	"testing"

	"oberon/internal/diag"
	"oberon/internal/symtab"
)

func TestAddOpFoldsImmediateConstants(t *testing.T) {
	g := NewGen(make([]int32, 64), diag.NewSink("t.Mod"))
	x := Const(symtab.IntType, 3)
	y := Const(symtab.IntType, 4)
	g.AddOp(true, &x, &y)
	if x.Mode != ModeImmediate || x.A != 7 {
		t.Fatalf("got mode=%v A=%d, want folded immediate 7", x.Mode, x.A)
	}
}

func TestNegFoldsImmediateConstant(t *testing.T) {
	g := NewGen(make([]int32, 64), diag.NewSink("t.Mod"))
	x := Const(symtab.IntType, 5)
	g.Neg(&x)
	if x.Mode != ModeImmediate || x.A != -5 {
		t.Fatalf("got mode=%v A=%d, want folded immediate -5", x.Mode, x.A)
	}
}

func TestConstBoolProducesDegenerateCondItem(t *testing.T) {
	tItem := ConstBool(true)
	fItem := ConstBool(false)
	if tItem.Mode != ModeCond || fItem.Mode != ModeCond {
		t.Fatal("ConstBool should produce ModeCond items")
	}
	if tItem.R == fItem.R {
		t.Fatal("ConstBool(true) and ConstBool(false) should carry different conditions")
	}
}

func TestGlobalAllocatesDistinctOffsets(t *testing.T) {
	g := NewGen(make([]int32, 64), diag.NewSink("t.Mod"))
	g.Open()
	a := g.Global(4)
	b := g.Global(4)
	if a == b {
		t.Fatalf("Global() returned the same offset twice: %d", a)
	}
}

func TestInternStringAppendsWithoutDeduplication(t *testing.T) {
	g := NewGen(make([]int32, 64), diag.NewSink("t.Mod"))
	g.Open()
	a := g.InternString("hi")
	b := g.InternString("hi")
	if a == b {
		t.Fatalf("InternString should append every call, not deduplicate (got same offset %d twice)", a)
	}
	if b != a+3 {
		t.Fatalf("second offset = %d, want %d (first string's 2 bytes + NUL)", b, a+3)
	}
}
