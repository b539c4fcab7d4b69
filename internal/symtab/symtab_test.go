package symtab

import (
	"testing"

	"oberon/internal/arena"
)

func newTable(t *testing.T) (*Table, *[]string) {
	t.Helper()
	msgs := &[]string{}
	tab := New(arena.NewStack(), func(msg string) { *msgs = append(*msgs, msg) })
	return tab, msgs
}

func TestUniverseHasPredeclaredNames(t *testing.T) {
	tab, _ := newTable(t)
	for _, name := range []string{"INTEGER", "BOOLEAN", "CHAR", "SET", "ABS", "ODD", "LEN", "Write", "WriteLn"} {
		if tab.This(name) == nil {
			t.Errorf("universe missing predeclared identifier %s", name)
		}
	}
	if tab.System == nil || tab.System.Name != "SYSTEM" {
		t.Fatal("System pseudo-module not initialized")
	}
}

func TestOpenCloseScopeShadowing(t *testing.T) {
	tab, _ := newTable(t)
	tab.OpenScope()
	obj := tab.New("x", ClassVar)
	if tab.This("x") != obj {
		t.Fatal("This(x) should find the object just declared")
	}
	tab.OpenScope()
	inner := tab.New("x", ClassVar)
	if tab.This("x") != inner {
		t.Fatal("inner scope should shadow outer declaration of the same name")
	}
	tab.CloseScope()
	if tab.This("x") != obj {
		t.Fatal("closing inner scope should reveal the outer declaration again")
	}
	tab.CloseScope()
	if tab.This("x") != nil {
		t.Fatal("x should be out of scope entirely after closing the outer scope")
	}
}

func TestNewReportsMultipleDefinition(t *testing.T) {
	tab, msgs := newTable(t)
	tab.OpenScope()
	first := tab.New("x", ClassVar)
	second := tab.New("x", ClassVar)
	if second != first {
		t.Fatal("redeclaring a name in the same scope should return the existing object")
	}
	if len(*msgs) != 1 {
		t.Fatalf("expected one mult-def diagnostic, got %d", len(*msgs))
	}
}

func TestThisFieldLooksUpRecordFields(t *testing.T) {
	f := &Object{Name: "x", Class: ClassField}
	rec := &Type{Form: FormRecord, Fields: []*Object{f}}
	tab, _ := newTable(t)
	if tab.ThisField(rec, "x") != f {
		t.Fatal("ThisField should find the declared field")
	}
	if tab.ThisField(rec, "y") != nil {
		t.Fatal("ThisField should return nil for an undeclared field")
	}
	if tab.ThisField(IntType, "x") != nil {
		t.Fatal("ThisField on a non-record type should return nil")
	}
}

func TestThisImportOnlyReachesExportedModules(t *testing.T) {
	tab, _ := newTable(t)
	exported := tab.ThisImport(tab.System, "BIT")
	if exported == nil {
		t.Fatal("SYSTEM.BIT should be reachable via ThisImport")
	}
	notAModule := &Object{Class: ClassVar}
	if tab.ThisImport(notAModule, "BIT") != nil {
		t.Fatal("ThisImport on a non-module object should return nil")
	}
}

func TestCloseScopeOfEmptyStackPanics(t *testing.T) {
	tab, _ := newTable(t)
	for tab.Top != nil {
		tab.CloseScope()
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected CloseScope on an empty stack to panic")
		}
	}()
	tab.CloseScope()
}
