package scanner

import "testing"

func TestGetRecognizesKeywordsAndIdentifiers(t *testing.T) {
	s := New("t.Mod", "MODULE Foo", nil)
	if tok := s.Get(); tok.Kind != KindModule {
		t.Fatalf("Kind = %v, want KindModule", tok.Kind)
	}
	tok := s.Get()
	if tok.Kind != KindIdent || s.Id != "Foo" {
		t.Fatalf("Kind = %v Id = %q, want KindIdent/Foo", tok.Kind, s.Id)
	}
}

func TestGetScansDecimalAndHexNumbers(t *testing.T) {
	s := New("t.Mod", "42 1AH", nil)
	tok := s.Get()
	if tok.Kind != KindNumber || s.Ival != 42 {
		t.Fatalf("decimal: Kind=%v Ival=%d, want KindNumber/42", tok.Kind, s.Ival)
	}
	tok = s.Get()
	if tok.Kind != KindNumber || s.Ival != 0x1A {
		t.Fatalf("hex: Kind=%v Ival=%d, want KindNumber/26", tok.Kind, s.Ival)
	}
}

func TestGetScansStringLiteral(t *testing.T) {
	s := New("t.Mod", `"hello"`, nil)
	tok := s.Get()
	if tok.Kind != KindString || s.Str != "hello" {
		t.Fatalf("Kind=%v Str=%q, want KindString/hello", tok.Kind, s.Str)
	}
}

func TestGetSkipsNestedComments(t *testing.T) {
	s := New("t.Mod", "(* outer (* inner *) still *) BEGIN", nil)
	tok := s.Get()
	if tok.Kind != KindBegin {
		t.Fatalf("Kind = %v, want KindBegin (comment should be fully skipped)", tok.Kind)
	}
}

func TestGetTreatsBarAsCommaForCaseLabels(t *testing.T) {
	s := New("t.Mod", "1 | 2", nil)
	s.Get() // number
	tok := s.Get()
	if tok.Kind != KindComma {
		t.Fatalf("Kind = %v, want KindComma (| tolerated as case-label separator)", tok.Kind)
	}
}

func TestGetReturnsEotAtEndOfInput(t *testing.T) {
	s := New("t.Mod", "  ", nil)
	if tok := s.Get(); tok.Kind != KindEot {
		t.Fatalf("Kind = %v, want KindEot", tok.Kind)
	}
}
