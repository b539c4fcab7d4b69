package arena

import "testing"

func TestPushPopTracksDepth(t *testing.T) {
	s := NewStack()
	if s.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", s.Depth())
	}
	s.Push()
	s.Push()
	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", s.Depth())
	}
}

func TestAllocRetainsValuesUntilPop(t *testing.T) {
	s := NewStack()
	a := s.Push()
	a.Alloc("x")
	a.Alloc("y")
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	if s.Top() != a {
		t.Fatal("Top() did not return the pushed arena")
	}
	s.Pop()
	if s.Top() != nil {
		t.Fatal("Top() after popping the only arena should be nil")
	}
}

func TestPopOfEmptyStackPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Pop of an empty stack to panic")
		}
	}()
	NewStack().Pop()
}
