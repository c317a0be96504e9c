package history

import (
	"errors"
	"testing"
)

func TestStackLIFO(t *testing.T) {
	s := NewStack[int](10)
	for i := 1; i <= 3; i++ {
		s.Push(i)
	}
	for want := 3; want >= 1; want-- {
		got, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got != want {
			t.Errorf("Pop = %d, want %d", got, want)
		}
	}
	if _, err := s.Pop(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Pop on empty = %v, want ErrNothingToUndo", err)
	}
}

func TestStackDropsOldest(t *testing.T) {
	s := NewStack[int](50)
	for i := 0; i < 60; i++ {
		s.Push(i)
	}
	if s.Len() != 50 {
		t.Fatalf("Len = %d, want 50", s.Len())
	}
	var last int
	for s.Len() > 0 {
		last, _ = s.Pop()
	}
	if last != 10 {
		t.Errorf("oldest kept = %d, want 10", last)
	}
}

func TestStackDefaultLimit(t *testing.T) {
	if got := NewStack[string](0).Limit(); got != DefaultLimit {
		t.Errorf("Limit = %d, want %d", got, DefaultLimit)
	}
}

func TestStackClear(t *testing.T) {
	s := NewStack[int](5)
	s.Push(1)
	s.Push(2)
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d", s.Len())
	}
}
