package vm

import (
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindScalar, "Scalar"},
		{KindPair, "Pair"},
		{Kind(9), "Kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestObjectString(t *testing.T) {
	vm := NewVM(8)
	s, _ := vm.MakeScalar(42)
	if got := s.String(); got != "42" {
		t.Errorf("scalar String() = %q, want %q", got, "42")
	}

	vm.MakeScalar(1)
	vm.MakeScalar(2)
	pair, _ := vm.MakePair()
	if got := pair.String(); got != "(1 . 2)" {
		t.Errorf("pair String() = %q, want %q", got, "(1 . 2)")
	}
}

// Printing a cyclic pair must terminate.
func TestObjectStringCycle(t *testing.T) {
	vm := NewVM(8)
	self := vm.Allocate(KindPair)
	self.Head = self
	self.Tail = self

	if got := self.String(); got != "((...) . (...))" {
		t.Errorf("cyclic pair String() = %q, want %q", got, "((...) . (...))")
	}
}

func TestNilObjectString(t *testing.T) {
	var o *Object
	if got := o.String(); got != "nil" {
		t.Errorf("nil String() = %q, want %q", got, "nil")
	}
}

func TestKindPredicates(t *testing.T) {
	vm := NewVM(8)
	s := vm.Allocate(KindScalar)
	p := vm.Allocate(KindPair)

	if !s.IsScalar() || s.IsPair() {
		t.Error("scalar predicates wrong")
	}
	if !p.IsPair() || p.IsScalar() {
		t.Error("pair predicates wrong")
	}
	if s.Kind() != KindScalar || p.Kind() != KindPair {
		t.Error("Kind() tags wrong")
	}
}
