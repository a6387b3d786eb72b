package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Object: tagged heap values
// ---------------------------------------------------------------------------

// Kind discriminates the two representable value shapes.
type Kind uint8

const (
	// KindScalar is a plain integer value.
	KindScalar Kind = iota
	// KindPair holds two references into the same heap.
	KindPair
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindPair:
		return "Pair"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Object is a heap-allocated babyvm value.
//
// Every object carries two pieces of collector bookkeeping: a mark bit,
// meaningful only during a collection cycle, and an intrusive next link
// placing it in the VM's ownership list. The VM exclusively owns every
// object through that list; the root stack holds non-owning references.
//
// For a Pair, Head and Tail are non-owning references into the same heap.
// They may reference any live object, including the pair itself; cycles
// are legal and the collector handles them.
type Object struct {
	kind   Kind
	marked bool

	// next links this object into the VM's ownership list.
	next *Object

	// Scalar payload. Valid only when kind == KindScalar.
	Value int

	// Pair payload. Valid only when kind == KindPair.
	Head *Object
	Tail *Object
}

// Kind returns the object's variant tag.
func (o *Object) Kind() Kind {
	return o.kind
}

// IsScalar reports whether o is a Scalar.
func (o *Object) IsScalar() bool {
	return o.kind == KindScalar
}

// IsPair reports whether o is a Pair.
func (o *Object) IsPair() bool {
	return o.kind == KindPair
}

// String renders the object for diagnostics. Pair contents are rendered
// one level deep; nested pairs and back-references print as "...", which
// keeps printing terminating on cyclic structures.
func (o *Object) String() string {
	if o == nil {
		return "nil"
	}
	switch o.kind {
	case KindScalar:
		return fmt.Sprintf("%d", o.Value)
	case KindPair:
		var b strings.Builder
		b.WriteByte('(')
		b.WriteString(shallowString(o.Head))
		b.WriteString(" . ")
		b.WriteString(shallowString(o.Tail))
		b.WriteByte(')')
		return b.String()
	default:
		return fmt.Sprintf("<%s>", o.kind)
	}
}

// shallowString renders scalars fully and pairs opaquely.
func shallowString(o *Object) string {
	if o == nil {
		return "nil"
	}
	if o.kind == KindScalar {
		return fmt.Sprintf("%d", o.Value)
	}
	return "(...)"
}
