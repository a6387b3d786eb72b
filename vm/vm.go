package vm

import (
	"errors"
)

// ---------------------------------------------------------------------------
// VM: heap owner, root stack, allocator
// ---------------------------------------------------------------------------

// DefaultRootCapacity is the root stack capacity used when NewVM is given
// a non-positive capacity.
const DefaultRootCapacity = 256

// DefaultInitialThreshold is the live-object count at which a fresh VM's
// next allocation triggers its first collection.
const DefaultInitialThreshold = 8

// Sentinel errors for root stack misuse. Both are caller errors: the
// operation aborts without mutating any VM state.
var (
	ErrStackOverflow  = errors.New("root stack overflow")
	ErrStackUnderflow = errors.New("root stack underflow")
)

// VM is a single managed-memory arena: it exclusively owns every object it
// has allocated, tracks the visible roots, and decides when to collect.
//
// A VM is strictly single-threaded. No operation suspends or runs
// concurrently with another, and nothing outside the VM may mutate its
// state. Callers that need concurrent access must serialize all operations
// through one owner; the VM itself takes no locks. Separate VM instances
// are independent arenas and never share objects or roots.
type VM struct {
	// roots is the program's visible variable stack. Push/pop only at
	// the tail; the backing array never grows past its fixed capacity.
	roots []*Object

	// firstObject heads the intrusive list of every allocated object.
	firstObject *Object

	liveCount int
	threshold int

	// Collection bookkeeping, maintained by Collect.
	collections int
	lastStats   *CollectionStats
}

// NewVM creates a VM with the given root stack capacity. A non-positive
// capacity falls back to DefaultRootCapacity. The initial collection
// threshold is DefaultInitialThreshold; use SetThreshold to tune it.
func NewVM(rootCapacity int) *VM {
	if rootCapacity <= 0 {
		rootCapacity = DefaultRootCapacity
	}
	return &VM{
		roots:     make([]*Object, 0, rootCapacity),
		threshold: DefaultInitialThreshold,
	}
}

// ---------------------------------------------------------------------------
// Root stack
// ---------------------------------------------------------------------------

// Push appends obj to the root stack. It fails with ErrStackOverflow if
// the stack is at capacity, leaving all VM state untouched.
func (vm *VM) Push(obj *Object) error {
	if len(vm.roots) == cap(vm.roots) {
		return ErrStackOverflow
	}
	vm.roots = append(vm.roots, obj)
	return nil
}

// Pop removes and returns the most recently pushed root. It fails with
// ErrStackUnderflow if the stack is empty, leaving all VM state untouched.
//
// Popping a root does not free the object; it only makes the object
// eligible for the next collection unless it is reachable some other way.
func (vm *VM) Pop() (*Object, error) {
	if len(vm.roots) == 0 {
		return nil, ErrStackUnderflow
	}
	obj := vm.roots[len(vm.roots)-1]
	vm.roots[len(vm.roots)-1] = nil
	vm.roots = vm.roots[:len(vm.roots)-1]
	return obj, nil
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// Allocate creates a new object of the given kind and links it into the
// ownership list. If the live-object count has reached the collection
// threshold, a full collection runs first.
//
// The trigger is an exact-equality check against the threshold, not a
// greater-or-equal comparison. The public API only ever moves the live
// count by one, so the check cannot be stepped over.
//
// The new object is NOT pushed onto the root stack. A caller that wants
// it to survive a collection triggered by a subsequent allocation must
// push it first.
func (vm *VM) Allocate(kind Kind) *Object {
	if vm.liveCount == vm.threshold {
		vm.Collect()
	}

	obj := &Object{kind: kind}
	obj.next = vm.firstObject
	vm.firstObject = obj
	vm.liveCount++
	return obj
}

// MakeScalar allocates a Scalar holding value and pushes it onto the root
// stack. It fails with ErrStackOverflow if the root stack is full; the
// failure is detected before the allocation, so no state changes.
func (vm *VM) MakeScalar(value int) (*Object, error) {
	if len(vm.roots) == cap(vm.roots) {
		return nil, ErrStackOverflow
	}

	obj := vm.Allocate(KindScalar)
	obj.Value = value
	if err := vm.Push(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// MakePair pops two roots and allocates a Pair from them: the tail is
// popped first, then the head. The new pair is pushed onto the root
// stack. It fails with ErrStackUnderflow if fewer than two roots are
// present; the failure is detected before any pop, so no state changes.
func (vm *VM) MakePair() (*Object, error) {
	if len(vm.roots) < 2 {
		return nil, ErrStackUnderflow
	}

	obj := vm.Allocate(KindPair)
	obj.Tail, _ = vm.Pop()
	obj.Head, _ = vm.Pop()

	if err := vm.Push(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// LiveCount returns the number of currently allocated objects.
func (vm *VM) LiveCount() int {
	return vm.liveCount
}

// Threshold returns the live-object count at which the next allocation
// will trigger a collection.
func (vm *VM) Threshold() int {
	return vm.threshold
}

// SetThreshold sets the collection threshold. Collect overwrites it with
// twice the post-sweep live count, so a manual setting only governs the
// trigger until the next collection.
func (vm *VM) SetThreshold(n int) {
	vm.threshold = n
}

// StackDepth returns the number of entries on the root stack.
func (vm *VM) StackDepth() int {
	return len(vm.roots)
}

// RootCapacity returns the fixed capacity of the root stack.
func (vm *VM) RootCapacity() int {
	return cap(vm.roots)
}

// Root returns the root at index i (0 is the oldest entry). It returns
// nil if i is out of range. Read-only; roots are only ever mutated
// through Push and Pop.
func (vm *VM) Root(i int) *Object {
	if i < 0 || i >= len(vm.roots) {
		return nil
	}
	return vm.roots[i]
}

// CollectionCount returns the total number of collections performed.
func (vm *VM) CollectionCount() int {
	return vm.collections
}

// LastStats returns statistics from the most recent collection, or nil
// if none has run yet.
func (vm *VM) LastStats() *CollectionStats {
	return vm.lastStats
}

// eachObject calls fn for every object in the ownership list, in list
// order (most recently allocated first). Used by the image writer and
// by tests to check reachability properties.
func (vm *VM) eachObject(fn func(*Object)) {
	for obj := vm.firstObject; obj != nil; obj = obj.next {
		fn(obj)
	}
}
