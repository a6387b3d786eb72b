package vm

import (
	"time"
)

// ---------------------------------------------------------------------------
// Mark-and-sweep collector
// ---------------------------------------------------------------------------

// CollectionStats holds statistics from a single collection cycle.
//
// The collector itself performs no logging; callers that want to report
// collection activity read these from Collect's return value or from
// VM.LastStats.
type CollectionStats struct {
	// Reached is the number of objects marked during the mark phase.
	Reached int
	// Swept is the number of objects visited by the sweep pass.
	Swept int
	// Freed is the number of unreachable objects reclaimed.
	Freed int
	// Live is the post-sweep live object count.
	Live int
	// Threshold is the recomputed trigger for the next collection.
	Threshold int

	Duration  time.Duration
	Timestamp time.Time
}

// Collect performs a full, synchronous collection: mark every object
// reachable from the root stack, sweep everything else, then recompute
// the threshold as twice the surviving object count. It may be called
// manually at any time; Allocate calls it when the live count reaches
// the threshold.
func (vm *VM) Collect() *CollectionStats {
	start := time.Now()
	stats := &CollectionStats{Timestamp: start}

	stats.Reached = vm.markAll()
	stats.Swept, stats.Freed = vm.sweep()

	vm.threshold = vm.liveCount * 2

	stats.Live = vm.liveCount
	stats.Threshold = vm.threshold
	stats.Duration = time.Since(start)

	vm.collections++
	vm.lastStats = stats
	return stats
}

// markAll marks every object reachable from the root stack and returns
// the number of objects marked. Root order is immaterial: marking is
// idempotent, so the final marked set does not depend on it.
func (vm *VM) markAll() int {
	reached := 0
	for _, root := range vm.roots {
		reached += vm.mark(root)
	}
	return reached
}

// mark flags obj and everything transitively reachable through Pair
// fields, returning the number of newly marked objects.
//
// Traversal uses an explicit worklist rather than recursion, so depth is
// bounded by heap size instead of the Go call stack. An object is marked
// before it is pushed and never pushed twice; that guarantees termination
// over arbitrarily cyclic graphs.
func (vm *VM) mark(obj *Object) int {
	if obj == nil || obj.marked {
		return 0
	}
	obj.marked = true
	reached := 1

	work := []*Object{obj}
	for len(work) > 0 {
		o := work[len(work)-1]
		work = work[:len(work)-1]

		if o.kind != KindPair {
			continue
		}
		if h := o.Head; h != nil && !h.marked {
			h.marked = true
			reached++
			work = append(work, h)
		}
		if t := o.Tail; t != nil && !t.marked {
			t.marked = true
			reached++
			work = append(work, t)
		}
	}
	return reached
}

// sweep walks the ownership list once. Unmarked objects are unlinked and
// released; marked objects are unmarked for the next cycle. It returns
// the number of objects visited and the number freed.
//
// The walk uses a pointer-to-link cursor so that unlinking during the
// pass neither skips nor revisits entries.
func (vm *VM) sweep() (swept, freed int) {
	link := &vm.firstObject
	for *link != nil {
		obj := *link
		swept++
		if !obj.marked {
			*link = obj.next
			obj.next = nil
			obj.Head = nil
			obj.Tail = nil
			freed++
			vm.liveCount--
		} else {
			obj.marked = false
			link = &obj.next
		}
	}
	return swept, freed
}
