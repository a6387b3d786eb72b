// Package vm implements the babyvm managed-memory runtime.
//
// This package contains:
//   - Tagged Scalar/Pair heap objects with an intrusive ownership list
//   - A fixed-capacity root stack (the program's visible variables)
//   - A tracing mark-and-sweep collector with threshold-based triggering
//   - Heap image snapshot reading and writing
package vm
