package verify

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/classgraph"
)

// ErrConflictingFrames is returned when two control flow paths reach the
// same label with incompatible verification frames that cannot be
// unified (e.g. a primitive on one path where a reference sits on
// another, or mismatched local variable counts).
type ErrConflictingFrames struct {
	Reason string
}

func (e ErrConflictingFrames) Error() string {
	return fmt.Sprintf("conflicting stack map frames: %s", e.Reason)
}

// Frame is the verification-time state of a method's locals and operand
// stack at one point in its body. It is the Go analogue of "the type and
// order of locals/stack are the same no matter which control flow path got
// you here" — exactly the invariant a StackMapTable exists to let the JVM
// check cheaply instead of re-deriving it by abstract interpretation.
type Frame struct {
	Locals []Type
	Stack  []Type
}

// NewFrame starts a frame with the given locals and an empty stack —
// the frame at a method's entry point.
func NewFrame(locals []Type) Frame {
	return Frame{Locals: append([]Type(nil), locals...)}
}

// Clone deep-copies the frame so pushes/pops on the copy never affect the
// original — needed because the same frame is often the starting point for
// more than one successor block.
func (f Frame) Clone() Frame {
	return Frame{
		Locals: append([]Type(nil), f.Locals...),
		Stack:  append([]Type(nil), f.Stack...),
	}
}

// Push appends a type to the top of the operand stack.
func (f *Frame) Push(t Type) {
	f.Stack = append(f.Stack, t)
}

// Pop removes and returns the top of the operand stack.
func (f *Frame) Pop() (Type, bool) {
	if len(f.Stack) == 0 {
		return Type{}, false
	}
	t := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return t, true
}

// StackWidth sums Width() over every entry on the stack — the value a
// FullFrame's stack_map_frame_stack_size field needs.
func (f Frame) StackWidth() int {
	w := 0
	for _, t := range f.Stack {
		w += t.Width()
	}
	return w
}

// Unify checks that a frame previously recorded at a label (prev) agrees
// with a frame arriving along a new path (next), returning the joined
// frame. WASM's own validation already guarantees every branch to a given
// label carries the same value types, so in practice this mostly confirms
// equality; the join exists to widen related object types (e.g. two
// distinct exception subclasses) up to their nearest common supertype
// instead of rejecting them outright.
func Unify(prev, next Frame) (Frame, error) {
	if len(prev.Locals) != len(next.Locals) {
		return Frame{}, ErrConflictingFrames{Reason: fmt.Sprintf("local count mismatch: %d vs %d", len(prev.Locals), len(next.Locals))}
	}
	if len(prev.Stack) != len(next.Stack) {
		return Frame{}, ErrConflictingFrames{Reason: fmt.Sprintf("stack depth mismatch: %d vs %d", len(prev.Stack), len(next.Stack))}
	}
	joined := Frame{
		Locals: make([]Type, len(prev.Locals)),
		Stack:  make([]Type, len(prev.Stack)),
	}
	for i := range prev.Locals {
		t, err := join(prev.Locals[i], next.Locals[i])
		if err != nil {
			return Frame{}, fmt.Errorf("local %d: %w", i, err)
		}
		joined.Locals[i] = t
	}
	for i := range prev.Stack {
		t, err := join(prev.Stack[i], next.Stack[i])
		if err != nil {
			return Frame{}, fmt.Errorf("stack slot %d: %w", i, err)
		}
		joined.Stack[i] = t
	}
	return joined, nil
}

// join finds the most specific type assignable from both a and b, widening
// object types to a common ancestor via the class graph. Primitive kind
// mismatches are a hard error: WASM validation never lets that happen, so
// seeing one here means a translator bug produced an ill-typed frame.
func join(a, b Type) (Type, error) {
	if a.Equal(b) {
		return a, nil
	}
	switch {
	case a.kind == KindNull && b.IsReference():
		return b, nil
	case b.kind == KindNull && a.IsReference():
		return a, nil
	case a.kind == KindObject && b.kind == KindObject:
		return Object(commonSuperclass(a.class, b.class)), nil
	case a.kind == KindArray && b.kind == KindArray:
		elem, err := join(*a.arrayElem, *b.arrayElem)
		if err != nil {
			return Type{}, err
		}
		return Array(elem), nil
	default:
		return Type{}, ErrConflictingFrames{Reason: fmt.Sprintf("%v is incompatible with %v", a, b)}
	}
}

// commonSuperclass finds the nearest class both a and b are assignable to
// by walking a's ancestor chain (superclass only — WASM code never
// generates values whose only common type is a shared interface) and
// returning the first ancestor b is also assignable to. In a graph where
// both chains reach java/lang/Object that ancestor always exists; if none
// qualifies (a superclass chain missing from the graph), a itself is
// returned.
func commonSuperclass(a, b *classgraph.ClassData) *classgraph.ClassData {
	for c := a; c != nil; c = c.Superclass {
		if classgraph.IsAssignable(b, c) {
			return c
		}
	}
	return a
}
