package offsetseq

// Ref is an identity-by-address wrapper so a pointer can be used as a map
// key by pointer identity rather than by whatever Equal/Hash the pointee
// defines. Two classes with the same name must never be treated as the
// same class merely because their names compare equal, so callers that
// need "same node" rather than "same content" key maps on Ref[T] instead
// of on T or *T's natural comparison.
//
// Go pointers are already comparable by identity, so Ref's job beyond
// that is making the choice visible: wrapping a *T in Ref[T] at a call
// site signals the map is keyed by node identity, not value.
type Ref[T any] struct {
	ptr *T
}

// NewRef wraps a pointer for identity-keyed use.
func NewRef[T any](v *T) Ref[T] {
	return Ref[T]{ptr: v}
}

// Get returns the wrapped pointer.
func (r Ref[T]) Get() *T {
	return r.ptr
}

// Equal reports whether two refs point at the same underlying value.
func (r Ref[T]) Equal(other Ref[T]) bool {
	return r.ptr == other.ptr
}
