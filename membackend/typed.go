package membackend

import "github.com/mknyszek/memalloc/addr"

// Typed pairs an address with a phantom record type, so that callers
// can carry around "the address of a FreeNode" rather than a bare
// address and a convention. It carries no runtime state beyond the
// address itself, so two Typed values are equal exactly when their
// addresses are. Typed itself has no ordering operators.
type Typed[A addr.Address, T any] struct {
	addr A
}

// NewTyped wraps a as the address of a T.
func NewTyped[T any, A addr.Address](a A) Typed[A, T] {
	return Typed[A, T]{addr: a}
}

// Address returns the underlying address.
func (t Typed[A, T]) Address() A {
	return t.addr
}

// Read reads the T stored at t's address through b.
func (t Typed[A, T]) Read(b Backend[A]) T {
	return Read[T](b, t.addr)
}

// Write stores value at t's address through b.
func (t Typed[A, T]) Write(b Backend[A], value T) {
	Write(b, t.addr, value)
}
