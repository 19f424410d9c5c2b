// Package layout describes the size and alignment of records that get
// carved out of a managed address range, and the alignment arithmetic
// that every allocator in this module shares.
package layout

import (
	"unsafe"

	"github.com/mknyszek/memalloc/addr"
)

// Layout is a size/alignment pair for a record of address type A.
// align is always a power of two, and a zero value of Layout is never
// valid to allocate with (Size must be > 0).
type Layout[A addr.Address] struct {
	Size  A
	Align A
}

// New builds a Layout from an explicit size and alignment. It panics if
// align is not a power of two.
func New[A addr.Address](size, align A) Layout[A] {
	if !addr.IsPowerOfTwo(align) {
		panic("layout: alignment must be a power of two")
	}
	return Layout[A]{Size: size, Align: align}
}

// Of derives the Layout for T on the host platform, expressed in the
// address type A.
func Of[T any, A addr.Address]() Layout[A] {
	var v T
	return New[A](A(unsafe.Sizeof(v)), A(unsafe.Alignof(v)))
}

// AlignUp rounds p up to the next multiple of l.Align.
func (l Layout[A]) AlignUp(p A) A {
	return addr.AlignUp(p, l.Align)
}
