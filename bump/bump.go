// Package bump implements the trivial monotonically-increasing
// allocator: the minimal allocator conforming to the Allocator
// contract, included to illustrate it. It never reclaims memory.
package bump

import (
	"github.com/mknyszek/memalloc/addr"
	"github.com/mknyszek/memalloc/allocator"
	"github.com/mknyszek/memalloc/layout"
)

// Allocator hands out addresses from [current, max] in increasing
// order. It has no backing store of its own: it only manages the
// address range, leaving any actual storage to the caller.
type Allocator[A addr.Address] struct {
	current A
	max     A
}

var _ allocator.Allocator[uint32] = (*Allocator[uint32])(nil)

// New returns a bump allocator over the inclusive range [current, max].
func New[A addr.Address](current, max A) *Allocator[A] {
	return &Allocator[A]{current: current, max: max}
}

// Alloc returns current rounded up to layout.Align and advances current
// to just past the returned extent, or returns allocator.ErrExhausted if
// layout.Size is zero or the extent's end would exceed max.
func (b *Allocator[A]) Alloc(l layout.Layout[A]) (A, error) {
	if l.Size == 0 {
		return 0, allocator.ErrExhausted
	}
	a := addr.AlignUp(b.current, l.Align)
	next := a + l.Size
	if a < b.current || next > b.max || next < a {
		return 0, allocator.ErrExhausted
	}
	b.current = next
	return a, nil
}

// Dealloc always panics: a bump allocator can never release memory.
func (b *Allocator[A]) Dealloc(A, layout.Layout[A]) {
	panic("bump: dealloc is not supported")
}
