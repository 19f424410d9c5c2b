// Package allocator defines the contract shared by every allocator in
// this module: bump and freelist both implement Allocator[A].
package allocator

import (
	"errors"

	"github.com/mknyszek/memalloc/addr"
	"github.com/mknyszek/memalloc/layout"
)

// ErrExhausted is returned by Alloc when no extent in the managed
// region satisfies the requested layout, or when the layout's size is
// zero. It is a recoverable failure: on ErrExhausted, the allocator's
// state is left exactly as it was.
var ErrExhausted = errors.New("allocator: exhausted")

// Allocator is implemented by every allocator in this module.
//
// Alloc returns an address a such that [a, a+layout.Size) is reserved
// and a is a multiple of layout.Align, or ErrExhausted if no such
// extent exists.
//
// Dealloc releases an extent previously returned by Alloc. a and
// layout must match a prior Alloc call exactly; violating that is a
// contract violation, not a recoverable error, and implementations are
// free to panic rather than return an error.
type Allocator[A addr.Address] interface {
	Alloc(layout.Layout[A]) (A, error)
	Dealloc(A, layout.Layout[A])
}
