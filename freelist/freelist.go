// Package freelist implements the free-list allocator: a heap allocator
// that manages a bounded contiguous range of addresses by maintaining
// an in-band singly-linked list of free extents, satisfies aligned
// size-bearing allocation requests by first fit with splitting, writes
// a trailer after each live allocation so dealloc can reconstruct the
// exact extent, and coalesces adjacent free extents on release.
//
// The free list's bookkeeping lives inside the very region it manages:
// every freeNode and trailer is read and written through the supplied
// membackend.Backend rather than held in normal Go memory, which is
// what lets one Allocator manage an address space that is not the Go
// heap at all (see the region and heapbackend packages).
package freelist

import (
	"github.com/mknyszek/memalloc/addr"
	"github.com/mknyszek/memalloc/allocator"
	"github.com/mknyszek/memalloc/layout"
	"github.com/mknyszek/memalloc/membackend"
)

// Allocator is the free-list allocator described in the package doc.
// Its zero value is not usable; construct one with New.
type Allocator[A addr.Address] struct {
	backend membackend.Backend[A]
	start   A
	max     A

	// free is the address of the head free node, or invalid() if
	// the region is fully allocated.
	free A
}

var _ allocator.Allocator[uint32] = (*Allocator[uint32])(nil)

// New constructs a free-list allocator over the inclusive address
// range [start, max] of backend. It writes a single free node spanning
// the whole range and panics if the range is too small to ever hold
// one, since that is a construction-time contract violation rather
// than a recoverable condition.
func New[A addr.Address](backend membackend.Backend[A], start, max A) *Allocator[A] {
	nodeLayout := layout.Of[freeNode[A], A]()
	if start+nodeLayout.Size >= max {
		panic("freelist: region too small to hold a free node")
	}
	a := &Allocator[A]{backend: backend, start: start, max: max, free: start}
	membackend.Write(backend, start, freeNode[A]{max: max, next: a.invalid()})
	return a
}

// invalid returns the sentinel INVALID address for this allocator:
// one past the end of its managed region.
func (a *Allocator[A]) invalid() A {
	return a.max + 1
}

// isInvalid reports whether x falls outside [a.start, a.max], i.e.
// whether x denotes "no such node".
func (a *Allocator[A]) isInvalid(x A) bool {
	return x < a.start || x > a.max
}

// setNext rewires the list so that the node at prev (or the head, if
// prev is invalid) points at next.
func (a *Allocator[A]) setNext(prev, next A) {
	if a.isInvalid(prev) {
		a.free = next
		return
	}
	node := membackend.Read[freeNode[A]](a.backend, prev)
	node.next = next
	membackend.Write(a.backend, prev, node)
}

// minFreeSpan is the minimum number of bytes a residual extent must
// have to be worth keeping as its own free node, rather than being
// absorbed into the live allocation that precedes it: the conservative
// worst case for hosting either a freeNode or a trailer once alignment
// padding is taken into account.
func minFreeSpan[A addr.Address]() A {
	nodeLayout := layout.Of[freeNode[A], A]()
	trailerLayout := layout.Of[trailer[A], A]()
	return addr.Max(
		nodeLayout.Size+nodeLayout.Align-1,
		trailerLayout.Size+trailerLayout.Align-1,
	)
}

// Alloc implements the Allocator contract using first-fit with
// splitting, as described in the package doc.
func (a *Allocator[A]) Alloc(l layout.Layout[A]) (A, error) {
	if l.Size == 0 {
		return 0, allocator.ErrExhausted
	}
	if !addr.IsPowerOfTwo(l.Align) {
		panic("freelist: alignment must be a power of two")
	}

	trailerLayout := layout.Of[trailer[A], A]()
	nodeLayout := layout.Of[freeNode[A], A]()
	m := minFreeSpan[A]()

	prev := a.invalid()
	target := a.free
	for !a.isInvalid(target) {
		node := membackend.Read[freeNode[A]](a.backend, target)
		if target == node.next {
			panic("freelist: corrupted free list: node points at itself")
		}

		blockStart := target
		blockEndExclusive := node.max + 1
		dataStart := l.AlignUp(blockStart)
		trailerStart := trailerLayout.AlignUp(dataStart + l.Size)
		tailStart := nodeLayout.AlignUp(trailerStart + trailerLayout.Size)

		if tailStart <= blockEndExclusive {
			var liveEnd A
			if tailStart+m <= blockEndExclusive {
				// Split: shrink the extent down to a new free
				// node starting right after the trailer.
				membackend.Write(a.backend, tailStart, freeNode[A]{max: node.max, next: node.next})
				a.setNext(prev, tailStart)
				liveEnd = tailStart - 1
			} else {
				// Consume: the residue is too small to host
				// another free node, so fold it into the live
				// allocation instead of leaking it.
				a.setNext(prev, node.next)
				liveEnd = blockEndExclusive - 1
			}
			membackend.Write(a.backend, trailerStart, trailer[A]{start: blockStart, end: liveEnd})
			return dataStart, nil
		}

		prev = target
		target = node.next
	}
	return 0, allocator.ErrExhausted
}

// Dealloc releases the extent previously returned by Alloc(layout) as
// dataStart, reconstructing it from the trailer written at alloc time
// and coalescing it with any adjacent free extents.
//
// dataStart and layout must match a prior Alloc call; violations are
// contract violations and panic rather than returning an error, per
// the module's error-handling model (exhaustion is recoverable,
// corruption is not).
func (a *Allocator[A]) Dealloc(dataStart A, l layout.Layout[A]) {
	if l.Size == 0 {
		panic("freelist: dealloc with zero-size layout")
	}
	if a.isInvalid(dataStart) {
		panic("freelist: dealloc address outside managed region")
	}
	if dataStart+l.Size > a.max+1 {
		panic("freelist: dealloc extent runs past managed region")
	}

	trailerLayout := layout.Of[trailer[A], A]()
	trailerStart := trailerLayout.AlignUp(dataStart + l.Size)
	tr := membackend.Read[trailer[A]](a.backend, trailerStart)

	if tr.start > dataStart || tr.end < dataStart+l.Size-1 || tr.start < a.start || tr.end > a.max {
		panic("freelist: dealloc found a corrupted or mismatched trailer")
	}

	var (
		preceding                  = a.invalid()
		succeeding, succeedingPrev = a.invalid(), a.invalid()
		insertPrev, insertNext     = a.invalid(), a.invalid()
		foundInsertPoint           bool
	)

	prev := a.invalid()
	cur := a.free
	var lastMax A
	haveLast := false
	for !a.isInvalid(cur) {
		node := membackend.Read[freeNode[A]](a.backend, cur)
		if cur == node.next {
			panic("freelist: corrupted free list: node points at itself")
		}
		if haveLast && node.max <= lastMax {
			panic("freelist: corrupted free list: nodes out of order")
		}

		if node.max+1 == tr.start {
			preceding = cur
		}
		if cur == tr.end+1 {
			succeeding, succeedingPrev = cur, prev
		}
		if !foundInsertPoint && cur > tr.start {
			insertPrev, insertNext = prev, cur
			foundInsertPoint = true
		}

		lastMax = node.max
		haveLast = true
		prev = cur
		cur = node.next
	}
	if !foundInsertPoint {
		insertPrev, insertNext = prev, a.invalid()
	}

	switch {
	case !a.isInvalid(preceding) && !a.isInvalid(succeeding):
		// Both neighbours present: absorb succeeding into
		// preceding and unlink succeeding.
		pNode := membackend.Read[freeNode[A]](a.backend, preceding)
		sNode := membackend.Read[freeNode[A]](a.backend, succeeding)
		pNode.max = sNode.max
		pNode.next = sNode.next
		membackend.Write(a.backend, preceding, pNode)
	case !a.isInvalid(succeeding):
		// Only succeeding: the merged node has to start at
		// tr.start, which is a different address than succeeding,
		// so replace succeeding with a new node there.
		sNode := membackend.Read[freeNode[A]](a.backend, succeeding)
		membackend.Write(a.backend, tr.start, freeNode[A]{max: sNode.max, next: sNode.next})
		a.setNext(succeedingPrev, tr.start)
	case !a.isInvalid(preceding):
		// Only preceding: extend it to cover the freed extent.
		pNode := membackend.Read[freeNode[A]](a.backend, preceding)
		pNode.max = tr.end
		membackend.Write(a.backend, preceding, pNode)
	default:
		// Neither: splice a fresh node in at its sorted position
		// so invariant #2 (strictly ascending free list) holds.
		membackend.Write(a.backend, tr.start, freeNode[A]{max: tr.end, next: insertNext})
		a.setNext(insertPrev, tr.start)
	}
}
