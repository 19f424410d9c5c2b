package freelist

import "github.com/mknyszek/memalloc/addr"

// freeNode is the in-band record stored at the first aligned address of
// each free extent. The free list is a singly linked list of these,
// headed by Allocator.free and kept sorted by ascending address.
type freeNode[A addr.Address] struct {
	// max is the last address belonging to this extent, inclusive.
	max A

	// next is the address of the next free node, or invalid() if
	// this is the last node in the list.
	next A
}
