package freelist

import "github.com/mknyszek/memalloc/addr"

// trailer is the in-band record written at the first trailer-aligned
// address immediately after the user region of a live allocation. It
// lets Dealloc reconstruct the allocation's full footprint, including
// any alignment padding before the user data, from nothing but the
// data address and its layout.
type trailer[A addr.Address] struct {
	// start is the first address of the allocation's total
	// footprint; it may precede the user data if padding was
	// inserted for alignment.
	start A

	// end is the last address of the allocation's total footprint,
	// inclusive.
	end A
}
