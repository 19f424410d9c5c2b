// Package memalloc ties the allocator packages in this module (addr,
// layout, membackend, region, heapbackend, bump, freelist, allocator)
// to a recorded allocation trace format, so that cmd/memalloc-replay
// can drive a real allocator from a log of alloc/free calls instead of
// only from unit tests.
package memalloc

// EventKind indicates what kind of allocation-trace event is captured
// and returned.
type EventKind uint8

const (
	EventBad   EventKind = iota
	EventAlloc           // Allocation.
	EventFree            // Free.
)

// Event represents a single allocation-trace event.
type Event struct {
	// Address is the address for the allocation or free.
	Address uint64

	// Size indicates the size of the allocation.
	// Only valid when Kind == EventAlloc.
	Size uint64

	// Kind indicates what kind of event this is.
	// This may be assumed to always be valid.
	Kind EventKind
}
