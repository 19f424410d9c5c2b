// Package region implements membackend.Backend over a plain contiguous
// byte buffer, indexed by offset from the start of the buffer. It exists
// to give the allocators in this module a cheap, host-independent
// memory backend for tests and simulation, standing in for the foreign
// address space (embedded RAM, a memory-mapped file, a VM) the
// allocators are designed to manage.
package region

import "github.com/mknyszek/memalloc/addr"

// Backend is a membackend.Backend[A] over a buffer allocated on the Go
// heap but addressed as if it were its own independent address space
// starting at 0.
type Backend[A addr.Address] struct {
	mem []byte
}

// New allocates a fresh zeroed region of size bytes.
func New[A addr.Address](size int) *Backend[A] {
	return &Backend[A]{mem: make([]byte, size)}
}

// Len returns the size of the region in bytes.
func (b *Backend[A]) Len() int {
	return len(b.mem)
}

// ReadAt implements membackend.Backend.
//
// Out-of-range accesses panic via the ordinary Go slice bounds check;
// the backend does not add its own, matching the memory-backend
// contract (no bounds-checking obligation, the allocator stays inside
// its managed region).
func (b *Backend[A]) ReadAt(a A, buf []byte) {
	off := int(a)
	copy(buf, b.mem[off:off+len(buf)])
}

// WriteAt implements membackend.Backend.
func (b *Backend[A]) WriteAt(a A, buf []byte) {
	off := int(a)
	copy(b.mem[off:off+len(buf)], buf)
}
