// Package membackend defines the memory-backend abstraction: typed
// byte-granular reads and writes at an address. It is the narrow unsafe
// boundary that every allocator in this module goes through instead of
// dereferencing addresses directly.
package membackend

import (
	"unsafe"

	"github.com/mknyszek/memalloc/addr"
)

// Backend performs byte-granular reads and writes at addresses of type
// A. It does no bounds checking of its own; callers (the allocators in
// this module) are responsible for staying inside whatever region the
// backend is willing to serve.
type Backend[A addr.Address] interface {
	// ReadAt copies len(buf) bytes starting at a into buf.
	ReadAt(a A, buf []byte)

	// WriteAt copies buf into len(buf) bytes starting at a.
	WriteAt(a A, buf []byte)
}

// Read produces a copy of the T stored at a in native layout. Go's
// generics don't allow a type parameter on a method distinct from the
// receiver's, so Read and Write are free functions over Backend rather
// than Backend methods.
func Read[T any, A addr.Address](b Backend[A], a A) T {
	var v T
	b.ReadAt(a, asBytes(&v))
	return v
}

// Write places value at a, byte for byte, in native layout.
func Write[T any, A addr.Address](b Backend[A], a A, value T) {
	b.WriteAt(a, asBytes(&value))
}

// asBytes views *v as a byte slice of its own size, without copying.
func asBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
