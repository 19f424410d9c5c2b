// Package histogram tracks a live distribution of allocation layouts,
// cheaply enough to update on every alloc/free in a replayed trace.
package histogram

import "github.com/mknyszek/memalloc/layout"

// Sizes tracks a live distribution of allocation layouts: size and
// alignment together, not size alone. A bare size isn't the
// comparable this module's allocators actually deal in: every
// Alloc/Dealloc pair is keyed by a full layout.Layout[Address], and
// alignment padding is real footprint the free-list allocator has to
// account for, so a size-only histogram would silently conflate
// layouts that cost different amounts of memory.
//
// Small sizes (the common case) are counted in an array indexed by
// size, each slot holding a small map from alignment to live count.
// Larger sizes fall back to a single map keyed by the full Layout, so
// the histogram doesn't need to reserve array space for the whole
// uint64 size range up front.
type Sizes struct {
	small [32 << 10]map[uint64]uint64
	large map[layout.Layout[uint64]]uint64
}

// NewSizes returns an empty layout histogram.
func NewSizes() *Sizes {
	return &Sizes{
		large: make(map[layout.Layout[uint64]]uint64),
	}
}

// Add records one more live allocation of the given layout.
func (s *Sizes) Add(l layout.Layout[uint64]) {
	if l.Size >= 1 && l.Size <= uint64(len(s.small)) {
		m := s.small[l.Size-1]
		if m == nil {
			m = make(map[uint64]uint64)
			s.small[l.Size-1] = m
		}
		m[l.Align]++
		return
	}
	s.large[l]++
}

// Sub records that one live allocation of the given layout was freed.
//
// It panics if l has no remaining live count, which would indicate a
// bookkeeping bug in the caller (not in the histogram itself).
func (s *Sizes) Sub(l layout.Layout[uint64]) {
	if l.Size >= 1 && l.Size <= uint64(len(s.small)) {
		m := s.small[l.Size-1]
		if m == nil || m[l.Align] == 0 {
			panic("histogram: subtraction below zero")
		}
		if m[l.Align] == 1 {
			delete(m, l.Align)
		} else {
			m[l.Align]--
		}
		return
	}
	if val, ok := s.large[l]; ok {
		if val == 1 {
			delete(s.large, l)
		} else {
			s.large[l] = val - 1
		}
	} else {
		panic("histogram: subtraction below zero")
	}
}

// ForEach calls f once for every layout with a nonzero live count, in
// no particular order.
func (s *Sizes) ForEach(f func(l layout.Layout[uint64], count uint64)) {
	for i, m := range s.small {
		if m == nil {
			continue
		}
		size := uint64(i + 1)
		for align, count := range m {
			if count != 0 {
				f(layout.Layout[uint64]{Size: size, Align: align}, count)
			}
		}
	}
	for l, count := range s.large {
		if count != 0 {
			f(l, count)
		}
	}
}
