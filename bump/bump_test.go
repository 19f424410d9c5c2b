package bump

import (
	"errors"
	"testing"

	"github.com/mknyszek/memalloc/allocator"
	"github.com/mknyszek/memalloc/layout"
)

func TestBumpExhaustion(t *testing.T) {
	b := New[uint16](0, 4)
	l := layout.New[uint16](2, 1)

	a1, err := b.Alloc(l)
	if err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	a2, err := b.Alloc(l)
	if err != nil {
		t.Fatalf("second alloc: %v", err)
	}
	if a1 == a2 {
		t.Fatalf("expected distinct addresses, got %d twice", a1)
	}
	if _, err := b.Alloc(l); !errors.Is(err, allocator.ErrExhausted) {
		t.Fatalf("third alloc: got err %v, want ErrExhausted", err)
	}
}

func TestBumpDeallocPanics(t *testing.T) {
	b := New[uint16](0, 16)
	l := layout.New[uint16](2, 1)
	a, err := b.Alloc(l)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected Dealloc to panic")
		}
	}()
	b.Dealloc(a, l)
}
