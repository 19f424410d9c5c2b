package membackend_test

import (
	"testing"

	"github.com/mknyszek/memalloc/membackend"
	"github.com/mknyszek/memalloc/region"
)

type point struct {
	X, Y int32
}

func TestReadWrite(t *testing.T) {
	b := region.New[uint16](64)
	membackend.Write(b, 8, point{X: 3, Y: -7})
	got := membackend.Read[point](b, 8)
	if got.X != 3 || got.Y != -7 {
		t.Errorf("got %+v, want {3 -7}", got)
	}
}

func TestTyped(t *testing.T) {
	b := region.New[uint16](64)
	tp := membackend.NewTyped[point](uint16(16))
	tp.Write(b, point{X: 1, Y: 2})
	got := tp.Read(b)
	if got.X != 1 || got.Y != 2 {
		t.Errorf("got %+v, want {1 2}", got)
	}
	if tp.Address() != 16 {
		t.Errorf("Address() = %d, want 16", tp.Address())
	}
}
