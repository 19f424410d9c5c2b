package addrset

import "testing"

func TestAddRemove(t *testing.T) {
	var s Set
	if !s.Add(42, 8) {
		t.Fatal("first Add(42, 8) should succeed")
	}
	if s.Add(42, 8) {
		t.Fatal("second Add(42, 8) should report already-present")
	}
	if !s.Remove(42, 8) {
		t.Fatal("Remove(42, 8) should succeed")
	}
	if s.Remove(42, 8) {
		t.Fatal("second Remove(42, 8) should report not-present")
	}
}

func TestOverlappingExtentConflicts(t *testing.T) {
	var s Set
	if !s.Add(100, 16) {
		t.Fatal("Add(100, 16) should succeed")
	}
	// Overlaps the tail of [100, 116).
	if s.Add(110, 16) {
		t.Fatal("Add(110, 16) should conflict with the still-live [100, 116) extent")
	}
	// The conflicting Add must not have marked anything.
	if !s.Remove(100, 16) {
		t.Fatal("Remove(100, 16) should still succeed: the conflicting Add must not have mutated the set")
	}
	if !s.Add(110, 16) {
		t.Fatal("Add(110, 16) should now succeed once [100, 116) is no longer live")
	}
}

func TestRemovePartiallyUnmarkedExtentConflicts(t *testing.T) {
	var s Set
	if !s.Add(200, 4) {
		t.Fatal("Add(200, 4) should succeed")
	}
	// [200, 208) was never fully marked, only [200, 204) was.
	if s.Remove(200, 8) {
		t.Fatal("Remove(200, 8) should report a mismatch: only half the extent was live")
	}
	// The failed Remove must not have cleared the live half either.
	if !s.Remove(200, 4) {
		t.Fatal("Remove(200, 4) should still succeed: the failed wider Remove must not have mutated the set")
	}
}

func TestDisjointExtents(t *testing.T) {
	extents := [][2]uint64{
		{0, 1},
		{1 << 16, 8},
		{1 << 32, 8},
		{1 << 48, 8},
		{^uint64(0) - 7, 8},
	}
	var s Set
	for _, e := range extents {
		if !s.Add(e[0], e[1]) {
			t.Fatalf("Add%v should succeed", e)
		}
	}
	for _, e := range extents {
		if !s.Remove(e[0], e[1]) {
			t.Fatalf("Remove%v should succeed", e)
		}
	}
}
