package region

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	b := New[uint16](64)
	b.WriteAt(4, []byte{1, 2, 3, 4})
	got := make([]byte, 4)
	b.ReadAt(4, got)
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds access")
		}
	}()
	b := New[uint16](4)
	b.ReadAt(2, make([]byte, 8))
}
