package addr

import "testing"

func TestIsPowerOfTwo(t *testing.T) {
	cases := []struct {
		v    uint32
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{1 << 20, true},
		{1<<20 + 1, false},
	}
	for _, c := range cases {
		if got := IsPowerOfTwo(c.v); got != c.want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct {
		p, align, want uint16
	}{
		{0, 1, 0},
		{1, 1, 1},
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{15, 4, 16},
	}
	for _, c := range cases {
		if got := AlignUp(c.p, c.align); got != c.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c.p, c.align, got, c.want)
		}
	}
}

func TestMax(t *testing.T) {
	if got := Max[uint8](3, 9); got != 9 {
		t.Errorf("Max(3, 9) = %d, want 9", got)
	}
	if got := Max[uint8](9, 3); got != 9 {
		t.Errorf("Max(9, 3) = %d, want 9", got)
	}
}
