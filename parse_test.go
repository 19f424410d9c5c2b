package memalloc

import (
	"io"
	"testing"
)

type memSource []byte

func (m memSource) ReadAt(p []byte, off int64) (int, error) {
	if int(off) >= len(m) {
		return 0, io.EOF
	}
	n := copy(p, m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m memSource) Len() int { return len(m) }

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// buildTrace constructs a single-batch trace file containing the given
// events, padded out to the fixed batch size.
func buildTrace(t *testing.T, events []Event) memSource {
	t.Helper()
	var records []byte
	for _, ev := range events {
		switch ev.Kind {
		case EventAlloc:
			records = append(records, atEvAlloc)
			records = appendVarint(records, ev.Address)
			records = appendVarint(records, ev.Size)
		case EventFree:
			records = append(records, atEvFree)
			records = appendVarint(records, ev.Address)
		default:
			t.Fatalf("unsupported event kind %d in test trace", ev.Kind)
		}
	}

	var batchHeader []byte
	batchHeader = append(batchHeader, atBatchStart)
	batchHeader = appendVarint(batchHeader, uint64(len(events)))

	batch := make([]byte, batchSize)
	copy(batch, batchHeader)
	copy(batch[len(batchHeader):], records)
	if len(batchHeader)+len(records) > batchSize {
		t.Fatalf("test trace batch overflowed batchSize")
	}

	trace := []byte{magicByte0, magicByte1, supportedVersion[0], supportedVersion[1]}
	trace = append(trace, batch...)
	return memSource(trace)
}

func TestParserRoundTrip(t *testing.T) {
	want := []Event{
		{Kind: EventAlloc, Address: 0, Size: 4},
		{Kind: EventAlloc, Address: 8, Size: 16},
		{Kind: EventFree, Address: 0},
	}
	src := buildTrace(t, want)

	p, err := NewParser(src)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	var got []Event
	for {
		ev, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ev)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if p.Progress() != 1 {
		t.Errorf("Progress() = %f, want 1", p.Progress())
	}
}

func TestParserRejectsBadMagic(t *testing.T) {
	src := buildTrace(t, nil)
	src[0] = 'X'
	if _, err := NewParser(src); err == nil {
		t.Fatal("expected error for bad magic bytes")
	}
}

func TestParserRejectsBadLength(t *testing.T) {
	src := memSource([]byte{magicByte0, magicByte1, 1, 0, 0, 0, 0})
	if _, err := NewParser(src); err == nil {
		t.Fatal("expected error for truncated trace")
	}
}
