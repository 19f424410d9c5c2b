package memalloc

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// batchSize is the fixed size, in bytes, of every batch in a trace
// file after the header. Kept identical across batches so that batch
// offsets are derivable by index alone, with no separate index of file
// offsets to carry around.
const batchSize = 32 << 10

const headerSize = 4

const (
	magicByte0 = 'M'
	magicByte1 = 'A'
)

// supportedVersion is the trace format version this parser understands.
var supportedVersion = [2]byte{1, 0}

const (
	atBatchStart uint8 = 0xfe
	atEvAlloc    uint8 = 1
	atEvFree     uint8 = 2
)

// Source is an allocation-trace source.
type Source interface {
	io.ReaderAt

	// Len returns the size of the allocation trace in bytes.
	Len() int
}

func parseVarint(buf []byte) (int, uint64, error) {
	result := uint64(0)
	shift := uint(0)
	i := 0
	for {
		if i >= len(buf) {
			return 0, 0, fmt.Errorf("not enough bytes left to decode varint")
		}
		result |= uint64(buf[i]&0x7f) << shift
		if buf[i]&(1<<7) == 0 {
			return i + 1, result, nil
		}
		shift += 7
		i++
		if shift >= 64 {
			return 0, 0, fmt.Errorf("varint too long")
		}
	}
}

func parseHeader(r Source) error {
	var header [headerSize]byte
	n, err := r.ReadAt(header[:], 0)
	if n != headerSize || err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if header[0] != magicByte0 || header[1] != magicByte1 {
		return fmt.Errorf("bad magic bytes")
	}
	if header[2] != supportedVersion[0] || header[3] != supportedVersion[1] {
		return fmt.Errorf("unsupported trace version %d.%d", header[2], header[3])
	}
	return nil
}

// Parser parses a memalloc allocation trace: a header followed by a
// sequence of fixed-size batches, each holding a varint-counted run of
// alloc/free records.
//
// NewParser scans every batch's header in parallel, sharded across
// GOMAXPROCS via an errgroup, to learn the total record count up front
// for Progress. Each shard only reads the fixed-size header at the
// start of its batches, not the records themselves, so the scan stays
// cheap even for a trace with many batches.
type Parser struct {
	src          Source
	recordCounts []int
	totalRecords uint64
	recordsRead  uint64

	curBatch           int
	recordsLeftInBatch int
	readBuf            []byte
	batchBuf           [batchSize]byte
}

// NewParser creates and initializes a new Parser given a Source.
//
// Initialization scans every batch header (but not the records
// themselves), which may be computationally expensive for a large
// trace; hence the parallel scan.
func NewParser(r Source) (*Parser, error) {
	if r.Len() <= headerSize || (r.Len()-headerSize)%batchSize != 0 {
		return nil, fmt.Errorf("bad format: file must be a %d-byte header plus a multiple of %d bytes", headerSize, batchSize)
	}
	if err := parseHeader(r); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}

	numBatches := (r.Len() - headerSize) / batchSize
	shards := runtime.GOMAXPROCS(-1)
	if shards > numBatches {
		shards = 1
	}
	batchesPerShard := (numBatches + shards - 1) / shards

	recordCounts := make([]int, numBatches)
	var eg errgroup.Group
	for s := 0; s < shards; s++ {
		s := s
		eg.Go(func() error {
			start := s * batchesPerShard
			end := start + batchesPerShard
			if end > numBatches {
				end = numBatches
			}
			var hdr [8]byte
			for b := start; b < end; b++ {
				off := int64(headerSize + b*batchSize)
				n, err := r.ReadAt(hdr[:], off)
				if n < len(hdr) {
					return fmt.Errorf("reading batch %d header: %w", b, err)
				}
				if hdr[0] != atBatchStart {
					return fmt.Errorf("batch %d: expected batch start marker", b)
				}
				_, count, err := parseVarint(hdr[1:])
				if err != nil {
					return fmt.Errorf("batch %d: parsing record count: %w", b, err)
				}
				recordCounts[b] = int(count)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := uint64(0)
	for _, c := range recordCounts {
		total += uint64(c)
	}

	p := &Parser{
		src:          r,
		recordCounts: recordCounts,
		totalRecords: total,
	}
	if err := p.loadBatch(0); err != nil {
		return nil, fmt.Errorf("loading first batch: %w", err)
	}
	return p, nil
}

var errBatchDone = errors.New("batch done")

func (p *Parser) loadBatch(b int) error {
	if b >= len(p.recordCounts) {
		p.readBuf = nil
		return nil
	}
	off := int64(headerSize + b*batchSize)
	n, err := p.src.ReadAt(p.batchBuf[:], off)
	if n != len(p.batchBuf) {
		return fmt.Errorf("reading batch %d: %w", b, err)
	}
	hdrLen, _, err := parseVarint(p.batchBuf[1:])
	if err != nil {
		return fmt.Errorf("re-parsing batch %d header: %w", b, err)
	}
	p.curBatch = b
	p.readBuf = p.batchBuf[1+hdrLen:]
	p.recordsLeftInBatch = p.recordCounts[b]
	return nil
}

func (p *Parser) nextRecord() (Event, error) {
	if p.recordsLeftInBatch == 0 {
		return Event{}, errBatchDone
	}
	if len(p.readBuf) == 0 {
		return Event{}, fmt.Errorf("batch %d: ran out of bytes with %d records left", p.curBatch, p.recordsLeftInBatch)
	}
	kind := p.readBuf[0]
	idx := 1
	var ev Event
	switch kind {
	case atEvAlloc:
		n, addr, err := parseVarint(p.readBuf[idx:])
		if err != nil {
			return Event{}, fmt.Errorf("parsing alloc address: %w", err)
		}
		idx += n
		n, size, err := parseVarint(p.readBuf[idx:])
		if err != nil {
			return Event{}, fmt.Errorf("parsing alloc size: %w", err)
		}
		idx += n
		ev = Event{Kind: EventAlloc, Address: addr, Size: size}
	case atEvFree:
		n, addr, err := parseVarint(p.readBuf[idx:])
		if err != nil {
			return Event{}, fmt.Errorf("parsing free address: %w", err)
		}
		idx += n
		ev = Event{Kind: EventFree, Address: addr}
	default:
		return Event{}, fmt.Errorf("unknown record kind %d", kind)
	}
	p.readBuf = p.readBuf[idx:]
	p.recordsLeftInBatch--
	return ev, nil
}

// Next returns the next event in the trace, or io.EOF once every
// batch has been consumed.
func (p *Parser) Next() (Event, error) {
	for {
		ev, err := p.nextRecord()
		if err == nil {
			p.recordsRead++
			return ev, nil
		}
		if err != errBatchDone {
			return Event{}, err
		}
		if err := p.loadBatch(p.curBatch + 1); err != nil {
			return Event{}, err
		}
		if p.readBuf == nil {
			return Event{}, io.EOF
		}
	}
}

// Progress returns a value between 0 and 1 indicating the approximate
// fraction of records in the trace that have been consumed so far.
func (p *Parser) Progress() float64 {
	if p.totalRecords == 0 {
		return 1
	}
	return float64(p.recordsRead) / float64(p.totalRecords)
}
