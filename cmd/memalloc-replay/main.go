// Command memalloc-replay replays a recorded allocation trace against a
// real free-list allocator, to exercise the allocator packages in this
// module end to end instead of only through unit tests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mknyszek/memalloc"
	"github.com/mknyszek/memalloc/addrset"
	"github.com/mknyszek/memalloc/allocator"
	"github.com/mknyszek/memalloc/cmd/internal/spinner"
	"github.com/mknyszek/memalloc/freelist"
	"github.com/mknyszek/memalloc/layout"
	"github.com/mknyszek/memalloc/region"

	"golang.org/x/exp/mmap"
)

var regionSize uint64
var printFlag *bool

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Replays an allocation trace against a free-list allocator\n")
		fmt.Fprintf(flag.CommandLine.Output(), "and reports how many allocations succeeded before exhaustion.\n")
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <allocation-trace-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Uint64Var(&regionSize, "region-size", 1<<20, "size in bytes of the simulated region to allocate against")
	printFlag = flag.Bool("print", false, "print each event as it's replayed")
}

func handleError(err error, usage bool) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if usage {
		flag.Usage()
	}
	os.Exit(1)
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		handleError(errors.New("incorrect number of arguments"), true)
	}

	r, err := mmap.Open(flag.Arg(0))
	if err != nil {
		handleError(fmt.Errorf("opening trace file: %w", err), false)
	}
	defer r.Close()

	fmt.Println("Generating parser...")
	p, err := memalloc.NewParser(r)
	if err != nil {
		handleError(fmt.Errorf("creating parser: %w", err), false)
	}
	fmt.Println("Replaying events...")

	spinner.Start(p.Progress, spinner.Format("Replaying... %.4f%%"))

	backend := region.New[uint64](int(regionSize))
	fl := freelist.New[uint64](backend, 0, regionSize-1)

	type liveAlloc struct {
		addr uint64
		l    layout.Layout[uint64]
	}
	live := make(map[uint64]liveAlloc)
	// exhaustedAt holds the trace addresses whose alloc hit exhaustion.
	exhaustedAt := make(map[uint64]bool)
	var sanity addrset.Set
	var reuseWithoutFree, doubleFree []memalloc.Event
	allocs, frees, exhausted, skippedFrees := 0, 0, 0, 0

	const maxErrors = 20
	errorsSeen := 0
	for {
		ev, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			handleError(fmt.Errorf("parsing events: %w", err), false)
		}
		switch ev.Kind {
		case memalloc.EventAlloc:
			if *printFlag {
				fmt.Printf("alloc size=%d (trace address %d)\n", ev.Size, ev.Address)
			}
			l := layout.New[uint64](ev.Size, 8)
			addr, err := fl.Alloc(l)
			if errors.Is(err, allocator.ErrExhausted) {
				exhausted++
				exhaustedAt[ev.Address] = true
				continue
			}
			delete(exhaustedAt, ev.Address)
			if ok := sanity.Add(ev.Address, ev.Size); !ok {
				reuseWithoutFree = append(reuseWithoutFree, ev)
			}
			live[ev.Address] = liveAlloc{addr: addr, l: l}
			allocs++
		case memalloc.EventFree:
			if *printFlag {
				fmt.Printf("free (trace address %d)\n", ev.Address)
			}
			la, ok := live[ev.Address]
			if !ok {
				if !exhaustedAt[ev.Address] {
					// Never allocated, or already freed.
					doubleFree = append(doubleFree, ev)
					break
				}
				// The trace freed something this replay
				// never successfully allocated (because it
				// hit exhaustion). Nothing to release.
				delete(exhaustedAt, ev.Address)
				skippedFrees++
				continue
			}
			if ok := sanity.Remove(ev.Address, la.l.Size); !ok {
				doubleFree = append(doubleFree, ev)
			}
			fl.Dealloc(la.addr, la.l)
			delete(live, ev.Address)
			frees++
		default:
			errorsSeen++
			if errorsSeen > maxErrors {
				handleError(fmt.Errorf("too many unknown event kinds"), false)
			}
		}
		if len(reuseWithoutFree)+len(doubleFree) > maxErrors {
			break
		}
	}

	spinner.Stop()

	if errcount := len(reuseWithoutFree) + len(doubleFree); errcount != 0 {
		fmt.Fprintf(os.Stderr, "found %d trace sanity errors:\n", errcount)
		for _, ev := range reuseWithoutFree {
			fmt.Fprintf(os.Stderr, "  trace reused address 0x%x without freeing it first\n", ev.Address)
		}
		for _, ev := range doubleFree {
			fmt.Fprintf(os.Stderr, "  trace freed already-free address 0x%x\n", ev.Address)
		}
	}

	fmt.Printf("allocs:        %d\n", allocs)
	fmt.Printf("frees:         %d\n", frees)
	fmt.Printf("exhausted:     %d\n", exhausted)
	fmt.Printf("skipped frees: %d\n", skippedFrees)
	fmt.Printf("still live:    %d\n", len(live))
}
