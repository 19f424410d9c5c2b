// Command memalloc-sizes reports the live allocation size distribution
// of an allocation trace, snapshotted every N records (or accumulated
// over the whole trace with -cum).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mknyszek/memalloc"
	"github.com/mknyszek/memalloc/cmd/internal/spinner"
	"github.com/mknyszek/memalloc/histogram"
	"github.com/mknyszek/memalloc/layout"

	"golang.org/x/exp/mmap"
)

// traceAlign is the alignment this tool assumes for every allocation in
// the trace, since the trace format itself only records a size per
// alloc event, not an alignment (see event.go). cmd/memalloc-replay
// assumes the same fixed alignment when replaying traces against a
// real allocator.
const traceAlign = 8

var (
	outputFile string
	period     uint64
	cumulative bool
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Utility that generates an allocation size\n")
		fmt.Fprintf(flag.CommandLine.Output(), "distribution from an allocation trace.\n")
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <allocation-trace-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&outputFile, "o", "./size.data", "location to write output file")
	flag.Uint64Var(&period, "period", 100000, "number of records between distribution snapshots")
	flag.BoolVar(&cumulative, "cum", false, "instead of snapshotting the live distribution periodically, accumulate a total distribution over the whole trace")
}

func checkFlags() error {
	if flag.NArg() != 1 {
		return errors.New("incorrect number of arguments")
	}
	if period == 0 {
		period = 1
	}
	return nil
}

func run() error {
	r, err := mmap.Open(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to map trace: %w", err)
	}
	defer r.Close()
	fmt.Println("Generating parser...")
	p, err := memalloc.NewParser(r)
	if err != nil {
		return fmt.Errorf("creating parser: %w", err)
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer out.Close()

	spinner.Start(p.Progress, spinner.Format("Processing... %.4f%%"))

	hist := histogram.NewSizes()
	live := make(map[uint64]layout.Layout[uint64])
	var recordsSinceSnapshot uint64

	snapshot := func(recordIdx uint64) {
		fmt.Fprintf(out, ">%d\n", recordIdx)
		hist.ForEach(func(l layout.Layout[uint64], count uint64) {
			fmt.Fprintf(out, "%d/%d:%d\n", l.Size, l.Align, count)
		})
		out.Sync()
	}

	var recordIdx uint64
	for {
		ev, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parsing events: %w", err)
		}
		switch ev.Kind {
		case memalloc.EventAlloc:
			l := layout.New[uint64](ev.Size, traceAlign)
			hist.Add(l)
			if !cumulative {
				live[ev.Address] = l
			}
		case memalloc.EventFree:
			if !cumulative {
				if l, ok := live[ev.Address]; ok {
					hist.Sub(l)
					delete(live, ev.Address)
				}
			}
		}
		recordIdx++
		recordsSinceSnapshot++
		if !cumulative && recordsSinceSnapshot >= period {
			snapshot(recordIdx)
			recordsSinceSnapshot = 0
		}
	}
	spinner.Stop()

	snapshot(recordIdx)
	return nil
}

func main() {
	flag.Parse()
	if err := checkFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
