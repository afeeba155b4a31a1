package main

// meryl counts, combines, and filters k-mer databases. It is a minimal
// flag-based driver over the counting and action packages, covering a
// handful of verbs rather than the original program's full nested
// operation grammar.
//
// Usage:
//
//   meryl count -k 21 [-memory bytes] [-threads n] output.meryldb input.fasta...
//   meryl print [-label] input.meryldb
//   meryl union|intersect|subtract|difference output.meryldb input.meryldb...
//   meryl less-than|greater-than|equal-to|not-equal-to c output.meryldb input.meryldb
//   meryl increase|decrease c output.meryldb input.meryldb
//   meryl histogram|statistics input.meryldb

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"golang.org/x/sync/errgroup"

	"github.com/marbl/meryl-sub000/action"
	"github.com/marbl/meryl-sub000/counting"
	"github.com/marbl/meryl-sub000/dbformat"
	"github.com/marbl/meryl-sub000/histogram"
	"github.com/marbl/meryl-sub000/kmer"
)

var (
	kFlag          = flag.Int("k", 21, "mer size (count verb only)")
	memoryFlag     = flag.Uint64("memory", 4<<30, "memory budget in bytes (count verb only)")
	threadsFlag    = flag.Int("threads", runtime.NumCPU(), "worker threads for the 64-way slice pipeline")
	countSuffix    = flag.String("count-suffix", "", "restrict counting to k-mers whose forward orientation ends in this sequence")
	labelFlag      = flag.Bool("label", false, "print the label column (print verb only)")
	valueWidth     = flag.Uint("value-bits", 32, "fixed value field width of output databases (count and set-operation verbs)")
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = usage
	flag.Parse()
	shutdown := grail.Init()
	defer shutdown()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	ctx := vcontext.Background()

	var err error
	switch verb := args[0]; verb {
	case "count":
		err = runCount(ctx, args[1:])
	case "print":
		err = runPrint(ctx, args[1:])
	case "union":
		err = runSetOp(ctx, action.Union(), args[1], args[2:])
	case "intersect":
		err = runSetOp(ctx, action.Intersect(), args[1], args[2:])
	case "subtract":
		err = runSetOp(ctx, action.Subtract(), args[1], args[2:])
	case "difference":
		err = runSetOp(ctx, action.Difference(), args[1], args[2:])
	case "less-than", "greater-than", "equal-to", "not-equal-to", "increase", "decrease":
		err = runUnaryOp(ctx, verb, args[1:])
	case "histogram", "statistics":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(1)
		}
		err = runReport(ctx, args[1], verb == "statistics")
	default:
		log.Errorf("meryl: unknown verb %q", verb)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("meryl: %v", err)
	}
}

func usage() {
	os.Stderr.WriteString(`Usage:
  meryl count [-k N] [-memory bytes] [-threads n] [-count-suffix seq] output.meryldb input...
  meryl print [-label] input.meryldb
  meryl union|intersect|subtract|difference output.meryldb input.meryldb...
  meryl less-than|greater-than|equal-to|not-equal-to C output.meryldb input.meryldb
  meryl increase|decrease C output.meryldb input.meryldb
  meryl histogram|statistics input.meryldb
`)
	flag.PrintDefaults()
}

func runCount(ctx context.Context, args []string) error {
	if len(args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	schema := kmer.Schema{K: *kFlag}
	cfg := counting.Config{
		Schema:      schema,
		Memory:      *memoryFlag,
		Threads:     *threadsFlag,
		CountSuffix: *countSuffix,
		ValueWidth:  *valueWidth,
	}
	stats, err := counting.CountFiles(ctx, cfg, args[1:], args[0])
	if err != nil {
		return err
	}
	log.Printf("meryl: counted %d distinct k-mers, %d total occurrences", stats.DistinctKmers, stats.TotalKmers)
	return nil
}

// sliceReaderInput adapts a dbformat.SliceReader (Triple-returning) to
// action.SliceInput's (k, value, label, ok) shape.
type sliceReaderInput struct {
	sr *dbformat.SliceReader
}

func (s *sliceReaderInput) Next() (kmer.Kmer, uint32, uint64, bool) {
	t, ok := s.sr.Next()
	return t.Kmer, t.Value, t.Label, ok
}

func runPrint(ctx context.Context, args []string) error {
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	db, err := dbformat.OpenDatabase(ctx, args[0])
	if err != nil {
		return err
	}
	p := action.NewPrinter(db.Index().Schema, *labelFlag, os.Stdout)
	for {
		t, ok, err := db.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		sw, err := p.SliceWriter(0)
		if err != nil {
			return err
		}
		if err := sw.WriteLine(t.Kmer, t.Value, t.Label); err != nil {
			return err
		}
	}
}

// runReport accumulates every slice's value distribution in parallel
// (spec.md §4.5's Histogram/Statistics actions) and prints the merged
// result to stdout.
func runReport(ctx context.Context, dbDir string, statistics bool) error {
	idx, err := dbformat.ReadIndex(ctx, dbDir)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*threadsFlag)
	accs := make([]*histogram.Accumulator, dbformat.NumSlices)
	for slice := 0; slice < dbformat.NumSlices; slice++ {
		slice := slice
		g.Go(func() error {
			sr, err := dbformat.NewSliceReader(gctx, dbDir, slice, idx.Schema, idx.BlockPrefixBits, idx.ValueWidth)
			if err != nil {
				return err
			}
			acc := histogram.New()
			for {
				t, ok := sr.Next()
				if !ok {
					break
				}
				acc.Add(t.Value)
			}
			accs[slice] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	merged := histogram.New()
	for _, acc := range accs {
		merged.Merge(acc)
	}
	if statistics {
		return merged.WriteStatistics(os.Stdout)
	}
	return merged.WriteHistogram(os.Stdout)
}

// runSetOp applies tmpl across the total sort order of every input
// database (union/intersect/subtract/difference all accept any number
// of inputs), writing the result to outDir.
func runSetOp(ctx context.Context, tmpl *action.Template, outDir string, inputs []string) error {
	if len(inputs) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	return runAction(ctx, tmpl, outDir, inputs)
}

func runUnaryOp(ctx context.Context, verb string, args []string) error {
	if len(args) < 3 {
		flag.Usage()
		os.Exit(1)
	}
	c, err := parseUint(args[0])
	if err != nil {
		return err
	}
	outDir, inputs := args[1], args[2:]

	var tmpl *action.Template
	switch verb {
	case "less-than":
		tmpl = action.LessThan(c)
	case "greater-than":
		tmpl = action.GreaterThan(c)
	case "equal-to":
		tmpl = action.EqualTo(c)
	case "not-equal-to":
		tmpl = action.NotEqualTo(c)
	case "increase":
		tmpl = action.Increase(c)
	case "decrease":
		tmpl = action.Decrease(c)
	}
	return runAction(ctx, tmpl, outDir, inputs)
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func runAction(ctx context.Context, tmpl *action.Template, outDir string, inputs []string) error {
	idxs := make([]dbformat.Index, len(inputs))
	for i, in := range inputs {
		idx, err := dbformat.ReadIndex(ctx, in)
		if err != nil {
			return err
		}
		if i > 0 && !idxs[0].Schema.Compatible(idx.Schema) {
			return fmt.Errorf("meryl: %s (k=%d, label width %d) does not match %s (k=%d, label width %d)",
				in, idx.Schema.K, idx.Schema.LabelWidth, inputs[0], idxs[0].Schema.K, idxs[0].Schema.LabelWidth)
		}
		idxs[i] = idx
	}
	schema := idxs[0].Schema

	buildDir, err := dbformat.CreateDatabase(ctx, outDir)
	if err != nil {
		return err
	}
	blockPrefixBits := idxs[0].BlockPrefixBits

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*threadsFlag)
	results := make([]dbformat.Statistics, dbformat.NumSlices)
	for slice := 0; slice < dbformat.NumSlices; slice++ {
		slice := slice
		g.Go(func() error {
			sliceInputs := make([]action.SliceInput, len(inputs))
			for i, in := range inputs {
				sr, err := dbformat.NewSliceReader(gctx, in, slice, idxs[i].Schema, idxs[i].BlockPrefixBits, idxs[i].ValueWidth)
				if err != nil {
					return err
				}
				sliceInputs[i] = &sliceReaderInput{sr: sr}
			}
			comp := action.NewCompute(tmpl, schema, sliceInputs)
			w := dbformat.NewStreamWriter(buildDir, slice, schema, blockPrefixBits, *valueWidth, 512)
			st := dbformat.NewStatistics()
			for {
				k, v, l, ok := comp.Next()
				if !ok {
					break
				}
				w.AddMer(k, v, l)
				st.Add(v)
			}
			results[slice] = st
			return w.Close(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		_ = dbformat.AbandonDatabase(ctx, buildDir)
		return err
	}
	merged := dbformat.NewStatistics()
	for _, st := range results {
		merged.Merge(st)
	}
	idx := dbformat.Index{Schema: schema, SlicePrefixBits: dbformat.SlicePrefixBits, BlockPrefixBits: blockPrefixBits, ValueWidth: *valueWidth, Stats: merged}
	if err := dbformat.WriteIndex(ctx, buildDir, idx); err != nil {
		_ = dbformat.AbandonDatabase(ctx, buildDir)
		return err
	}
	return dbformat.FinishDatabase(ctx, buildDir, outDir)
}
