package counting

import (
	"context"
	"os"
	"runtime"

	baseerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"v.io/x/lib/vlog"

	"github.com/marbl/meryl-sub000/countarray"
	"github.com/marbl/meryl-sub000/dbformat"
	"github.com/marbl/meryl-sub000/kmer"
	"github.com/marbl/meryl-sub000/seqio"
)

// defaultBlockTarget is the number of records buffered into one
// on-disk block before it is flushed; tune with dbformat.AnalyzeSlice.
const defaultBlockTarget = 512

// chooseBlockPrefixBits picks the on-disk block prefix width: wide
// enough that the in-block residual fits one machine word
// (maxBlockSuffixBits), but never narrower than the slice-selecting
// prefix.
func chooseBlockPrefixBits(s kmer.Schema) int {
	bits := s.Width() - maxBlockSuffixBits
	if bits < dbformat.SlicePrefixBits {
		bits = dbformat.SlicePrefixBits
	}
	if bits > s.Width() {
		bits = s.Width()
	}
	return bits
}

// CountFiles runs the counting driver (spec.md §4.7) over paths,
// writing a new database to outDir. On success, anything already at
// outDir is removed and the finished database is renamed into its place
// (see dbformat.FinishDatabase).
func CountFiles(ctx context.Context, cfg Config, paths []string, outDir string) (dbformat.Statistics, error) {
	if err := cfg.Schema.Validate(); err != nil {
		return dbformat.Statistics{}, err
	}
	valueBits := cfg.ValueWidth
	if valueBits == 0 {
		valueBits = 32
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	buildDir, err := dbformat.CreateDatabase(ctx, outDir)
	if err != nil {
		return dbformat.Statistics{}, err
	}

	mode := ChooseMode(cfg)
	log.Printf("meryl: counting k=%d label-width=%d memory=%d threads=%d mode=%v",
		cfg.Schema.K, cfg.Schema.LabelWidth, cfg.Memory, threads, mode)

	var stats dbformat.Statistics
	switch mode {
	case ModeDirectArray:
		stats, err = countDirectArray(ctx, cfg, paths, buildDir, threads, valueBits)
	default:
		stats, err = countPartitioned(ctx, cfg, paths, buildDir, threads, valueBits)
	}
	if err != nil {
		_ = dbformat.AbandonDatabase(ctx, buildDir)
		return dbformat.Statistics{}, err
	}

	idx := dbformat.Index{
		Schema:          cfg.Schema,
		SlicePrefixBits: dbformat.SlicePrefixBits,
		BlockPrefixBits: chooseBlockPrefixBits(cfg.Schema),
		ValueWidth:      valueBits,
		Stats:           stats,
	}
	if err := dbformat.WriteIndex(ctx, buildDir, idx); err != nil {
		_ = dbformat.AbandonDatabase(ctx, buildDir)
		return dbformat.Statistics{}, err
	}
	if err := dbformat.FinishDatabase(ctx, buildDir, outDir); err != nil {
		return dbformat.Statistics{}, err
	}
	return stats, nil
}

// directSliceRange returns the [lo, hi) range of direct-array keys
// that belong to slice, partitioning the 4^k key space by its top
// dbformat.SlicePrefixBits bits (or, for a schema narrower than that,
// one key per populated slice).
func directSliceRange(width int, n uint64, slice int) (lo, hi uint64) {
	if width <= dbformat.SlicePrefixBits {
		if uint64(slice) >= n {
			return 0, 0
		}
		return uint64(slice), uint64(slice) + 1
	}
	span := uint64(1) << uint(width-dbformat.SlicePrefixBits)
	lo = uint64(slice) * span
	hi = lo + span
	if hi > n {
		hi = n
	}
	if lo > n {
		lo = n
	}
	return lo, hi
}

func countDirectArray(ctx context.Context, cfg Config, paths []string, buildDir string, threads int, valueBits uint) (dbformat.Statistics, error) {
	da := newDirectArray(cfg.Schema.K)
	for _, p := range paths {
		if err := scanFileIntoDirectArray(cfg.Schema, cfg.CountSuffix, p, da); err != nil {
			return dbformat.Statistics{}, err
		}
	}

	width := cfg.Schema.Width()
	blockPrefixBits := chooseBlockPrefixBits(cfg.Schema)
	n := uint64(len(da.base))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	results := make([]dbformat.Statistics, dbformat.NumSlices)
	for slice := 0; slice < dbformat.NumSlices; slice++ {
		slice := slice
		lo, hi := directSliceRange(width, n, slice)
		g.Go(func() error {
			vlog.VI(1).Infof("meryl: slice %d direct-array key range [%d,%d)", slice, lo, hi)
			w := dbformat.NewStreamWriter(buildDir, slice, cfg.Schema, blockPrefixBits, valueBits, defaultBlockTarget)
			st := dbformat.NewStatistics()
			for key := lo; key < hi; key++ {
				v := da.count(key)
				if v == 0 {
					continue
				}
				k := kmer.FromPrefixSuffix(cfg.Schema, 0, 0, 0, key)
				w.AddMer(k, v, 0)
				st.Add(v)
			}
			results[slice] = st
			return w.Close(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return dbformat.Statistics{}, err
	}
	merged := dbformat.NewStatistics()
	for _, st := range results {
		merged.Merge(st)
	}
	return merged, nil
}

func scanFileIntoDirectArray(s kmer.Schema, countSuffix, path string, da *directArray) error {
	r, err := seqio.Open(path)
	if err != nil {
		return err
	}
	defer r.Close() // nolint: errcheck
	return scanReader(s, r, countSuffix, func(k kmer.Kmer) error {
		da.increment(canonicalKey(s, k))
		return nil
	})
}

func countPartitioned(ctx context.Context, cfg Config, paths []string, buildDir string, threads int, valueBits uint) (dbformat.Statistics, error) {
	estimated := estimateKmerCount(paths)
	wp, err := ChoosePrefixWidth(cfg.Schema, cfg.Memory, estimated)
	if err != nil {
		return dbformat.Statistics{}, err
	}
	log.Printf("meryl: partitioned-sort counting with prefix width %d (%d buckets), estimated %d k-mers", wp, uint64(1)<<uint(wp), estimated)

	spillDir := buildDir + ".spill"
	if err := os.MkdirAll(spillDir, 0o755); err != nil {
		return dbformat.Statistics{}, errors.Wrapf(err, "counting: create spill dir %s", spillDir)
	}
	defer os.RemoveAll(spillDir) // nolint: errcheck

	numBuckets := 1 << uint(wp)
	suffixWidth := uint(cfg.Schema.Width() - wp)
	buckets := make([]*bucket, numBuckets)
	for i := range buckets {
		buckets[i] = newBucket(uint64(i), suffixWidth, uint(cfg.Schema.LabelWidth), countarray.ModeCount, spillDir)
	}

	if err := accumulateBuckets(cfg, paths, buckets, wp); err != nil {
		return dbformat.Statistics{}, err
	}

	blockPrefixBits := chooseBlockPrefixBits(cfg.Schema)
	bucketsPerSlice := numBuckets / dbformat.NumSlices
	if bucketsPerSlice == 0 {
		bucketsPerSlice = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	results := make([]dbformat.Statistics, dbformat.NumSlices)
	for slice := 0; slice < dbformat.NumSlices; slice++ {
		slice := slice
		base := slice * bucketsPerSlice
		if base >= numBuckets {
			continue
		}
		limit := base + bucketsPerSlice
		if limit > numBuckets {
			limit = numBuckets
		}
		g.Go(func() error {
			vlog.VI(1).Infof("meryl: slice %d covers buckets [0x%x,0x%x)", slice, base, limit)
			w := dbformat.NewStreamWriter(buildDir, slice, cfg.Schema, blockPrefixBits, valueBits, defaultBlockTarget)
			st := dbformat.NewStatistics()
			for bi := base; bi < limit; bi++ {
				sources, mode, err := buckets[bi].finalize()
				if err != nil {
					return err
				}
				prefix := uint64(bi)
				err = mergeRuns(sources, mode, func(e countarray.Entry) error {
					k := kmer.FromPrefixSuffix(cfg.Schema, prefix, wp, 0, e.Suffix)
					w.AddMer(k, e.Value, e.Label)
					st.Add(e.Value)
					return nil
				})
				if err != nil {
					return err
				}
			}
			results[slice] = st
			return w.Close(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return dbformat.Statistics{}, err
	}
	merged := dbformat.NewStatistics()
	for _, st := range results {
		merged.Merge(st)
	}
	return merged, nil
}

// accumulateBuckets scans every input file sequentially (the
// prefix-routing step is inherently a single ordered walk over the
// input; only emission, below, is parallelized across slices), filling
// buckets and spilling to disk whenever the accumulated size exceeds
// cfg.Memory.
func accumulateBuckets(cfg Config, paths []string, buckets []*bucket, wp int) error {
	const checkEvery = 1 << 16
	var sinceCheck, runningTotal uint64
	once := baseerrors.Once{}

	onKmer := func(k kmer.Kmer) error {
		prefix := k.Prefix(cfg.Schema, wp)
		_, suffix := k.Suffix(cfg.Schema, wp)
		buckets[prefix].ca.Add(suffix)
		sinceCheck++
		if sinceCheck < checkEvery {
			return nil
		}
		sinceCheck = 0
		return maybeSpillAll(buckets, cfg.Memory, &runningTotal)
	}

	for _, p := range paths {
		r, err := seqio.Open(p)
		if err != nil {
			return err
		}
		err = scanReader(cfg.Schema, r, cfg.CountSuffix, onKmer)
		once.Set(r.Close())
		if err != nil {
			return err
		}
	}
	return once.Err()
}

func maybeSpillAll(buckets []*bucket, budget uint64, runningTotal *uint64) error {
	var delta uint64
	for _, b := range buckets {
		delta += b.ca.UsedSizeDelta()
	}
	*runningTotal += delta
	if *runningTotal <= budget {
		return nil
	}
	log.Printf("meryl: accumulated %d bytes exceeds budget %d; spilling all buckets", *runningTotal, budget)
	for _, b := range buckets {
		if err := b.maybeSpill(); err != nil {
			return err
		}
	}
	*runningTotal = 0
	return nil
}

// estimateKmerCount approximates the number of (prefix,suffix) pairs
// ChoosePrefixWidth should plan for, using total input file size as a
// proxy for base count (close for uncompressed FASTA with short
// headers; an overcount for FASTQ, whose header and quality lines carry
// no bases, and an undercount for compressed inputs). A larger estimate
// makes ChoosePrefixWidth pick a wider prefix (more, smaller buckets), a
// smaller estimate a narrower one.
func estimateKmerCount(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			total += uint64(fi.Size())
		}
	}
	if total == 0 {
		total = 1 << 20
	}
	return total
}
