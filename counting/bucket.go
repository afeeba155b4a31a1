package counting

import (
	"github.com/grailbio/base/log"

	"github.com/marbl/meryl-sub000/countarray"
)

// bucket is one partitioned-sort accumulator: a CountArray plus the
// paths of any runs already spilled to disk because the accumulation
// phase ran over its memory budget (spec.md §4.7's out-of-memory
// failure mode).
type bucket struct {
	ca         *countarray.CountArray
	spillDir   string
	spillPaths []string
}

func newBucket(prefix uint64, suffixWidth, labelWidth uint, mode countarray.Mode, spillDir string) *bucket {
	return &bucket{ca: countarray.New(prefix, suffixWidth, labelWidth, mode), spillDir: spillDir}
}

// maybeSpill flushes and reduces the bucket's current contents to a
// new spill file, freeing its in-memory storage. A no-op if the bucket
// is currently empty.
func (b *bucket) maybeSpill() error {
	if b.ca.Len() == 0 {
		return nil
	}
	entries := b.ca.Flush()
	path, err := writeSpill(b.spillDir, entries)
	if err != nil {
		return err
	}
	b.spillPaths = append(b.spillPaths, path)
	log.Printf("meryl: spilled %d entries for bucket 0x%x to %s", len(entries), b.ca.Prefix, path)
	return nil
}

// finalize returns every run (spilled and in-memory) the bucket
// accumulated, ready to be merged in ascending-Suffix order.
func (b *bucket) finalize() ([]runSource, countarray.Mode, error) {
	var sources []runSource
	for _, p := range b.spillPaths {
		sf, err := openSpillFile(p)
		if err != nil {
			return nil, 0, err
		}
		sources = append(sources, sf)
	}
	if b.ca.Len() > 0 {
		sources = append(sources, &sliceRun{entries: b.ca.Flush()})
	}
	return sources, b.ca.Mode, nil
}
