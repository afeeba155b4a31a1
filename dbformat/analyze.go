package dbformat

import "context"

// AnalyzeSlice returns the block-size distribution of one slice: a map
// from a block's record count to the number of blocks with that count,
// grounded on the original's meryl-analyze tool
// (original_source/src/meryl-analyze/meryl-analyze.C), which reports the
// block-size distribution to help tune the block-size target.
func AnalyzeSlice(ctx context.Context, dir string, sliceIndex int, idx Index) (map[int]int, error) {
	sr, err := NewSliceReader(ctx, dir, sliceIndex, idx.Schema, idx.BlockPrefixBits, idx.ValueWidth)
	if err != nil {
		return nil, err
	}
	hist := map[int]int{}
	blockLen := 0
	havePrefix := false
	for {
		_, ok := sr.Next()
		if !ok {
			break
		}
		// Next leaves pi at 1 right after it has decoded a new block.
		if havePrefix && sr.pi == 1 {
			hist[blockLen]++
			blockLen = 0
		}
		havePrefix = true
		blockLen++
	}
	if havePrefix {
		hist[blockLen]++
	}
	return hist, nil
}
