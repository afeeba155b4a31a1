package dbformat

import (
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/kmer"
)

func TestWriteReadIndexRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()

	stats := NewStatistics()
	stats.Add(1)
	stats.Add(1)
	stats.Add(3)

	idx := Index{
		Schema:          kmer.Schema{K: 21, LabelWidth: 4},
		SlicePrefixBits: SlicePrefixBits,
		BlockPrefixBits: 10,
		ValueWidth:      16,
		Stats:           stats,
	}
	require.NoError(t, WriteIndex(ctx, dir, idx))

	got, err := ReadIndex(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, idx.Schema, got.Schema)
	require.Equal(t, idx.SlicePrefixBits, got.SlicePrefixBits)
	require.Equal(t, idx.BlockPrefixBits, got.BlockPrefixBits)
	require.Equal(t, idx.ValueWidth, got.ValueWidth)
	require.Equal(t, idx.Stats.TotalKmers, got.Stats.TotalKmers)
	require.Equal(t, idx.Stats.DistinctKmers, got.Stats.DistinctKmers)
	require.Equal(t, idx.Stats.UniqueKmers, got.Stats.UniqueKmers)
	require.Equal(t, idx.Stats.Histogram, got.Stats.Histogram)
}

func TestReadIndexRejectsNonDatabaseDirectory(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	_, err := ReadIndex(ctx, dir)
	require.Error(t, err)
}

func TestStatisticsMerge(t *testing.T) {
	a := NewStatistics()
	a.Add(1)
	b := NewStatistics()
	b.Add(1)
	b.Add(5)

	a.Merge(b)
	require.Equal(t, uint64(3), a.DistinctKmers)
	require.Equal(t, uint64(1+1+5), a.TotalKmers)
	require.Equal(t, uint64(2), a.UniqueKmers)
}
