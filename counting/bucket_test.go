package counting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/countarray"
)

func TestBucketFinalizeWithoutSpillReturnsInMemoryRun(t *testing.T) {
	b := newBucket(0, 8, 0, countarray.ModeCount, t.TempDir())
	b.ca.Add(3)
	b.ca.Add(3)
	b.ca.Add(7)

	sources, mode, err := b.finalize()
	require.NoError(t, err)
	require.Equal(t, countarray.ModeCount, mode)
	require.Len(t, sources, 1)

	var out []countarray.Entry
	err = mergeRuns(sources, mode, func(e countarray.Entry) error {
		out = append(out, e)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []countarray.Entry{{Suffix: 3, Value: 2}, {Suffix: 7, Value: 1}}, out)
}

func TestBucketMaybeSpillMovesEntriesToDiskAndResetsMemory(t *testing.T) {
	b := newBucket(0, 8, 0, countarray.ModeCount, t.TempDir())
	b.ca.Add(1)
	require.Equal(t, 1, b.ca.Len())

	require.NoError(t, b.maybeSpill())
	require.Equal(t, 0, b.ca.Len())
	require.Len(t, b.spillPaths, 1)

	sources, mode, err := b.finalize()
	require.NoError(t, err)
	require.Len(t, sources, 1)

	var out []countarray.Entry
	err = mergeRuns(sources, mode, func(e countarray.Entry) error {
		out = append(out, e)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []countarray.Entry{{Suffix: 1, Value: 1}}, out)
}

func TestBucketMaybeSpillNoOpWhenEmpty(t *testing.T) {
	b := newBucket(0, 8, 0, countarray.ModeCount, t.TempDir())
	require.NoError(t, b.maybeSpill())
	require.Empty(t, b.spillPaths)
}
