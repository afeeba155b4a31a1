package counting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/countarray"
)

func TestWriteSpillAndOpenSpillFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entries := []countarray.Entry{
		{Suffix: 1, Value: 10, Label: 0x1},
		{Suffix: 5, Value: 20, Label: 0x2},
	}
	path, err := writeSpill(dir, entries)
	require.NoError(t, err)

	sf, err := openSpillFile(path)
	require.NoError(t, err)

	e, ok, err := sf.peek()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entries[0], e)
	require.NoError(t, sf.advance())

	e, ok, err = sf.peek()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entries[1], e)
	require.NoError(t, sf.advance())

	_, ok, err = sf.peek()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMergeRunsCombinesEqualSuffixesAcrossRuns(t *testing.T) {
	a := &sliceRun{entries: []countarray.Entry{{Suffix: 1, Value: 2, Label: 0x1}, {Suffix: 3, Value: 1}}}
	b := &sliceRun{entries: []countarray.Entry{{Suffix: 1, Value: 5, Label: 0x2}, {Suffix: 2, Value: 7}}}

	var out []countarray.Entry
	err := mergeRuns([]runSource{a, b}, countarray.ModeCount, func(e countarray.Entry) error {
		out = append(out, e)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []countarray.Entry{
		{Suffix: 1, Value: 7, Label: 0x3},
		{Suffix: 2, Value: 7},
		{Suffix: 3, Value: 1},
	}, out)
}

func TestMergeRunsMultiSetEmitsEveryEntryUnmerged(t *testing.T) {
	a := &sliceRun{entries: []countarray.Entry{{Suffix: 1, Value: 2}}}
	b := &sliceRun{entries: []countarray.Entry{{Suffix: 1, Value: 5}}}

	var out []countarray.Entry
	err := mergeRuns([]runSource{a, b}, countarray.ModeMultiSet, func(e countarray.Entry) error {
		out = append(out, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
}
