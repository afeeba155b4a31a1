package countarray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountArrayModeCount(t *testing.T) {
	c := New(0, 8, 0, ModeCount)
	c.Add(5)
	c.Add(3)
	c.Add(5)
	c.Add(5)
	c.Add(1)

	out := c.Flush()
	require.Len(t, out, 3)
	require.Equal(t, uint64(1), out[0].Suffix)
	require.Equal(t, uint32(1), out[0].Value)
	require.Equal(t, uint64(3), out[1].Suffix)
	require.Equal(t, uint32(1), out[1].Value)
	require.Equal(t, uint64(5), out[2].Suffix)
	require.Equal(t, uint32(3), out[2].Value)
}

func TestCountArrayModeMultiSetKeepsEveryEntry(t *testing.T) {
	c := New(0, 8, 0, ModeMultiSet)
	c.ValueWidth = 32
	c.AddValued(5, 10, 0)
	c.AddValued(5, 20, 0)
	out := c.Flush()
	require.Len(t, out, 2)
	require.Equal(t, uint64(5), out[0].Suffix)
	require.Equal(t, uint64(5), out[1].Suffix)
}

func TestCountArrayModeImportedSumSaturates(t *testing.T) {
	c := New(0, 8, 0, ModeImportedSum)
	c.AdaptiveValue = true
	c.AddValued(7, ValueMax-1, 0)
	c.AddValued(7, ValueMax-1, 0)
	out := c.Flush()
	require.Len(t, out, 1)
	require.Equal(t, ValueMax, out[0].Value)
}

func TestCountArrayLabelsOrTogether(t *testing.T) {
	c := New(0, 8, 4, ModeCount)
	c.LabelWidth = 4
	c.AddValued(9, 1, 0x1)
	c.AddValued(9, 1, 0x2)
	out := c.Flush()
	require.Len(t, out, 1)
	require.Equal(t, uint64(0x3), out[0].Label)
}

func TestFlushResetsState(t *testing.T) {
	c := New(0, 8, 0, ModeCount)
	c.Add(1)
	require.Equal(t, 1, c.Len())
	c.Flush()
	require.Equal(t, 0, c.Len())
	require.Empty(t, c.Flush())
}

func TestUsedSizeDeltaIsDeltaSincePreviousCall(t *testing.T) {
	c := New(0, 8, 0, ModeCount)
	first := c.UsedSizeDelta()
	c.Add(1)
	grew := c.UsedSizeDelta()
	require.GreaterOrEqual(t, grew, uint64(0))
	_ = first
	// A second immediate call with no new writes reports no further growth.
	require.Equal(t, uint64(0), c.UsedSizeDelta())
}

func TestSaturatingAdd(t *testing.T) {
	require.Equal(t, uint32(5), SaturatingAdd(2, 3))
	require.Equal(t, ValueMax, SaturatingAdd(ValueMax, 1))
	require.Equal(t, ValueMax, SaturatingAdd(ValueMax-1, 2))
}
