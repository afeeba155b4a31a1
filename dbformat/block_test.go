package dbformat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/bitstream"
)

func TestEncodeDecodeBlockRoundTrip(t *testing.T) {
	records := []Record{
		{Suffix: 1, Value: 5, Label: 0x1},
		{Suffix: 4, Value: 9, Label: 0x2},
		{Suffix: 4, Value: 9, Label: 0x3},
		{Suffix: 20, Value: 1, Label: 0x0},
	}
	b := bitstream.New(0)
	encodeBlock(b, 0x7, 4, 8, 16, 4, records)
	b.Seek(0)

	prefix, got := decodeBlock(b, 4, 8, 16, 4)
	require.Equal(t, uint64(0x7), prefix)
	require.Equal(t, records, got)
}

func TestEncodeDecodeBlockEmptyRecords(t *testing.T) {
	b := bitstream.New(0)
	encodeBlock(b, 0x3, 4, 8, 16, 0, nil)
	b.Seek(0)

	prefix, got := decodeBlock(b, 4, 8, 16, 0)
	require.Equal(t, uint64(0x3), prefix)
	require.Empty(t, got)
}

func TestEncodeDecodeBlockWithoutLabels(t *testing.T) {
	records := []Record{{Suffix: 2, Value: 1}, {Suffix: 9, Value: 2}}
	b := bitstream.New(0)
	encodeBlock(b, 0, 4, 8, 16, 0, records)
	b.Seek(0)

	_, got := decodeBlock(b, 4, 8, 16, 0)
	require.Equal(t, records, got)
}

func TestCeilLog2(t *testing.T) {
	require.Equal(t, uint(0), ceilLog2(0))
	require.Equal(t, uint(0), ceilLog2(1))
	require.Equal(t, uint(1), ceilLog2(2))
	require.Equal(t, uint(2), ceilLog2(3))
	require.Equal(t, uint(2), ceilLog2(4))
	require.Equal(t, uint(5), ceilLog2(32))
}
