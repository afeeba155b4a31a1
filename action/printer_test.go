package action

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/kmer"
)

func TestSplitPathRequiresAtLeastTwoHashes(t *testing.T) {
	require.False(t, SplitPath("out.meryldb"))
	require.False(t, SplitPath("out#.meryldb"))
	require.True(t, SplitPath("out##.meryldb"))
	require.True(t, SplitPath("out#####.meryldb"))
}

func TestExpandSlicePathPadsToHashWidth(t *testing.T) {
	require.Equal(t, "out03.meryldb", ExpandSlicePath("out##.meryldb", 3))
	require.Equal(t, "out00.meryldb", ExpandSlicePath("out##.meryldb", 0))
	require.Equal(t, "out.meryldb", ExpandSlicePath("out.meryldb", 3))
}

func TestPrinterWriteLineWithAndWithoutLabel(t *testing.T) {
	s := kmer.Schema{K: 4}
	k, ok := kmer.FromACGT(s, "ACGT")
	require.True(t, ok)

	var buf bytes.Buffer
	p := NewPrinter(s, false, &buf)
	sw, err := p.SliceWriter(0)
	require.NoError(t, err)
	require.NoError(t, sw.WriteLine(k, 7, 0xFF))
	require.Equal(t, "ACGT\t7\n", buf.String())

	buf.Reset()
	p = NewPrinter(s, true, &buf)
	sw, err = p.SliceWriter(0)
	require.NoError(t, err)
	require.NoError(t, sw.WriteLine(k, 7, 0xFF))
	require.Equal(t, "ACGT\t7\t255\n", buf.String())
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestPrinterSplitPathUsesIndependentPerSliceWriters(t *testing.T) {
	s := kmer.Schema{K: 4}
	k, ok := kmer.FromACGT(s, "ACGT")
	require.True(t, ok)

	bufs := map[int]*bytes.Buffer{0: {}, 1: {}}
	p := NewPrinter(s, false, nil).WithPerSliceWriter(func(slice int) (io.WriteCloser, error) {
		return nopWriteCloser{bufs[slice]}, nil
	})

	sw0, err := p.SliceWriter(0)
	require.NoError(t, err)
	require.NoError(t, sw0.WriteLine(k, 1, 0))
	require.NoError(t, sw0.Close())

	sw1, err := p.SliceWriter(1)
	require.NoError(t, err)
	require.NoError(t, sw1.WriteLine(k, 2, 0))
	require.NoError(t, sw1.Close())

	require.Equal(t, "ACGT\t1\n", bufs[0].String())
	require.Equal(t, "ACGT\t2\n", bufs[1].String())
}

func TestDrainCopiesEveryTripleAndClosesWriter(t *testing.T) {
	s := kmer.Schema{K: 4}
	a, _ := kmer.FromACGT(s, "AAAA")
	c, _ := kmer.FromACGT(s, "CCCC")
	in := &listInput{recs: []Triple{{Kmer: a, Value: 1}, {Kmer: c, Value: 2}}}

	var buf bytes.Buffer
	p := NewPrinter(s, false, &buf)
	sw, err := p.SliceWriter(0)
	require.NoError(t, err)
	require.NoError(t, Drain(in, sw))
	require.Equal(t, "AAAA\t1\nCCCC\t2\n", buf.String())
}
