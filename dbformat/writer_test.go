package dbformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/kmer"
)

func TestStreamWriterAndSliceReaderRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	s := kmer.Schema{K: 8}

	w := NewStreamWriter(dir, 0, s, SlicePrefixBits, 32, 2)
	k1, _ := kmer.FromACGT(s, "AAAAAAAA")
	k2, _ := kmer.FromACGT(s, "AAAAAAAC")
	k3, _ := kmer.FromACGT(s, "AAAAAACC")
	w.AddMer(k1, 1, 0)
	w.AddMer(k2, 2, 0)
	w.AddMer(k3, 3, 0)
	require.NoError(t, w.Close(ctx))

	sr, err := NewSliceReader(ctx, dir, 0, s, SlicePrefixBits, 32)
	require.NoError(t, err)

	var got []Triple
	for {
		tr, ok := sr.Next()
		if !ok {
			break
		}
		got = append(got, tr)
	}
	require.Len(t, got, 3)
	require.Equal(t, k1, got[0].Kmer)
	require.Equal(t, uint32(1), got[0].Value)
	require.Equal(t, k2, got[1].Kmer)
	require.Equal(t, k3, got[2].Kmer)
}

func TestNewSliceReaderRejectsCorruptedDataFile(t *testing.T) {
	ctx := vcontext.Background()
	dir := t.TempDir()
	s := kmer.Schema{K: 8}

	w := NewStreamWriter(dir, 0, s, SlicePrefixBits, 32, 2)
	k1, _ := kmer.FromACGT(s, "AAAAAAAA")
	w.AddMer(k1, 1, 0)
	require.NoError(t, w.Close(ctx))

	dataPath := filepath.Join(dir, SliceDataFileName(0))
	raw, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(dataPath, raw, 0o644))

	_, err = NewSliceReader(ctx, dir, 0, s, SlicePrefixBits, 32)
	require.Error(t, err)
}
