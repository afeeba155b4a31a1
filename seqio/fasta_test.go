package seqio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r Reader, bufSize int) (string, []bool) {
	t.Helper()
	var seq strings.Builder
	var boundaries []bool
	buf := make([]byte, bufSize)
	for {
		n, eor, err := r.LoadBases(buf)
		require.NoError(t, err)
		seq.Write(buf[:n])
		boundaries = append(boundaries, eor)
		if n == 0 && eor {
			break
		}
	}
	return seq.String(), boundaries
}

func TestFASTAReaderSkipsHeadersAndJoinsSequenceLines(t *testing.T) {
	f := NewFASTAReader(strings.NewReader(">r1\nACGT\nACG\n>r2\nTTTT\n"))
	seq, boundaries := readAll(t, f, 16)
	require.Equal(t, "ACGTACGTTTT", seq)
	require.True(t, boundaries[0])
	require.NoError(t, f.Close())
}

func TestFASTAReaderRecordBoundaryFallsOnHeader(t *testing.T) {
	f := NewFASTAReader(strings.NewReader(">r1\nACGT\n>r2\nGGGG\n"))
	first, _, err := readTriple(f, 16)
	require.NoError(t, err)
	require.Equal(t, "ACGT", first)

	second, _, err := readTriple(f, 16)
	require.NoError(t, err)
	require.Equal(t, "GGGG", second)
}

func TestFASTAReaderWithSmallBufferNeverFalsePositivesBoundary(t *testing.T) {
	f := NewFASTAReader(strings.NewReader(">r1\nACGTACGTAC\n"))
	buf := make([]byte, 3)
	var seq strings.Builder
	for {
		n, eor, err := f.LoadBases(buf)
		require.NoError(t, err)
		seq.Write(buf[:n])
		if n == 0 && eor {
			break
		}
		if n < len(buf) {
			require.True(t, eor)
			break
		}
	}
	require.Equal(t, "ACGTACGTAC", seq.String())
}

func readTriple(r Reader, bufSize int) (string, bool, error) {
	var seq strings.Builder
	buf := make([]byte, bufSize)
	for {
		n, eor, err := r.LoadBases(buf)
		if err != nil {
			return seq.String(), eor, err
		}
		seq.Write(buf[:n])
		if eor {
			return seq.String(), eor, nil
		}
	}
}
