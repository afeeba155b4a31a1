package kmer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromACGTRoundTrip(t *testing.T) {
	s := Schema{K: 8}
	k, ok := FromACGT(s, "ACGTACGT")
	require.True(t, ok)
	require.Equal(t, "ACGTACGT", k.String(s))
}

func TestFromACGTRejectsInvalidBase(t *testing.T) {
	s := Schema{K: 4}
	_, ok := FromACGT(s, "ACGN")
	require.False(t, ok)
}

func TestReverseComplement(t *testing.T) {
	s := Schema{K: 6}
	k, ok := FromACGT(s, "ACGTTG")
	require.True(t, ok)
	rc := k.ReverseComplement(s)
	require.Equal(t, "CAACGT", rc.String(s))
	require.Equal(t, k, rc.ReverseComplement(s))
}

func TestCanonicalPicksSmaller(t *testing.T) {
	s := Schema{K: 4}
	fwd, _ := FromACGT(s, "AAAA")
	rc := fwd.ReverseComplement(s)
	require.True(t, fwd.Canonical(s).Compare(rc) <= 0)
	require.Equal(t, fwd.Canonical(s), rc.Canonical(s))
}

func TestAddRightBuildsWindow(t *testing.T) {
	s := Schema{K: 4}
	var k Kmer
	for _, ch := range []byte("ACGT") {
		k = k.AddRight(s, uint64(BaseCode(ch)))
	}
	require.Equal(t, "ACGT", k.String(s))

	// Sliding one more base in drops the leading A.
	k = k.AddRight(s, uint64(BaseCode('A')))
	require.Equal(t, "CGTA", k.String(s))
}

func TestPrefixSuffixRoundTrip(t *testing.T) {
	s := Schema{K: 16}
	k, ok := FromACGT(s, "ACGTACGTACGTACGT")
	require.True(t, ok)
	for _, nbits := range []int{0, 1, 6, 17, 32} {
		prefix := k.Prefix(s, nbits)
		suffixHi, suffixLo := k.Suffix(s, nbits)
		got := FromPrefixSuffix(s, prefix, nbits, suffixHi, suffixLo)
		require.Equal(t, k, got, "nbits=%d", nbits)
	}
}

func TestCompareOrdersLikeString(t *testing.T) {
	s := Schema{K: 4}
	a, _ := FromACGT(s, "AAAA")
	b, _ := FromACGT(s, "AAAC")
	require.True(t, a.Less(b))
	require.Equal(t, 0, a.Compare(a))
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, Schema{K: 21, LabelWidth: 8}.Validate())
	require.Error(t, Schema{K: 0}.Validate())
	require.Error(t, Schema{K: 65}.Validate())
	require.Error(t, Schema{K: 21, LabelWidth: 65}.Validate())
}
