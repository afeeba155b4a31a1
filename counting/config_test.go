package counting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marbl/meryl-sub000/kmer"
)

func TestChooseModeRespectsExplicitOverride(t *testing.T) {
	cfg := Config{Schema: kmer.Schema{K: 21}, Memory: 1, Mode: ModePartitionedSort}
	require.Equal(t, ModePartitionedSort, ChooseMode(cfg))

	cfg.Mode = ModeDirectArray
	require.Equal(t, ModeDirectArray, ChooseMode(cfg))
}

func TestChooseModeAutoPicksDirectArrayWhenItFitsComfortably(t *testing.T) {
	cfg := Config{Schema: kmer.Schema{K: 4}, Memory: 1 << 20, Mode: ModeAuto}
	require.Equal(t, ModeDirectArray, ChooseMode(cfg))
}

func TestChooseModeAutoFallsBackToPartitionedSortForLargeK(t *testing.T) {
	cfg := Config{Schema: kmer.Schema{K: 21}, Memory: 1 << 20, Mode: ModeAuto}
	require.Equal(t, ModePartitionedSort, ChooseMode(cfg))
}

func TestChoosePrefixWidthFindsNarrowestWidthFittingBudget(t *testing.T) {
	s := kmer.Schema{K: 16}
	wp, err := ChoosePrefixWidth(s, 1<<30, 1<<20)
	require.NoError(t, err)
	require.GreaterOrEqual(t, wp, 6)
	require.LessOrEqual(t, wp, s.Width())
}

func TestChoosePrefixWidthErrorsWhenNothingFits(t *testing.T) {
	s := kmer.Schema{K: 16}
	_, err := ChoosePrefixWidth(s, 0, 1<<40)
	require.Error(t, err)
}
