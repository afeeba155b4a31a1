package action

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalValueMulSaturates(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, value: 1 << 20}, {inputIdx: 1, value: 1 << 20}}
	got := evalValue(ValueAssign{Rule: ValueMul, C: Const(1)}, active, nil, -1)
	require.Equal(t, uint32(^uint32(0)), got)
}

func TestEvalValueDivRoundsUp(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, value: 10}}
	got := evalValue(ValueAssign{Rule: ValueDivRoundUp, C: Const(3)}, active, nil, -1)
	require.Equal(t, uint32(4), got)
}

func TestEvalValueMod(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, value: 10}}
	got := evalValue(ValueAssign{Rule: ValueMod, C: Const(3)}, active, nil, -1)
	require.Equal(t, uint32(1), got)
}

func TestEvalValueSubFromInputSubtractsOthers(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, value: 10}, {inputIdx: 1, value: 3}}
	cur := []current{{ok: true, value: 10, asUint64: 10}, {ok: true, value: 3, asUint64: 3}}
	got := evalValue(ValueAssign{Rule: ValueSub, C: FromInput(0)}, active, cur, -1)
	require.Equal(t, uint32(7), got)
}

func TestEvalValueCountReturnsActiveLen(t *testing.T) {
	active := []activeEntry{{inputIdx: 0}, {inputIdx: 1}, {inputIdx: 2}}
	got := evalValue(ValueAssign{Rule: ValueCount}, active, nil, -1)
	require.Equal(t, uint32(3), got)
}

func TestEvalLabelShiftAndRotate(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, label: 0x1}}
	shifted := evalLabel(LabelAssign{Rule: LabelShiftPlus, C: Const(2)}, active, nil, 4, -1)
	require.Equal(t, uint64(0x4), shifted)

	rotated := evalLabel(LabelAssign{Rule: LabelRotatePlus, C: Const(1)}, active, nil, 4, -1)
	require.Equal(t, uint64(0x2), rotated)

	fullRotate := evalLabel(LabelAssign{Rule: LabelRotatePlus, C: Const(4)}, []activeEntry{{inputIdx: 0, label: 0x9}}, nil, 4, -1)
	require.Equal(t, uint64(0x9), fullRotate)
}

func TestEvalLabelAndOrXor(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, label: 0b1100}, {inputIdx: 1, label: 0b1010}}
	require.Equal(t, uint64(0b1000), evalLabel(LabelAssign{Rule: LabelAnd}, active, nil, 4, -1))
	require.Equal(t, uint64(0b1110), evalLabel(LabelAssign{Rule: LabelOr}, active, nil, 4, -1))
	require.Equal(t, uint64(0b0110), evalLabel(LabelAssign{Rule: LabelXor}, active, nil, 4, -1))
}

func TestEvalLabelInvertMasksToWidth(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, label: 0b0001}}
	got := evalLabel(LabelAssign{Rule: LabelInvert}, active, nil, 4, -1)
	require.Equal(t, uint64(0b1110), got)
}

func TestLabelChosenIndexLightestAndHeaviest(t *testing.T) {
	active := []activeEntry{{inputIdx: 0, label: 0b1111}, {inputIdx: 1, label: 0b0001}}
	require.Equal(t, 1, labelChosenIndex(LabelLightest, active))
	require.Equal(t, 0, labelChosenIndex(LabelHeaviest, active))
}

func TestPopcount(t *testing.T) {
	require.Equal(t, 0, popcount(0))
	require.Equal(t, 4, popcount(0xF))
	require.Equal(t, 1, popcount(0x8000000000000000))
}
