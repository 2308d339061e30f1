package fsm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/token"
)

const (
	kindA token.Kind = token.KindUserBase + iota
	kindB
	kindErrorRule
)

func sampleTable() fsm.Table {
	return fsm.NewTable([]fsm.State{
		{ID: 0, Name: "start", Transitions: []fsm.Transition{
			{TokenID: uint32(kindA), NextState: 1, Action: 1, HasAction: true},
		}},
		{ID: 1, Name: "mid", Transitions: []fsm.Transition{
			{TokenID: uint32(kindB), NextState: 2},
			{TokenID: fsm.ERROR, NextState: 1},
		}},
		{ID: 2, Name: "done", Transitions: nil},
	})
}

func TestNewTablePanicsOnMismatchedStateIndex(t *testing.T) {
	assert.Panics(t, func() {
		fsm.NewTable([]fsm.State{{ID: 5, Name: "bad"}})
	})
}

func TestStepFollowsExactMatch(t *testing.T) {
	table := sampleTable()
	tr, err := table.Step(0, token.Token{Kind: kindA})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tr.NextState)
	assert.True(t, tr.HasAction)
	assert.Equal(t, uint32(1), tr.Action)
}

func TestStepFallsBackToErrorTransition(t *testing.T) {
	table := sampleTable()
	tr, err := table.Step(1, token.Token{Kind: kindErrorRule})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tr.NextState)
	assert.False(t, tr.HasAction)
}

func TestStepReturnsUnexpectedTokenWithExpectedIDs(t *testing.T) {
	table := sampleTable()
	_, err := table.Step(0, token.Token{Kind: kindB})

	var ut *fsm.UnexpectedToken
	require.True(t, errors.As(err, &ut))
	assert.Equal(t, []uint32{uint32(kindA)}, ut.Expected)
	assert.Equal(t, "start", ut.State.Name)
}

func TestStepPanicsOnOutOfRangeState(t *testing.T) {
	table := sampleTable()
	assert.Panics(t, func() {
		_, _ = table.Step(99, token.Token{Kind: kindA})
	})
}

func TestRecoveryIsSyncToken(t *testing.T) {
	r := fsm.Recovery{SyncTokenIDs: []uint32{uint32(kindA), uint32(kindB)}, ResyncState: 0}
	assert.True(t, r.IsSyncToken(uint32(kindA)))
	assert.False(t, r.IsSyncToken(uint32(kindErrorRule)))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "strict", fsm.Strict.String())
	assert.Equal(t, "normal", fsm.Normal.String())
	assert.Equal(t, "lenient", fsm.Lenient.String())
	assert.Equal(t, "validation", fsm.Validation.String())
	assert.Equal(t, "unknown", fsm.Mode(99).String())
}

func TestRecoveryHintReturnsClosestName(t *testing.T) {
	hint := fsm.RecoveryHint([]byte("tru"), []string{"true", "false", "null"})
	assert.Contains(t, hint, "true")
}

func TestRecoveryHintEmptyWhenNoNames(t *testing.T) {
	assert.Equal(t, "", fsm.RecoveryHint([]byte("x"), nil))
	assert.Equal(t, "", fsm.RecoveryHint(nil, []string{"x"}))
}
