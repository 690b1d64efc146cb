// internal/match/turn_test.go
package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyPolicyAdvancesToNextSeat(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	players := []uuid.UUID{a, b, c}

	next, err := TurnPolicyLegacy.Next(players, a)
	require.NoError(t, err)
	assert.Equal(t, b, next)

	next, err = TurnPolicyLegacy.Next(players, b)
	require.NoError(t, err)
	assert.Equal(t, c, next)
}

func TestLegacyPolicyLastSeatHasNoSuccessor(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	players := []uuid.UUID{a, b, c}

	// The rotation this was ported from never wraps: the last seat dead-ends.
	_, err := TurnPolicyLegacy.Next(players, c)
	assert.ErrorIs(t, err, ErrNoNextTurn)
}

func TestLegacyPolicyUnknownTakerResolvesToFirstSeat(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	players := []uuid.UUID{a, b}

	// A taker not on the list lands at index -1, which falls through to
	// players[0].
	next, err := TurnPolicyLegacy.Next(players, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, a, next)
}

func TestLegacyPolicySinglePlayerNeverAdvances(t *testing.T) {
	only := uuid.New()
	_, err := TurnPolicyLegacy.Next([]uuid.UUID{only}, only)
	assert.ErrorIs(t, err, ErrNoNextTurn)
}

func TestWrapPolicyWrapsLastSeatToFirst(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	players := []uuid.UUID{a, b, c}

	next, err := TurnPolicyWrap.Next(players, c)
	require.NoError(t, err)
	assert.Equal(t, a, next)

	next, err = TurnPolicyWrap.Next(players, a)
	require.NoError(t, err)
	assert.Equal(t, b, next)
}

func TestWrapPolicyUnknownTakerResolvesToFirstSeat(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	next, err := TurnPolicyWrap.Next([]uuid.UUID{a, b}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, a, next)
}

func TestEmptyPlayerListHasNoTurn(t *testing.T) {
	_, err := TurnPolicyLegacy.Next(nil, uuid.New())
	assert.ErrorIs(t, err, ErrNoNextTurn)

	_, err = TurnPolicyWrap.Next(nil, uuid.New())
	assert.ErrorIs(t, err, ErrNoNextTurn)
}
