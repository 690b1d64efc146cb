// internal/match/turn.go
package match

import "github.com/google/uuid"

// TurnPolicy selects how the rotation picks the next turn holder.
//
// The service this system was ported from compared the current taker's index
// against len(players) when deciding whether to wrap, a value a linear search
// can never return. The practical effect: a missing taker resolves to seat 0
// (index -1 falls through to index+1), and the LAST seat has no successor at
// all. TurnPolicyLegacy keeps that behavior bit-for-bit; TurnPolicyWrap is the
// evidently intended rotation that wraps the last seat back to seat 0. Tests
// pin both.
type TurnPolicy int

const (
	TurnPolicyLegacy TurnPolicy = iota
	TurnPolicyWrap
)

// Next computes the holder of the turn after current within players.
func (p TurnPolicy) Next(players []uuid.UUID, current uuid.UUID) (uuid.UUID, error) {
	if len(players) == 0 {
		return uuid.Nil, ErrNoNextTurn
	}

	idx := -1
	for i, id := range players {
		if id == current {
			idx = i
			break
		}
	}

	switch p {
	case TurnPolicyWrap:
		if idx == -1 || idx == len(players)-1 {
			return players[0], nil
		}
		return players[idx+1], nil
	default: // TurnPolicyLegacy
		if idx == len(players) {
			// Unreachable for any idx produced above; kept to mirror the
			// source rotation exactly.
			return players[0], nil
		}
		if idx+1 >= len(players) {
			return uuid.Nil, ErrNoNextTurn
		}
		return players[idx+1], nil
	}
}
