// internal/match/errors.go
package match

import "errors"

// Typed failures surfaced by state-machine operations. The HTTP layer maps
// these to status codes; a failed transition emits no event at all.
var (
	// ErrRoomNotFound: the owning room is missing or soft-deleted.
	ErrRoomNotFound = errors.New("room not found")

	// ErrMatchNotFound: no match row for the given id.
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchClosed: the match is no longer accepting joins (status != WAITING).
	ErrMatchClosed = errors.New("match is not accepting players")

	// ErrAlreadyJoined: the user is already in the player list.
	ErrAlreadyJoined = errors.New("user already joined match")

	// ErrUserNotFound: the acting user has no row.
	ErrUserNotFound = errors.New("user not found")

	// ErrUpstream wraps storage collaborator failures.
	ErrUpstream = errors.New("storage failure")

	// ErrNoNextTurn: the turn rotation could not produce a next holder for the
	// current player list. Under TurnPolicyLegacy this fires when the current
	// taker holds the last seat (see TurnPolicy).
	ErrNoNextTurn = errors.New("no next turn holder")
)
