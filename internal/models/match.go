// internal/models/match.go
package models

import "github.com/google/uuid"

// MatchStatus is the lifecycle state of a match. ENDED is terminal.
type MatchStatus string

const (
	MatchWaiting MatchStatus = "WAITING"
	MatchStarted MatchStatus = "STARTED"
	MatchEnded   MatchStatus = "ENDED"
)

// Match is one instance of gameplay within a room. Players is insertion-ordered
// (join order) with no duplicates; Players[0] is always CreatedBy.
type Match struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	RoomID    int64       `json:"room_id"`
	CreatedBy uuid.UUID   `json:"created_by"`
	Players   []uuid.UUID `json:"players"`
	WinnerID  uuid.UUID   `json:"winner_id,omitempty"`
	Points    int         `json:"points"`
	Status    MatchStatus `json:"status"`
}

// HasPlayer reports whether userID is already in the player list.
func (m *Match) HasPlayer(userID uuid.UUID) bool {
	for _, p := range m.Players {
		if p == userID {
			return true
		}
	}
	return false
}
