// internal/models/room.go
package models

import "github.com/google/uuid"

// Room is a named group of users sharing a leaderboard and a stream of matches.
// The creator is always an implicit member. Rooms are soft-deleted: a nonzero
// DeletedAt excludes the room from membership resolution but the row stays.
type Room struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	LeaderboardID int64              `json:"leaderboard_id"`
	CreatedBy     uuid.UUID          `json:"created_by"`
	Members       []uuid.UUID        `json:"members"`
	Leaderboards  []LeaderboardEntry `json:"leaderboards,omitempty"`
}

// LeaderboardEntry is one member's point total within a room. Points are only
// ever written by the match win transition, never by a direct client request.
type LeaderboardEntry struct {
	ID     int64     `json:"id"`
	RoomID int64     `json:"room_id"`
	UserID uuid.UUID `json:"user_id"`
	Points int       `json:"points"`
}
