// internal/events/events.go
package events

import "github.com/google/uuid"

// Type is the message_type discriminant carried by every websocket event.
// The set is the full wire enum shared with clients; TypeMatchLeave and
// TypeUpdate are client-facing values the server never emits.
type Type string

const (
	TypeConnect     Type = "CONNECT"
	TypeHeartbeat   Type = "HEARTBEAT"
	TypeMatchCreate Type = "MATCH_CREATE"
	TypeMatchJoin   Type = "JOIN"
	TypeMatchStart  Type = "START"
	TypeMatchLeave  Type = "LEAVE"
	TypeTakeTurn    Type = "TAKE_TURN"
	TypeUpdate      Type = "UPDATE"
	TypeWin         Type = "WIN"
)

// Event is any outbound websocket payload. Kind returns the discriminant so
// the dispatcher can log what it delivered without reflecting on the struct.
type Event interface {
	Kind() Type
}

// NextTurnUser is the minimal identity of the player holding the next turn,
// embedded in MatchTurn payloads.
type NextTurnUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Connect is the handshake message a client sends right after the websocket
// upgrade to bind the connection to its user. It is a session-registration
// request, not a state event; the server never fans it out.
type Connect struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
}

func (e Connect) Kind() Type { return TypeConnect }

// Heartbeat is an application-level keep-alive echoed back by the server.
type Heartbeat struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
}

func (e Heartbeat) Kind() Type { return TypeHeartbeat }

// MatchCreated notifies room members that a match opened in their room.
type MatchCreated struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	MatchID     int64     `json:"match_id"`
	RoomID      int64     `json:"room_id"`
}

func (e MatchCreated) Kind() Type { return TypeMatchCreate }

// NewMatchCreated builds a MatchCreated with the discriminant filled in.
func NewMatchCreated(actor uuid.UUID, actorName string, matchID, roomID int64) MatchCreated {
	return MatchCreated{MessageType: TypeMatchCreate, UserID: actor, UserName: actorName, MatchID: matchID, RoomID: roomID}
}

// MatchJoined notifies existing players that a user joined their match.
type MatchJoined struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	MatchID     int64     `json:"match_id"`
	RoomID      int64     `json:"room_id"`
}

func (e MatchJoined) Kind() Type { return TypeMatchJoin }

func NewMatchJoined(actor uuid.UUID, actorName string, matchID, roomID int64) MatchJoined {
	return MatchJoined{MessageType: TypeMatchJoin, UserID: actor, UserName: actorName, MatchID: matchID, RoomID: roomID}
}

// MatchStarted notifies players that the match moved to STARTED.
type MatchStarted struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	MatchID     int64     `json:"match_id"`
	RoomID      int64     `json:"room_id"`
}

func (e MatchStarted) Kind() Type { return TypeMatchStart }

func NewMatchStarted(actor uuid.UUID, actorName string, matchID, roomID int64) MatchStarted {
	return MatchStarted{MessageType: TypeMatchStart, UserID: actor, UserName: actorName, MatchID: matchID, RoomID: roomID}
}

// MatchTurn carries the turn number just played and who holds the next turn.
type MatchTurn struct {
	MessageType Type          `json:"message_type"`
	UserID      uuid.UUID     `json:"user_id"`
	UserName    string        `json:"user_name"`
	MatchID     int64         `json:"match_id"`
	RoomID      int64         `json:"room_id"`
	NextTurn    *NextTurnUser `json:"next_turn"`
	Number      int           `json:"number"`
}

func (e MatchTurn) Kind() Type { return TypeTakeTurn }

func NewMatchTurn(actor uuid.UUID, actorName string, matchID, roomID int64, next *NextTurnUser, number int) MatchTurn {
	return MatchTurn{MessageType: TypeTakeTurn, UserID: actor, UserName: actorName, MatchID: matchID, RoomID: roomID, NextTurn: next, Number: number}
}

// MatchWon notifies the losing players that the match ended and what the
// winner scored.
type MatchWon struct {
	MessageType Type      `json:"message_type"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	MatchID     int64     `json:"match_id"`
	RoomID      int64     `json:"room_id"`
	Points      int       `json:"points"`
}

func (e MatchWon) Kind() Type { return TypeWin }

func NewMatchWon(winner uuid.UUID, winnerName string, matchID, roomID int64, points int) MatchWon {
	return MatchWon{MessageType: TypeWin, UserID: winner, UserName: winnerName, MatchID: matchID, RoomID: roomID, Points: points}
}
