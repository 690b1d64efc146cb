// internal/directory/directory.go
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the slice of the storage layer the directory needs. It is satisfied
// by *database.Store.
type Store interface {
	GetMatchPlayers(ctx context.Context, matchID int64) ([]uuid.UUID, error)
	GetRoomMembers(ctx context.Context, roomID int64) ([]uuid.UUID, error)
}

// Directory resolves who should receive events for a given match or room. It
// never caches: every call reads the authoritative player list or member set
// from storage at that moment, so fan-out never acts on stale membership.
// Callers filter out the acting user before dispatch.
type Directory struct {
	store Store
}

func New(store Store) *Directory {
	return &Directory{store: store}
}

// MatchParticipants returns the ordered player list of the match.
func (d *Directory) MatchParticipants(ctx context.Context, matchID int64) ([]uuid.UUID, error) {
	players, err := d.store.GetMatchPlayers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("resolve match %d participants: %w", matchID, err)
	}
	return players, nil
}

// RoomParticipants returns the member set of the room.
func (d *Directory) RoomParticipants(ctx context.Context, roomID int64) ([]uuid.UUID, error) {
	members, err := d.store.GetRoomMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("resolve room %d participants: %w", roomID, err)
	}
	return members, nil
}
