// internal/database/room.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dekaustubh/matchpoint/internal/models"
)

// CreateRoom inserts a room with a unique name, makes the creator its first
// member and opens their zero-point leaderboard row. A room's leaderboard id
// is its own id: one board per room.
func (s *Store) CreateRoom(ctx context.Context, name string, createdBy uuid.UUID) (*models.Room, error) {
	var roomID int64
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `INSERT INTO rooms (name, created_by, created_at) VALUES ($1, $2, $3) RETURNING id`
		if err := tx.QueryRow(ctx, q, name, createdBy, nowMillis()).Scan(&roomID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE rooms SET leaderboard_id = id WHERE id = $1`, roomID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, created_at) VALUES ($1, $2, $3)`,
			roomID, createdBy, nowMillis()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO leaderboards (room_id, user_id, points, created_at) VALUES ($1, $2, 0, $3)`,
			roomID, createdBy, nowMillis())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoom(ctx, roomID)
}

// GetRoom fetches a non-deleted room with its member set and leaderboard,
// standings first. Returns (nil, nil) if the room is absent or soft-deleted.
func (s *Store) GetRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	var r models.Room
	q := `SELECT id, name, leaderboard_id, created_by FROM rooms WHERE id = $1 AND deleted_at = 0`
	err := s.pool.QueryRow(ctx, q, roomID).Scan(&r.ID, &r.Name, &r.LeaderboardID, &r.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Members, err = s.GetRoomMembers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	r.Leaderboards, err = s.GetLeaderboard(ctx, roomID, 20, 0)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoomMembers returns the member ids of a non-deleted room, in join order.
// A deleted or unknown room resolves to no members.
func (s *Store) GetRoomMembers(ctx context.Context, roomID int64) ([]uuid.UUID, error) {
	q := `
	SELECT m.user_id
	  FROM room_members m
	  JOIN rooms r ON r.id = m.room_id
	 WHERE m.room_id = $1 AND r.deleted_at = 0
	 ORDER BY m.created_at
	`
	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// JoinRoom adds the user as a member and opens their zero-point leaderboard
// row. Joining a room twice is a no-op.
func (s *Store) JoinRoom(ctx context.Context, roomID int64, userID uuid.UUID) (*models.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, created_at) VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO NOTHING`,
			roomID, userID, nowMillis()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO leaderboards (room_id, user_id, points, created_at) VALUES ($1, $2, 0, $3)
			 ON CONFLICT (room_id, user_id) DO NOTHING`,
			roomID, userID, nowMillis())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetRoom(ctx, roomID)
}

// ListRoomsForUser returns the rooms the user belongs to, newest first.
func (s *Store) ListRoomsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Room, error) {
	q := `
	SELECT r.id, r.name, r.leaderboard_id, r.created_by
	  FROM rooms r
	  JOIN room_members m ON m.room_id = r.id
	 WHERE m.user_id = $1 AND r.deleted_at = 0
	 ORDER BY r.created_at DESC
	 LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.LeaderboardID, &r.CreatedBy); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// DeleteRoom soft-deletes a room owned by ownerID. It reports whether a row
// was actually marked.
func (s *Store) DeleteRoom(ctx context.Context, roomID int64, ownerID uuid.UUID) (bool, error) {
	var marked bool
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE rooms SET deleted_at = $1 WHERE id = $2 AND created_by = $3 AND deleted_at = 0`,
			nowMillis(), roomID, ownerID)
		if err != nil {
			return err
		}
		marked = tag.RowsAffected() > 0
		return nil
	})
	return marked, err
}
