// internal/database/leaderboard.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dekaustubh/matchpoint/internal/models"
)

// AddLeaderboardPoints credits points to the user's row in the room's board,
// creating the row if the user has none yet. Only the match win transition
// calls this; leaderboards are never written on direct client request.
func (s *Store) AddLeaderboardPoints(ctx context.Context, roomID int64, userID uuid.UUID, points int) (*models.LeaderboardEntry, error) {
	q := `
	INSERT INTO leaderboards (room_id, user_id, points, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (room_id, user_id)
	DO UPDATE SET points = leaderboards.points + EXCLUDED.points, updated_at = EXCLUDED.updated_at
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, roomID, userID, points, nowMillis())
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetLeaderboardEntry(ctx, roomID, userID)
}

// GetLeaderboardEntry fetches one member's row. Returns (nil, nil) if absent.
func (s *Store) GetLeaderboardEntry(ctx context.Context, roomID int64, userID uuid.UUID) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	q := `SELECT id, room_id, user_id, points FROM leaderboards WHERE room_id = $1 AND user_id = $2`
	err := s.pool.QueryRow(ctx, q, roomID, userID).Scan(&e.ID, &e.RoomID, &e.UserID, &e.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetLeaderboard returns the room standings, highest points first.
func (s *Store) GetLeaderboard(ctx context.Context, roomID int64, limit, offset int) ([]models.LeaderboardEntry, error) {
	q := `
	SELECT id, room_id, user_id, points
	  FROM leaderboards
	 WHERE room_id = $1
	 ORDER BY points DESC, user_id
	 LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, q, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.UserID, &e.Points); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
