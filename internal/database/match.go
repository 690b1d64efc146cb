// internal/database/match.go
package database

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dekaustubh/matchpoint/internal/match"
	"github.com/dekaustubh/matchpoint/internal/models"
)

// Matches store their ordered player list as a comma-joined text column, the
// way the original schema did. Join order is preserved by construction: new
// players are only ever appended.

func joinPlayers(players []uuid.UUID) string {
	parts := make([]string, len(players))
	for i, p := range players {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

func splitPlayers(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	players := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		players = append(players, id)
	}
	return players, nil
}

// CreateMatch inserts a WAITING match whose only player is its creator.
func (s *Store) CreateMatch(ctx context.Context, roomID int64, creator uuid.UUID, name string) (*models.Match, error) {
	var matchID int64
	q := `
	INSERT INTO matches (name, room_id, created_by, players, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q,
			name, roomID, creator, creator.String(), models.MatchWaiting, nowMillis(),
		).Scan(&matchID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, matchID)
}

// GetMatch fetches a non-deleted match. Returns (nil, nil) if absent.
func (s *Store) GetMatch(ctx context.Context, matchID int64) (*models.Match, error) {
	var (
		m       models.Match
		players string
		winner  *uuid.UUID
	)
	q := `
	SELECT id, name, room_id, created_by, players, winner_id, points, status
	  FROM matches
	 WHERE id = $1 AND deleted_at = 0
	`
	err := s.pool.QueryRow(ctx, q, matchID).Scan(
		&m.ID, &m.Name, &m.RoomID, &m.CreatedBy, &players, &winner, &m.Points, &m.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if winner != nil {
		m.WinnerID = *winner
	}
	m.Players, err = splitPlayers(players)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMatchPlayers returns just the ordered player list of a match.
func (s *Store) GetMatchPlayers(ctx context.Context, matchID int64) ([]uuid.UUID, error) {
	var players string
	q := `SELECT players FROM matches WHERE id = $1 AND deleted_at = 0`
	err := s.pool.QueryRow(ctx, q, matchID).Scan(&players)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitPlayers(players)
}

// UpdateMatch applies a partial patch to the match row and returns the updated
// match, or (nil, nil) if the match does not exist.
func (s *Store) UpdateMatch(ctx context.Context, matchID int64, patch match.Patch) (*models.Match, error) {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		set := []string{"updated_at = $1"}
		args := []interface{}{nowMillis()}

		if patch.WinnerID != nil {
			args = append(args, *patch.WinnerID)
			set = append(set, "winner_id = $"+itoa(len(args)))
		}
		if patch.Status != nil {
			args = append(args, *patch.Status)
			set = append(set, "status = $"+itoa(len(args)))
		}
		if patch.Players != nil {
			args = append(args, joinPlayers(patch.Players))
			set = append(set, "players = $"+itoa(len(args)))
		}
		if patch.Points != nil {
			args = append(args, *patch.Points)
			set = append(set, "points = $"+itoa(len(args)))
		}

		args = append(args, matchID)
		q := "UPDATE matches SET " + strings.Join(set, ", ") +
			" WHERE id = $" + itoa(len(args)) + " AND deleted_at = 0"
		_, err := tx.Exec(ctx, q, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, matchID)
}

// ListRoomMatches returns the matches of a room, newest first.
func (s *Store) ListRoomMatches(ctx context.Context, roomID int64) ([]models.Match, error) {
	q := `
	SELECT id, name, room_id, created_by, players, winner_id, points, status
	  FROM matches
	 WHERE room_id = $1 AND deleted_at = 0
	 ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var (
			m       models.Match
			players string
			winner  *uuid.UUID
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.RoomID, &m.CreatedBy, &players, &winner, &m.Points, &m.Status); err != nil {
			return nil, err
		}
		if winner != nil {
			m.WinnerID = *winner
		}
		if m.Players, err = splitPlayers(players); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
