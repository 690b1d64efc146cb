// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dekaustubh/matchpoint/internal/match"
	"github.com/dekaustubh/matchpoint/internal/models"
)

type createMatchRequest struct {
	Name string `json:"name"`
}

type takeTurnRequest struct {
	Number      int       `json:"number"`
	CurrentTurn uuid.UUID `json:"current_turn"`
}

type takeTurnResponse struct {
	Number   int       `json:"number"`
	NextTurn uuid.UUID `json:"next_turn"`
}

type winRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

type updateMatchRequest struct {
	WinnerID *uuid.UUID          `json:"winner_id"`
	Status   *models.MatchStatus `json:"status"`
	Players  []uuid.UUID         `json:"players"`
	Points   *int                `json:"points"`
}

// CreateMatchHandler opens a match in a room. Everyone else in the room is
// notified over their live sessions.
func (s *Server) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.Matches.Create(r.Context(), roomID, userID, req.Name)
	if err != nil {
		s.Log.Warnf("match create failed in room %d: %v", roomID, err)
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetMatchHandler fetches a match by id.
func (s *Server) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	m, err := s.Matches.Get(r.Context(), matchID)
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListMatchesHandler returns the room's matches, newest first.
func (s *Server) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	matches, err := s.Store.ListRoomMatches(r.Context(), roomID)
	if err != nil {
		http.Error(w, "could not list matches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// JoinMatchHandler adds the caller to a WAITING match.
func (s *Server) JoinMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	m, err := s.Matches.Join(r.Context(), matchID, roomID, userID)
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// StartMatchHandler moves the match to STARTED.
func (s *Server) StartMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	m, err := s.Matches.Start(r.Context(), matchID, roomID, userID)
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// TakeTurnHandler relays a played turn: nothing is persisted, the other
// players just learn the turn number and who plays next.
func (s *Server) TakeTurnHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var req takeTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	next, err := s.Matches.TakeTurn(r.Context(), matchID, roomID, userID, req.Number, req.CurrentTurn)
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, takeTurnResponse{Number: req.Number, NextTurn: next.ID})
}

// WinMatchHandler ends the match and credits the winner's leaderboard row.
func (s *Server) WinMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	winnerID := userID
	var req winRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.WinnerID != uuid.Nil {
		winnerID = req.WinnerID
	}

	m, err := s.Matches.Win(r.Context(), matchID, roomID, winnerID)
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMatchHandler is the escape hatch: it patches winner, status and
// players directly, bypassing the transition guards. No event is emitted and
// invariants are the caller's responsibility.
func (s *Server) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	matchID, ok := pathID(r, "matchID")
	if !ok {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	var req updateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.Matches.Update(r.Context(), matchID, match.Patch{
		WinnerID: req.WinnerID,
		Status:   req.Status,
		Players:  req.Players,
		Points:   req.Points,
	})
	if err != nil {
		http.Error(w, err.Error(), matchErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}
