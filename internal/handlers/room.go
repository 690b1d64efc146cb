// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type createRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoomHandler creates a room; the creator becomes its first member and
// gets a zero-point leaderboard row.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "room name is required", http.StatusBadRequest)
		return
	}

	room, err := s.Store.CreateRoom(r.Context(), req.Name, userID)
	if err != nil {
		s.Log.Warnf("room create failed for user %s: %v", userID, err)
		http.Error(w, "could not create room", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// GetRoomHandler returns a room with its members and leaderboard.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	room, err := s.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		http.Error(w, "could not fetch room", http.StatusInternalServerError)
		return
	}
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// JoinRoomHandler adds the caller to the room's member set.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	room, err := s.Store.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		s.Log.Warnf("room %d join failed for user %s: %v", roomID, userID, err)
		http.Error(w, "could not join room", http.StatusInternalServerError)
		return
	}
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// ListRoomsHandler returns the caller's rooms.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	limit, offset := 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	rooms, err := s.Store.ListRoomsForUser(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "could not list rooms", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// DeleteRoomHandler soft-deletes a room; only the creator may do this.
func (s *Server) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	marked, err := s.Store.DeleteRoom(r.Context(), roomID, userID)
	if err != nil {
		http.Error(w, "could not delete room", http.StatusInternalServerError)
		return
	}
	if !marked {
		http.Error(w, "room not found or not owned by caller", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeaderboardHandler returns the room standings, highest points first.
func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	roomID, ok := pathID(r, "roomID")
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	entries, err := s.Store.GetLeaderboard(r.Context(), roomID, 20, 0)
	if err != nil {
		http.Error(w, "could not fetch leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
