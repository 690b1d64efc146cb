// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dekaustubh/matchpoint/internal/auth"
	"github.com/dekaustubh/matchpoint/internal/database"
	"github.com/dekaustubh/matchpoint/internal/match"
	"github.com/dekaustubh/matchpoint/internal/session"
)

// Server bundles the collaborators the HTTP and websocket handlers need. One
// instance is created at process start and shared by every handler.
type Server struct {
	Store    *database.Store
	Registry *session.Registry
	Matches  *match.Service
	Log      *logrus.Logger
}

func NewServer(store *database.Store, registry *session.Registry, matches *match.Service, log *logrus.Logger) *Server {
	return &Server{
		Store:    store,
		Registry: registry,
		Matches:  matches,
		Log:      log,
	}
}

// authenticate resolves the calling user from the auth_token cookie. It writes
// the error response itself and returns uuid.Nil if authentication fails.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	token := extractCookieToken(cookie, "auth_token")

	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "invalid user id format in token", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

// extractCookieToken extracts a named cookie value from the Cookie header, or
// returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// pathID parses a decimal path segment captured by the mux pattern.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// matchErrorStatus maps the match service's typed failures to HTTP status codes.
func matchErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, match.ErrMatchNotFound),
		errors.Is(err, match.ErrRoomNotFound),
		errors.Is(err, match.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, match.ErrMatchClosed),
		errors.Is(err, match.ErrAlreadyJoined),
		errors.Is(err, match.ErrNoNextTurn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
