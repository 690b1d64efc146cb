// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dekaustubh/matchpoint/internal/models"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// CreateUserHandler registers a new user and returns it (password omitted).
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	}

	user := models.User{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := s.Store.CreateUser(r.Context(), &user); err != nil {
		s.Log.Warnf("user create failed for %s: %v", req.Email, err)
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler verifies credentials, sets the auth_token cookie and returns
// the token alongside the user.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.Store.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		http.Error(w, "could not load user", http.StatusInternalServerError)
		return
	}
	user.Password = ""

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: *user})
}
