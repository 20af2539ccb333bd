package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/splitkaro/server/internal/middleware"
	"github.com/splitkaro/server/internal/models"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		http.Error(w, "email and display_name required", http.StatusBadRequest)
		return
	}

	user, err := a.authn.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.jwt.Generate(user)
	if err != nil {
		writeError(w, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// handleMe returns the caller's identity as established by the session
// token, without a database read. Clients use it to check whether a stored
// token is still valid.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": middleware.GetUserID(r.Context()),
		"email":   middleware.GetEmail(r.Context()),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := a.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.jwt.Generate(user)
	if err != nil {
		writeError(w, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
