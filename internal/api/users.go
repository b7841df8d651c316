package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harvco/telemetry-core/internal/auth"
)

// registerRequest is the request body for POST /users.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a new user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleMe returns the authenticated user's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// handleMyDevices returns all devices owned by the authenticated user,
// including deactivated ones.
func (s *Server) handleMyDevices(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	limit, offset := paginationParams(r)
	devices, err := s.devices.ListByOwner(r.Context(), user.ID, false, limit, offset)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}
