package httpapi

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	appAuth "github.com/same-say/same-say/internal/application/auth"
	"github.com/same-say/same-say/internal/domain/session"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.authSvc.Login(r.Context(), req.Password)
	switch {
	case errors.Is(err, appAuth.ErrPasswordMissing):
		respondFailure(w, http.StatusBadRequest, "Password is required")
		return
	case errors.Is(err, appAuth.ErrInvalidPassword):
		respondFailure(w, http.StatusUnauthorized, "Invalid password")
		return
	case errors.Is(err, appAuth.ErrNotConfigured):
		respondFailure(w, http.StatusInternalServerError, "Server configuration error")
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("login failed")
		respondFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Token: token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		respondFailure(w, http.StatusUnauthorized, "No session token provided")
		return
	}

	err := s.authSvc.Logout(r.Context(), token)
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondFailure(w, http.StatusNotFound, "Session not found")
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("logout failed")
		respondFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}
