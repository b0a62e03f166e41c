package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/same-say/same-say/internal/domain/session"
)

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondFailure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sess, err := s.authSvc.Validate(r.Context(), token)
		if errors.Is(err, session.ErrInvalidToken) {
			respondFailure(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("session lookup failed")
			respondFailure(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

// envelope is the body shape of the web and auth endpoints.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Error: message})
}
