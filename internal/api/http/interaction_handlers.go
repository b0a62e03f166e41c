package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/same-say/same-say/internal/domain/interaction"
)

type rawBodyKey struct{}

func withRawBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, rawBodyKey{}, body)
}

func rawBodyFromContext(ctx context.Context) []byte {
	b, _ := ctx.Value(rawBodyKey{}).([]byte)
	return b
}

// verifySignature reads the untouched body and checks the Ed25519
// signature before anything parses it.
func (s *Server) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_BODY", "failed to read body")
			return
		}

		sig := r.Header.Get(interaction.HeaderSignature)
		ts := r.Header.Get(interaction.HeaderTimestamp)
		if sig == "" || ts == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing signature headers")
			return
		}
		if s.verifier == nil {
			hlog.FromRequest(r).Error().Msg("no public key configured, rejecting interaction")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid signature")
			return
		}
		if err := s.verifier.Verify(sig, ts, body); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("signature rejected")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid signature")
			return
		}
		next.ServeHTTP(w, r.WithContext(withRawBody(r.Context(), body)))
	})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	in, err := interaction.Decode(rawBodyFromContext(r.Context()))
	if err != nil {
		respondInteractionError(w, r, err)
		return
	}

	resp, err := s.router.Handle(r.Context(), in)
	if err != nil {
		respondInteractionError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondInteractionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interaction.ErrMalformed):
		respondError(w, http.StatusBadRequest, "MALFORMED_INTERACTION", err.Error())
	case errors.Is(err, interaction.ErrUnknownInteraction):
		respondError(w, http.StatusBadRequest, "UNKNOWN_INTERACTION", "unknown interaction")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("interaction failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
