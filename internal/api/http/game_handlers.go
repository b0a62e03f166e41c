package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	appGame "github.com/same-say/same-say/internal/application/game"
	"github.com/same-say/same-say/internal/domain/game"
)

type submitGameRequest struct {
	GameID  string `json:"gameId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type submitGameResponse struct {
	Status   game.Status       `json:"status"`
	Message  string            `json:"message,omitempty"`
	Messages map[string]string `json:"messages,omitempty"`
}

const waitingMessage = "Waiting for the other participant's statement."

func (s *Server) submitGame(w http.ResponseWriter, r *http.Request) {
	var req submitGameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	out, err := s.gameSvc.Submit(r.Context(), appGame.SubmitInput{
		GameID:        req.GameID,
		ParticipantID: req.UserID,
		Text:          req.Message,
		Delivery:      appGame.DeliverInline,
	})
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "gameId, userId and message are required")
		return
	case errors.Is(err, game.ErrAlreadySubmitted):
		respondError(w, http.StatusBadRequest, "ALREADY_SUBMITTED", "already submitted")
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Str("game_id", req.GameID).Msg("game submission failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	if out.Finished() {
		respondJSON(w, http.StatusOK, submitGameResponse{Status: out.Status, Messages: out.Messages})
		return
	}
	respondJSON(w, http.StatusOK, submitGameResponse{Status: out.Status, Message: waitingMessage})
}
