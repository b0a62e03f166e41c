package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/same-say/same-say/internal/domain/kv"
)

// crudRequest keeps value raw so a non-string value is reported as a
// validation error rather than a decode failure.
type crudRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func decodeCrud(w http.ResponseWriter, r *http.Request, needValue bool) (string, string, bool) {
	var req crudRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid request body")
		return "", "", false
	}
	if err := kv.ValidateKey(req.Key); err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	if !needValue {
		return req.Key, "", true
	}
	var value string
	if len(req.Value) == 0 || req.Value[0] != '"' || json.Unmarshal(req.Value, &value) != nil {
		respondFailure(w, http.StatusBadRequest, "Value must be a string")
		return "", "", false
	}
	return req.Key, value, true
}

func respondCrudError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, kv.ErrInvalidKey), errors.Is(err, kv.ErrInvalidValue):
		respondFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, kv.ErrKeyExists):
		respondFailure(w, http.StatusConflict, "Key already exists")
	case errors.Is(err, kv.ErrKeyNotFound):
		respondFailure(w, http.StatusNotFound, "Key not found")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("crud operation failed")
		respondFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) crudCreate(w http.ResponseWriter, r *http.Request) {
	key, value, ok := decodeCrud(w, r, true)
	if !ok {
		return
	}
	if err := s.crudSvc.Create(r.Context(), key, value); err != nil {
		respondCrudError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"key": key, "value": value, "created": true}})
}

func (s *Server) crudGet(w http.ResponseWriter, r *http.Request) {
	key, _, ok := decodeCrud(w, r, false)
	if !ok {
		return
	}
	value, found, err := s.crudSvc.Get(r.Context(), key)
	if err != nil {
		respondCrudError(w, r, err)
		return
	}
	var v any
	if found {
		v = value
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"key": key, "value": v, "exists": found}})
}

func (s *Server) crudUpdate(w http.ResponseWriter, r *http.Request) {
	key, value, ok := decodeCrud(w, r, true)
	if !ok {
		return
	}
	if err := s.crudSvc.Update(r.Context(), key, value); err != nil {
		respondCrudError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"key": key, "value": value, "updated": true}})
}

func (s *Server) crudDelete(w http.ResponseWriter, r *http.Request) {
	key, _, ok := decodeCrud(w, r, false)
	if !ok {
		return
	}
	deleted, err := s.crudSvc.Delete(r.Context(), key)
	if err != nil {
		respondCrudError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{"key": key, "deleted": deleted}})
}
