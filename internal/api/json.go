package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/soundscapelab/soundscape/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized is
// logged and reported as a 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	if verr, ok := apperr.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrSessionBusy):
		writeJSON(w, http.StatusConflict, errorBody("a recording is already in progress"))
	case errors.Is(err, apperr.ErrUnplayable):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("recording unavailable"))
	case errors.Is(err, apperr.ErrEmptyRecording):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("recording captured no audio"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
