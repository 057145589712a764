package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soundscapelab/soundscape/internal/apperr"
)

// StartRecording handles POST /api/recordings/start.
//
//	@Summary		Start a new recording
//	@Tags			recordings
//	@Success		204	"Recording started"
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recordings/start [post]
func (h *Handler) StartRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StartRecording(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.publishRecording("started", struct{}{})
	w.WriteHeader(http.StatusNoContent)
}

// StopRecording handles POST /api/recordings/stop.
//
//	@Summary		Stop the active recording and return the captured audio
//	@Tags			recordings
//	@Produce		json
//	@Success		200	{object}	RecordingResultResponse
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recordings/stop [post]
func (h *Handler) StopRecording(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.StopRecording(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyRecording) {
			h.publishRecording("failed", map[string]string{"reason": "empty recording"})
		}
		writeError(w, err)
		return
	}
	out := RecordingResultResponse{
		Audio:           toMediaRef(res.Audio),
		DurationSeconds: res.DurationSeconds,
	}
	h.publishRecording("finished", out)
	writeJSON(w, http.StatusOK, out)
}

// CancelRecording handles POST /api/recordings/cancel.
//
//	@Summary		Cancel the active recording and discard its audio
//	@Tags			recordings
//	@Success		204	"Recording discarded"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recordings/cancel [post]
func (h *Handler) CancelRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CancelRecording(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type openPlaybackRequest struct {
	NoteID int64 `json:"noteId" example:"7" validate:"required"`
}

// OpenPlayback handles POST /api/playback/open. Opening a preview while
// another is open closes the previous one first.
//
//	@Summary		Open a playback preview for a note
//	@Tags			playback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		openPlaybackRequest	true	"Note to preview"
//	@Success		200		{object}	PreviewResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/playback/open [post]
func (h *Handler) OpenPlayback(w http.ResponseWriter, r *http.Request) {
	var req openPlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.NoteID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("noteId is required"))
		return
	}

	preview, err := h.svc.OpenPreview(r.Context(), req.NoteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		Note:       toNoteResponse(preview.Note, nil),
		DurationMS: preview.DurationMS,
	})
}

// Play handles POST /api/playback/play.
//
//	@Summary		Start or resume playback
//	@Tags			playback
//	@Success		204	"Playing"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/playback/play [post]
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Play(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pause handles POST /api/playback/pause.
//
//	@Summary		Pause playback
//	@Tags			playback
//	@Success		204	"Paused"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/playback/pause [post]
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Pause(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seek handles POST /api/playback/seek. The requested position is clamped to
// the media duration; the response carries the applied position.
//
//	@Summary		Seek within the open preview
//	@Tags			playback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SeekRequest	true	"Target position"
//	@Success		200		{object}	SeekResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/playback/seek [post]
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	applied, err := h.svc.Seek(r.Context(), req.PositionMS)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SeekResponse{PositionMS: applied})
}

// ClosePlayback handles POST /api/playback/close.
//
//	@Summary		Close the open preview
//	@Tags			playback
//	@Success		204	"Closed"
//	@Security		BearerAuth
//	@Router			/playback/close [post]
func (h *Handler) ClosePlayback(w http.ResponseWriter, r *http.Request) {
	h.svc.ClosePreview(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
