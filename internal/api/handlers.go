package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/soundscapelab/soundscape/internal/noteservice"
	"github.com/soundscapelab/soundscape/internal/notesdb"
	"github.com/soundscapelab/soundscape/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *noteservice.Service
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil; no events are
// published then.
func NewHandler(svc *noteservice.Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

func (h *Handler) publishNote(kind string, id int64) {
	if h.events != nil {
		h.events.PublishNoteEvent(kind, id)
	}
}

func (h *Handler) publishRecording(kind string, data any) {
	if h.events != nil {
		h.events.PublishRecordingEvent(kind, data)
	}
}

// noteID parses the {id} URL parameter.
func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func parseSort(s string) notesdb.Sort {
	switch s {
	case "oldest":
		return notesdb.SortOldest
	case "longest":
		return notesdb.SortLongest
	default:
		return notesdb.SortNewest
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional filtering
//	@Tags			notes
//	@Produce		json
//	@Param			q			query		string	false	"Title substring filter"
//	@Param			withImage	query		bool	false	"Only notes with an image"
//	@Param			longerThan	query		int		false	"Only notes longer than N seconds"
//	@Param			sort		query		string	false	"Sort order"	Enums(newest, oldest, longest)
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	longerThan, _ := strconv.Atoi(q.Get("longerThan"))
	filter := notesdb.Filter{
		TitleQuery:        q.Get("q"),
		OnlyWithImage:     q.Get("withImage") == "true",
		LongerThanSeconds: longerThan,
		Sort:              parseSort(q.Get("sort")),
	}

	notes, err := h.svc.ListNotes(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, toNoteResponse(&notes[i], nil))
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, playable, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note, &playable))
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note from a finished recording
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Audio == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("audio is required"))
		return
	}

	params := noteservice.CreateParams{
		Title:           req.Title,
		Audio:           req.Audio.toModel(),
		DurationSeconds: req.DurationSeconds,
	}
	if req.Image != nil {
		img := req.Image.toModel()
		params.Image = &img
	}

	note, err := h.svc.CreateNote(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publishNote("created", note.ID)
	writeJSON(w, http.StatusCreated, toNoteResponse(note, nil))
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note's title or media
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Changes to apply"
//	@Success		200		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	params := noteservice.UpdateParams{
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		RemoveImage:     req.RemoveImage,
	}
	if req.Audio != nil {
		audio := req.Audio.toModel()
		params.Audio = &audio
	}
	if req.Image != nil {
		img := req.Image.toModel()
		params.Image = &img
	}

	note, err := h.svc.UpdateNote(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publishNote("updated", note.ID)
	writeJSON(w, http.StatusOK, toNoteResponse(note, nil))
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its media files
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.publishNote("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
