package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/noteservice"
	"github.com/soundscapelab/soundscape/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, receives change events and is mounted at GET /events
// inside the auth group.
func NewRouter(svc *noteservice.Service, store mediastore.Provider, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)
	mh := NewMediaHandler(store, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Recording session.
	r.Post("/recordings/start", h.StartRecording)
	r.Post("/recordings/stop", h.StopRecording)
	r.Post("/recordings/cancel", h.CancelRecording)

	// Playback preview.
	r.Post("/playback/open", h.OpenPlayback)
	r.Post("/playback/play", h.Play)
	r.Post("/playback/pause", h.Pause)
	r.Post("/playback/seek", h.Seek)
	r.Post("/playback/close", h.ClosePlayback)

	// Image import (auth-protected).
	r.Post("/media/images", mh.ImportImage)

	// SSE endpoint (protected by same auth middleware).
	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}

// NewMediaRouter creates the unauthenticated file-serving router mounted at
// /media.
func NewMediaRouter(store mediastore.Provider) chi.Router {
	mh := NewMediaHandler(store, nil)
	r := chi.NewRouter()
	r.Get("/{category}/{filename}", mh.ServeFile)
	return r
}
