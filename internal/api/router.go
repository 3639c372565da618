package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notelens/internal/analysis"
	"github.com/starford/notelens/internal/noteservice"
	"github.com/starford/notelens/internal/settings"
)

// RouterConfig carries the dependencies of the API router.
type RouterConfig struct {
	Notes    *noteservice.Service
	Runner   *analysis.Runner
	Settings *settings.Store

	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string

	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Notes, cfg.Runner, cfg.Settings)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/move", h.MoveNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search.
	r.Get("/search", h.Search)

	// Graph and links.
	r.Get("/graph", h.Graph)
	r.Get("/graph/layout/*", h.Layout)
	r.Get("/links/*", h.Links)

	// Analysis.
	r.Post("/analyses", h.TriggerAnalysis)
	r.Get("/analyses", h.ListAnalyses)
	r.Get("/status", h.Status)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
