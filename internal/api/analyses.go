package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/graph"
)

// MoveNote handles POST /api/notes/move.
//
//	@Summary		Rename a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveNoteRequest	true	"Source and destination"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/move [post]
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to are required"))
		return
	}
	note, err := h.svc.MoveNote(r.Context(), req.From, req.To)
	if err != nil {
		writeError(w, "move note", err, slog.String("from", req.From), slog.String("to", req.To))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Links handles GET /api/links/*.
//
//	@Summary		Resolved outgoing links of a note
//	@Tags			graph
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	LinksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/{path} [get]
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	links, err := h.svc.LinkedPaths(r.Context(), path)
	if err != nil {
		writeError(w, "links", err, slog.String("path", path))
		return
	}
	if links == nil {
		links = []string{}
	}
	writeJSON(w, http.StatusOK, LinksResponse{Path: path, Links: links})
}

// Layout handles GET /api/graph/layout/*.
//
//	@Summary		Connection-graph layout around a note
//	@Tags			graph
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	graph.Layout
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph/layout/{path} [get]
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	links, err := h.svc.LinkedPaths(r.Context(), path)
	if err != nil {
		writeError(w, "layout", err, slog.String("path", path))
		return
	}
	if limit := h.settings.Current().MaxLinkedNotes; limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	writeJSON(w, http.StatusOK, graph.Circular(path, links, 0))
}

// TriggerAnalysis handles POST /api/analyses.
//
//	@Summary		Start an analysis run for a note
//	@Description	The run happens in the background; progress arrives as analysis.status and analysis.notice events.
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnalyzeRequest	true	"Note to analyse"
//	@Success		202		{object}	StatusResponse
//	@Failure		429		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses [post]
func (h *Handler) TriggerAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.runner.Admit(r.Context(), req.Path) {
		writeJSON(w, http.StatusTooManyRequests, errorBody("too many analysis runs, try again later"))
		return
	}
	h.runner.Trigger(r.Context(), req.Path)
	writeJSON(w, http.StatusAccepted, statusResponse(h.runner))
}

// ListAnalyses handles GET /api/analyses.
//
//	@Summary		Recent analysis runs
//	@Tags			analysis
//	@Produce		json
//	@Param			source	query		string	false	"Only runs of this note"
//	@Param			limit	query		int		false	"Max runs"
//	@Success		200		{object}	RunsResponse
//	@Security		BearerAuth
//	@Router			/analyses [get]
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.Runs(r.Context(), r.URL.Query().Get("source"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// Status handles GET /api/status.
//
//	@Summary		Current status indicator
//	@Tags			analysis
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse(h.runner))
}

// GetSettings handles GET /api/settings. The API key is masked.
//
//	@Summary		Current settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	settings.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Current().Masked())
}

// UpdateSettings handles PUT /api/settings. Fields absent from the body
// keep their current values; an api_key equal to a masked key as returned
// by GET is treated as unchanged.
//
//	@Summary		Update settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		settings.Settings	true	"Settings (partial)"
//	@Success		200		{object}	settings.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var doc json.RawMessage
	if !decodeJSON(w, r, &doc) {
		return
	}
	s, err := h.settings.Merge(doc)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeError(w, "save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Masked())
}
