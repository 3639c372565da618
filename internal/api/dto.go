package api

import (
	"github.com/starford/notelens/internal/analysis"
	"github.com/starford/notelens/internal/index"
	"github.com/starford/notelens/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// MoveNoteRequest is the request body for renaming a note.
type MoveNoteRequest struct {
	From string `json:"from" example:"notes/old.md" validate:"required"`
	To   string `json:"to" example:"notes/new.md" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the vault graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes" validate:"required"`
	Links []index.GraphLink `json:"links" validate:"required"`
}

// LinksResponse lists the resolved outgoing links of a note.
type LinksResponse struct {
	Path  string   `json:"path" example:"notes/hello.md" validate:"required"`
	Links []string `json:"links" validate:"required"`
}

// AnalyzeRequest is the request body for starting an analysis run.
type AnalyzeRequest struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// StatusResponse reports the status indicator.
type StatusResponse struct {
	State string `json:"state" example:"Ready" validate:"required"`
	Label string `json:"label" example:"DeepSeek: Ready" validate:"required"`
}

func statusResponse(r *analysis.Runner) StatusResponse {
	st := r.Status()
	return StatusResponse{State: string(st), Label: st.Label()}
}

// RunsResponse wraps analysis history.
type RunsResponse struct {
	Runs []index.RunRow `json:"runs" validate:"required"`
}
