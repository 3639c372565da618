// Package noteservice coordinates vault storage and the index. It is the
// document store the analysis runs read from and write to.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/checksum"
	"github.com/starford/notelens/internal/index"
	"github.com/starford/notelens/internal/parser"
	"github.com/starford/notelens/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Links       []string       `json:"links"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.NoteIndex
}

// NewService creates a new note service.
func NewService(store storage.Provider, db index.NoteIndex) *Service {
	return &Service{store: store, db: db}
}

// Store returns the underlying storage provider.
func (s *Service) Store() storage.Provider { return s.store }

// Index returns the underlying note index.
func (s *Service) Index() index.NoteIndex { return s.db }

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Exists reports whether a note exists at path.
func (s *Service) Exists(_ context.Context, path string) (bool, error) {
	return s.store.Exists(path)
}

// Read returns the raw text of the note at path.
func (s *Service) Read(_ context.Context, path string) ([]byte, error) {
	return s.read(path)
}

// Create writes a new note and indexes it. It never overwrites an existing
// file. Once the file is written the note exists, so an index failure is
// only logged; the watcher or the next sync picks the file up.
func (s *Service) Create(_ context.Context, path string, content []byte) error {
	if err := s.store.Create(path, content); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return apperr.ErrAlreadyExists
		}
		return err
	}
	if err := s.IndexFile(path, content); err != nil {
		slog.Warn("index created note failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	return nil
}

// LinkedPaths returns the vault paths the note at path links to, first
// degree only, in document order. The note is re-indexed first when its
// content changed since the last index pass.
func (s *Service) LinkedPaths(_ context.Context, path string) ([]string, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	cs, err := s.db.GetChecksum(path)
	if err != nil {
		return nil, err
	}
	if cs != checksum.Sum(data) {
		if err := s.IndexFile(path, data); err != nil {
			return nil, err
		}
	}
	return s.db.OutgoingLinks(path)
}

// GetNote reads a note from storage, parses it, and enriches it with links.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(ctx context.Context, path string, content []byte) (*NoteDetail, error) {
	if err := s.Create(ctx, path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, content)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteNote(path)
}

// MoveNote renames a note and re-indexes it under its new path. Links
// pointing at the old path are resolved afresh on the next query.
func (s *Service) MoveNote(_ context.Context, from, to string) (*NoteDetail, error) {
	if ok, err := s.store.Exists(to); err != nil {
		return nil, err
	} else if ok {
		return nil, apperr.ErrAlreadyExists
	}
	data, err := s.read(from)
	if err != nil {
		return nil, err
	}
	if err := s.store.Move(from, to); err != nil {
		return nil, err
	}
	if err := s.db.DeleteNote(from); err != nil {
		return nil, err
	}
	if err := s.IndexFile(to, data); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(to, data)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	return nonNilSlice(results), err
}

// Graph returns all nodes and resolved links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// RecordRun stores an analysis run in the history.
func (s *Service) RecordRun(_ context.Context, r index.RunRow) error {
	return s.db.RecordRun(r)
}

// Runs lists recent analysis runs, optionally for one source note.
func (s *Service) Runs(_ context.Context, source string, limit int) ([]index.RunRow, error) {
	runs, err := s.db.ListRuns(source, limit)
	return nonNilSlice(runs), err
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data, time.Now())
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	links, err := s.db.OutgoingLinks(path)
	if err != nil {
		return nil, err
	}
	updated := time.Now()
	if row, err := s.db.GetNote(path); err == nil && row != nil {
		updated = row.UpdatedAt
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Links:       nonNilSlice(links),
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   updated,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
