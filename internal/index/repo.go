package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/notelens/internal/parser"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is a note in the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// GraphLink is a resolved edge in the link graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LinkRow is a raw outgoing link as stored, before resolution.
type LinkRow struct {
	Source string
	Target string
	Type   string
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan search result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertNote inserts or replaces a note, its FTS entry, and outgoing links within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, refs []parser.Ref) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	updated := n.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(tagsJSON), body, updated.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.Path, n.Title, body, tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type, position) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for i, ref := range refs {
			kind := ref.Kind
			if kind == "" {
				kind = parser.LinkWiki
			}
			if _, err := stmt.Exec(n.Path, ref.Target, kind, i); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetNote returns the indexed row for path, or nil if it is not indexed.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var (
		r        NoteRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`SELECT path, title, checksum, tags, updated_at FROM notes WHERE path = ?`, path).
		Scan(&r.Path, &r.Title, &r.Checksum, &tagsJSON, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
	return &r, nil
}

// ListNotes returns a page of notes, optionally filtered by tag, and the
// total number of matching notes. sort is one of "updated_at" (default,
// newest first), "title" or "path".
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE ASC, path ASC"
	case "path":
		order = "path ASC"
	}

	where, args := "", []any{}
	if tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		tagJSON, _ := json.Marshal(tag)
		where = "WHERE tags LIKE ?"
		args = append(args, "%"+string(tagJSON)+"%")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT path, title, checksum, tags, updated_at FROM notes `+where+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var (
			r        NoteRow
			tagsJSON string
		)
		if err := rows.Scan(&r.Path, &r.Title, &r.Checksum, &tagsJSON, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func (db *DB) linkRows(query string, args ...any) ([]LinkRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: links: %w", err)
	}
	defer rows.Close()
	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Target, &l.Type); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (db *DB) resolver() (*Resolver, error) {
	paths, err := db.AllPaths()
	if err != nil {
		return nil, err
	}
	return NewResolver(paths), nil
}

// OutgoingLinks returns the first-degree resolved targets of source, in
// the order they appear in the note, without duplicates or self-links.
// Unresolved targets are omitted.
func (db *DB) OutgoingLinks(source string) ([]string, error) {
	links, err := db.linkRows(`SELECT source, target, type FROM links WHERE source = ? ORDER BY position`, source)
	if err != nil {
		return nil, err
	}
	res, err := db.resolver()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, l := range links {
		p, ok := res.Resolve(l.Source, l.Target, l.Type)
		if !ok || p == source {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Backlinks returns all note paths that link to target. Links that do not
// resolve to an existing note still count when they name target's path.
func (db *DB) Backlinks(target string) ([]string, error) {
	links, err := db.linkRows(`SELECT source, target, type FROM links ORDER BY source, position`)
	if err != nil {
		return nil, err
	}
	res, err := db.resolver()
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(Guess(target))
	seen := make(map[string]struct{})
	var out []string
	for _, l := range links {
		p, ok := res.Resolve(l.Source, l.Target, l.Type)
		if !ok {
			p = Guess(l.Target)
		}
		if strings.ToLower(p) != want || l.Source == target {
			continue
		}
		if _, dup := seen[l.Source]; dup {
			continue
		}
		seen[l.Source] = struct{}{}
		out = append(out, l.Source)
	}
	return out, nil
}

// Graph returns every note as a node and every resolved link as an edge.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	rows, err := db.conn.Query(`SELECT path, title FROM notes ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	nodes := []GraphNode{}
	paths := make(map[string]struct{})
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			rows.Close()
			return nil, nil, err
		}
		nodes = append(nodes, n)
		paths[n.ID] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	links, err := db.linkRows(`SELECT source, target, type FROM links`)
	if err != nil {
		return nil, nil, err
	}
	res := NewResolver(paths)
	seen := make(map[GraphLink]struct{})
	edges := []GraphLink{}
	for _, l := range links {
		p, ok := res.Resolve(l.Source, l.Target, l.Type)
		if !ok || p == l.Source {
			continue
		}
		e := GraphLink{Source: l.Source, Target: p}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return nodes, edges, nil
}
