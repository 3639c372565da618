// Package models defines the domain types for notelens.
package models

import (
	"path"
	"strings"
	"time"
)

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed edge between two notes. Target is the raw link
// text as written; Resolved is the vault path it points to, empty when the
// target does not exist.
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Resolved string `json:"resolved,omitempty"`
	Type     string `json:"type"` // "wikilink" or "markdown"
}

// Basename returns the display name of a vault path: the last element
// without its .md extension.
func Basename(p string) string {
	return strings.TrimSuffix(path.Base(strings.ReplaceAll(p, "\\", "/")), ".md")
}
