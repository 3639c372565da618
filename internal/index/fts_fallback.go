//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the notes table itself is searched with LIKE.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches notes containing every whitespace-separated term in their
// title, body or tags. Title matches on the first term rank first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	for _, t := range terms {
		like := "%" + likeEscaper.Replace(t) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	first := "%" + likeEscaper.Replace(terms[0]) + "%"
	args = append(args, first, limit)

	rows, err := db.conn.Query(`
		SELECT path, title, substr(body, 1, 200)
		FROM notes
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY (title LIKE ? ESCAPE '\') DESC, updated_at DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
