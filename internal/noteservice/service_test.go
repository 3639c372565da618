package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/index"
	"github.com/starford/notelens/internal/parser"
	"github.com/starford/notelens/internal/testutil"
)

// lockedIndex fails every write, like a SQLite database held by another writer.
type lockedIndex struct {
	index.NoteIndex
}

func (lockedIndex) UpsertNote(index.NoteRow, string, []parser.Ref) error {
	return errors.New("database is locked")
}

func TestCreate_IndexFailureKeepsNote(t *testing.T) {
	_, store := testutil.TestVault(t)
	svc := NewService(store, lockedIndex{NoteIndex: testutil.TestDB(t)})
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "Analysis - idea.md", []byte("# Analysis of idea\n")))

	data, err := svc.Read(ctx, "Analysis - idea.md")
	require.NoError(t, err)
	assert.Equal(t, "# Analysis of idea\n", string(data))
}

func TestCreate_NeverOverwrites(t *testing.T) {
	_, store := testutil.TestVault(t)
	svc := NewService(store, testutil.TestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "a.md", []byte("first")))
	err := svc.Create(ctx, "a.md", []byte("second"))
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	data, err := svc.Read(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLinkedPaths_ReindexesChangedNote(t *testing.T) {
	dir, store := testutil.TestVault(t)
	svc := NewService(store, testutil.TestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "b.md", []byte("b")))
	require.NoError(t, svc.Create(ctx, "a.md", []byte("no links yet")))
	testutil.WriteNote(t, dir, "a.md", "now [[b]]")

	links, err := svc.LinkedPaths(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, links)

	_, err = svc.LinkedPaths(ctx, "missing.md")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
