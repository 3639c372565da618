package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cmdEnv struct {
	cfg   *Config
	out   *bytes.Buffer
	calls int
}

func newCmdEnv(t *testing.T) *cmdEnv {
	t.Helper()
	dir := t.TempDir()
	e := &cmdEnv{out: &bytes.Buffer{}}

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls++
		assert.Equal(t, "Bearer sk-env-1234", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"well linked"}}]}`))
	}))
	t.Cleanup(llm.Close)

	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	cfg.Analysis.SettingsPath = filepath.Join(dir, "settings.yaml")
	cfg.DeepSeek.BaseURL = llm.URL
	e.cfg = cfg
	return e
}

func (e *cmdEnv) opts() []Option {
	return []Option{
		WithConfig(e.cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithOutput(e.out),
	}
}

func TestRequiresConfig(t *testing.T) {
	err := Analyze(context.Background(), "a.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")
}

func TestAnalyze_WritesNote(t *testing.T) {
	e := newCmdEnv(t)
	t.Setenv(APIKeyEnv, "sk-env-1234")
	require.NoError(t, os.MkdirAll(e.cfg.Vault.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.Vault.Path, "idea.md"), []byte("see [[other]]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.Vault.Path, "other.md"), []byte("other text"), 0o644))

	require.NoError(t, Analyze(context.Background(), "idea.md", e.opts()...))
	assert.Equal(t, 1, e.calls)

	created := strings.TrimSpace(e.out.String())
	require.True(t, strings.HasPrefix(created, "Analysis - idea "), created)
	data, err := os.ReadFile(filepath.Join(e.cfg.Vault.Path, created))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Summary\nwell linked\n")

	// The environment key is never written to the settings file.
	_, err = os.Stat(e.cfg.Analysis.SettingsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyze_MissingKey(t *testing.T) {
	e := newCmdEnv(t)
	t.Setenv(APIKeyEnv, "")
	require.NoError(t, os.MkdirAll(e.cfg.Vault.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.Vault.Path, "idea.md"), []byte("x"), 0o644))

	err := Analyze(context.Background(), "idea.md", e.opts()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
	assert.Zero(t, e.calls)
	assert.Empty(t, e.out.String())
}

func TestAnalyze_NoDocument(t *testing.T) {
	e := newCmdEnv(t)
	t.Setenv(APIKeyEnv, "sk-env-1234")

	err := Analyze(context.Background(), "missing.md", e.opts()...)
	require.Error(t, err)
	assert.Zero(t, e.calls)
}

func TestSettingsCommands(t *testing.T) {
	e := newCmdEnv(t)
	t.Setenv(APIKeyEnv, "")

	require.NoError(t, SetSetting("api_key", "sk-abcdefgh", e.opts()...))
	assert.Contains(t, e.out.String(), "*******efgh")
	assert.NotContains(t, e.out.String(), "abcd")

	e.out.Reset()
	require.NoError(t, SetSetting("max_linked_notes", "3", e.opts()...))

	e.out.Reset()
	require.NoError(t, ShowSettings(FormatJSON, e.opts()...))
	var got map[string]any
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &got))
	assert.Equal(t, "*******efgh", got["api_key"])
	assert.EqualValues(t, 3, got["max_linked_notes"])

	err := SetSetting("nope", "1", e.opts()...)
	require.Error(t, err)

	err = ShowSettings("toml", e.opts()...)
	require.Error(t, err)
}
