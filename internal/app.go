package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/notelens/internal/analysis"
	"github.com/starford/notelens/internal/deepseek"
	"github.com/starford/notelens/internal/index"
	"github.com/starford/notelens/internal/noteservice"
	"github.com/starford/notelens/internal/settings"
	"github.com/starford/notelens/internal/storage"
)

// APIKeyEnv overrides the stored API key when set.
const APIKeyEnv = "DEEPSEEK_API_KEY"

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}
	return app, nil
}

// components is everything an analysis run needs, shared by the serve,
// analyze and mcp entry points.
type components struct {
	store    *storage.FS
	db       *index.DB
	notes    *noteservice.Service
	settings *settings.Store
	orch     *analysis.Orchestrator
}

func (c *components) Close() error {
	return c.db.Close()
}

// open initialises storage, the index, settings and the DeepSeek client.
// The caller owns the returned components and must Close them.
func (a *application) open(logger *slog.Logger) (*components, error) {
	cfg := a.config

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	st, err := a.openSettings()
	if err != nil {
		return nil, err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	stats, err := index.Sync(db, store, logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync done",
			slog.Int("indexed", stats.Indexed),
			slog.Int("removed", stats.Removed),
			slog.Int("failed", stats.Failed))
	}

	var clientOpts []deepseek.Option
	if cfg.DeepSeek.Timeout > 0 {
		clientOpts = append(clientOpts, deepseek.WithTimeout(cfg.DeepSeek.Timeout))
	}
	notes := noteservice.NewService(store, db)

	return &components{
		store:    store,
		db:       db,
		notes:    notes,
		settings: st,
		orch:     analysis.NewOrchestrator(notes, deepseek.New(cfg.DeepSeek.BaseURL, clientOpts...)),
	}, nil
}

func (a *application) openSettings() (*settings.Store, error) {
	st := settings.NewStore(a.config.Analysis.SettingsPath, os.Getenv(APIKeyEnv))
	if _, err := st.Load(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

func (a *application) newRunner(c *components, n analysis.Notifier, logger *slog.Logger) *analysis.Runner {
	return analysis.NewRunner(c.orch, c.settings.Current, n, logger,
		analysis.WithHistory(c.notes),
		analysis.WithRateLimit(a.config.Analysis.MaxRunsPerMinute))
}
