package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/notelens/internal/analysis"
	"github.com/starford/notelens/internal/mcpserver"
)

// Settings output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// cliLogger is the logger for one-shot commands. It writes text to stderr
// so stdout stays free for results and the MCP stdio transport.
func (a *application) cliLogger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

// Analyze runs a single analysis of the note at path and prints the path of
// the created analysis note, or the rendered note when file creation is
// disabled. Status changes and notices go to the log.
func Analyze(ctx context.Context, path string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.cliLogger()

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	runner := app.newRunner(c, analysis.LogNotifier{Logger: logger}, logger)
	out, err := runner.Execute(ctx, path)
	if err != nil {
		return fmt.Errorf("analyze %s: %s", path, analysis.Message(err))
	}
	if out.Path == "" {
		_, err = fmt.Fprint(app.out, out.Note)
		return err
	}
	_, err = fmt.Fprintln(app.out, out.Path)
	return err
}

// ServeMCP serves the notelens MCP tools over stdin/stdout until the
// client disconnects or the process is signalled.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.cliLogger()

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	runner := app.newRunner(c, analysis.LogNotifier{Logger: logger}, logger)
	srv := mcpserver.New(c.notes, runner, app.version)

	logger.Info("mcp: serving on stdio", slog.String("vault_path", app.config.Vault.Path))
	return srv.ServeStdio()
}

// ShowSettings prints the stored settings with the API key masked.
func ShowSettings(format string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.openSettings()
	if err != nil {
		return err
	}
	return writeSettings(app, st.Current().Masked(), format)
}

// SetSetting updates one settings key, saves the file and prints the result.
func SetSetting(key, value string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.openSettings()
	if err != nil {
		return err
	}
	s, err := st.Set(key, value)
	if err != nil {
		return err
	}
	return writeSettings(app, s.Masked(), FormatYAML)
}

func writeSettings(app *application, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(app.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML, "":
		enc := yaml.NewEncoder(app.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
