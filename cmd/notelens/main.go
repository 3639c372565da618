package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notelens/internal"
	pkgconfig "github.com/starford/notelens/pkg/config"
)

var version = "dev"

// options loads the config named by the root --config flag. A missing file
// leaves the defaults in place.
func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.Root().String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return errors.New("usage: notelens analyze <note path>")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Analyze(ctx, path, opts...)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func showSettings(_ context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ShowSettings(cmd.String("format"), opts...)
}

func setSetting(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: notelens settings set <key> <value>")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.SetSetting(cmd.Args().Get(0), cmd.Args().Get(1), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "notelens",
		Usage:   "DeepSeek-powered analysis of Markdown notes and the notes they link to",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and vault watcher",
				Action: serve,
			},
			{
				Name:      "analyze",
				Usage:     "Analyse one note and print the path of the analysis note",
				ArgsUsage: "<note path>",
				Action:    analyze,
			},
			{
				Name:   "mcp",
				Usage:  "Serve notelens tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:  "settings",
				Usage: "Show or change analysis settings",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the settings with the API key masked",
						Action: showSettings,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format (yaml or json)",
								Value:   internal.FormatYAML,
							},
						},
					},
					{
						Name:      "set",
						Usage:     "Change one setting",
						ArgsUsage: "<key> <value>",
						Action:    setSetting,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
