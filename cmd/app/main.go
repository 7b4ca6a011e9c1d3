package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal"
	pkgconfig "github.com/starford/dagaz/pkg/config"
)

// loadConfig builds the runtime configuration for serve and mcp: defaults,
// then the YAML file when present, then the --log-level flag on top. A
// missing file at the default path is not an error so zero-config runs work.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	path := cmd.String("config")
	_, statErr := os.Stat(path)
	if statErr == nil || cmd.IsSet("config") {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if s := cmd.String("log-level"); s != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", s, err)
		}
		cfg.App.LogLevel = lvl
	}
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "dagaz",
		Usage: "Deck styling toolkit: edit PPTX/POTX themes, layouts, and slide formatting from the command line, HTTP, or MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("DAGAZ_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level for serve and mcp: debug, info, warn, error",
				Sources: cli.EnvVars("DAGAZ_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			infoCmd(),
			newCmd(),
			validateCmd(),
			auditCmd(),
			normalizeCmd(),
			stripCmd(),
			sanitizeCmd(),
			dumpThemeCmd(),
			dumpTreeCmd(),
			paletteTemplateCmd(),
			applyPaletteCmd(),
			setColorsCmd(),
			setFontsCmd(),
			setThemeNamesCmd(),
			setTextStylesCmd(),
			makeLayoutCmd(),
			assignLayoutCmd(),
			pruneLayoutsCmd(),
			reindexLayoutsCmd(),
			setLayoutBgCmd(),
			addImageCmd(),
			autoLayoutCmd(),
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with the workspace index and watcher",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
