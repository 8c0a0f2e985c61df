// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/shadowpaste"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := shadowpaste.DefaultConfig()
	return &cli.App{
		Name:  "shadowpaste",
		Usage: "Searchable clipboard history with semantic ranking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   shadowpaste.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Override the history database path",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Override the storage backend (sqlite, badger)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Record clipboard changes until interrupted",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Clipboard listener (native, poll)",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "Print the history, newest first",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum entries to print (0 for all)",
						Value:   20,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Rank the history against a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum results to print (0 for all)",
						Value:   10,
					},
					&cli.BoolFlag{
						Name:  "no-embed",
						Usage: "Skip loading the embedding models and rank by substring only",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the embedding models",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "color",
						Usage: "Highlight matches with terminal escapes instead of brackets",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove an entry from the history",
				ArgsUsage: "ID",
				Action:    deleteCommand,
			},
			{
				Name:   "import",
				Usage:  "Record each line of a file as a text entry",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "src",
						Usage: "File to read, - for stdin",
						Value: "-",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Wait for the embedding models so entries are stored with vectors",
						Value: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute stored embeddings with the configured models",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "missing-only",
						Usage: "Only embed entries without a vector",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts to embed in each batch",
						Value: defaults.Reembed.BatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: defaults.Reembed.ReportInterval,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding call",
						Value: defaults.Reembed.MaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: defaults.Reembed.RetryDelay,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Inspect or create the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
					{
						Name:   "init",
						Usage:  "Write the default configuration",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the config file named by --config and applies the
// global storage overrides.
func loadConfig(c *cli.Context) (*shadowpaste.Config, error) {
	cfg, err := shadowpaste.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if backend := c.String("backend"); backend != "" {
		cfg.Storage.Backend = backend
		if c.String("db") == "" {
			cfg.Storage.Path = ""
		}
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openApp(c *cli.Context, opts ...shadowpaste.Option) (*shadowpaste.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if c.IsSet("platform") {
		cfg.Monitor.Platform = c.String("platform")
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	app, err := shadowpaste.Open(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return app, nil
}
