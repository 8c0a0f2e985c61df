package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/shadowpaste"
	"github.com/poiesic/shadowpaste/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func watchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := c.App.Writer
	app, err := openApp(c, shadowpaste.WithOnCapture(func(e *core.Entry) {
		fmt.Fprintln(out, formatEntry(e))
	}))
	if err != nil {
		return err
	}
	defer app.Close()

	app.StartEmbedder(ctx)
	if err := app.StartCapture(ctx); err != nil {
		return fmt.Errorf("failed to start clipboard capture: %w", err)
	}
	slog.Info("watching clipboard", "platform", app.Config().Monitor.Platform,
		"db", app.Config().Storage.Path, "entries", len(app.History()))

	<-ctx.Done()
	return nil
}

func listCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	entries := app.History()
	slices.Reverse(entries)
	if limit := c.Int("limit"); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		fmt.Fprintln(c.App.Writer, formatEntry(e))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	query := strings.Join(c.Args().Slice(), " ")

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if !c.Bool("no-embed") && strings.TrimSpace(query) != "" {
		app.StartEmbedder(ctx)
		waitCtx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		err := app.WaitEmbedder(waitCtx)
		cancel()
		if err != nil {
			slog.Warn("embedding models unavailable, ranking by substring only", "err", err)
		}
	}

	mark := bracketMarker
	if c.Bool("color") {
		mark = boldMarker
	}
	results := app.Search(ctx, query)
	if limit := c.Int("limit"); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for _, r := range results {
		fmt.Fprintf(c.App.Writer, "%s  %6.3f  %s\n", entryHeader(r.Entry), r.Score,
			highlightPreview(r.Entry.Content, query, mark))
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("delete requires exactly one entry ID")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry ID %q: %w", c.Args().First(), err)
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Delete(c.Context, core.ID(id)); err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	fmt.Fprintf(c.App.Writer, "Deleted entry %d\n", id)
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := c.Context

	var src io.Reader = c.App.Reader
	if name := c.String("src"); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer f.Close()
		src = f
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if c.Bool("wait") {
		app.StartEmbedder(ctx)
		if err := app.WaitEmbedder(ctx); err != nil {
			slog.Warn("embedding models unavailable, importing without vectors", "err", err)
		}
	}

	imported, failed := 0, 0
	for line := range linesFrom(src) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := app.Ingest(ctx, core.Text(line)); err != nil {
			failed++
			continue
		}
		imported++
	}
	fmt.Fprintf(c.App.Writer, "Imported %s entries", humanize.Comma(int64(imported)))
	if failed > 0 {
		fmt.Fprintf(c.App.Writer, ", %s not stored", humanize.Comma(int64(failed)))
	}
	fmt.Fprintln(c.App.Writer)
	return nil
}

// linesFrom returns an iterator over the lines of r.
func linesFrom(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}

func reembedCommand(c *cli.Context) error {
	ctx := c.Context

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config().Reembed
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("report-interval") {
		cfg.ReportInterval = c.Int("report-interval")
	}
	if c.IsSet("max-retries") {
		cfg.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.RetryDelay = c.Duration("retry-delay")
	}
	cfg.MissingOnly = cfg.MissingOnly || c.Bool("missing-only")

	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := app.NewReembedder(&cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	embedding := app.Config().Embedding
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", app.Config().Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding provider: %s\n", embedding.Provider)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", embedding.TextModel)
	fmt.Fprintln(c.App.ErrWriter)

	app.StartEmbedder(ctx)
	if err := app.WaitEmbedder(ctx); err != nil {
		return fmt.Errorf("failed to load embedding models: %w", err)
	}
	if _, err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	cfg := shadowpaste.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
