package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/shadowpaste/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI against a config and database in dir and returns
// what was written to stdout.
func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	base := []string{"shadowpaste", "--log-level", "error",
		"--config", filepath.Join(dir, "config.yaml"),
		"--db", filepath.Join(dir, "history.db")}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func findFlag[T cli.Flag](t *testing.T, cmd *cli.Command, name string) T {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(T); ok && slices.Contains(flag.Names(), name) {
			return f
		}
	}
	var zero T
	t.Fatalf("flag %q not found on %s", name, cmd.Name)
	return zero
}

func command(t *testing.T, name string) *cli.Command {
	t.Helper()
	for _, cmd := range newApp().Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, level := range []string{"debug", "info", "WARN", "error"} {
		t.Run(level, func(t *testing.T) {
			app := newApp()
			app.Commands = nil
			app.Action = func(*cli.Context) error { return nil }
			require.NoError(t, app.Run([]string{"shadowpaste", "--log-level", level}))
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		app := newApp()
		app.Action = func(*cli.Context) error { return nil }
		err := app.Run([]string{"shadowpaste", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := command(t, "reembed")

	t.Run("batch-size defaults to the config default", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, cmd, "batch-size")
		assert.Equal(t, 32, f.Value)
	})

	t.Run("retry-delay has a default", func(t *testing.T) {
		f := findFlag[*cli.DurationFlag](t, cmd, "retry-delay")
		assert.Equal(t, time.Second, f.Value)
	})

	t.Run("missing-only is off by default", func(t *testing.T) {
		f := findFlag[*cli.BoolFlag](t, cmd, "missing-only")
		assert.False(t, f.Value)
	})

	t.Run("rejects a non-positive batch size", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "", "reembed", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})
}

func TestImportListSearchDelete(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "seed.txt")
	require.NoError(t, os.WriteFile(src, []byte("the quick brown fox\n\nkubectl get pods\nFOX terrier\n"), 0o644))

	out, err := run(t, dir, "", "import", "--src", src, "--wait=false")
	require.NoError(t, err)
	assert.Equal(t, "Imported 3 entries\n", out)

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "FOX terrier", "newest first")
	assert.Contains(t, lines[2], "the quick brown fox")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[2]), "1 "))

	out, err = run(t, dir, "", "list", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	out, err = run(t, dir, "", "search", "--no-embed", "fox")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[FOX] terrier", "matches outrank, newest first on ties")
	assert.Contains(t, lines[1], "the quick brown [fox]")
	assert.Contains(t, lines[2], "kubectl get pods")

	out, err = run(t, dir, "", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted entry 1\n", out)

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "quick brown")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestImportFromStdin(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "one\ntwo\n", "import", "--wait=false")
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 entries\n", out)
}

func TestDeleteArguments(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "delete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	_, err = run(t, dir, "", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entry ID")

	_, err = run(t, dir, "", "delete", "0")
	require.ErrorIs(t, err, core.ErrNotPersisted)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")
	require.FileExists(t, filepath.Join(dir, "config.yaml"))

	_, err = run(t, dir, "", "config", "init")
	require.Error(t, err, "existing file is kept without --force")

	_, err = run(t, dir, "", "config", "init", "--force")
	require.NoError(t, err)

	out, err = run(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sqlite")
	assert.Contains(t, out, filepath.Join(dir, "history.db"), "--db overrides the stored path")
}

func TestBackendOverride(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run([]string{"shadowpaste", "--config", filepath.Join(dir, "config.yaml"),
		"--backend", "nosuch", "config", "show"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview(core.Text("  a\n\tb   c ")))
	assert.Equal(t, "[empty]", preview(core.Empty{}))
	assert.Equal(t, "[image, 10 B]", preview(core.Image("data:12345")))

	long := preview(core.Text(strings.Repeat("x", 100)))
	assert.Equal(t, previewWidth, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, ellipsis))
}

func TestHighlightPreview(t *testing.T) {
	assert.Equal(t, "say [Hello] to [hello]", highlightPreview(core.Text("say Hello to hello"), "HELLO", bracketMarker))
	assert.Equal(t, "no match here", highlightPreview(core.Text("no match here"), "zzz", bracketMarker))
	assert.Equal(t, "[empty]", highlightPreview(core.Empty{}, "empty", bracketMarker))
	assert.Equal(t, "\x1b[1mab\x1b[0mc", highlightPreview(core.Text("abc"), "ab", boldMarker))

	long := strings.Repeat("y", 100) + " needle"
	got := highlightPreview(core.Text(long), "needle", bracketMarker)
	assert.NotContains(t, got, "needle")
	assert.True(t, strings.HasSuffix(got, ellipsis))
}

func TestEntryHeader(t *testing.T) {
	at := time.Date(2025, 3, 4, 15, 6, 0, 0, time.Local)
	assert.Equal(t, "     7  Mar 04 2025, 03:06 PM", entryHeader(&core.Entry{ID: 7, CapturedAt: at}))
	assert.True(t, strings.HasPrefix(entryHeader(&core.Entry{CapturedAt: at}), "     -"))
}
