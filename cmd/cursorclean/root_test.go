package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ba0f3/cursorclean/internal/cache"
	"github.com/ba0f3/cursorclean/internal/config"
	"github.com/ba0f3/cursorclean/internal/maint"
	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

func init() {
	color.NoColor = true
}

// testSession builds a session over temp roots with the embedded engine.
func testSession(t *testing.T, stdin string) (*session, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Engine = config.EngineEmbedded
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var out bytes.Buffer
	s := &session{
		cfg:    cfg,
		logger: logger,
		layout: paths.Layout{
			ProjectDir: t.TempDir(),
			AppDataDir: t.TempDir(),
			CacheDir:   t.TempDir(),
		},
		engine:      sqlite.NewEmbedded(),
		out:         &out,
		in:          strings.NewReader(stdin),
		interactive: func() bool { return true },
	}
	s.maint = maint.New(s.engine, logger)
	return s, &out
}

// writeGlobal creates the global database with n chat bubbles of size bytes.
func writeGlobal(t *testing.T, s *session, n, size int) string {
	t.Helper()
	path := filepath.Join(s.layout.AppDataDir, "User", "globalStorage", "state.vscdb")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, tbl := range []string{"ItemTable", "cursorDiskKV"} {
		_, err := db.Exec(`CREATE TABLE ` + tbl + ` (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
		require.NoError(t, err)
	}
	for i := 0; i < n; i++ {
		_, err := db.Exec(`INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)`, "bubbleId:"+string(rune('a'+i)), make([]byte, size))
		require.NoError(t, err)
	}
	return path
}

func countRows(t *testing.T, path, pattern string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cursorDiskKV WHERE key LIKE ?`, pattern).Scan(&n))
	return n
}

func TestRootOptionsValidate(t *testing.T) {
	base := rootOptions{workspace: true, table: "ItemTable"}

	tests := []struct {
		name    string
		mutate  func(*rootOptions)
		wantErr string
	}{
		{name: "defaults", mutate: func(*rootOptions) {}},
		{name: "unknown table", mutate: func(o *rootOptions) { o.table = "sqlite_master" }, wantErr: "unknown table"},
		{name: "delete without analyze", mutate: func(o *rootOptions) { o.deleteKeys = "bubbleId:%" }, wantErr: "requires --analyze"},
		{name: "zero keep-last", mutate: func(o *rootOptions) {
			o.analyze, o.deleteKeys, o.keepLast, o.keepLastSet = true, "x%", 0, true
		}, wantErr: "positive integer"},
		{name: "keep-last alone", mutate: func(o *rootOptions) { o.keepLast, o.keepLastSet = 3, true }, wantErr: "--delete-keys"},
		{name: "negative threshold", mutate: func(o *rootOptions) { o.thresholdMB, o.thresholdSet = -5, true }, wantErr: "--threshold must not be negative"},
		{name: "zero threshold", mutate: func(o *rootOptions) { o.thresholdMB, o.thresholdSet = 0, true }},
		{name: "global-only alone", mutate: func(o *rootOptions) { o.globalOnly = true }, wantErr: "--check-integrity"},
		{name: "valid prune", mutate: func(o *rootOptions) {
			o.analyze, o.deleteKeys, o.keepLast, o.keepLastSet, o.table = true, "bubbleId:%", 5, true, "cursorDiskKV"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.mutate(&o)
			err := o.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_NoDatabases(t *testing.T) {
	s, out := testSession(t, "")
	err := run(context.Background(), s, rootOptions{workspace: true, global: true, table: "ItemTable"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No state databases found.")
}

func TestRun_VacuumGlobalBelowThresholdSkips(t *testing.T) {
	s, out := testSession(t, "")
	writeGlobal(t, s, 3, 100)

	err := run(context.Background(), s, rootOptions{global: true, json: true, table: "ItemTable"})
	require.NoError(t, err)

	var results []maint.VacuumResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "Global", results[0].Database.Label)
}

func TestRun_VacuumGlobalZeroThreshold(t *testing.T) {
	s, out := testSession(t, "")
	writeGlobal(t, s, 3, 100)

	err := run(context.Background(), s, rootOptions{global: true, thresholdMB: 0, thresholdSet: true, table: "ItemTable"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Total saved:")
	assert.NotContains(t, out.String(), "skipped")
}

func TestRun_AnalyzeWithoutGlobal(t *testing.T) {
	s, out := testSession(t, "")
	err := run(context.Background(), s, rootOptions{analyze: true, table: "ItemTable"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No global state database found")
}

func TestRun_AnalyzeAndCount(t *testing.T) {
	s, out := testSession(t, "")
	writeGlobal(t, s, 2, 2048)

	err := run(context.Background(), s, rootOptions{analyze: true, countCategories: true, table: "ItemTable"})
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "Chat bubbles")
	assert.Contains(t, text, "bubbleId:a")
	assert.Less(t, strings.Index(text, "CATEGORY"), strings.Index(text, "Largest"), "categories print before the analysis")
}

func TestRun_CheckIntegrity(t *testing.T) {
	s, out := testSession(t, "")
	writeGlobal(t, s, 1, 10)

	err := run(context.Background(), s, rootOptions{checkIntegrity: true, globalOnly: true, table: "ItemTable"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1/1 passed")
}

func TestRun_PruneKeepsLast(t *testing.T) {
	s, out := testSession(t, "")
	path := writeGlobal(t, s, 5, 10)

	err := run(context.Background(), s, rootOptions{
		analyze: true, table: "cursorDiskKV", deleteKeys: "bubbleId:%",
		keepLast: 2, keepLastSet: true, yes: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Deleted 3 of 5")
	assert.Equal(t, 2, countRows(t, path, "bubbleId:%"))
}

func TestRunPrune_Confirmation(t *testing.T) {
	req := maint.PruneRequest{Table: maint.CursorDiskKV, Pattern: "bubbleId:%"}

	t.Run("declined", func(t *testing.T) {
		s, out := testSession(t, "n\n")
		path := writeGlobal(t, s, 2, 10)
		err := runPrune(context.Background(), s, req, false, false)
		require.ErrorIs(t, err, errAborted)
		assert.Contains(t, out.String(), "[y/N]")
		assert.Equal(t, 2, countRows(t, path, "bubbleId:%"))
	})

	t.Run("accepted", func(t *testing.T) {
		s, _ := testSession(t, "yes\n")
		path := writeGlobal(t, s, 2, 10)
		require.NoError(t, runPrune(context.Background(), s, req, false, false))
		assert.Equal(t, 0, countRows(t, path, "bubbleId:%"))
	})

	t.Run("no terminal", func(t *testing.T) {
		s, out := testSession(t, "y\n")
		s.interactive = func() bool { return false }
		path := writeGlobal(t, s, 2, 10)
		err := runPrune(context.Background(), s, req, false, false)
		require.ErrorIs(t, err, errNoTerminal)
		assert.NotContains(t, out.String(), "[y/N]")
		assert.Equal(t, 2, countRows(t, path, "bubbleId:%"))
	})
}

func TestRunCache(t *testing.T) {
	s, out := testSession(t, "")
	for _, rel := range []string{"Cache", "GPUCache", filepath.Join("User", "History")} {
		dir := filepath.Join(s.layout.AppDataDir, rel)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "blob"), make([]byte, 512), 0o644))
	}

	err := runCache(s, cache.NewCleaner(s.logger), cacheOptions{light: true, yes: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2/2 succeeded")
	assert.NoDirExists(t, filepath.Join(s.layout.AppDataDir, "Cache"))
	assert.NoDirExists(t, filepath.Join(s.layout.AppDataDir, "GPUCache"))
	assert.DirExists(t, filepath.Join(s.layout.AppDataDir, "User", "History"))
}

func TestRunCache_DryRun(t *testing.T) {
	s, out := testSession(t, "")
	dir := filepath.Join(s.layout.CacheDir, "Cache")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, runCache(s, cache.NewCleaner(s.logger), cacheOptions{dryRun: true}))
	assert.DirExists(t, dir)
	assert.NotContains(t, out.String(), "succeeded")
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, " y ": true, "n\n": false, "\n": false, "": false, "sure\n": false} {
		assert.Equal(t, want, confirm(strings.NewReader(in), io.Discard, "ok?"), "input %q", in)
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "50.0 MB", formatBytes(50*1024*1024))
	assert.Equal(t, "-2.0 MB", formatBytes(-2*1024*1024))
}

func TestRun_JSONWithoutGlobal(t *testing.T) {
	t.Run("analyze", func(t *testing.T) {
		s, out := testSession(t, "")
		require.NoError(t, run(context.Background(), s, rootOptions{analyze: true, json: true, table: "ItemTable"}))
		assert.JSONEq(t, "null", out.String())
	})

	t.Run("count categories", func(t *testing.T) {
		s, out := testSession(t, "")
		require.NoError(t, run(context.Background(), s, rootOptions{countCategories: true, json: true, table: "ItemTable"}))
		assert.JSONEq(t, "null", out.String())
	})

	t.Run("integrity", func(t *testing.T) {
		for _, globalOnly := range []bool{false, true} {
			s, out := testSession(t, "")
			require.NoError(t, run(context.Background(), s, rootOptions{checkIntegrity: true, globalOnly: globalOnly, json: true, table: "ItemTable"}))
			assert.JSONEq(t, `{"results":[],"passed":0,"total":0}`, out.String())
		}
	})
}

func TestRun_GlobalSharedWithProject(t *testing.T) {
	s, out := testSession(t, "")
	global := writeGlobal(t, s, 4, 10)
	link := filepath.Join(s.layout.ProjectDir, ".cursor", "state.vscdb")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	if err := os.Symlink(global, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := run(context.Background(), s, rootOptions{
		analyze: true, table: "cursorDiskKV", deleteKeys: "bubbleId:%",
		keepLast: 1, keepLastSet: true, yes: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Deleted 3 of 4")
	assert.Empty(t, s.layout.Workspaces())
}
