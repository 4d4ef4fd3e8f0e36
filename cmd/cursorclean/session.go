package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ba0f3/cursorclean/internal/config"
	"github.com/ba0f3/cursorclean/internal/logging"
	"github.com/ba0f3/cursorclean/internal/maint"
	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

// session is everything one run needs. It owns the engine locator, so the
// located sqlite3 path is remembered for exactly one run.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	layout  paths.Layout
	locator *sqlite.Locator
	engine  sqlite.Engine
	maint   *maint.Maintainer
	out     io.Writer
	in      io.Reader

	// interactive reports whether in is attached to a terminal.
	interactive func() bool
}

func newSession(cfg *config.Config, projectDir string, logger *slog.Logger) (*session, error) {
	layout, err := paths.DefaultLayout(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data directories: %w", err)
	}
	if cfg.AppDataDir != "" {
		layout.AppDataDir = cfg.AppDataDir
	}
	if cfg.CacheDir != "" {
		layout.CacheDir = cfg.CacheDir
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		layout: layout,
		out:    os.Stdout,
		in:     os.Stdin,

		interactive: stdinIsTerminal,
	}
	switch cfg.Engine {
	case config.EngineEmbedded:
		s.engine = sqlite.NewEmbedded()
	default:
		s.locator = sqlite.NewLocator(cfg.SQLitePath)
		s.engine = sqlite.NewCLI(s.locator, cfg.EngineTimeout, logger)
	}
	s.maint = maint.New(s.engine, logger)
	return s, nil
}

// engineName describes the engine for status output.
func (s *session) engineName() string {
	if s.locator == nil {
		return "embedded (go-sqlite3)"
	}
	p, err := s.locator.Locate()
	if err != nil {
		return "sqlite3 CLI (not found)"
	}
	return "sqlite3 CLI (" + p + ")"
}

func openSession() (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger := logging.New(os.Stderr, level)

	project := projectFlag
	if project == "" {
		if project, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	return newSession(cfg, project, logger)
}
