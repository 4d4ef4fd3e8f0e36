package sqlite

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CLI runs statements through the external sqlite3 command-line shell.
type CLI struct {
	Locator *Locator
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewCLI(loc *Locator, timeout time.Duration, logger *slog.Logger) *CLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{Locator: loc, Timeout: timeout, Logger: logger.With("component", "sqlite")}
}

func (c *CLI) Run(ctx context.Context, dbPath string, stmts ...string) (string, error) {
	bin, err := c.Locator.Locate()
	if err != nil {
		return "", err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	script := Script(stmts...)
	cmd := exec.CommandContext(ctx, bin, "-batch", "-bail", dbPath)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	c.Logger.Debug("sqlite3 invocation", "db", filepath.Base(dbPath), "statements", len(stmts), "duration", time.Since(start))

	if runErr != nil || isErrorOutput(stderr.String()) {
		if runErr == nil {
			runErr = errors.New("sqlite3 reported an error")
		} else if ctx.Err() != nil {
			runErr = ctx.Err()
		}
		return stdout.String(), &ExecError{DB: dbPath, Output: stderr.String(), Err: runErr}
	}
	return stdout.String(), nil
}

func isErrorOutput(stderr string) bool {
	for _, line := range Lines(stderr) {
		l := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(l, "error") || strings.Contains(l, " error") {
			return true
		}
	}
	return false
}
