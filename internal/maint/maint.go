package maint

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

const bytesPerMB = 1024 * 1024

// Maintainer runs maintenance operations through a single engine. Operations
// are sequential; callers process one database at a time.
type Maintainer struct {
	engine sqlite.Engine
	logger *slog.Logger
	size   func(path string) int64
}

func New(engine sqlite.Engine, logger *slog.Logger) *Maintainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintainer{
		engine: engine,
		logger: logger.With("component", "maint"),
		size:   paths.FileSize,
	}
}

// VacuumResult reports file sizes around a VACUUM.
type VacuumResult struct {
	Database paths.StateDatabase `json:"database"`
	Before   int64               `json:"before"`
	After    int64               `json:"after"`
	Skipped  bool                `json:"skipped,omitempty"`
}

// Saved is the number of bytes the VACUUM reclaimed.
func (r VacuumResult) Saved() int64 {
	return r.Before - r.After
}

// Vacuum rewrites db and verifies the file did not grow.
func (m *Maintainer) Vacuum(ctx context.Context, db paths.StateDatabase) (VacuumResult, error) {
	res := VacuumResult{Database: db, Before: m.size(db.Path)}
	if _, err := m.engine.Run(ctx, db.Path, "VACUUM"); err != nil {
		return res, fmt.Errorf("vacuum %s: %w", db.Label, err)
	}
	res.After = m.size(db.Path)
	if res.After > res.Before {
		return res, fmt.Errorf("%w: %s grew from %d to %d bytes during VACUUM", ErrInvariant, db.Label, res.Before, res.After)
	}
	m.logger.Info("vacuumed", "db", db.Label, "before", res.Before, "after", res.After)
	return res, nil
}

// VacuumIfAbove vacuums db only when it is at least threshold bytes.
func (m *Maintainer) VacuumIfAbove(ctx context.Context, db paths.StateDatabase, threshold int64) (VacuumResult, error) {
	size := m.size(db.Path)
	if size < threshold {
		m.logger.Debug("below threshold, skipping vacuum", "db", db.Label, "size", size, "threshold", threshold)
		return VacuumResult{Database: db, Before: size, After: size, Skipped: true}, nil
	}
	return m.Vacuum(ctx, db)
}

// listTables returns the set of table names present in db.
func (m *Maintainer) listTables(ctx context.Context, db paths.StateDatabase) ([]string, error) {
	out, err := m.engine.Run(ctx, db.Path, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return sqlite.Lines(out), nil
}

func hasTable(tables []string, t Table) bool {
	name, _ := t.ident()
	for _, n := range tables {
		if n == name {
			return true
		}
	}
	return false
}

// ints runs stmts and parses the first output row as integers. An empty
// field (SQL NULL) parses as zero.
func (m *Maintainer) ints(ctx context.Context, db paths.StateDatabase, want int, stmts ...string) ([]int64, error) {
	out, err := m.engine.Run(ctx, db.Path, stmts...)
	if err != nil {
		return nil, err
	}
	lines := sqlite.Lines(out)
	if len(lines) == 0 {
		return nil, unparseable(db, out)
	}
	fields := sqlite.Fields(lines[0])
	if len(fields) != want {
		return nil, unparseable(db, out)
	}
	vals := make([]int64, want)
	for i, f := range fields {
		v, err := parseInt(f)
		if err != nil {
			return nil, unparseable(db, out)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func unparseable(db paths.StateDatabase, out string) error {
	return &sqlite.ExecError{DB: db.Path, Output: fmt.Sprintf("unexpected engine output %q", strings.TrimSpace(out))}
}

// toMB converts bytes to megabytes rounded to two decimals.
func toMB(b int64) float64 {
	return math.Round(float64(b)/bytesPerMB*100) / 100
}
