package maint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

const (
	StageQuickCheck     = "quick_check"
	StageIntegrityCheck = "integrity_check"
)

// IntegrityResult is the verdict for one database. Stage names the check
// that decided it.
type IntegrityResult struct {
	Database paths.StateDatabase `json:"database"`
	OK       bool                `json:"ok"`
	Stage    string              `json:"stage"`
	Reason   string              `json:"reason,omitempty"`
	Err      error               `json:"-"`
}

// CheckIntegrity runs quick_check and, only if that passes, integrity_check.
func (m *Maintainer) CheckIntegrity(ctx context.Context, db paths.StateDatabase) (IntegrityResult, error) {
	res := IntegrityResult{Database: db, Stage: StageQuickCheck}

	out, err := m.engine.Run(ctx, db.Path, "PRAGMA quick_check")
	if err != nil {
		return res, fmt.Errorf("quick_check %s: %w", db.Label, err)
	}
	if verdict := strings.TrimSpace(out); verdict != "ok" {
		res.Reason = firstLine(out)
		m.logger.Warn("quick_check failed", "db", db.Label, "reason", res.Reason)
		return res, nil
	}

	res.Stage = StageIntegrityCheck
	out, err = m.engine.Run(ctx, db.Path, "PRAGMA integrity_check")
	if err != nil {
		return res, fmt.Errorf("integrity_check %s: %w", db.Label, err)
	}
	if verdict := strings.TrimSpace(out); verdict != "ok" {
		res.Reason = firstLine(out)
		m.logger.Warn("integrity_check failed", "db", db.Label, "reason", res.Reason)
		return res, nil
	}

	res.OK = true
	return res, nil
}

func firstLine(out string) string {
	lines := sqlite.Lines(out)
	if len(lines) == 0 {
		return "no output from engine"
	}
	return strings.TrimSpace(lines[0])
}

// IntegritySummary aggregates a batch of integrity checks.
type IntegritySummary struct {
	Results []IntegrityResult `json:"results"`
}

func (s IntegritySummary) Total() int { return len(s.Results) }

func (s IntegritySummary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.OK {
			n++
		}
	}
	return n
}

func (s IntegritySummary) String() string {
	return fmt.Sprintf("%d/%d passed", s.Passed(), s.Total())
}

// CheckAll checks every database in order. A per-database engine failure is
// recorded on that result and the batch continues; only a missing engine
// stops it.
func (m *Maintainer) CheckAll(ctx context.Context, dbs []paths.StateDatabase) (IntegritySummary, error) {
	var sum IntegritySummary
	for _, db := range dbs {
		res, err := m.CheckIntegrity(ctx, db)
		if err != nil {
			if errors.Is(err, sqlite.ErrEngineNotFound) {
				return sum, err
			}
			res.Err = err
			res.Reason = err.Error()
			m.logger.Error("integrity check failed to run", "db", db.Label, "error", err)
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, nil
}
