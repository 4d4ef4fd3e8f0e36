package maint

import (
	"context"
	"errors"
	"fmt"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

// PruneRequest selects rows to delete. KeepLast > 0 preserves that many of
// the most recently inserted matches (highest rowid); otherwise every match
// is deleted.
type PruneRequest struct {
	Table    Table  `json:"table"`
	Pattern  string `json:"pattern"`
	KeepLast int    `json:"keep_last,omitempty"`
}

// PruneOutcome says which path a prune took.
type PruneOutcome string

const (
	PruneEmpty           PruneOutcome = "empty"
	PruneWithinRetention PruneOutcome = "within_retention"
	PruneDeleted         PruneOutcome = "deleted"
)

// PruneResult reports a completed prune. FreedBytes is the file size before
// the delete minus the size after the follow-up VACUUM.
type PruneResult struct {
	Database   paths.StateDatabase `json:"database"`
	Request    PruneRequest        `json:"request"`
	Outcome    PruneOutcome        `json:"outcome"`
	Matched    int64               `json:"matched"`
	Deleted    int64               `json:"deleted"`
	FreedBytes int64               `json:"freed_bytes"`
	Vacuum     *VacuumResult       `json:"vacuum,omitempty"`
}

// PruneByPattern deletes rows of req.Table whose key matches req.Pattern,
// keeping the req.KeepLast most recent, then vacuums the file.
//
// The sequence is counting, then deleting, then vacuuming. A failure at any
// step is returned wrapped with the step name; nothing is retried and
// there is no rollback beyond what each SQLite statement guarantees.
func (m *Maintainer) PruneByPattern(ctx context.Context, db paths.StateDatabase, req PruneRequest) (PruneResult, error) {
	res := PruneResult{Database: db, Request: req}

	name, ok := req.Table.ident()
	if !ok {
		return res, fmt.Errorf("%w: refusing to prune unknown table %q", ErrInvariant, req.Table)
	}
	if req.Pattern == "" {
		return res, errors.New("prune: empty key pattern")
	}
	where := "key LIKE " + sqlite.Literal(req.Pattern)

	counted, err := m.ints(ctx, db, 1, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, name, where))
	if err != nil {
		return res, fmt.Errorf("prune %s: counting: %w", db.Label, err)
	}
	res.Matched = counted[0]

	if res.Matched == 0 {
		res.Outcome = PruneEmpty
		m.logger.Info("no rows match", "db", db.Label, "table", name, "pattern", req.Pattern)
		return res, nil
	}
	if req.KeepLast > 0 && res.Matched <= int64(req.KeepLast) {
		res.Outcome = PruneWithinRetention
		m.logger.Info("all matches within retention", "db", db.Label, "matched", res.Matched, "keep_last", req.KeepLast)
		return res, nil
	}

	before := m.size(db.Path)
	del := fmt.Sprintf(`DELETE FROM %s WHERE %s`, name, where)
	if req.KeepLast > 0 {
		del += fmt.Sprintf(` AND rowid NOT IN (SELECT rowid FROM %s WHERE %s ORDER BY rowid DESC LIMIT %d)`, name, where, req.KeepLast)
	}
	deleted, err := m.ints(ctx, db, 1, del, `SELECT changes()`)
	if err != nil {
		return res, fmt.Errorf("prune %s: deleting: %w", db.Label, err)
	}
	res.Deleted = deleted[0]
	res.Outcome = PruneDeleted
	m.logger.Info("deleted rows", "db", db.Label, "table", name, "pattern", req.Pattern, "matched", res.Matched, "deleted", res.Deleted)

	vac, err := m.Vacuum(ctx, db)
	if err != nil {
		return res, fmt.Errorf("prune %s: vacuuming: %w", db.Label, err)
	}
	res.Vacuum = &vac
	res.FreedBytes = before - vac.After
	return res, nil
}
