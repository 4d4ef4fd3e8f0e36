package maint

import (
	"context"
	"fmt"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

// TopKeys is how many of the largest rows Analyze reports per table.
const TopKeys = 50

// KeyUsage is one row's key and value size.
type KeyUsage struct {
	Key    string  `json:"key"`
	Bytes  int64   `json:"bytes"`
	SizeMB float64 `json:"size_mb"`
}

// TableReport summarizes one known table.
type TableReport struct {
	Table      Table      `json:"table"`
	Rows       int64      `json:"rows"`
	TotalBytes int64      `json:"total_bytes"`
	TotalMB    float64    `json:"total_mb"`
	Top        []KeyUsage `json:"top"`
}

// AnalysisReport lists the tables in a database and ranks keys by size.
type AnalysisReport struct {
	Database paths.StateDatabase `json:"database"`
	Size     int64               `json:"size"`
	Tables   []string            `json:"tables"`
	Reports  []TableReport       `json:"reports"`
}

// Analyze is read-only.
func (m *Maintainer) Analyze(ctx context.Context, db paths.StateDatabase) (*AnalysisReport, error) {
	tables, err := m.listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: listing tables: %w", db.Label, err)
	}
	rep := &AnalysisReport{Database: db, Size: m.size(db.Path), Tables: tables}

	for _, t := range Tables {
		if !hasTable(tables, t) {
			continue
		}
		tr, err := m.analyzeTable(ctx, db, t)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %s: %w", db.Label, t, err)
		}
		rep.Reports = append(rep.Reports, tr)
	}
	return rep, nil
}

func (m *Maintainer) analyzeTable(ctx context.Context, db paths.StateDatabase, t Table) (TableReport, error) {
	name, _ := t.ident()
	tr := TableReport{Table: t}

	vals, err := m.ints(ctx, db, 2, fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM %s`, name))
	if err != nil {
		return tr, err
	}
	tr.Rows, tr.TotalBytes = vals[0], vals[1]
	tr.TotalMB = toMB(tr.TotalBytes)

	out, err := m.engine.Run(ctx, db.Path,
		fmt.Sprintf(`SELECT key, LENGTH(value) FROM %s ORDER BY LENGTH(value) DESC LIMIT %d`, name, TopKeys))
	if err != nil {
		return tr, err
	}
	for _, line := range sqlite.Lines(out) {
		key, size, ok := sqlite.SplitLast(line)
		if !ok {
			return tr, unparseable(db, line)
		}
		n, err := parseInt(size)
		if err != nil {
			return tr, unparseable(db, line)
		}
		tr.Top = append(tr.Top, KeyUsage{Key: key, Bytes: n, SizeMB: toMB(n)})
	}
	return tr, nil
}

// CategoryCount is one category's row count and value size.
type CategoryCount struct {
	Category
	Count  int64   `json:"count"`
	Bytes  int64   `json:"bytes"`
	SizeMB float64 `json:"size_mb"`
}

// CountCategories reports every category in Categories order. A category
// whose table is absent counts as zero. Read-only.
func (m *Maintainer) CountCategories(ctx context.Context, db paths.StateDatabase) ([]CategoryCount, error) {
	tables, err := m.listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("count categories %s: listing tables: %w", db.Label, err)
	}

	out := make([]CategoryCount, 0, len(Categories))
	for _, c := range Categories {
		cc := CategoryCount{Category: c}
		name, ok := c.Table.ident()
		if !ok {
			return nil, fmt.Errorf("%w: category %q has unknown table %q", ErrInvariant, c.Label, c.Table)
		}
		if hasTable(tables, c.Table) {
			where := "key LIKE " + sqlite.Literal(c.Pattern)
			count, err := m.ints(ctx, db, 1, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, name, where))
			if err != nil {
				return nil, fmt.Errorf("count categories %s: %s: %w", db.Label, c.Label, err)
			}
			size, err := m.ints(ctx, db, 1, fmt.Sprintf(`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM %s WHERE %s`, name, where))
			if err != nil {
				return nil, fmt.Errorf("count categories %s: %s: %w", db.Label, c.Label, err)
			}
			cc.Count, cc.Bytes = count[0], size[0]
			cc.SizeMB = toMB(cc.Bytes)
		}
		out = append(out, cc)
	}
	return out, nil
}
