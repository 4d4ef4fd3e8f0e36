package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ba0f3/cursorclean/internal/maint"
	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

// runVacuum compacts the selected databases, skipping files below threshold.
// Databases are handled one at a time and the first failure stops the run.
func runVacuum(ctx context.Context, s *session, workspace, global bool, threshold int64, asJSON bool) error {
	var dbs []paths.StateDatabase
	if workspace {
		dbs = append(dbs, s.layout.Workspaces()...)
	}
	if global {
		if g, ok := s.layout.Global(); ok {
			dbs = append(dbs, g)
		}
	}
	if len(dbs) == 0 {
		if !asJSON {
			fmt.Fprintln(s.out, "No state databases found.")
			return nil
		}
		return writeJSON(s.out, []maint.VacuumResult{})
	}

	results := make([]maint.VacuumResult, 0, len(dbs))
	var saved int64
	for _, db := range dbs {
		res, err := s.maint.VacuumIfAbove(ctx, db, threshold)
		if err != nil {
			return err
		}
		results = append(results, res)
		saved += res.Saved()
		if asJSON {
			continue
		}
		if res.Skipped {
			fmt.Fprintf(s.out, "%-40s %10s  skipped (below %s)\n", db.Label, formatBytes(res.Before), formatBytes(threshold))
			continue
		}
		fmt.Fprintf(s.out, "%-40s %10s -> %-10s saved %s\n", db.Label, formatBytes(res.Before), formatBytes(res.After), formatBytes(res.Saved()))
	}
	if asJSON {
		return writeJSON(s.out, results)
	}
	fmt.Fprintf(s.out, "\nTotal saved: %s\n", formatBytes(saved))
	return nil
}

// globalDatabase returns the global database, or false after telling the
// user there is none. Under --json the answer is a JSON null.
func globalDatabase(s *session, asJSON bool) (paths.StateDatabase, bool, error) {
	db, ok := s.layout.Global()
	if ok {
		return db, true, nil
	}
	if asJSON {
		return db, false, writeJSON(s.out, nil)
	}
	fmt.Fprintf(s.out, "No global state database found under %s.\n", s.layout.AppDataDir)
	return db, false, nil
}

func runAnalyze(ctx context.Context, s *session, asJSON bool) error {
	db, ok, err := globalDatabase(s, asJSON)
	if !ok || err != nil {
		return err
	}
	report, err := s.maint.Analyze(ctx, db)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(s.out, report)
	}
	printAnalysis(s.out, report)
	return nil
}

func printAnalysis(w io.Writer, r *maint.AnalysisReport) {
	heading.Fprintf(w, "%s\n", r.Database.Label)
	fmt.Fprintf(w, "  Path:   %s\n", r.Database.Path)
	fmt.Fprintf(w, "  Size:   %s\n", formatBytes(r.Size))
	fmt.Fprintf(w, "  Tables: %d\n", len(r.Tables))
	for _, t := range r.Tables {
		fmt.Fprintf(w, "    %s\n", t)
	}
	for _, tr := range r.Reports {
		fmt.Fprintln(w)
		heading.Fprintf(w, "%s\n", tr.Table)
		fmt.Fprintf(w, "  Rows: %d, values: %.2f MB\n", tr.Rows, tr.TotalMB)
		if len(tr.Top) == 0 {
			continue
		}
		fmt.Fprintf(w, "  Largest %d keys:\n", len(tr.Top))
		for _, k := range tr.Top {
			fmt.Fprintf(w, "  %10.2f MB  %s\n", k.SizeMB, k.Key)
		}
	}
}

func runCountCategories(ctx context.Context, s *session, asJSON bool) error {
	db, ok, err := globalDatabase(s, asJSON)
	if !ok || err != nil {
		return err
	}
	counts, err := s.maint.CountCategories(ctx, db)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(s.out, counts)
	}
	return printCategories(s.out, counts)
}

func printCategories(out io.Writer, counts []maint.CategoryCount) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTABLE\tROWS\tSIZE")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f MB\n", c.Label, c.Table, c.Count, c.SizeMB)
	}
	return w.Flush()
}

// integrityView is an IntegrityResult with its error rendered for output.
type integrityView struct {
	maint.IntegrityResult
	Error string `json:"error,omitempty"`
}

func runIntegrity(ctx context.Context, s *session, globalOnly, asJSON bool) error {
	var dbs []paths.StateDatabase
	if globalOnly {
		if g, ok := s.layout.Global(); ok {
			dbs = append(dbs, g)
		}
	} else {
		dbs = s.layout.StateDatabases()
	}
	if len(dbs) == 0 {
		if asJSON {
			return writeJSON(s.out, map[string]any{"results": []integrityView{}, "passed": 0, "total": 0})
		}
		if globalOnly {
			fmt.Fprintf(s.out, "No global state database found under %s.\n", s.layout.AppDataDir)
			return nil
		}
		fmt.Fprintln(s.out, "No state databases found.")
		return nil
	}

	summary, err := s.maint.CheckAll(ctx, dbs)
	if err != nil {
		return err
	}
	if asJSON {
		views := make([]integrityView, 0, len(summary.Results))
		for _, r := range summary.Results {
			v := integrityView{IntegrityResult: r}
			if r.Err != nil {
				v.Error = r.Err.Error()
			}
			views = append(views, v)
		}
		return writeJSON(s.out, map[string]any{
			"results": views,
			"passed":  summary.Passed(),
			"total":   summary.Total(),
		})
	}
	for _, r := range summary.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(s.out, "%s %s: %v\n", warnMark, r.Database.Label, r.Err)
		case r.OK:
			fmt.Fprintf(s.out, "%s %s\n", okMark, r.Database.Label)
		default:
			fmt.Fprintf(s.out, "%s %s: %s failed: %s\n", failMark, r.Database.Label, r.Stage, r.Reason)
		}
	}
	fmt.Fprintf(s.out, "\nIntegrity: %s\n", summary)
	return nil
}

// runPrune deletes matching rows from the global database after the user
// agrees. Without a terminal, only --yes counts as agreement.
func runPrune(ctx context.Context, s *session, req maint.PruneRequest, yes, asJSON bool) error {
	db, ok := s.layout.Global()
	if !ok {
		return fmt.Errorf("no global state database found under %s", s.layout.AppDataDir)
	}
	if !yes {
		if !s.interactive() {
			return errNoTerminal
		}
		prompt := fmt.Sprintf("Delete rows of %s matching %s from %s", req.Table, sqlite.Literal(req.Pattern), db.Path)
		if req.KeepLast > 0 {
			prompt += fmt.Sprintf(", keeping the %d most recent", req.KeepLast)
		}
		if !confirm(s.in, s.out, prompt+"?") {
			return errAborted
		}
	}

	res, err := s.maint.PruneByPattern(ctx, db, req)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(s.out, res)
	}
	switch res.Outcome {
	case maint.PruneEmpty:
		fmt.Fprintln(s.out, "No matching rows.")
	case maint.PruneWithinRetention:
		fmt.Fprintf(s.out, "%d matching rows, all within --keep-last %d. Nothing deleted.\n", res.Matched, req.KeepLast)
	default:
		fmt.Fprintf(s.out, "Deleted %d of %d matching rows, freed %s\n", res.Deleted, res.Matched, formatBytes(res.FreedBytes))
	}
	return nil
}
