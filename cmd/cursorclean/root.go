package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ba0f3/cursorclean/internal/config"
	"github.com/ba0f3/cursorclean/internal/maint"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	logLevelFlag string
	projectFlag  string

	errAborted    = errors.New("aborted")
	errNoTerminal = errors.New("refusing to delete without confirmation: stdin is not a terminal (pass --yes)")
)

// rootOptions mirrors the root command's flags.
type rootOptions struct {
	workspace       bool
	global          bool
	thresholdMB     int64
	thresholdSet    bool
	analyze         bool
	checkIntegrity  bool
	globalOnly      bool
	countCategories bool
	table           string
	deleteKeys      string
	keepLast        int
	keepLastSet     bool
	yes             bool
	json            bool
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "cursorclean",
	Short: "Reclaim disk space from Cursor's state databases and caches",
	Long: `Vacuum, analyze, check and prune the SQLite state databases Cursor keeps
per workspace and globally, and clear its cache directories.

Close Cursor before running anything that writes: an open IDE holds locks on
its databases and keeps rewriting its caches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("config") {
			config.ConfigFile, _ = cmd.Flags().GetString("config")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rootOpts.keepLastSet = cmd.Flags().Changed("keep-last")
		rootOpts.thresholdSet = cmd.Flags().Changed("threshold")
		if err := rootOpts.validate(); err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		return run(cmd.Context(), s, rootOpts)
	},
}

func (o rootOptions) validate() error {
	if _, err := maint.ParseTable(o.table); err != nil {
		return err
	}
	if o.thresholdSet && o.thresholdMB < 0 {
		return fmt.Errorf("--threshold must not be negative, got %d", o.thresholdMB)
	}
	if o.keepLastSet && o.keepLast <= 0 {
		return fmt.Errorf("--keep-last must be a positive integer, got %d", o.keepLast)
	}
	if o.keepLastSet && o.deleteKeys == "" {
		return errors.New("--keep-last only applies together with --delete-keys")
	}
	if o.deleteKeys != "" && !o.analyze {
		return errors.New("--delete-keys requires --analyze")
	}
	if o.globalOnly && !o.checkIntegrity {
		return errors.New("--global-only only applies together with --check-integrity")
	}
	return nil
}

// run dispatches the root flags. Diagnostic modes run in a fixed order; a
// vacuum run happens only when none of them was asked for.
func run(ctx context.Context, s *session, o rootOptions) error {
	diagnostic := o.checkIntegrity || o.countCategories || o.analyze
	if !diagnostic {
		threshold := s.cfg.ThresholdBytes()
		if o.thresholdSet {
			threshold = o.thresholdMB * 1024 * 1024
		}
		return runVacuum(ctx, s, o.workspace, o.global, threshold, o.json)
	}

	if o.checkIntegrity {
		if err := runIntegrity(ctx, s, o.globalOnly, o.json); err != nil {
			return err
		}
	}
	if o.countCategories {
		if err := runCountCategories(ctx, s, o.json); err != nil {
			return err
		}
	}
	if o.analyze {
		if o.deleteKeys != "" {
			table, _ := maint.ParseTable(o.table)
			req := maint.PruneRequest{Table: table, Pattern: o.deleteKeys}
			if o.keepLastSet {
				req.KeepLast = o.keepLast
			}
			return runPrune(ctx, s, req, o.yes, o.json)
		}
		return runAnalyze(ctx, s, o.json)
	}
	return nil
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: ~/.config/cursorclean/config.yml)")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&projectFlag, "project", "", "Project directory holding .cursor/state.vscdb (default: current directory)")

	f := rootCmd.Flags()
	f.BoolVar(&rootOpts.workspace, "workspace", true, "Vacuum workspace databases")
	f.BoolVar(&rootOpts.global, "global", false, "Vacuum the global database")
	f.Int64Var(&rootOpts.thresholdMB, "threshold", config.DefaultThresholdMB, "Skip databases smaller than this many MB")
	f.BoolVar(&rootOpts.analyze, "analyze", false, "Report table sizes and the largest keys of the global database")
	f.BoolVar(&rootOpts.checkIntegrity, "check-integrity", false, "Run quick_check and integrity_check on every database")
	f.BoolVar(&rootOpts.globalOnly, "global-only", false, "Restrict --check-integrity to the global database")
	f.BoolVar(&rootOpts.countCategories, "count-categories", false, "Count rows and bytes per known key category in the global database")
	f.StringVar(&rootOpts.table, "table", string(maint.ItemTable), "Table for --delete-keys: ItemTable or cursorDiskKV")
	f.StringVar(&rootOpts.deleteKeys, "delete-keys", "", "Delete global rows whose key matches this LIKE pattern (requires --analyze)")
	f.IntVar(&rootOpts.keepLast, "keep-last", 0, "With --delete-keys, keep this many most recent matches")
	f.BoolVar(&rootOpts.yes, "yes", false, "Do not ask for confirmation")
	f.BoolVar(&rootOpts.json, "json", false, "Print reports as JSON")
}
