package main

import (
	"fmt"

	"github.com/ba0f3/cursorclean/internal/cache"
	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type cacheOptions struct {
	light  bool
	dryRun bool
	yes    bool
}

var cacheOpts cacheOptions

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Delete Cursor's cache directories",
	Long: `Measure and delete Cursor's cache directories.

workspaceStorage and History are included unless --light is given; they hold
per-workspace state and local file history, not just caches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		return runCache(s, cache.NewCleaner(s.logger), cacheOpts)
	},
}

func runCache(s *session, cleaner *cache.Cleaner, o cacheOptions) error {
	dirs := deletable(s.layout, o.light)
	if len(dirs) == 0 {
		fmt.Fprintln(s.out, "No cache directories found.")
		return nil
	}

	usage := cache.Measure(dirs)
	var total int64
	for _, d := range dirs {
		u := usage[d.Path]
		total += u.Bytes
		fmt.Fprintf(s.out, "  %-20s %10s  %s\n", d.Name, humanize.Bytes(uint64(u.Bytes)), d.Path)
		for _, sk := range u.Skipped {
			s.logger.Debug("unreadable entry not counted", "path", sk.Path, "error", sk.Err)
		}
	}
	fmt.Fprintf(s.out, "  %-20s %10s\n", "total", humanize.Bytes(uint64(total)))
	if protected := cache.SelectProtected(dirs); len(protected) > 0 {
		fmt.Fprintf(s.out, "\nIncludes %d protected director%s; use --light to keep them.\n", len(protected), plural(len(protected), "y", "ies"))
	}
	if o.dryRun {
		return nil
	}

	if !o.yes {
		if !s.interactive() {
			return errNoTerminal
		}
		if !confirm(s.in, s.out, fmt.Sprintf("Delete %d director%s?", len(dirs), plural(len(dirs), "y", "ies"))) {
			return errAborted
		}
	}

	res := cleaner.Delete(dirs)
	fmt.Fprintf(s.out, "%d/%d succeeded, freed about %s\n", len(res.Succeeded), res.Total(), humanize.Bytes(uint64(freed(res, usage))))
	return res.Err()
}

func freed(res cache.DeleteResult, usage map[string]cache.Usage) int64 {
	var n int64
	for _, p := range res.Succeeded {
		n += usage[p].Bytes
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// deletable reports the cache directories a run would remove.
func deletable(l paths.Layout, light bool) []paths.CachePath {
	dirs := l.CachePaths()
	if light {
		return cache.SelectUnprotected(dirs)
	}
	return dirs
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheOpts.light, "light", false, "Keep workspaceStorage and History")
	cacheCmd.Flags().BoolVar(&cacheOpts.dryRun, "dry-run", false, "Only list what would be deleted")
	cacheCmd.Flags().BoolVar(&cacheOpts.yes, "yes", false, "Do not ask for confirmation")
	rootCmd.AddCommand(cacheCmd)
}
