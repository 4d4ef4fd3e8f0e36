package main

import (
	"fmt"
	"io"

	"github.com/ba0f3/cursorclean/internal/cache"
	"github.com/ba0f3/cursorclean/internal/config"
	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show discovered databases, cache directories and the SQL engine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		printStatus(s.out, s)
		return nil
	},
}

func printStatus(w io.Writer, s *session) {
	cfgPath, _ := config.GetConfigFilePath()

	fmt.Fprintln(w, "cursorclean status")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config:   ", cfgPath)
	fmt.Fprintln(w, "Engine:   ", s.engineName())
	fmt.Fprintln(w, "App data: ", s.layout.AppDataDir)
	fmt.Fprintln(w, "Cache:    ", s.layout.CacheDir)
	fmt.Fprintf(w, "Threshold: %d MB\n\n", s.cfg.ThresholdMB)

	heading.Fprintln(w, "State databases")
	dbs := s.layout.StateDatabases()
	if len(dbs) == 0 {
		fmt.Fprintln(w, "  none found")
	}
	var dbTotal int64
	for _, db := range dbs {
		size := paths.FileSize(db.Path)
		dbTotal += size
		fmt.Fprintf(w, "  %-40s %10s  %s\n", db.Label, formatBytes(size), db.Path)
	}
	if len(dbs) > 1 {
		fmt.Fprintf(w, "  %-40s %10s\n", "total", formatBytes(dbTotal))
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Cache directories")
	dirs := s.layout.CachePaths()
	if len(dirs) == 0 {
		fmt.Fprintln(w, "  none found")
		return
	}
	usage := cache.Measure(dirs)
	for _, d := range dirs {
		u := usage[d.Path]
		note := ""
		if d.Protected {
			note = " (protected)"
		}
		fmt.Fprintf(w, "  %-20s %10s  %s%s\n", d.Name, humanize.Bytes(uint64(u.Bytes)), d.Path, note)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
