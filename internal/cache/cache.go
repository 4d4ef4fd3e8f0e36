// Package cache measures and deletes Cursor cache directories.
package cache

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ba0f3/cursorclean/internal/paths"
)

// Skipped is an entry the size walk could not read.
type Skipped struct {
	Path string
	Err  error
}

// Usage is the result of walking one directory tree.
type Usage struct {
	Bytes   int64
	Files   int
	Skipped []Skipped
}

// Walk sums the sizes of regular files under root. Unreadable entries are
// recorded in Skipped and the walk carries on.
func Walk(root string) Usage {
	var u Usage
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			u.Skipped = append(u.Skipped, Skipped{Path: path, Err: err})
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			u.Skipped = append(u.Skipped, Skipped{Path: path, Err: err})
			return nil
		}
		u.Bytes += info.Size()
		u.Files++
		return nil
	})
	return u
}

// Measure walks every path.
func Measure(dirs []paths.CachePath) map[string]Usage {
	out := make(map[string]Usage, len(dirs))
	for _, d := range dirs {
		out[d.Path] = Walk(d.Path)
	}
	return out
}

// SelectProtected returns the directories a light cleanup must keep.
func SelectProtected(dirs []paths.CachePath) []paths.CachePath {
	var out []paths.CachePath
	for _, d := range dirs {
		if d.Protected {
			out = append(out, d)
		}
	}
	return out
}

// SelectUnprotected returns the directories a light cleanup deletes.
func SelectUnprotected(dirs []paths.CachePath) []paths.CachePath {
	var out []paths.CachePath
	for _, d := range dirs {
		if !d.Protected {
			out = append(out, d)
		}
	}
	return out
}

// DeleteResult records what a Delete call removed.
type DeleteResult struct {
	Succeeded []string
	Failed    map[string]error
}

func (r DeleteResult) Total() int { return len(r.Succeeded) + len(r.Failed) }

// Err returns a *PartialError if any path failed.
func (r DeleteResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &PartialError{Succeeded: len(r.Succeeded), Total: r.Total(), Failed: r.Failed}
}

// PartialError reports a batch where some items failed.
type PartialError struct {
	Succeeded int
	Total     int
	Failed    map[string]error
}

func (e *PartialError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for p := range e.Failed {
		failed = append(failed, p)
	}
	return fmt.Sprintf("%d/%d succeeded; failed: %s", e.Succeeded, e.Total, strings.Join(failed, ", "))
}

// Cleaner deletes directory trees.
type Cleaner struct {
	remove func(string) error
	logger *slog.Logger
}

func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{remove: os.RemoveAll, logger: logger.With("component", "cache")}
}

// Delete attempts every path; a failure is logged and recorded, never
// allowed to stop the rest.
func (c *Cleaner) Delete(dirs []paths.CachePath) DeleteResult {
	res := DeleteResult{Failed: make(map[string]error)}
	for _, d := range dirs {
		if err := c.remove(d.Path); err != nil {
			c.logger.Warn("failed to delete", "path", d.Path, "error", err)
			res.Failed[d.Path] = err
			continue
		}
		c.logger.Debug("deleted", "path", d.Path)
		res.Succeeded = append(res.Succeeded, d.Path)
	}
	return res
}
