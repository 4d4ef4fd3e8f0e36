// Package paths locates Cursor's state databases and cache directories.
//
// Nothing here fails because a location is missing: probes that find nothing
// are simply left out of the result. Results keep probe declaration order.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	appName       = "Cursor"
	stateFileName = "state.vscdb"
)

// StateDatabase is one SQLite state file on disk.
type StateDatabase struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// CachePath is a directory that may be deleted wholesale.
type CachePath struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
}

// cacheDirs is the probe list for cache directories, relative to each root.
var cacheDirs = []struct {
	rel       string
	protected bool
}{
	{rel: "Cache"},
	{rel: "Code Cache"},
	{rel: "GPUCache"},
	{rel: "logs"},
	{rel: filepath.Join("User", "workspaceStorage"), protected: true},
	{rel: filepath.Join("User", "History"), protected: true},
}

// Layout holds the roots every probe is resolved against.
type Layout struct {
	ProjectDir string
	AppDataDir string
	CacheDir   string
}

// DefaultLayout resolves the per-user application-data roots for the host OS.
func DefaultLayout(projectDir string) (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, err
	}
	l := layoutFor(runtime.GOOS, home, os.Getenv)
	l.ProjectDir = projectDir
	return l, nil
}

func layoutFor(goos, home string, getenv func(string) string) Layout {
	var l Layout
	switch goos {
	case "darwin":
		l.AppDataDir = filepath.Join(home, "Library", "Application Support", appName)
		l.CacheDir = filepath.Join(home, "Library", "Caches", appName)
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		local := getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		l.AppDataDir = filepath.Join(appData, appName)
		l.CacheDir = filepath.Join(local, appName)
	default:
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		cacheHome := getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(home, ".cache")
		}
		l.AppDataDir = filepath.Join(configHome, appName)
		l.CacheDir = filepath.Join(cacheHome, appName)
	}
	return l
}

func (l Layout) workspaceStorageDir() string {
	return filepath.Join(l.AppDataDir, "User", "workspaceStorage")
}

func (l Layout) globalDatabasePath() string {
	return filepath.Join(l.AppDataDir, "User", "globalStorage", stateFileName)
}

// StateDatabases probes the project-local database, one database per
// workspaceStorage entry, and the global database, in that order.
func (l Layout) StateDatabases() []StateDatabase {
	var out []StateDatabase
	seen := make(map[string]bool)
	add := func(path, label string) {
		if !isFile(path) {
			return
		}
		key := canonical(path)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, StateDatabase{Path: path, Label: label})
	}

	if l.ProjectDir != "" {
		add(filepath.Join(l.ProjectDir, ".cursor", stateFileName), "Project")
	}

	if l.AppDataDir != "" {
		root := l.workspaceStorageDir()
		matches, err := doublestar.Glob(os.DirFS(root), "*/"+stateFileName)
		if err == nil {
			sort.Strings(matches)
			for _, rel := range matches {
				id := filepath.Base(filepath.Dir(filepath.FromSlash(rel)))
				add(filepath.Join(root, filepath.FromSlash(rel)), "Workspace/"+id)
			}
		}
		add(l.globalDatabasePath(), "Global")
	}

	return out
}

// Global returns the global state database if it exists. It is matched by
// resolved path, so it is found even when dedupe kept it under another label.
func (l Layout) Global() (StateDatabase, bool) {
	if l.AppDataDir == "" {
		return StateDatabase{}, false
	}
	path := l.globalDatabasePath()
	if !isFile(path) {
		return StateDatabase{}, false
	}
	return StateDatabase{Path: path, Label: "Global"}, true
}

// Workspaces returns every discovered database except the global one.
func (l Layout) Workspaces() []StateDatabase {
	global := ""
	if l.AppDataDir != "" {
		global = canonical(l.globalDatabasePath())
	}
	var out []StateDatabase
	for _, db := range l.StateDatabases() {
		if canonical(db.Path) != global {
			out = append(out, db)
		}
	}
	return out
}

// CachePaths probes the cache directory list under the app-data root and then
// under the cache root.
func (l Layout) CachePaths() []CachePath {
	var out []CachePath
	seen := make(map[string]bool)
	for _, root := range []string{l.AppDataDir, l.CacheDir} {
		if root == "" {
			continue
		}
		for _, d := range cacheDirs {
			path := filepath.Join(root, d.rel)
			if !isDir(path) {
				continue
			}
			key := canonical(path)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, CachePath{Path: path, Name: filepath.ToSlash(d.rel), Protected: d.protected})
		}
	}
	return out
}

// FileSize returns the size of path in bytes, or 0 if it cannot be stat'ed.
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// canonical is the de-duplication key for a path: absolute, cleaned, and with
// symlinks resolved when that succeeds.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
