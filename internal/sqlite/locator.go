package sqlite

import (
	"os"
	"os/exec"
	"sync"
)

// KnownPaths are probed, in order, when sqlite3 is not on PATH.
var KnownPaths = []string{
	"/usr/bin/sqlite3",
	"/usr/local/bin/sqlite3",
	"/opt/homebrew/bin/sqlite3",
	"/opt/local/bin/sqlite3",
	`C:\sqlite\sqlite3.exe`,
	`C:\Program Files\SQLite\sqlite3.exe`,
	`C:\ProgramData\chocolatey\bin\sqlite3.exe`,
}

// Locator finds the sqlite3 executable once and remembers the answer, hit or
// miss, for its own lifetime. The CLI creates one Locator per run.
type Locator struct {
	// Configured is tried right after the PATH lookup.
	Configured string
	// Candidates defaults to KnownPaths.
	Candidates []string

	lookPath func(string) (string, error)
	once     sync.Once
	path     string
	err      error
}

func NewLocator(configured string) *Locator {
	return &Locator{Configured: configured, Candidates: KnownPaths}
}

// Locate returns the path of the sqlite3 executable or ErrEngineNotFound.
func (l *Locator) Locate() (string, error) {
	l.once.Do(func() {
		l.path, l.err = l.locate()
	})
	return l.path, l.err
}

func (l *Locator) locate() (string, error) {
	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if p, err := lookPath("sqlite3"); err == nil {
		return p, nil
	}

	candidates := l.Candidates
	if l.Configured != "" {
		candidates = append([]string{l.Configured}, candidates...)
	}
	for _, c := range candidates {
		if isExecutable(c) {
			return c, nil
		}
	}
	return "", ErrEngineNotFound
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	return fi.Mode()&0111 != 0 || isWindowsExe(path)
}
