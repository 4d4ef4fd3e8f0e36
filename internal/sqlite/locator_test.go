package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_PathLookupIsMemoized(t *testing.T) {
	calls := 0
	l := &Locator{lookPath: func(name string) (string, error) {
		calls++
		return "/bin/" + name, nil
	}}

	for i := 0; i < 3; i++ {
		p, err := l.Locate()
		require.NoError(t, err)
		assert.Equal(t, "/bin/sqlite3", p)
	}
	assert.Equal(t, 1, calls)
}

func TestLocator_FallsBackToConfiguredPath(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "sqlite3")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	l := &Locator{
		Configured: bin,
		Candidates: []string{filepath.Join(t.TempDir(), "nope")},
		lookPath:   func(string) (string, error) { return "", errors.New("not on PATH") },
	}
	p, err := l.Locate()
	require.NoError(t, err)
	assert.Equal(t, bin, p)
}

func TestLocator_NotFoundIsMemoized(t *testing.T) {
	calls := 0
	l := &Locator{
		Candidates: []string{filepath.Join(t.TempDir(), "missing")},
		lookPath: func(string) (string, error) {
			calls++
			return "", errors.New("not on PATH")
		},
	}

	_, err := l.Locate()
	assert.ErrorIs(t, err, ErrEngineNotFound)
	_, err = l.Locate()
	assert.ErrorIs(t, err, ErrEngineNotFound)
	assert.Equal(t, 1, calls)
}
