package maint

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/ba0f3/cursorclean/internal/sqlite"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type row struct {
	table Table
	key   string
	size  int
}

// newStateDB builds a state.vscdb-shaped database with the given tables and
// inserts rows in order, so rowids follow slice order per table.
func newStateDB(t *testing.T, tables []Table, rows ...row) paths.StateDatabase {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.vscdb")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, tbl := range tables {
		_, err := db.Exec(`CREATE TABLE ` + string(tbl) + ` (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
		require.NoError(t, err)
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO `+string(r.table)+` (key, value) VALUES (?, ?)`, r.key, make([]byte, r.size))
		require.NoError(t, err)
	}
	return paths.StateDatabase{Path: path, Label: "Global"}
}

func queryRowids(t *testing.T, db paths.StateDatabase, table Table, pattern string) []int64 {
	t.Helper()
	conn, err := sql.Open("sqlite3", db.Path)
	require.NoError(t, err)
	defer conn.Close()

	rows, err := conn.Query(`SELECT rowid FROM `+string(table)+` WHERE key LIKE ? ORDER BY rowid`, pattern)
	require.NoError(t, err)
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func fileHash(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func embedded() *Maintainer {
	return New(sqlite.NewEmbedded(), discard)
}

// fakeEngine records every call and answers by matching a substring of the
// last statement.
type fakeEngine struct {
	calls     [][]string
	responses map[string]string
	failFor   map[string]error
}

func (f *fakeEngine) Run(_ context.Context, dbPath string, stmts ...string) (string, error) {
	f.calls = append(f.calls, stmts)
	if err, ok := f.failFor[dbPath]; ok {
		return "", err
	}
	last := stmts[len(stmts)-1]
	for k, v := range f.responses {
		if strings.Contains(last, k) {
			return v, nil
		}
	}
	return "", nil
}

func (f *fakeEngine) ran(sub string) int {
	n := 0
	for _, c := range f.calls {
		for _, s := range c {
			if strings.Contains(s, sub) {
				n++
			}
		}
	}
	return n
}
