package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Embedded runs statements in-process through mattn/go-sqlite3 and renders
// results the way the sqlite3 shell does in its default list mode.
type Embedded struct {
	// BusyTimeout is how long SQLite waits on a locked file before failing.
	BusyTimeout time.Duration
}

func NewEmbedded() *Embedded {
	return &Embedded{BusyTimeout: 5 * time.Second}
}

func (e *Embedded) Run(ctx context.Context, dbPath string, stmts ...string) (string, error) {
	// sqlite would otherwise create an empty database at a mistyped path.
	if _, err := os.Stat(dbPath); err != nil {
		return "", &ExecError{DB: dbPath, Output: "unable to open database file", Err: err}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, e.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return "", &ExecError{DB: dbPath, Err: err}
	}
	defer db.Close()

	// changes() and friends are per-connection, so every statement shares one.
	conn, err := db.Conn(ctx)
	if err != nil {
		return "", &ExecError{DB: dbPath, Output: err.Error(), Err: err}
	}
	defer conn.Close()

	var out string
	for i, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if i == len(stmts)-1 && returnsRows(stmt) {
			out, err = queryText(ctx, conn, stmt)
		} else {
			_, err = conn.ExecContext(ctx, stmt)
		}
		if err != nil {
			return "", &ExecError{DB: dbPath, Output: err.Error(), Err: err}
		}
	}
	return out, nil
}

func returnsRows(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	for _, prefix := range []string{"SELECT", "PRAGMA", "WITH", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

func queryText(ctx context.Context, conn *sql.Conn, stmt string) (string, error) {
	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var b strings.Builder
	fields := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		for i, v := range vals {
			fields[i] = formatValue(v)
		}
		b.WriteString(strings.Join(fields, "|"))
		b.WriteString("\n")
	}
	return b.String(), rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
