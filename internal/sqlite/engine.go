// Package sqlite runs one-shot SQL statements against a database file.
//
// Results come back as raw text, one row per line, in the form the sqlite3
// command-line shell prints by default. Callers only ever split that text into
// fields; nothing here interprets result values.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine executes statements against a database file. Statements run in order
// within one session; the returned text is the output of the last statement.
type Engine interface {
	Run(ctx context.Context, dbPath string, stmts ...string) (string, error)
}

// ErrEngineNotFound is returned when no sqlite3 executable can be located.
var ErrEngineNotFound = errors.New("sqlite3 engine not found: install the sqlite3 command-line shell or set sqlite_path")

const lockedHint = "close Cursor and try again (the database may be locked by another process)"

// ExecError is an engine failure. Output is the engine's own error text.
type ExecError struct {
	DB     string
	Output string
	Err    error
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("sqlite error on %s: %s; %s", e.DB, msg, lockedHint)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Literal quotes s as an SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Lines splits engine output into non-empty lines.
func Lines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// Fields splits a row on whichever separator it uses, '|' or tab.
func Fields(line string) []string {
	sep := "|"
	if !strings.Contains(line, "|") && strings.Contains(line, "\t") {
		sep = "\t"
	}
	return strings.Split(line, sep)
}

// SplitLast splits a row on its last separator, so a leading field that
// itself contains '|' or tab stays intact.
func SplitLast(line string) (head, last string, ok bool) {
	i := strings.LastIndexAny(line, "|\t")
	if i < 0 {
		return line, "", false
	}
	return line[:i], line[i+1:], true
}

// Script joins statements into a single SQL script, terminating each one.
func Script(stmts ...string) string {
	var b strings.Builder
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		b.WriteString(s)
		if !strings.HasSuffix(s, ";") {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
	return b.String()
}
