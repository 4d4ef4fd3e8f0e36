package maint

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a failed internal safety check.
var ErrInvariant = errors.New("invariant violation")

// Table is one of the key/value tables Cursor keeps in state.vscdb.
type Table string

const (
	ItemTable    Table = "ItemTable"
	CursorDiskKV Table = "cursorDiskKV"
)

// Tables lists every known table in report order.
var Tables = []Table{ItemTable, CursorDiskKV}

// ParseTable accepts only known table names.
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown table %q (want %s or %s)", ErrInvariant, name, ItemTable, CursorDiskKV)
	}
	return t, nil
}

func (t Table) Valid() bool {
	_, ok := t.ident()
	return ok
}

// ident returns the SQL identifier for t. The text comes from the constants
// below, never from the value itself.
func (t Table) ident() (string, bool) {
	switch t {
	case ItemTable:
		return "ItemTable", true
	case CursorDiskKV:
		return "cursorDiskKV", true
	}
	return "", false
}

func (t Table) String() string { return string(t) }

// Category is a named table+pattern rule for a meaningful slice of state.
type Category struct {
	Label   string `json:"label"`
	Table   Table  `json:"table"`
	Pattern string `json:"pattern"`
}

// Categories is the fixed category list; reports follow this order.
var Categories = []Category{
	{Label: "Chat bubbles", Table: CursorDiskKV, Pattern: "bubbleId:%"},
	{Label: "Composer sessions", Table: CursorDiskKV, Pattern: "composerData:%"},
	{Label: "Checkpoints", Table: CursorDiskKV, Pattern: "checkpointId:%"},
	{Label: "Message request context", Table: CursorDiskKV, Pattern: "messageRequestContext:%"},
	{Label: "AI service history", Table: ItemTable, Pattern: "aiService.%"},
}
