// Package maint implements maintenance operations on Cursor state databases:
// VACUUM, integrity checks, size analysis, category counts and pattern-scoped
// deletes with bounded retention.
//
// # Engine
//
// Every operation goes through a sqlite.Engine. Nothing here opens the
// database file itself; file sizes are read from the file system before and
// after mutating statements.
//
// # SQL construction
//
// Table names come only from the closed Table enum and are checked before any
// SQL text is built. Key patterns are embedded as quoted literals via
// sqlite.Literal. An unknown table fails with ErrInvariant and issues no SQL.
//
// # Errors
//
//   - ErrInvariant: unknown table, or a file that grew during VACUUM
//   - *sqlite.ExecError: the engine rejected a statement or returned
//     output that could not be parsed
//   - sqlite.ErrEngineNotFound: no engine available
//
// Nothing retries. Re-running after fixing the cause is the recovery path.
package maint
