// Package history persists completed job records to a local SQLite
// database for audit and inspection. The pipeline itself never reads from
// it; recording is append-only and best-effort from the CLI's point of
// view.
package history
