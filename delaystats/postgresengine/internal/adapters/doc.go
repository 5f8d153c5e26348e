// Package adapters provide database adapter implementations for the PostgreSQL delay statistics engine.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters hand out dedicated connections through
// a common DBAdapter interface, so the engine's lease bookkeeping works the same way
// for every supported connection type.
//
// The adapters handle the specifics of each database library while presenting a
// unified interface for parameterized query execution and result iteration.
package adapters
