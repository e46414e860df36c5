// Package history records dub and update runs in a SQLite database so users
// can review what ran against an output directory, how long each stage took
// and why a run failed.
//
// The schema is embedded and versioned; a database written by an
// incompatible version is rejected with ErrSchemaMismatch rather than being
// migrated in place.
package history
