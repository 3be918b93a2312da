// Package recodb persists reconstruction runs in SQLite: one row per run,
// one per event with its stage counts and window outcome, plus the
// selected hits and vertex candidates of every reconstructed event.
//
// The schema is owned by the embedded migrations; Open never creates
// tables on its own.
package recodb
