// Package sqlite provides SQLite-backed admin persistence.
//
// It is the default backend: a single file next to the admin process that
// holds feature flags, cohorts and the users cohorts reference.
package sqlite
