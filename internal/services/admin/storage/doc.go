// Package storage defines persistence contracts for feature flags, cohorts and
// the users cohorts reference.
//
// Admin handlers depend on these interfaces so they stay testable and do not
// depend on a concrete SQL engine.
package storage
