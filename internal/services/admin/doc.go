// Package admin implements the operator surface for feature flags and cohorts.
//
// It translates browser form posts into storage writes: flag toggles for
// everyone, staff and admins, feature-cohort links, and cohort membership.
// Handlers depend on storage.Store rather than a concrete SQL engine.
package admin
