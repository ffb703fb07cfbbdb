// Package features models feature flags, the cohorts that scope them, and
// the form grammar the admin pages use to toggle both.
//
// Admin forms post flat keys such as `search[everyone]` or
// `search[cohorts][beta]`. ParseForm groups those keys per feature and
// ApplyForm turns them into flag and cohort changes, leaving persistence to
// the caller.
package features
