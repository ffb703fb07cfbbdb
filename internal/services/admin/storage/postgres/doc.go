// Package postgres provides Postgres-backed admin persistence for deployments
// that share one database between several admin processes.
package postgres
