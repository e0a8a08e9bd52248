// Package mocks provides in-memory implementations of the store interfaces
// and a recording event publisher for unit tests. The memory stores honor
// the same error contracts as their Postgres counterparts (not-found,
// duplicate email, conditional transition guards) so service and lifecycle
// tests exercise realistic behavior without a database.
package mocks
