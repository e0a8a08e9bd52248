// Package store defines the persistence interfaces and sentinel errors shared
// by all storage backends. Implementations live in
// internal/platform/postgres.
package store
