// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, the embedded
// goose migrations that create their schema, and connection setup.
//
// Every error leaving this package is mapped onto a store sentinel or wrapped
// in domain.ErrDependency, so callers can tell "no such user" apart from
// "database unavailable" without inspecting driver types.
package postgres
