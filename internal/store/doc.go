// Package store defines interfaces for data persistence operations.
// These interfaces abstract the credential store from the authentication
// services, so that token and session logic never depend on SQL.
package store
