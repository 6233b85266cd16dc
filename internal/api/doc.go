// Package api handles the HTTP endpoints of the marketplace backend: sign-in,
// sign-out, session check, the caller's own identity and health. Handlers
// trust the principal placed in the request context by the access gate and
// never re-verify session tokens themselves.
package api
