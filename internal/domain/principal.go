package domain

import "github.com/google/uuid"

// Principal is the caller identity established by the access gate for a
// single request. Handlers read it from the request context instead of
// re-verifying the session token.
type Principal struct {
	SubjectID uuid.UUID
	IsAdmin   bool
}
