// Package auth implements credential sign-in, session token issuance and
// verification, and session resolution.
//
// Tokens are HS256 JWTs valid for exactly 24 hours. Verification pins the
// algorithm and never grants leeway on expiry. Session resolution distinguishes
// "no session" (nil, nil) from "store unavailable" (an error wrapping
// domain.ErrDependency); the two must never be conflated by callers.
package auth
