// Package ratelimit connects to redis and provides the GCRA limiter used to
// throttle sign-in attempts per client address.
package ratelimit
