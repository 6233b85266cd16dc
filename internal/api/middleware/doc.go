// Package middleware contains the HTTP middleware chain: request tracing,
// request metrics, sign-in rate limiting and the access gate that decides,
// for every request, whether to forward it, redirect it or reject it.
package middleware
