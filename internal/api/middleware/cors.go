package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

var (
	corsAllowedMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodPatch,
	}, ",")
	corsAllowedHeaders = "Content-Type,Authorization,Cookie"
	corsMaxAge         = strconv.Itoa(86400)
)

// CORSPolicy decides the Access-Control-Allow-Origin value for a request.
type CORSPolicy struct {
	// DefaultOrigin is returned for requests whose Origin is not allowed.
	DefaultOrigin string
	// AllowedOrigins are echoed back verbatim.
	AllowedOrigins []string
}

// AllowOrigin returns the origin to advertise for a request from origin.
func (p CORSPolicy) AllowOrigin(origin string) string {
	if origin != "" && slices.Contains(p.AllowedOrigins, origin) {
		return origin
	}
	return p.DefaultOrigin
}

// Apply sets the CORS headers attached to every API response.
func (p CORSPolicy) Apply(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", p.AllowOrigin(origin))
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Add("Vary", "Origin")
}

// ApplyPreflight sets the headers answering an OPTIONS preflight.
func (p CORSPolicy) ApplyPreflight(h http.Header, origin string) {
	p.Apply(h, origin)
	h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}
