package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// Headers carrying the principal to downstream handlers. Client-supplied
// values are always removed before the gate decides.
const (
	HeaderUserID  = "X-User-Id"
	HeaderIsAdmin = "X-Is-Admin"
)

// APIMode selects how the gate treats the API namespace.
type APIMode string

const (
	// APIModeEnforce requires a valid session for every API path outside the
	// always-allowed set and admin privileges under the admin API prefixes.
	APIModeEnforce APIMode = "enforce"
	// APIModePassthrough forwards every API request and leaves authorization
	// to the handlers.
	APIModePassthrough APIMode = "passthrough"
)

// Class is the gate's classification of a request.
type Class string

const (
	ClassPreflight     Class = "preflight"
	ClassAPI           Class = "api"
	ClassAsset         Class = "asset"
	ClassAlwaysAllowed Class = "always-allowed"
	ClassPublic        Class = "public"
	ClassAdminGated    Class = "admin-gated"
	ClassProtected     Class = "protected-default"
)

// GateConfig is the immutable path table and policy of the gate.
type GateConfig struct {
	APIPrefix     string
	AssetPrefixes []string
	// AlwaysAllowed entries under APIPrefix are exempted by the API rule.
	// Entries outside it classify as ClassAlwaysAllowed and skip the gate.
	AlwaysAllowed    []string
	PublicPages      []string
	AdminPages       []string
	AdminAPIPrefixes []string

	SignInPath        string
	LandingPath       string
	ForbiddenRedirect string

	APIMode      APIMode
	SecureCookie bool
	CORS         CORSPolicy
}

// DefaultGateConfig returns the marketplace path table in enforce mode.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		APIPrefix:     "/api",
		AssetPrefixes: []string{"/_next", "/static"},
		AlwaysAllowed: []string{
			"/api/auth/signin",
			"/api/auth/signout",
			"/api/auth/session",
			"/api/health",
		},
		PublicPages:       []string{"/auth/signin", "/auth/signup"},
		AdminPages:        []string{"/admin"},
		AdminAPIPrefixes:  []string{"/api/admin"},
		SignInPath:        "/auth/signin",
		LandingPath:       "/products",
		ForbiddenRedirect: "/",
		APIMode:           APIModeEnforce,
		CORS:              CORSPolicy{DefaultOrigin: "http://localhost:3001"},
	}
}

// Classify returns the class of a request. Earlier classes take precedence.
func (c GateConfig) Classify(method, rawPath string) Class {
	p := cleanPath(rawPath)
	switch {
	case method == http.MethodOptions:
		return ClassPreflight
	case underPrefix(p, c.APIPrefix):
		return ClassAPI
	case c.isAsset(p):
		return ClassAsset
	case anyUnderPrefix(p, c.AlwaysAllowed):
		return ClassAlwaysAllowed
	case anyUnderPrefix(p, c.PublicPages):
		return ClassPublic
	case anyUnderPrefix(p, c.AdminPages):
		return ClassAdminGated
	default:
		return ClassProtected
	}
}

func (c GateConfig) isAsset(p string) bool {
	if anyUnderPrefix(p, c.AssetPrefixes) {
		return true
	}
	return strings.Contains(p[strings.LastIndex(p, "/")+1:], ".")
}

// Gate is the access controller run in front of every route.
type Gate struct {
	cfg     GateConfig
	tokens  auth.TokenService
	metrics *metrics.Manager
}

// NewGate creates a Gate. m may be nil.
func NewGate(cfg GateConfig, tokens auth.TokenService, m *metrics.Manager) *Gate {
	return &Gate{cfg: cfg, tokens: tokens, metrics: m}
}

// Handler wraps next with the access decision.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderIsAdmin)

		class := g.cfg.Classify(r.Method, r.URL.Path)
		origin := r.Header.Get("Origin")

		switch class {
		case ClassPreflight:
			g.cfg.CORS.ApplyPreflight(w.Header(), origin)
			w.WriteHeader(http.StatusOK)
			g.record(r, class, metrics.OutcomePreflight)

		case ClassAPI:
			g.cfg.CORS.Apply(w.Header(), origin)
			g.serveAPI(w, r, next)

		case ClassAsset, ClassAlwaysAllowed:
			g.record(r, class, metrics.OutcomeForward)
			next.ServeHTTP(w, r)

		case ClassPublic:
			g.servePublic(w, r, next)

		default:
			g.serveProtected(w, r, next, class)
		}
	})
}

func (g *Gate) serveAPI(w http.ResponseWriter, r *http.Request, next http.Handler) {
	p := cleanPath(r.URL.Path)
	if g.cfg.APIMode == APIModePassthrough || anyUnderPrefix(p, g.cfg.AlwaysAllowed) {
		g.record(r, ClassAPI, metrics.OutcomeForward)
		next.ServeHTTP(w, r)
		return
	}

	token := auth.TokenFromRequest(r)
	if token == "" {
		g.record(r, ClassAPI, metrics.OutcomeUnauthorized)
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	claims, ok := g.verify(r, token)
	if !ok {
		g.record(r, ClassAPI, metrics.OutcomeUnauthorized)
		shared.ClearSessionCookie(w, g.cfg.SecureCookie)
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if anyUnderPrefix(p, g.cfg.AdminAPIPrefixes) && !claims.IsAdmin {
		g.record(r, ClassAPI, metrics.OutcomeForbidden)
		shared.RespondWithError(w, r, http.StatusForbidden, "Admin privileges required")
		return
	}

	g.record(r, ClassAPI, metrics.OutcomeForward)
	next.ServeHTTP(w, withPrincipal(r, claims.Principal()))
}

func (g *Gate) servePublic(w http.ResponseWriter, r *http.Request, next http.Handler) {
	token := auth.TokenFromRequest(r)
	if token != "" {
		if _, ok := g.verify(r, token); ok {
			g.record(r, ClassPublic, metrics.OutcomeRedirect)
			http.Redirect(w, r, g.cfg.LandingPath, http.StatusTemporaryRedirect)
			return
		}
		shared.ClearSessionCookie(w, g.cfg.SecureCookie)
	}

	g.record(r, ClassPublic, metrics.OutcomeForward)
	next.ServeHTTP(w, r)
}

func (g *Gate) serveProtected(w http.ResponseWriter, r *http.Request, next http.Handler, class Class) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		g.record(r, class, metrics.OutcomeRedirect)
		http.Redirect(w, r, g.signInURL(r.URL.Path), http.StatusTemporaryRedirect)
		return
	}

	claims, ok := g.verify(r, token)
	if !ok {
		g.record(r, class, metrics.OutcomeRedirect)
		shared.ClearSessionCookie(w, g.cfg.SecureCookie)
		http.Redirect(w, r, g.signInURL(r.URL.Path), http.StatusTemporaryRedirect)
		return
	}

	if class == ClassAdminGated && !claims.IsAdmin {
		g.record(r, class, metrics.OutcomeRedirect)
		http.Redirect(w, r, g.cfg.ForbiddenRedirect, http.StatusTemporaryRedirect)
		return
	}

	g.record(r, class, metrics.OutcomeForward)
	next.ServeHTTP(w, withPrincipal(r, claims.Principal()))
}

// verify reports whether token is valid. The failure reason is logged and
// counted but never returned.
func (g *Gate) verify(r *http.Request, token string) (*auth.Claims, bool) {
	claims, err := g.tokens.Verify(r.Context(), token)
	if err != nil {
		reason := rejectionReason(err)
		logger.FromContext(r.Context()).Info("session token rejected",
			"reason", reason,
			"path", r.URL.Path)
		if g.metrics != nil {
			g.metrics.CounterTokenRejections.WithLabelValues(reason).Inc()
		}
		return nil, false
	}
	return claims, true
}

func (g *Gate) signInURL(returnTo string) string {
	return g.cfg.SignInPath + "?" + url.Values{"redirect": {returnTo}}.Encode()
}

func (g *Gate) record(r *http.Request, class Class, outcome string) {
	logger.FromContext(r.Context()).Debug("gate decision",
		"class", string(class),
		"outcome", outcome,
		"method", r.Method,
		"path", r.URL.Path)
	if g.metrics != nil {
		g.metrics.CounterGateDecisions.WithLabelValues(string(class), outcome).Inc()
	}
}

func withPrincipal(r *http.Request, p domain.Principal) *http.Request {
	fwd := r.Clone(shared.WithPrincipal(r.Context(), p))
	fwd.Header.Set(HeaderUserID, p.SubjectID.String())
	fwd.Header.Set(HeaderIsAdmin, strconv.FormatBool(p.IsAdmin))
	return fwd
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired"
	case errors.Is(err, auth.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, auth.ErrMalformedToken):
		return "malformed"
	default:
		return "other"
	}
}

// cleanPath collapses duplicate slashes and dot segments before
// classification, so //admin and /static/../admin are both /admin.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

func underPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func anyUnderPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if underPrefix(p, prefix) {
			return true
		}
	}
	return false
}
