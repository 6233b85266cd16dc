package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/phrazzld/marketplace-api/internal/api"
	apiMiddleware "github.com/phrazzld/marketplace-api/internal/api/middleware"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/mocks"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-that-is-long-enough!"

type routerFixture struct {
	app    *application
	users  *mocks.MockUserStore
	seller *domain.User
	admin  *domain.User
	router http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			LogLevel:    "debug",
			Environment: "test",
			MetricsPort: 9090,
		},
		Database: config.DatabaseConfig{MaxOpenConns: 1},
		Auth: config.AuthConfig{
			JWTSecret:    testSecret,
			BcryptCost:   4,
			StoreTimeout: time.Second,
			APIMode:      "enforce",
		},
		CORS: config.CORSConfig{
			DefaultOrigin:  "http://localhost:3001",
			AllowedOrigins: []string{"http://localhost:3001", "https://shop.example.com"},
		},
		RateLimit: config.RateLimitConfig{SignInPerMinute: 5},
	}
}

func newRouterFixture(t *testing.T, mutate func(*application)) *routerFixture {
	t.Helper()

	hasher := auth.NewBcryptVerifier(4)
	sellerHash, err := hasher.Hash("seller123")
	require.NoError(t, err)
	adminHash, err := hasher.Hash("admin123")
	require.NoError(t, err)

	seller, err := domain.NewUser("seller@example.com", "seller", sellerHash)
	require.NoError(t, err)
	admin, err := domain.NewUser("admin@example.com", "admin", adminHash)
	require.NoError(t, err)
	admin.IsAdmin = true

	users := mocks.NewMockUserStore(seller, admin)
	activities := &mocks.TestifyMockActivityStore{}
	activities.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	app := &application{
		config:        testConfig(),
		logger:        logger.New(io.Discard, "debug"),
		userStore:     users,
		activityStore: activities,
	}
	require.NoError(t, app.initAuth())
	app.promRegistry = metrics.SetupPrometheus(nil, metricsNamespace)
	app.metrics = metrics.NewManager(metricsNamespace, "server", app.promRegistry)

	if mutate != nil {
		mutate(app)
	}

	return &routerFixture{
		app:    app,
		users:  users,
		seller: seller,
		admin:  admin,
		router: app.setupRouter(),
	}
}

func (f *routerFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// signIn performs a real sign-in through the router and returns the cookie.
func (f *routerFixture) signIn(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("sign-in response carried no session cookie")
	return nil
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "http://localhost:3001", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_SessionLifecycle(t *testing.T) {
	f := newRouterFixture(t, nil)
	cookie := f.signIn(t, "Seller@Example.com", "seller123")

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	t.Run("me returns the caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.AddCookie(cookie)
		rec := f.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			User struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, f.seller.ID.String(), body.User.ID)
		assert.Equal(t, "seller@example.com", body.User.Email)
	})

	t.Run("session reports the identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(cookie)
		rec := f.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body api.SessionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.NotNil(t, body.User)
		assert.Equal(t, f.seller.ID, body.User.ID)
		assert.False(t, body.User.IsAdmin)
	})

	t.Run("protected page is forwarded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.AddCookie(cookie)
		rec := f.do(t, req)
		// No page handler is mounted without a static dir.
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("signout clears the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		req.AddCookie(cookie)
		rec := f.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Successfully signed out")
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	})
}

func TestRouter_Gate(t *testing.T) {
	f := newRouterFixture(t, nil)
	sellerCookie := f.signIn(t, "seller@example.com", "seller123")
	adminCookie := f.signIn(t, "admin@example.com", "admin123")

	tests := []struct {
		name         string
		method       string
		target       string
		cookie       *http.Cookie
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "page without session redirects to sign-in",
			method:       http.MethodGet,
			target:       "/products",
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/auth/signin?redirect=%2Fproducts",
		},
		{
			name:         "admin page as seller redirects home",
			method:       http.MethodGet,
			target:       "/admin/users",
			cookie:       sellerCookie,
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/",
		},
		{
			name:         "sign-in page with session redirects to landing",
			method:       http.MethodGet,
			target:       "/auth/signin",
			cookie:       sellerCookie,
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/products",
		},
		{
			name:       "api without session is unauthorized",
			method:     http.MethodGet,
			target:     "/api/users/me",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin api as seller is forbidden",
			method:     http.MethodGet,
			target:     "/api/admin/users",
			cookie:     sellerCookie,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin api as admin reaches the router",
			method:     http.MethodGet,
			target:     "/api/admin/users",
			cookie:     adminCookie,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "preflight is answered by the gate",
			method:     http.MethodOptions,
			target:     "/api/products",
			wantStatus: http.StatusOK,
		},
		{
			name:       "session check is always allowed",
			method:     http.MethodGet,
			target:     "/api/auth/session",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := f.do(t, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouter_Passthrough(t *testing.T) {
	f := newRouterFixture(t, func(app *application) {
		app.config.Auth.APIMode = "passthrough"
	})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	// The handler itself rejects the anonymous caller.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestRouter_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>shop</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("png"), 0o600))

	f := newRouterFixture(t, func(app *application) {
		app.config.Server.StaticDir = dir
	})

	t.Run("assets bypass the gate", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/logo.png", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "png", rec.Body.String())
	})

	t.Run("pages require a session", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	})

	t.Run("pages are served with a session", func(t *testing.T) {
		cookie := f.signIn(t, "seller@example.com", "seller123")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rec := f.do(t, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "shop")
	})
}

type stubLimiter struct {
	allowed int
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	s.keys = append(s.keys, key)
	return &redis_rate.Result{Allowed: s.allowed, RetryAfter: 1500 * time.Millisecond}, nil
}

func TestRouter_SignInRateLimit(t *testing.T) {
	limiter := &stubLimiter{}
	f := newRouterFixture(t, func(app *application) {
		app.limiter = limiter
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"seller@example.com","password":"seller123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5000"
	rec := f.do(t, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"signin:203.0.113.7"}, limiter.keys)

	// Other endpoints are not limited.
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, limiter.keys, 1)
}

func TestMetricsRouter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newRouterFixture(t, func(app *application) {
			app.config.Server.MetricsPort = 0
		})
		assert.Nil(t, f.app.setupMetricsRouter())
	})

	t.Run("exports request and gate metrics", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		f.do(t, httptest.NewRequest(http.MethodGet, "/products", nil))

		rec := httptest.NewRecorder()
		f.app.setupMetricsRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "marketplace_server_requests_total")
		assert.Contains(t, body, `marketplace_server_gate_decisions_total{class="protected-default",outcome="redirect"} 1`)
		assert.Contains(t, body, "go_goroutines")
	})
}

// quotaLimiter allows one attempt per key.
type quotaLimiter struct {
	seen map[string]int
}

func (q *quotaLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	if q.seen == nil {
		q.seen = make(map[string]int)
	}
	q.seen[key]++
	if q.seen[key] > 1 {
		return &redis_rate.Result{Allowed: 0, RetryAfter: time.Minute}, nil
	}
	return &redis_rate.Result{Allowed: 1}, nil
}

func TestRouter_SignInRateLimitKeysOnPeer(t *testing.T) {
	proxies, err := apiMiddleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  func(i int) string
		wantKeys   []string
		wantCodes  []int
	}{
		{
			name:       "rotating forwarded headers from a direct client share one bucket",
			remoteAddr: "203.0.113.7:5000",
			forwarded:  func(i int) string { return fmt.Sprintf("198.51.100.%d", i) },
			wantKeys:   []string{"signin:203.0.113.7"},
			wantCodes:  []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
		{
			name:       "trusted proxy forwards distinct clients",
			remoteAddr: "10.0.0.5:5000",
			forwarded:  func(i int) string { return fmt.Sprintf("198.51.100.%d", i) },
			wantKeys:   []string{"signin:198.51.100.0", "signin:198.51.100.1", "signin:198.51.100.2"},
			wantCodes:  []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized},
		},
		{
			name:       "spoofed hop behind a trusted proxy is ignored",
			remoteAddr: "10.0.0.5:5000",
			forwarded:  func(i int) string { return fmt.Sprintf("1.2.3.%d, 198.51.100.9", i) },
			wantKeys:   []string{"signin:198.51.100.9"},
			wantCodes:  []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &quotaLimiter{}
			f := newRouterFixture(t, func(app *application) {
				app.limiter = limiter
				app.trustedProxies = proxies
			})

			var codes []int
			for i := range tt.wantCodes {
				req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
					strings.NewReader(`{"email":"seller@example.com","password":"wrong"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Forwarded-For", tt.forwarded(i))
				req.Header.Set("X-Real-IP", tt.forwarded(i))
				req.RemoteAddr = tt.remoteAddr
				codes = append(codes, f.do(t, req).Code)
			}

			assert.Equal(t, tt.wantCodes, codes)
			keys := make([]string, 0, len(limiter.seen))
			for k := range limiter.seen {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}
