package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beybot/beybot/internal/auth"
	"github.com/beybot/beybot/internal/ratelimit"
)

func TestShouldSkipJWT(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want bool
	}{
		{path: "/ping", want: true},
		{path: "/health", want: true},
		{path: "/webhooks/facebook", want: true},
		{path: "/api/facebook/webhook", want: true},
		{path: "/api/ai/respond", want: false},
		{path: "/api/conversations", want: false},
		{path: "/webhooks/facebook/extra", want: false},
	}

	for _, tc := range cases {
		got := shouldSkipJWT(tc.path)
		if got != tc.want {
			t.Fatalf("path=%q want=%v got=%v", tc.path, tc.want, got)
		}
	}
}

func TestShouldRateLimit(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldRateLimit("/api/ai/respond"))
	assert.True(t, shouldRateLimit("/api/agent/config"))
	assert.False(t, shouldRateLimit("/api/facebook/webhook"))
	assert.False(t, shouldRateLimit("/webhooks/facebook"))
	assert.False(t, shouldRateLimit("/ping"))
}

type routes struct{}

func (routes) Register(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func TestServerAppliesAuthAndRateLimitPerAccount(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemoryLimiter(nil, ratelimit.Rule{Max: 2, Window: time.Minute})
	srv := NewServer(Options{
		JWTSecret: "s",
		Limiter:   limiter,
		Handlers:  []Handler{routes{}, nil},
	})

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, call("/api/me", "").Code)

	tokenA, _, err := auth.GenerateToken("acct-a", "s", time.Hour)
	require.NoError(t, err)
	tokenB, _, err := auth.GenerateToken("acct-b", "s", time.Hour)
	require.NoError(t, err)

	first := call("/api/me", tokenA)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusOK, call("/api/me", tokenA).Code)
	limited := call("/api/me", tokenA)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"message":"Too many requests"}`, limited.Body.String())
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("/api/me", tokenB).Code)
	for range 5 {
		assert.Equal(t, http.StatusOK, call("/ping", "").Code)
	}
}
