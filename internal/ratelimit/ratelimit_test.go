package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter(nil, Rule{Max: 2, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)

	d, _ = l.Allow(ctx, "b")
	assert.True(t, d.Allowed, "keys are independent")

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed, "window resets")
}

func TestMemoryLimiterPurge(t *testing.T) {
	l := NewMemoryLimiter(nil, Rule{Max: 5, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	_, _ = l.Allow(context.Background(), "a")
	_, _ = l.Allow(context.Background(), "b")
	assert.Equal(t, 0, l.Purge())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, l.Purge())
	assert.Equal(t, 0, l.size())
}

func TestMemoryLimiterStartStop(t *testing.T) {
	l := NewMemoryLimiter(nil, Rule{})
	require.NoError(t, l.Start())
	require.NoError(t, l.Start())
	require.NoError(t, l.Stop(context.Background()))
	require.NoError(t, l.Stop(context.Background()))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func serve(t *testing.T, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/respond", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	require.NoError(t, h(c))
	return rec
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	l := NewMemoryLimiter(nil, Rule{Max: 1, Window: time.Minute})
	mw := Middleware(MiddlewareConfig{Limiter: l, KeyFunc: func(echo.Context) string { return "k" }})

	rec := serve(t, mw)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(t, mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"Too many requests"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	rec := serve(t, Middleware(MiddlewareConfig{Limiter: failingLimiter{}}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
