package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func Test_IPRateLimiter_BurstThenReject(t *testing.T) {
	limiter := NewIPRateLimiter(1, 3)

	for i := range 3 {
		require.True(t, limiter.Allow("10.0.0.1"), "request %d within burst", i)
	}
	require.False(t, limiter.Allow("10.0.0.1"))
}

func Test_IPRateLimiter_PerIPBuckets(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)

	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))

	// A different client has its own bucket.
	require.True(t, limiter.Allow("10.0.0.2"))
}

func Test_RateLimit_Returns429(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(NewIPRateLimiter(1, 1)))
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}
