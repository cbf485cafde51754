package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterAnswers429OnBurst(t *testing.T) {
	e := echo.New()
	limited := RateLimiter(rate.Limit(1), 2)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := limited(c); err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok, "expected HTTPError, got %v", err)
			return he.Code
		}
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimiterIsPerClient(t *testing.T) {
	e := echo.New()
	limited := RateLimiter(rate.Limit(1), 1)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := limited(c); err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok, "expected HTTPError, got %v", err)
			return he.Code
		}
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("203.0.113.7"))
	require.Equal(t, http.StatusTooManyRequests, do("203.0.113.7"))
	require.Equal(t, http.StatusOK, do("203.0.113.8"))
}
