package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPLimiterBurstExhaustion(t *testing.T) {
	l := newIPLimiter(60, 3)

	for i := 0; i < 3; i++ {
		require.True(t, l.allow("10.0.0.1"), "request %d within burst", i)
	}
	require.False(t, l.allow("10.0.0.1"))

	// Other clients have their own bucket.
	require.True(t, l.allow("10.0.0.2"))
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(60, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, do("192.168.1.1:1234").Code)
	require.Equal(t, http.StatusOK, do("192.168.1.1:1234").Code)

	rr := do("192.168.1.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "Too many requests")

	require.Equal(t, http.StatusOK, do("192.168.1.2:1234").Code)
}
