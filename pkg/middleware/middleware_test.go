package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/pkg/logger"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	t.Run("burst then reject", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"), "clients are limited independently")

		now = now.Add(time.Second)
		assert.True(t, rl.Allow("a"))
	})

	t.Run("sweep drops idle clients", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.Allow("a")
		now = now.Add(5 * time.Minute)
		rl.Allow("b")
		now = now.Add(6 * time.Minute)
		rl.Sweep()
		assert.Equal(t, 1, rl.Clients())
	})

	t.Run("middleware answers 429", func(t *testing.T) {
		h := NewRateLimiter(1, 1).Middleware()(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})
}

func TestRateLimiter_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		fwd     string
		want    string
	}{
		{"peer address", nil, "10.0.0.1:1234", "", "10.0.0.1"},
		{"forwarded header ignored without trusted proxy", nil, "198.51.100.9:1234", "203.0.113.7", "198.51.100.9"},
		{"forwarded header ignored from untrusted peer", []string{"10.0.0.0/8"}, "198.51.100.9:1234", "203.0.113.7", "198.51.100.9"},
		{"trusted proxy", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"spoofed leftmost hop skipped", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "1.2.3.4, 203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"single trusted address", []string{"10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7", "203.0.113.7"},
		{"only trusted hops", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "10.0.0.3", "10.0.0.3"},
		{"trusted proxy without header", []string{"10.0.0.0/8"}, "10.0.0.1:1234", "", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(1, 1)
			require.NoError(t, rl.TrustProxies(tt.trusted...))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}

func TestRateLimiter_ForwardedForCannotResetBucket(t *testing.T) {
	h := NewRateLimiter(1, 1).Middleware()(okHandler)

	codes := make([]int, 0, 3)
	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.9:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_TrustProxiesInvalid(t *testing.T) {
	assert.Error(t, NewRateLimiter(1, 1).TrustProxies("not-an-ip"))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/v1/statements/parse", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingAndRecover(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Discard()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom/{id}", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Chain(mux, Logging(log, m), Recover(log))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom/42", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /boom/{id}", "500")))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "404")))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
