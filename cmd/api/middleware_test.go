package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmx-pso/lesson-service/internal/config"
)

func TestAuthenticate(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"malformed token", "Bearer short", http.StatusUnauthorized},
		{"unknown token", "Bearer ABCDEFGHIJKLMNOPQRSTUVWXYZ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			res := ts.send(t, req)
			assert.Equal(t, tt.want, res.status)
			if tt.header != "" {
				assert.Equal(t, "Bearer", res.header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRouterFallbacks(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(t, http.MethodGet, "/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "the requested resource could not be found", res.body["error"])

	res = ts.do(t, http.MethodPut, "/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.status)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "available", res.body["status"])
	assert.Equal(t, "memory", res.object(t, "system_info")["blob_driver"])
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Limiter.Enabled = true
	cfg.Limiter.RPS = 0.001
	cfg.Limiter.Burst = 2
	ts := newTestServerWithConfig(t, cfg)

	for range 2 {
		res := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)
		require.Equal(t, http.StatusOK, res.status)
	}

	res := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, res.status)

	req := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
	req.RemoteAddr = "198.51.100.7:4242"
	assert.Equal(t, http.StatusOK, ts.send(t, req).status, "limits are per client address")
}

func TestCORS(t *testing.T) {
	cfg := config.Default()
	cfg.Limiter.Enabled = false
	cfg.Server.TrustedOrigins = []string{"https://dashboard.example.com"}
	ts := newTestServerWithConfig(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/v1/songs", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://dashboard.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
	req.Header.Set("Origin", "https://evil.example.com")

	rr = httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverPanic(t *testing.T) {
	ts := newTestServer(t)

	h := ts.recoverPanic(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)

	res := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.raw, `lessons_http_requests_total{code="200",method="GET"} 1`)
	assert.Contains(t, res.raw, "lessons_http_request_duration_seconds_bucket")
}

func TestLoadConfigPrecedence(t *testing.T) {
	env := map[string]string{
		"LESSONS_PORT":   "5000",
		"LESSONS_ENV":    "staging",
		"LESSONS_DB_DSN": "postgres://env/lessons",
	}

	cfg, err := loadConfig([]string{"api", "-port", "6000"}, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, "staging", cfg.Server.Env)
	assert.Equal(t, "postgres://env/lessons", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	_, err = loadConfig([]string{"api", "-port", "nope"}, func(string) string { return "" })
	assert.Error(t, err)
}
