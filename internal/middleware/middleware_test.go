package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/altdirectory/internal/auth"
	"github.com/sakif/altdirectory/internal/middleware"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/ratelimit"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID}))
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// =========================================================================
// GATE
// =========================================================================

type roles map[string]string

func (r roles) Role(_ context.Context, userID string) (string, error) {
	if userID == "broken" {
		return "", errors.New("database is locked")
	}
	return r[userID], nil
}

func TestGate(t *testing.T) {
	policy := auth.NewPolicy(roles{"admin_1": model.RoleAdmin, "user_1": model.RoleUser})

	tests := []struct {
		name   string
		access auth.Access
		user   string
		want   int
	}{
		{"public anonymous", auth.Public, "", http.StatusNoContent},
		{"member anonymous", auth.Member, "", http.StatusUnauthorized},
		{"member signed in", auth.Member, "user_1", http.StatusNoContent},
		{"admin anonymous", auth.Admin, "", http.StatusUnauthorized},
		{"admin as member", auth.Admin, "user_1", http.StatusForbidden},
		{"admin without account", auth.Admin, "stranger", http.StatusForbidden},
		{"admin as admin", auth.Admin, "admin_1", http.StatusNoContent},
		{"role lookup fails", auth.Admin, "broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/images", nil)
			if tt.user != "" {
				req = withUser(req, tt.user)
			}
			rr := httptest.NewRecorder()
			middleware.Gate(policy, tt.access)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestGate_ForbiddenMessage(t *testing.T) {
	policy := auth.NewPolicy(roles{"user_1": model.RoleUser})
	rr := httptest.NewRecorder()
	middleware.Gate(policy, auth.Admin)(ok).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "user_1"))

	require.Equal(t, http.StatusForbidden, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, 403, body.StatusCode)
	assert.Equal(t, "Forbidden: Admin access required", body.Message)
}

// =========================================================================
// RATE LIMIT
// =========================================================================

type fakeLimiter struct {
	allow bool
	err   error
	retry time.Duration
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func (f *fakeLimiter) RetryAfter() time.Duration { return f.retry }

func TestRateLimit_Keys(t *testing.T) {
	l := &fakeLimiter{allow: true}
	h := middleware.RateLimit(l, "generate", testLogger)(ok)

	req := httptest.NewRequest(http.MethodPost, "/api/tools/generate", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), withUser(req, "user_1"))

	assert.Equal(t, []string{"generate:ip:203.0.113.7", "generate:user:user_1"}, l.keys)
}

func TestRateLimit_Rejects(t *testing.T) {
	l := &fakeLimiter{allow: false, retry: 1500 * time.Millisecond}
	rr := httptest.NewRecorder()
	middleware.RateLimit(l, "upload", testLogger)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests, please try again later", decodeError(t, rr).Message)
}

func TestRateLimit_RetryAfterAtLeastOneSecond(t *testing.T) {
	l := &fakeLimiter{allow: false}
	rr := httptest.NewRecorder()
	middleware.RateLimit(l, "upload", testLogger)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestRateLimit_FailsClosed(t *testing.T) {
	l := &fakeLimiter{allow: false, err: errors.New("connection refused"), retry: time.Second}
	rr := httptest.NewRecorder()
	middleware.RateLimit(l, "favicon", testLogger)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.RateLimit(nil, "favicon", testLogger)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimit_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewFixedWindowLimiter(ratelimit.Options{
		Addr:   mr.Addr(),
		Prefix: "test",
		Limit:  2,
		Window: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { limiter.Close() })

	h := middleware.RateLimit(limiter, "screenshot", testLogger)(ok)
	call := func(user string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/media/screenshot", nil), user))
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, call("user_1"))
	assert.Equal(t, http.StatusNoContent, call("user_1"))
	assert.Equal(t, http.StatusTooManyRequests, call("user_1"))
	assert.Equal(t, http.StatusNoContent, call("user_2"), "budgets are per caller")

	mr.Close()
	assert.Equal(t, http.StatusTooManyRequests, call("user_3"), "redis down rejects")
}

// =========================================================================
// LOGGER
// =========================================================================

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chimiddleware.RequestID(middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.EqualValues(t, 503, entry["status"])
	assert.EqualValues(t, 4, entry["bytes"])
	assert.NotEmpty(t, entry["requestID"])
}

func TestLogger_KeepsFlusher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	rr := httptest.NewRecorder()

	middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("event: progress\n\n"))
		require.NoError(t, http.NewResponseController(w).Flush())
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, rr.Flushed)
}
