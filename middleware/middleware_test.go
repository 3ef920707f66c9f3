package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	valid map[string]bool
}

func (f fakeValidator) Validate(_ context.Context, id string) error {
	if f.valid[id] {
		return nil
	}
	return errors.New("invalid")
}

func protected(t *testing.T) http.Handler {
	t.Helper()
	return RequireAdmin(fakeValidator{valid: map[string]bool{"good": true}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetSessionIDFromContext(r.Context())
			require.True(t, ok)
			w.Write([]byte(id))
		}))
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"no session", "", "/admin/tournaments", http.StatusUnauthorized, "Authentication required"},
		{"unknown session", "bad", "/admin/tournaments", http.StatusUnauthorized, "Session expired or invalid"},
		{"header session", "good", "/admin/tournaments", http.StatusOK, "good"},
		{"query session", "", "/admin/ws/tournaments/t1?session=good", http.StatusOK, "good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(SessionHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			protected(t).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:2222").Code)
	rec := call("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// другой IP со своим бюджетом
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2").Code)
}

func TestIPRateLimiter_PrunesIdleEntries(t *testing.T) {
	limiter := PerMinute(10)
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	for i := 0; i <= cleanupThreshold; i++ {
		limiter.GetLimiter(string(rune('a'+i%26)) + time.Duration(i).String())
	}
	require.Equal(t, cleanupThreshold+1, limiter.size())

	limiter.now = func() time.Time { return base.Add(maxIdleAge + time.Minute) }
	limiter.GetLimiter("fresh")
	assert.Equal(t, 1, limiter.size())
}
