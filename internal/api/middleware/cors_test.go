package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
)

func TestCORS_RestrictedOrigins(t *testing.T) {
	handler := middleware.CORS([]string{"https://islamwiki.org"})(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://islamwiki.org", "https://islamwiki.org"},
		{"https://evil.example", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"), tt.origin)
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	handler := middleware.CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/search/suggest", nil)
	req.Header.Set("Origin", "https://islamwiki.org")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.UserIDHeader)
}
