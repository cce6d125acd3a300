package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
)

func TestETag_NotModified(t *testing.T) {
	handler := middleware.ResponseOptimization(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/search/stats", nil))
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=300, must-revalidate", first.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/api/search/stats", nil)
	req.Header.Set("If-None-Match", etag)
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.Bytes())
}

func TestCacheControl_SearchIsPrivate(t *testing.T) {
	handler := middleware.CacheControl(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))

	assert.Equal(t, "private, no-cache, must-revalidate", w.Header().Get("Cache-Control"))
}
