package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/providers"
)

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestCacheMiddleware_MissThenStore(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, providers.ErrCacheMiss)
	cache.On("Set", mock.Anything, mock.Anything, []byte(`{"ok":true}`), 600).Return(nil)

	handler := middleware.NewCacheMiddleware(cache, 600, nil).Middleware(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search/stats?q=hajj", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	cache.AssertExpectations(t)
}

func TestCacheMiddleware_Hit(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("Get", mock.Anything, mock.Anything).Return([]byte(`{"cached":true}`), nil)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler := middleware.NewCacheMiddleware(cache, 600, nil).Middleware(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search/insights?q=hajj", nil))

	assert.False(t, called)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"cached":true}`, w.Body.String())
}

func TestCacheMiddleware_KeysDifferPerUser(t *testing.T) {
	cache := new(MockCacheProvider)
	var keys []string
	cache.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		keys = append(keys, args.String(1))
	}).Return(nil, providers.ErrCacheMiss)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	handler := middleware.NewCacheMiddleware(cache, 600, nil).Middleware(okHandler())
	for _, user := range []string{"1", "2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/search/insights?q=hajj", nil)
		req.Header.Set(middleware.UserIDHeader, user)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestCacheMiddleware_SkipsSearchAndDisabledTTL(t *testing.T) {
	cache := new(MockCacheProvider)

	for _, tc := range []struct {
		ttl  int
		path string
	}{
		{ttl: 600, path: "/api/search?q=hajj"},
		{ttl: 0, path: "/api/search/stats?q=hajj"},
	} {
		handler := middleware.NewCacheMiddleware(cache, tc.ttl, nil).Middleware(okHandler())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
