package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gymboo/gym-backend/internal/config"
)

func cacheContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	// Routed requests carry the pattern, not the concrete path.
	c.SetPath("/products/api/:id")
	return c
}

func TestCacheKeyVariesByRequestPath(t *testing.T) {
	a := cacheKey("cache", cacheContext("/products/api/1"))
	b := cacheKey("cache", cacheContext("/products/api/2"))
	require.NotEqual(t, a, b, "two products must never share a cache entry")
}

func TestCacheKeyVariesByQuery(t *testing.T) {
	a := cacheKey("cache", cacheContext("/products/api/1?page=1"))
	b := cacheKey("cache", cacheContext("/products/api/1?page=2"))
	require.NotEqual(t, a, b)
}

func TestCacheKeyVariesByMember(t *testing.T) {
	anon := cacheContext("/products/api/1")
	member := cacheContext("/products/api/1")
	member.Set("member_id", uint64(5))
	require.NotEqual(t, cacheKey("cache", anon), cacheKey("cache", member))
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	a := cacheKey("cache", cacheContext("/products/api/1?page=1"))
	b := cacheKey("cache", cacheContext("/products/api/1?page=1"))
	require.Equal(t, a, b)
}

func TestNewRedisCacheWithoutRedisIsPassthrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/products/api", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.True(t, called)
	require.Empty(t, rec.Header().Get("X-Cache"))
}

func TestEncodeDecodeCachedRoundtrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	payload, err := encodeCached(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodeCached(payload)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	require.Equal(t, `{"success":true}`, string(body))
}

func TestRateKeyIsIPScoped(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	c := e.NewContext(req, httptest.NewRecorder())

	require.Equal(t, "rl:ip:203.0.113.9", rateKey("rl", c))
}
