package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-contracts/internal/config"
)

const secret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(h echo.HandlerFunc, mw ...echo.MiddlewareFunc) func(auth string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/x", h, mw...)
	return func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
}

func TestJWTAuth(t *testing.T) {
	var gotUser, gotRole any
	do := serve(func(c echo.Context) error {
		gotUser, gotRole = c.Get(CtxUserID), c.Get(CtxRole)
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(secret))

	good := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": 42, "role": "LANDLORD", "exp": time.Now().Add(time.Minute).Unix(),
	})
	rec := do("Bearer " + good)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, float64(42), gotUser)
	assert.Equal(t, "LANDLORD", gotRole)

	expired := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 42, "exp": time.Now().Add(-time.Minute).Unix()})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": 42})
	for _, auth := range []string{"", "Token abc", "Bearer " + expired, "Bearer " + wrongKey} {
		rec := do(auth)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, auth)
		assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
	}
}

func TestRequireRole(t *testing.T) {
	setRole := func(role any) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(CtxRole, role)
				return next(c)
			}
		}
	}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	assert.Equal(t, http.StatusOK, serve(ok, setRole("LANDLORD"), RequireRole("LANDLORD"))("").Code)
	assert.Equal(t, http.StatusForbidden, serve(ok, setRole("TENANT"), RequireRole("LANDLORD"))("").Code)
	assert.Equal(t, http.StatusForbidden, serve(ok, setRole(nil), RequireRole("LANDLORD"))("").Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/invoices")
	c.Set(CtxUserID, float64(42))

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:42:route:POST /v1/invoices", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestCacheKeyIsPerUser(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache"}
	ctxFor := func(uid any) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/contracts?page=1", nil), httptest.NewRecorder())
		c.Set(CtxUserID, uid)
		return c
	}
	assert.NotEqual(t, cacheKey(cfg, ctxFor(float64(1)), ""), cacheKey(cfg, ctxFor(float64(2)), ""))
	assert.Equal(t, cacheKey(cfg, ctxFor(float64(1)), "g1"), cacheKey(cfg, ctxFor("1"), "g1"))
	assert.NotEqual(t, cacheKey(cfg, ctxFor(float64(1)), "g1"), cacheKey(cfg, ctxFor(float64(1)), "g2"))
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(200, h, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	do := serve(ok,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	rec := do("")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

// contractAPI serves one contract whose status any caller may change,
// behind the response cache.  Callers pick their user with X-User.
func contractAPI(t *testing.T, cfg config.CacheConfig, rdb *redis.Client) (do func(method, path, user string) *httptest.ResponseRecorder, status *string) {
	t.Helper()
	current := "pending_signature"
	e := echo.New()
	asUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(CtxUserID, c.Request().Header.Get("X-User"))
			return next(c)
		}
	}
	g := e.Group("/v1/contracts", asUser, NewRedisCache(cfg, rdb))
	g.GET("", func(c echo.Context) error { return c.JSON(http.StatusOK, []string{current}) })
	g.GET("/:id", func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{"status": current}) })
	g.POST("/:id/status", func(c echo.Context) error {
		current = "pending_approval"
		return c.NoContent(http.StatusOK)
	})
	return func(method, path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}, &current
}

func TestCacheDropsOtherPartyAfterWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	do, _ := contractAPI(t, cfg, rdb)

	const landlord, tenant = "7", "9"
	for _, path := range []string{"/v1/contracts/c-1", "/v1/contracts"} {
		assert.Equal(t, "MISS", do(http.MethodGet, path, landlord).Header().Get("X-Cache"))
		assert.Equal(t, "HIT", do(http.MethodGet, path, landlord).Header().Get("X-Cache"))
	}

	rec := do(http.MethodPost, "/v1/contracts/c-1/status", tenant)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/v1/contracts/c-1", landlord)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "pending_approval")

	rec = do(http.MethodGet, "/v1/contracts", landlord)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "pending_approval")
}

func TestCacheInvalidatorDropsContract(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	do, status := contractAPI(t, cfg, rdb)

	do(http.MethodGet, "/v1/contracts/c-1", "9")
	do(http.MethodGet, "/v1/contracts/c-2", "9")
	*status = "expired"
	require.NoError(t, NewCacheInvalidator(cfg, rdb).InvalidateContract(context.Background(), "c-1"))

	rec := do(http.MethodGet, "/v1/contracts/c-1", "9")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "expired")
	assert.Equal(t, "HIT", do(http.MethodGet, "/v1/contracts/c-2", "9").Header().Get("X-Cache"))

	assert.NoError(t, NewCacheInvalidator(cfg, nil).InvalidateContract(context.Background(), "c-1"))
}
