package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnim921/Smart-Resume/internal/config"
	"github.com/swarnim921/Smart-Resume/internal/model"
)

type stubParser map[string]model.Role

func (s stubParser) Parse(raw string) (string, model.Role, error) {
	role, ok := s[raw]
	if !ok {
		return "", "", errors.New("invalid")
	}
	return raw + "@x.com", role, nil
}

func serve(t *testing.T, mw []echo.MiddlewareFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/p", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"email": Subject(c), "role": RoleOf(c)})
	}, mw...)
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	auth := BearerAuth(stubParser{"alice": model.RoleRecruiter})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer mallory", http.StatusUnauthorized},
		{"valid token", "Bearer alice", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, []echo.MiddlewareFunc{auth}, tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := serve(t, []echo.MiddlewareFunc{auth}, "Bearer alice")
	assert.JSONEq(t, `{"email":"alice@x.com","role":"ROLE_RECRUITER"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	parser := stubParser{"admin": model.RoleAdmin, "user": model.RoleUser}
	chain := []echo.MiddlewareFunc{BearerAuth(parser), RequireRole(model.RoleAdmin)}

	assert.Equal(t, http.StatusOK, serve(t, chain, "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, chain, "Bearer user").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, chain, "").Code)

	// without BearerAuth there is no role at all
	assert.Equal(t, http.StatusForbidden, serve(t, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, "").Code)
}

func TestNewTokenBucket_DisabledWithoutRedis(t *testing.T) {
	t.Parallel()

	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(t, []echo.MiddlewareFunc{mw}, "").Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/signin")

	cfg := config.RateLimitConfig{Prefix: "sr:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "sr:rl:ip:10.0.0.7:route:POST /auth/signin", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "sr:rl:user:anon", buildRateKey(cfg, c))
	c.Set(ContextEmail, "a@x.com")
	assert.Equal(t, "sr:rl:user:a@x.com", buildRateKey(cfg, c))
}

func TestCachePayloadRoundTrip(t *testing.T) {
	t.Parallel()

	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"version":"2.0.0"}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"version":"2.0.0"}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length beyond payload")
}

func TestCacheKeyStrategies(t *testing.T) {
	t.Parallel()

	e := echo.New()
	newCtx := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/version")
		return c
	}
	cfg := config.CacheConfig{Prefix: "sr:cache", KeyStrategy: "route_query"}
	a := cacheKeyFrom(cfg, newCtx("/api/version?x=1"))
	b := cacheKeyFrom(cfg, newCtx("/api/version?x=2"))
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "sr:cache:")

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, newCtx("/api/version?x=1")), cacheKeyFrom(cfg, newCtx("/api/version?x=2")))
}
