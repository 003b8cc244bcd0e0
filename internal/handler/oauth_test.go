package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/model"
)

func TestOAuthRecruiterHintRoundTrip(t *testing.T) {
	s := newServer(t)

	rec := serve(s, newRawRequest(http.MethodGet, "/oauth2/authorize/google?role=Recruiter", ""))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "https://idp.test/auth")

	var hint *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.HintCookieName {
			hint = c
		}
	}
	require.NotNil(t, hint, "hint cookie set")
	assert.True(t, hint.HttpOnly)

	req := newRawRequest(http.MethodGet, "/login/oauth2/code/google?code=good", "")
	req.AddCookie(hint)
	rec = serve(s, req)
	require.Equal(t, http.StatusFound, rec.Code)

	dest, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "frontend.test", dest.Host)
	assert.Equal(t, "/oauth-success.html", dest.Path)
	q := dest.Query()
	assert.Equal(t, "recruiter", q.Get("role"))
	assert.Equal(t, "oauth@example.com", q.Get("email"))
	assert.NotEmpty(t, q.Get("token"))

	u, err := s.store.GetByEmail(t.Context(), "oauth@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleRecruiter, u.Role)
	assert.True(t, u.Verified)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.HintCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "callback clears the hint cookie")
}

func TestOAuthCallbackFailureRedirect(t *testing.T) {
	s := newServer(t)
	for _, q := range []string{"", "?code=bad", "?error=access_denied"} {
		rec := serve(s, newRawRequest(http.MethodGet, "/login/oauth2/code/google"+q, ""))
		require.Equal(t, http.StatusFound, rec.Code)
		dest, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
		require.NoError(t, err)
		assert.Equal(t, "/login.html", dest.Path)
		assert.Equal(t, auth.FailureCode, dest.Query().Get("error"))
	}
}
