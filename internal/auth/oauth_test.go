package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/oauth"
	"github.com/swarnim921/Smart-Resume/internal/queue"
)

const (
	successURL = "http://localhost:5500/oauth-success.html"
	failureURL = "http://localhost:5500/login.html"
)

func newCoordinator(f *fixture, policy OverwritePolicy, p oauth.Provider) *Coordinator {
	carrier := ChainCarrier{
		NewCookieCarrier(testSecret, DefaultHintTTL, true),
		NewStateCarrier(testSecret, DefaultHintTTL, nil),
	}
	return NewCoordinator(CoordinatorConfig{
		SuccessURL: successURL,
		FailureURL: failureURL,
		Policy:     policy,
	}, p, carrier, f.store, f.tokens, f.pub, nil)
}

// login runs Begin and Callback like a browser would and returns the final
// redirect.
func login(t *testing.T, c *Coordinator, role string) *url.URL {
	t.Helper()
	start := httptest.NewRecorder()
	authURL, err := c.Begin(start, httptest.NewRequest(http.MethodGet, "/oauth2/authorize/google?role="+role, nil), role)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)

	cb := httptest.NewRecorder()
	dest := c.Callback(cb, callbackRequest(u.Query().Get(StateParam), cookiesFrom(start)))

	cleared := findCookie(cookiesFrom(cb), HintCookieName)
	require.NotNil(t, cleared, "callback must drop the hint cookie")
	assert.Less(t, cleared.MaxAge, 0)

	out, err := url.Parse(dest)
	require.NoError(t, err)
	return out
}

func TestCoordinator_NewRecruiter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{id: oauth.Identity{Email: "r@x.com", Name: "Rita"}})

	dest := login(t, c, "recruiter")
	assert.Equal(t, "/oauth-success.html", dest.Path)
	q := dest.Query()
	assert.Equal(t, "recruiter", q.Get("role"))
	assert.Equal(t, "r@x.com", q.Get("email"))
	assert.Equal(t, "Rita", q.Get("name"))

	role, err := f.tokens.Role(q.Get("token"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleRecruiter, role)

	u, err := f.store.GetByEmail(context.Background(), "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleRecruiter, u.Role)
	assert.True(t, u.Verified)
	assert.Nil(t, u.VerificationCode)
	assert.Nil(t, u.VerificationCodeExpiresAt)
	assert.Empty(t, u.PasswordHash)

	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, queue.SourceOAuth, events[0].Source)
	assert.Equal(t, "ROLE_RECRUITER", events[0].ToRole)
}

func TestCoordinator_NewWithoutHintIsCandidate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{id: oauth.Identity{Email: "c@x.com", Name: "Cy"}})

	dest := login(t, c, "")
	assert.Equal(t, "candidate", dest.Query().Get("role"))
	u, err := f.store.GetByEmail(context.Background(), "c@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestCoordinator_ExistingAccountPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy OverwritePolicy
		stored model.Role
		hint   string
		want   model.Role
	}{
		{"whenHintPresent hint overwrites", OverwriteWhenHintPresent, model.RoleUser, "recruiter", model.RoleRecruiter},
		{"whenHintPresent no hint keeps", OverwriteWhenHintPresent, model.RoleRecruiter, "", model.RoleRecruiter},
		{"always hint overwrites", OverwriteAlways, model.RoleUser, "recruiter", model.RoleRecruiter},
		{"always no hint resets", OverwriteAlways, model.RoleRecruiter, "", model.RoleUser},
		{"admin untouched", OverwriteAlways, model.RoleAdmin, "recruiter", model.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.seedUser(t, model.User{Email: "e@x.com", Name: "Eve", Role: tt.stored, Verified: true})
			c := newCoordinator(f, tt.policy, &fakeProvider{id: oauth.Identity{Email: "e@x.com", Name: "Eve G"}})

			login(t, c, tt.hint)

			u, err := f.store.GetByEmail(context.Background(), "e@x.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.Role)
			assert.Equal(t, "Eve", u.Name, "existing name is kept")
			if tt.want != tt.stored {
				require.Len(t, f.pub.all(), 1)
			} else {
				assert.Empty(t, f.pub.all())
			}
		})
	}
}

func TestCoordinator_VerifiesPendingPasswordAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := model.User{Email: "p@x.com", Name: "Pat", PasswordHash: "hash", Role: model.RoleUser}
	u.SetPendingCode("123456", f.clock.Now().Add(time.Minute))
	f.seedUser(t, u)

	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{id: oauth.Identity{Email: "p@x.com", Name: "Pat"}})
	login(t, c, "")

	got, err := f.store.GetByEmail(context.Background(), "p@x.com")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Nil(t, got.VerificationCode)
	assert.Nil(t, got.VerificationCodeExpiresAt)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestCoordinator_Failures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{err: errors.New("provider down")})

	dest := login(t, c, "recruiter")
	assert.Equal(t, "/login.html", dest.Path)
	assert.Equal(t, FailureCode, dest.Query().Get("error"))

	users, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	for name, target := range map[string]string{
		"provider error": "/login/oauth2/code/google?error=access_denied",
		"missing code":   "/login/oauth2/code/google",
		"bad code":       "/login/oauth2/code/google?code=bad",
	} {
		c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{id: oauth.Identity{Email: "x@x.com"}})
		dest := c.Callback(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, failureURL+"?error=oauth_failed", dest, name)
	}
}

func TestCoordinator_CompleteRejectsEmptyEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{})
	_, err := c.Complete(context.Background(), oauth.Identity{Name: "no email"}, HintNone)
	assert.ErrorIs(t, err, ErrOAuthFailed)
}

func TestCoordinator_RejectsUnboundCallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := newCoordinator(f, OverwriteWhenHintPresent, &fakeProvider{id: oauth.Identity{Email: "victim@x.com", Name: "V"}})

	start := httptest.NewRecorder()
	authURL, err := c.Begin(start, httptest.NewRequest(http.MethodGet, "/oauth2/authorize/google?role=recruiter", nil), "recruiter")
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get(StateParam)

	forged, err := NewStateCarrier("attacker", DefaultHintTTL, nil).Attach(nil, nil, HintRecruiter)
	require.NoError(t, err)

	for name, st := range map[string]string{"missing": "", "forged": forged, "garbage": "not-a-state"} {
		dest := c.Callback(httptest.NewRecorder(), callbackRequest(st, cookiesFrom(start)))
		assert.Equal(t, failureURL+"?error=oauth_failed", dest, name)
	}
	users, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users, "no account may be created without a bound state")

	dest := c.Callback(httptest.NewRecorder(), callbackRequest(state, cookiesFrom(start)))
	assert.Contains(t, dest, successURL)

	dest = c.Callback(httptest.NewRecorder(), callbackRequest(state, cookiesFrom(start)))
	assert.Equal(t, failureURL+"?error=oauth_failed", dest, "a replayed callback must fail")
}
