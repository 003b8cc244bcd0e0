package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/swarnim921/Smart-Resume/internal/auth"
	"github.com/swarnim921/Smart-Resume/internal/handler"
	"github.com/swarnim921/Smart-Resume/internal/logger"
	"github.com/swarnim921/Smart-Resume/internal/oauth"
	"github.com/swarnim921/Smart-Resume/internal/queue"
	"github.com/swarnim921/Smart-Resume/internal/repository"
	"github.com/swarnim921/Smart-Resume/internal/router"
	"github.com/swarnim921/Smart-Resume/internal/utils"
)

const (
	testSecret = "handler-test-secret-0123456789"
	successURL = "http://frontend.test/oauth-success.html"
	failureURL = "http://frontend.test/login.html"
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *inbox) SendVerificationCode(_ context.Context, address, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[address] = code
	return nil
}

func (b *inbox) code(address string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[address]
}

type stubProvider struct{ id oauth.Identity }

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) AuthURL(state string) string {
	return "https://idp.test/auth?state=" + url.QueryEscape(state)
}

func (p stubProvider) Identity(_ context.Context, code string) (oauth.Identity, error) {
	if code != "good" {
		return oauth.Identity{}, errors.New("exchange failed")
	}
	return p.id, nil
}

type server struct {
	e      *echo.Echo
	store  *repository.MemoryUserStore
	inbox  *inbox
	tokens *auth.TokenService
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		e:     echo.New(),
		store: repository.NewMemoryUserStore(),
		inbox: &inbox{codes: map[string]string{}},
	}
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	s.tokens = tokens

	log := logger.Discard()
	pub := queue.LogPublisher{Log: log}
	svc := auth.NewService(auth.Deps{
		Users:     s.store,
		Hasher:    utils.Bcrypt{Cost: bcrypt.MinCost},
		Codes:     auth.NewCodeManager(s.store, auth.DefaultCodeTTL),
		Tokens:    tokens,
		Mailer:    s.inbox,
		Publisher: pub,
		Log:       log,
	})
	coord := auth.NewCoordinator(
		auth.CoordinatorConfig{SuccessURL: successURL, FailureURL: failureURL},
		stubProvider{id: oauth.Identity{Provider: "stub", Email: "oauth@example.com", Name: "OAuth Person"}},
		auth.NewCookieCarrier(testSecret, auth.DefaultHintTTL, false),
		s.store, tokens, pub, log,
	)

	s.e.HTTPErrorHandler = handler.ErrorHandler(log)
	router.Register(s.e, router.Deps{
		Auth:    handler.NewAuthHandler(svc),
		Users:   handler.NewUserHandler(svc),
		OAuth:   handler.NewOAuthHandler(coord),
		Version: handler.VersionHandler{Version: "1.2.3", Commit: "abc123", Env: "test"},
		Store:   s.store,
		Tokens:  tokens,
	})
	return s
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(bs))
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// verifiedSession signs up through path, verifies and returns a token.
func (s *server) verifiedSession(t *testing.T, path, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/signup/"+path, "", map[string]string{
		"name": "Test User", "email": email, "password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": email, "code": s.inbox.code(email),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func newRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(s *server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}
