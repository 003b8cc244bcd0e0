package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/logger"
	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/oauth"
	"github.com/swarnim921/Smart-Resume/internal/queue"
	"github.com/swarnim921/Smart-Resume/internal/repository"
)

// FailureCode is the error value put on the failure redirect.
const FailureCode = "oauth_failed"

// CoordinatorConfig carries the fixed redirect targets and the role policy.
type CoordinatorConfig struct {
	SuccessURL string
	FailureURL string
	Policy     OverwritePolicy
}

// Coordinator drives one OAuth login: it stores the requested role before
// the provider redirect and turns the callback into a local account and a
// bearer token.
type Coordinator struct {
	cfg      CoordinatorConfig
	provider oauth.Provider
	carrier  HintCarrier
	users    repository.UserStore
	tokens   *TokenService
	audit    auditor
	log      *slog.Logger
}

func NewCoordinator(cfg CoordinatorConfig, provider oauth.Provider, carrier HintCarrier,
	users repository.UserStore, tokens *TokenService, pub queue.Publisher, log *slog.Logger) *Coordinator {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Policy == "" {
		cfg.Policy = OverwriteWhenHintPresent
	}
	log = log.With(logger.Component("oauth"))
	return &Coordinator{
		cfg:      cfg,
		provider: provider,
		carrier:  carrier,
		users:    users,
		tokens:   tokens,
		audit:    auditor{pub: pub, log: log, now: time.Now},
		log:      log,
	}
}

// Begin attaches the hint and returns the provider authorization URL.
func (c *Coordinator) Begin(w http.ResponseWriter, r *http.Request, rawRole string) (string, error) {
	state, err := c.carrier.Attach(w, r, ParseHint(rawRole))
	if err != nil {
		return "", err
	}
	return c.provider.AuthURL(state), nil
}

// Callback handles the provider redirect and returns where to send the
// browser. Carriers are cleared on every outcome. It never returns an
// error; failures end on the failure URL.
func (c *Coordinator) Callback(w http.ResponseWriter, r *http.Request) string {
	hint, err := c.recoverHint(r)
	c.carrier.Clear(w, r)
	if err != nil {
		c.log.Warn("rejected oauth callback state", logger.Error(err))
		return c.failureURL()
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		c.log.Info("provider returned error", slog.String("provider_error", e))
		return c.failureURL()
	}
	code := q.Get("code")
	if code == "" {
		c.log.Info("callback without authorization code")
		return c.failureURL()
	}
	id, err := c.provider.Identity(r.Context(), code)
	if err != nil {
		c.log.Warn("identity exchange failed", logger.Error(err), slog.String("provider", c.provider.Name()))
		return c.failureURL()
	}
	dest, err := c.Complete(r.Context(), id, hint)
	if err != nil {
		c.log.Error("complete oauth login failed", logger.Error(err), logger.Email(id.Email))
		return c.failureURL()
	}
	return dest
}

// recoverHint verifies the state when the carrier binds it and otherwise
// falls back to a best-effort Recover.
func (c *Coordinator) recoverHint(r *http.Request) (RoleHint, error) {
	if v, ok := c.carrier.(StateVerifier); ok {
		return v.VerifyState(r)
	}
	hint, _ := c.carrier.Recover(r)
	return hint, nil
}

// Complete resolves or creates the account for id, marks it verified,
// issues a token and returns the success redirect.
func (c *Coordinator) Complete(ctx context.Context, id oauth.Identity, hint RoleHint) (string, error) {
	email := strings.TrimSpace(id.Email)
	if email == "" {
		return "", fmt.Errorf("%w: identity without email", ErrOAuthFailed)
	}
	u, err := c.upsert(ctx, email, id.Name, hint)
	if err != nil {
		return "", err
	}
	token, err := c.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return "", err
	}
	return c.successURL(token, u)
}

func (c *Coordinator) upsert(ctx context.Context, email, name string, hint RoleHint) (model.User, error) {
	u, err := c.update(ctx, email, name, hint)
	if !errors.Is(err, repository.ErrNotFound) {
		return u, err
	}

	role, _ := ResolveOAuthRole(nil, hint, c.cfg.Policy)
	nu := model.User{Email: email, Name: name, Role: role}
	nu.MarkVerified()
	err = c.users.Create(ctx, &nu)
	if errors.Is(err, repository.ErrEmailExists) {
		// lost a race with a concurrent first login
		return c.update(ctx, email, name, hint)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create oauth user: %w", err)
	}
	c.log.Info("oauth account created", logger.Email(email), logger.Role(role.String()))
	c.audit.roleChanged(ctx, nu, "", queue.SourceOAuth, "")
	return nu, nil
}

func (c *Coordinator) update(ctx context.Context, email, name string, hint RoleHint) (model.User, error) {
	var (
		from    model.Role
		changed bool
	)
	u, err := c.users.Update(ctx, email, func(u *model.User) error {
		from = u.Role
		var role model.Role
		role, changed = ResolveOAuthRole(u, hint, c.cfg.Policy)
		u.Role = role
		u.MarkVerified()
		if u.Name == "" {
			u.Name = name
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	if changed {
		c.log.Info("oauth login changed role", logger.Email(email), slog.String("from", from.String()), logger.Role(u.Role.String()))
		c.audit.roleChanged(ctx, u, from, queue.SourceOAuth, "")
	}
	return u, nil
}

func (c *Coordinator) successURL(token string, u model.User) (string, error) {
	dest, err := url.Parse(c.cfg.SuccessURL)
	if err != nil {
		return "", fmt.Errorf("parse success url: %w", err)
	}
	q := dest.Query()
	q.Set("token", token)
	q.Set("name", u.Name)
	q.Set("email", u.Email)
	q.Set("role", OAuthLabel(u.Role))
	dest.RawQuery = q.Encode()
	return dest.String(), nil
}

func (c *Coordinator) failureURL() string {
	dest, err := url.Parse(c.cfg.FailureURL)
	if err != nil {
		return c.cfg.FailureURL + "?error=" + FailureCode
	}
	q := dest.Query()
	q.Set("error", FailureCode)
	dest.RawQuery = q.Encode()
	return dest.String()
}
