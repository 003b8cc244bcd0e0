package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/swarnim921/Smart-Resume/internal/config"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Google exchanges authorization codes against Google's token endpoint and
// reads the profile from the userinfo endpoint.
type Google struct {
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleOption customises the provider, mainly for tests.
type GoogleOption func(*Google)

// WithEndpoint points the provider at other token and userinfo URLs.
func WithEndpoint(ep oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(g *Google) {
		g.conf.Endpoint = ep
		g.userInfoURL = userInfoURL
	}
}

// WithHTTPClient sets the client used for the exchange and profile call.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *Google) { g.httpClient = c }
}

func NewGoogle(cfg config.GoogleOAuthConfig, opts ...GoogleOption) *Google {
	g := &Google{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ Provider = (*Google)(nil)

func (g *Google) Name() string { return ProviderGoogle }

func (g *Google) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Identity exchanges code and fetches the profile. Accounts whose email
// Google has not verified are rejected.
func (g *Google) Identity(ctx context.Context, code string) (Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	if info.Email == "" {
		return Identity{}, ErrMissingEmail
	}
	if !info.VerifiedEmail {
		return Identity{}, ErrUnverifiedEmail
	}
	name := info.Name
	if name == "" {
		name = info.Email
	}
	return Identity{Provider: ProviderGoogle, Subject: info.ID, Email: info.Email, Name: name}, nil
}
