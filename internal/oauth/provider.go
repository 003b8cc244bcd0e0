// Package oauth talks to third-party identity providers. It turns an
// authorization code into a verified identity and knows nothing about
// local accounts or roles.
package oauth

import (
	"context"
	"errors"
)

var (
	ErrExchange        = errors.New("oauth: code exchange failed")
	ErrUserInfo        = errors.New("oauth: fetching user info failed")
	ErrUnverifiedEmail = errors.New("oauth: provider email is not verified")
	ErrMissingEmail    = errors.New("oauth: provider returned no email")
)

// Identity is what the coordinator needs from a provider.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// Provider is an OAuth2 identity provider.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Identity(ctx context.Context, code string) (Identity, error)
}
