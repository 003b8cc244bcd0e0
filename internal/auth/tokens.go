package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// Claims is the payload of a bearer token. Subject carries the email.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock replaces time.Now for issuance and validation.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	s := &TokenService{key: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject with the given role.
func (s *TokenService) Issue(subject string, role model.Role) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Validate reports whether raw carries a valid signature and now is before
// its expiry.
func (s *TokenService) Validate(raw string) bool {
	_, err := s.parse(raw)
	return err == nil
}

// Subject returns the email of a valid token.
func (s *TokenService) Subject(raw string) (string, error) {
	c, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// Role returns the role of a valid token. Tokens without a role claim
// resolve to model.RoleUser.
func (s *TokenService) Role(raw string) (model.Role, error) {
	c, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return model.RoleOrDefault(c.Role), nil
}

// Parse returns subject and role of a valid token in one pass.
func (s *TokenService) Parse(raw string) (string, model.Role, error) {
	c, err := s.parse(raw)
	if err != nil {
		return "", "", err
	}
	return c.Subject, model.RoleOrDefault(c.Role), nil
}
