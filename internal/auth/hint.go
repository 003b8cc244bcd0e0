package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const (
	// HintCookieName carries the requested role between login start and
	// the provider callback.
	HintCookieName = "oauth2_role_hint"
	// AuthRequestCookieName is the parallel authorization request cookie,
	// dropped together with the hint.
	AuthRequestCookieName = "oauth2_auth_request"
	// StateParam is the query parameter the provider echoes back.
	StateParam = "state"

	DefaultHintTTL = 180 * time.Second
)

// HintCarrier moves a RoleHint across the OAuth redirect. Attach runs when
// the login starts and may return a value for the state parameter; Recover
// runs on the callback; Clear drops anything Attach left on the client.
type HintCarrier interface {
	Attach(w http.ResponseWriter, r *http.Request, hint RoleHint) (state string, err error)
	Recover(r *http.Request) (RoleHint, bool)
	Clear(w http.ResponseWriter, r *http.Request)
}

// StateVerifier is implemented by carriers that bind the callback to a
// login this server started. A callback that fails VerifyState must not
// complete a login.
type StateVerifier interface {
	VerifyState(r *http.Request) (RoleHint, error)
}

// deriveKey stretches a configured secret into a fixed 32 byte key with a
// per-purpose label.
func deriveKey(secret, purpose string) []byte {
	sum := sha256.Sum256([]byte(purpose + ":" + secret))
	return sum[:]
}

// CookieCarrier stores the hint in an HMAC-signed cookie. The signature
// covers a timestamp, so a cookie older than ttl fails to decode even if
// the browser still sends it.
type CookieCarrier struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

func NewCookieCarrier(secret string, ttl time.Duration, secure bool) *CookieCarrier {
	if ttl <= 0 {
		ttl = DefaultHintTTL
	}
	codec := securecookie.New(deriveKey(secret, "hint-cookie"), nil)
	codec.MaxAge(int(ttl.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &CookieCarrier{codec: codec, ttl: ttl, secure: secure}
}

type hintCookie struct {
	Role RoleHint `json:"role"`
}

func (c *CookieCarrier) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Attach sets the hint cookie. Without a hint it removes a stale one so an
// earlier attempt cannot leak into this login.
func (c *CookieCarrier) Attach(w http.ResponseWriter, r *http.Request, hint RoleHint) (string, error) {
	if !hint.Present() {
		http.SetCookie(w, c.cookie(HintCookieName, "", -1))
		return "", nil
	}
	encoded, err := c.codec.Encode(HintCookieName, hintCookie{Role: hint})
	if err != nil {
		return "", fmt.Errorf("encode hint cookie: %w", err)
	}
	http.SetCookie(w, c.cookie(HintCookieName, encoded, int(c.ttl.Seconds())))
	return "", nil
}

func (c *CookieCarrier) Recover(r *http.Request) (RoleHint, bool) {
	ck, err := r.Cookie(HintCookieName)
	if err != nil || ck.Value == "" {
		return HintNone, false
	}
	var v hintCookie
	if err := c.codec.Decode(HintCookieName, ck.Value, &v); err != nil {
		return HintNone, false
	}
	hint := ParseHint(string(v.Role))
	return hint, hint.Present()
}

func (c *CookieCarrier) Clear(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, c.cookie(HintCookieName, "", -1))
	http.SetCookie(w, c.cookie(AuthRequestCookieName, "", -1))
}

// ReplayGuard records state identifiers so each one is accepted once.
type ReplayGuard interface {
	// Claim returns true the first time id is seen within ttl.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// RedisReplayGuard shares seen identifiers across instances.
type RedisReplayGuard struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisReplayGuard(rdb *redis.Client, prefix string) *RedisReplayGuard {
	if prefix == "" {
		prefix = "sr:oauth:state:"
	}
	return &RedisReplayGuard{rdb: rdb, prefix: prefix}
}

func (g *RedisReplayGuard) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return g.rdb.SetNX(ctx, g.prefix+id, 1, ttl).Result()
}

// MemoryReplayGuard is the single-process fallback used without Redis.
type MemoryReplayGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryReplayGuard() *MemoryReplayGuard {
	return &MemoryReplayGuard{seen: map[string]time.Time{}, now: time.Now}
}

func (g *MemoryReplayGuard) Claim(_ context.Context, id string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, exp := range g.seen {
		if !exp.After(now) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[id]; ok {
		return false, nil
	}
	g.seen[id] = now.Add(ttl)
	return true, nil
}

// StateCarrier encodes the hint as a signed claim set in the OAuth state
// parameter.
type StateCarrier struct {
	key   []byte
	ttl   time.Duration
	guard ReplayGuard
	now   func() time.Time
}

type stateClaims struct {
	Role RoleHint `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewStateCarrier(secret string, ttl time.Duration, guard ReplayGuard) *StateCarrier {
	if ttl <= 0 {
		ttl = DefaultHintTTL
	}
	if guard == nil {
		guard = NewMemoryReplayGuard()
	}
	return &StateCarrier{key: deriveKey(secret, "oauth-state"), ttl: ttl, guard: guard, now: time.Now}
}

// Attach always returns a state value, with or without a hint, so every
// authorization request carries a fresh nonce.
func (s *StateCarrier) Attach(_ http.ResponseWriter, _ *http.Request, hint RoleHint) (string, error) {
	now := s.now()
	claims := stateClaims{
		Role: hint,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return state, nil
}

var (
	errStateMissing  = errors.New("state missing")
	errStateReplayed = errors.New("state already used")
)

func (s *StateCarrier) decode(ctx context.Context, raw string) (RoleHint, error) {
	claims := &stateClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.key, nil }); err != nil {
		return HintNone, err
	}
	if claims.ID == "" {
		return HintNone, errors.New("state without id")
	}
	ok, err := s.guard.Claim(ctx, claims.ID, s.ttl)
	if err != nil {
		return HintNone, err
	}
	if !ok {
		return HintNone, errStateReplayed
	}
	return ParseHint(string(claims.Role)), nil
}

// VerifyState consumes the state parameter. It fails when the state is
// missing, forged, expired or already used.
func (s *StateCarrier) VerifyState(r *http.Request) (RoleHint, error) {
	raw := r.URL.Query().Get(StateParam)
	if raw == "" {
		return HintNone, errStateMissing
	}
	return s.decode(r.Context(), raw)
}

// Recover is VerifyState without the reason.
func (s *StateCarrier) Recover(r *http.Request) (RoleHint, bool) {
	hint, err := s.VerifyState(r)
	if err != nil {
		return HintNone, false
	}
	return hint, hint.Present()
}

func (s *StateCarrier) Clear(http.ResponseWriter, *http.Request) {}

// ChainCarrier attaches through every carrier. Recover consults all of
// them, so single-use values are consumed, and returns the first hint found.
type ChainCarrier []HintCarrier

func (c ChainCarrier) Attach(w http.ResponseWriter, r *http.Request, hint RoleHint) (string, error) {
	var state string
	for _, carrier := range c {
		s, err := carrier.Attach(w, r, hint)
		if err != nil {
			return "", err
		}
		if state == "" {
			state = s
		}
	}
	return state, nil
}

func (c ChainCarrier) Recover(r *http.Request) (RoleHint, bool) {
	found, hint := false, HintNone
	for _, carrier := range c {
		if h, ok := carrier.Recover(r); ok && !found {
			found, hint = true, h
		}
	}
	return hint, found
}

// VerifyState runs every carrier, verifying state where a carrier supports
// it, and returns the first hint together with the first verification
// error. A chain without a state carrier never fails.
func (c ChainCarrier) VerifyState(r *http.Request) (RoleHint, error) {
	var firstErr error
	found, hint := false, HintNone
	for _, carrier := range c {
		var h RoleHint
		var ok bool
		if v, isVerifier := carrier.(StateVerifier); isVerifier {
			var err error
			h, err = v.VerifyState(r)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			ok = err == nil && h.Present()
		} else {
			h, ok = carrier.Recover(r)
		}
		if ok && !found {
			found, hint = true, h
		}
	}
	if firstErr != nil {
		return HintNone, firstErr
	}
	return hint, nil
}

func (c ChainCarrier) Clear(w http.ResponseWriter, r *http.Request) {
	for _, carrier := range c {
		carrier.Clear(w, r)
	}
}
