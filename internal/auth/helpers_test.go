package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/oauth"
	"github.com/swarnim921/Smart-Resume/internal/queue"
	"github.com/swarnim921/Smart-Resume/internal/repository"
	"github.com/swarnim921/Smart-Resume/internal/utils"
)

const testSecret = "test-secret-0123456789abcdef"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// sequentialCodes yields 000001, 000002, ...
func sequentialCodes() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("%06d", n.Add(1)), nil
	}
}

type sentCode struct{ Address, Code string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
	// during runs inside each send, before the result is decided.
	during func(address string)
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, address, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.during != nil {
		m.during(address)
	}
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{address, code})
	return nil
}

func (m *fakeMailer) last() sentCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentCode{}
	}
	return m.sent[len(m.sent)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.RoleChangedEvent
	err    error
}

func (p *fakePublisher) PublishRoleChanged(_ context.Context, ev queue.RoleChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) all() []queue.RoleChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.RoleChangedEvent(nil), p.events...)
}

type fakeProvider struct {
	id  oauth.Identity
	err error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Identity(_ context.Context, code string) (oauth.Identity, error) {
	if p.err != nil {
		return oauth.Identity{}, p.err
	}
	if code != "good" {
		return oauth.Identity{}, errors.New("bad code")
	}
	return p.id, nil
}

type fixture struct {
	clock  *fakeClock
	store  *repository.MemoryUserStore
	codes  *CodeManager
	tokens *TokenService
	mailer *fakeMailer
	pub    *fakePublisher
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:  newClock(),
		store:  repository.NewMemoryUserStore(),
		mailer: &fakeMailer{},
		pub:    &fakePublisher{},
	}
	f.codes = NewCodeManager(f.store, DefaultCodeTTL, WithCodeClock(f.clock.Now), WithCodeGenerator(sequentialCodes()))
	tokens, err := NewTokenService(testSecret, time.Hour, WithTokenClock(f.clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	f.tokens = tokens
	f.svc = NewService(Deps{
		Users:     f.store,
		Hasher:    utils.Bcrypt{Cost: bcrypt.MinCost},
		Codes:     f.codes,
		Tokens:    f.tokens,
		Mailer:    f.mailer,
		Publisher: f.pub,
	})
	return f
}

// seedUser stores u directly, bypassing the service.
func (f *fixture) seedUser(t *testing.T, u model.User) model.User {
	t.Helper()
	if err := f.store.Create(context.Background(), &u); err != nil {
		t.Fatal(err)
	}
	return u
}

func cookiesFrom(rec interface{ Result() *http.Response }) []*http.Cookie {
	return rec.Result().Cookies()
}
