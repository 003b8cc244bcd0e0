package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/repository"
	"github.com/swarnim921/Smart-Resume/internal/utils"
)

const (
	codeDigits     = 6
	DefaultCodeTTL = 15 * time.Minute
)

// errCodeRejected aborts an Update without writing.
var errCodeRejected = errors.New("code rejected")

// CodeManager issues and checks one-time email verification codes. Every
// state change goes through UserStore.Update, so a concurrent resend and
// verify serialise on the record.
type CodeManager struct {
	store    repository.UserStore
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// CodeOption customises a CodeManager.
type CodeOption func(*CodeManager)

// WithCodeClock replaces time.Now.
func WithCodeClock(now func() time.Time) CodeOption {
	return func(m *CodeManager) { m.now = now }
}

// WithCodeGenerator replaces the random digit source.
func WithCodeGenerator(gen func() (string, error)) CodeOption {
	return func(m *CodeManager) { m.generate = gen }
}

func NewCodeManager(store repository.UserStore, ttl time.Duration, opts ...CodeOption) *CodeManager {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	m := &CodeManager{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		generate: func() (string, error) { return utils.RandomDigits(codeDigits) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the manager's current time.
func (m *CodeManager) Now() time.Time { return m.now() }

// Issue returns a fresh code and its expiry relative to now.
func (m *CodeManager) Issue(now time.Time) (string, time.Time, error) {
	code, err := m.generate()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, now.Add(m.ttl).UTC(), nil
}

// Check verifies code for email. It reports false without touching the
// record when the account is missing or verified, the code differs, or the
// expiry is not strictly after now. On success the account is verified and
// the code fields are cleared in the same write.
func (m *CodeManager) Check(ctx context.Context, email, code string) (model.User, bool, error) {
	now := m.now()
	u, err := m.store.Update(ctx, email, func(u *model.User) error {
		if !u.PendingCode() {
			return errCodeRejected
		}
		if subtle.ConstantTimeCompare([]byte(*u.VerificationCode), []byte(code)) != 1 {
			return errCodeRejected
		}
		if !u.VerificationCodeExpiresAt.After(now) {
			return errCodeRejected
		}
		u.MarkVerified()
		return nil
	})
	switch {
	case err == nil:
		return u, true, nil
	case errors.Is(err, errCodeRejected), errors.Is(err, repository.ErrNotFound):
		return model.User{}, false, nil
	default:
		return model.User{}, false, err
	}
}

// Resend starts a new code cycle for an unverified account. ok is false when
// the account is missing or already verified.
func (m *CodeManager) Resend(ctx context.Context, email string) (model.User, string, bool, error) {
	code, expiresAt, err := m.Issue(m.now())
	if err != nil {
		return model.User{}, "", false, err
	}
	u, err := m.store.Update(ctx, email, func(u *model.User) error {
		if u.Verified {
			return errCodeRejected
		}
		u.SetPendingCode(code, expiresAt)
		return nil
	})
	switch {
	case err == nil:
		return u, code, true, nil
	case errors.Is(err, errCodeRejected), errors.Is(err, repository.ErrNotFound):
		return model.User{}, "", false, nil
	default:
		return model.User{}, "", false, err
	}
}
