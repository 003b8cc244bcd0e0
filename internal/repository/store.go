package repository

import (
	"context"
	"strings"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// UserStore persists user records. Every mutation is a single atomic
// read-modify-write keyed by email; implementations either lock the record
// or compare-and-swap on model.User.Version.
type UserStore interface {
	// Create inserts u and fills in ID, Version and timestamps.
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// Update loads the record for email, applies fn and persists the result
	// atomically. If fn returns an error nothing is written and the error is
	// returned unchanged.
	Update(ctx context.Context, email string, fn func(*model.User) error) (model.User, error)
	Delete(ctx context.Context, email string) error
	// DeletePending removes the record with id only while it is still
	// unverified. It returns ErrNotFound if the record is gone or verified.
	DeletePending(ctx context.Context, id string) error
	// CreateFirstAdmin inserts u only if no admin account exists and the
	// bootstrap was never used. Once it succeeds it fails with
	// ErrAdminExists forever, even after the admin is deleted or demoted.
	CreateFirstAdmin(ctx context.Context, u *model.User) error
	// SweepExpired removes unverified records whose code expired at or
	// before now. Records without an expiry are never removed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// firstAdminGuardID keys the bootstrap record every persistent store keeps
// once the first admin exists.
const firstAdminGuardID = "first_admin"

// maxUpdateAttempts bounds the compare-and-swap retry loop.
const maxUpdateAttempts = 5

// normalizeEmail trims surrounding whitespace. Emails are case-sensitive as
// stored, so no case folding happens here.
func normalizeEmail(email string) string { return strings.TrimSpace(email) }

// expiredAt reports whether u is an unverified record whose code expiry is
// at or before now.
func expiredAt(u model.User, now time.Time) bool {
	if u.Verified || u.VerificationCodeExpiresAt == nil {
		return false
	}
	return !u.VerificationCodeExpiresAt.After(now)
}
