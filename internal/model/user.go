package model

import "time"

// User represents an account record as stored in the `users` collection
// (or table, for the SQL store). Each field corresponds to a stored
// attribute; handlers define their own response types with JSON tags.
//
// Fields:
//
//	ID                        – opaque store-assigned identifier, never changes.
//	Email                     – unique login name, stored as given.
//	Name                      – display name.
//	PasswordHash              – bcrypt hash; empty for OAuth-only accounts.
//	Role                      – exactly one of the Role constants.
//	Verified                  – true once the email address is proven.
//	VerificationCode          – pending one-time code (nil when verified).
//	VerificationCodeExpiresAt – expiry of the pending code (nil when verified).
//	Version                   – bumped on every write, used for compare-and-swap.
//	CreatedAt / UpdatedAt     – bookkeeping timestamps (UTC).
type User struct {
	ID                        string
	Email                     string
	Name                      string
	PasswordHash              string
	Role                      Role
	Verified                  bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time
	Version                   int64
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// PendingCode reports whether an unverified code cycle is active.
func (u User) PendingCode() bool {
	return !u.Verified && u.VerificationCode != nil && u.VerificationCodeExpiresAt != nil
}

// MarkVerified moves the record to the verified state and drops the code
// fields. OAuth accounts are created through this path too so they never
// carry an expiry that a TTL sweep could act on.
func (u *User) MarkVerified() {
	u.Verified = true
	u.VerificationCode = nil
	u.VerificationCodeExpiresAt = nil
}

// SetPendingCode starts (or restarts) an unverified code cycle.
func (u *User) SetPendingCode(code string, expiresAt time.Time) {
	exp := expiresAt.UTC()
	u.Verified = false
	u.VerificationCode = &code
	u.VerificationCodeExpiresAt = &exp
}
