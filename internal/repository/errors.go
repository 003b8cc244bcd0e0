// Package repository defines the credential store used by the auth
// service and the sentinel errors shared by its implementations. Higher
// layers use these values to tell failure scenarios apart; for example
// ErrEmailExists becomes a 400 on signup while ErrNotFound becomes a 401
// on signin and a 404 on admin endpoints.
package repository

import "errors"

// ErrNotFound is returned when no user matches the lookup key.
var ErrNotFound = errors.New("user not found")

// ErrEmailExists is returned when a create would violate email uniqueness.
var ErrEmailExists = errors.New("email already exists")

// ErrAdminExists is returned by CreateFirstAdmin once any admin account
// exists. The bootstrap path is permanently closed after that.
var ErrAdminExists = errors.New("admin already exists")

// ErrConflict is returned when an optimistic update kept losing the race
// against concurrent writers on the same record.
var ErrConflict = errors.New("conflict")

// ErrNoChange may be returned by an Update mutator to abort the write
// without treating it as a failure. Update then returns the current
// record together with ErrNoChange.
var ErrNoChange = errors.New("no change")
