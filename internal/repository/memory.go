package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// MemoryUserStore keeps users in a map guarded by a single mutex. It backs
// local runs with STORE_DRIVER=memory and the service tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by email
	now   func() time.Time
	// bootstrapped stays true once CreateFirstAdmin has succeeded.
	bootstrapped bool
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]model.User{}, now: time.Now}
}

var _ UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(u)
}

func (s *MemoryUserStore) insertLocked(u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	if _, ok := s.users[u.Email]; ok {
		return ErrEmailExists
	}
	now := s.now().UTC()
	u.ID = uuid.NewString()
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.Email] = cloneUser(*u)
	return nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return model.User{}, ErrNotFound
}

func (s *MemoryUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryUserStore) Update(_ context.Context, email string, fn func(*model.User) error) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	cur, ok := s.users[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	next := cloneUser(cur)
	if err := fn(&next); err != nil {
		return cloneUser(cur), err
	}
	next.ID = cur.ID
	next.Email = cur.Email
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now().UTC()
	s.users[email] = cloneUser(next)
	return next, nil
}

func (s *MemoryUserStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	if _, ok := s.users[email]; !ok {
		return ErrNotFound
	}
	delete(s.users, email)
	return nil
}

func (s *MemoryUserStore) DeletePending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id && !u.Verified {
			delete(s.users, email)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryUserStore) CreateFirstAdmin(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapped {
		return ErrAdminExists
	}
	for _, existing := range s.users {
		if existing.Role == model.RoleAdmin {
			return ErrAdminExists
		}
	}
	if err := s.insertLocked(u); err != nil {
		return err
	}
	s.bootstrapped = true
	return nil
}

func (s *MemoryUserStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for email, u := range s.users {
		if expiredAt(u, now) {
			delete(s.users, email)
			n++
		}
	}
	return n, nil
}

func (s *MemoryUserStore) Ping(context.Context) error { return nil }

// cloneUser copies u including the pointed-to code fields so callers never
// share mutable state with the map.
func cloneUser(u model.User) model.User {
	if u.VerificationCode != nil {
		c := *u.VerificationCode
		u.VerificationCode = &c
	}
	if u.VerificationCodeExpiresAt != nil {
		t := *u.VerificationCodeExpiresAt
		u.VerificationCodeExpiresAt = &t
	}
	return u
}
