package utils

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the one-way hash contract used by the auth service.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Bcrypt implements PasswordHasher. Each hash embeds its own random salt.
type Bcrypt struct{ Cost int }

func (b Bcrypt) Hash(plain string) (string, error) { return HashPassword(plain, b.Cost) }

func (b Bcrypt) Verify(plain, hash string) bool { return VerifyPassword(hash, plain) }

// HashPassword returns bcrypt hash using the given cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password. Empty or
// malformed hashes never match.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
