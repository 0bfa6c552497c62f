package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with an explicit cost so the work factor is
// injected at startup instead of sprinkled across call sites.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher. A cost of 0 (or anything below bcrypt's
// minimum) falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. The salt is randomized per
// call, so hashing the same input twice yields different hashes.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is a
// normal false outcome, never an error. An empty stored hash marks a
// federated-only account and always fails, whatever the input; without this
// check verify("", "") would log an attacker into such an account.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
