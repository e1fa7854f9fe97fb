// Package auth holds the two credential concerns of the API: hashing passwords before
// they reach CreateUser, and verifying a login against the hash stored in the user row.
//
// bcrypt generates a fresh random salt for every hash and stores it inside the hash
// string itself, so no salt is configured or shared between users. Only the work
// factor (cost) is configurable.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/trentd187/gym-api/internal/apperr"
)

// ErrMismatch is returned by Verify when the password does not match the hash.
var ErrMismatch = errors.New("password does not match")

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
// Passwords longer than 72 bytes are rejected rather than silently truncated.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Wrap(apperr.Validation, "password must be at most 72 bytes", err)
		}
		return "", apperr.Wrap(apperr.Internal, "hash password", err)
	}
	return string(hash), nil
}

// Verify compares password with a stored bcrypt hash. Any failure, including a
// malformed stored hash, is reported as ErrMismatch so callers cannot tell the
// cases apart; the underlying cause stays wrapped for logging.
func (h *Hasher) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return errors.Join(ErrMismatch, err)
}

// Cost reports the work factor new hashes are created with.
func (h *Hasher) Cost() int { return h.cost }
