// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"

	"github.com/deppfellow/lodging/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext into an opaque digest and checks plaintext
// against one. Plaintext never leaves the hasher.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// Bcrypt is a Hasher backed by golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt Hasher. A zero cost selects bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errs.NewFieldValidationError("password", "is required")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errs.NewFieldValidationError("password", "must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is not an
// error; a malformed digest is.
func (b *Bcrypt) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
