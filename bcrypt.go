package accounts

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

// HashPassword will generate a password hash. The salt is folded into
// the digest, so equal inputs produce different digests.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password
// against the stored digest. Mismatch returns ErrInvalidCredentials, a
// digest bcrypt cannot parse returns ErrCorruptCredential.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return ErrCorruptCredential.Clone().WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}
	return nil
}
