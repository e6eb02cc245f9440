package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is a design constant, not configuration. Raising it invalidates
// no stored hashes (bcrypt embeds the cost) but slows every login.
const bcryptCost = 10

// ErrMalformedHash distinguishes a corrupt stored hash from a plain password
// mismatch. Callers should log it — it indicates data damage, not a bad login.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword returns a salted bcrypt hash. Each call salts freshly, so the
// same plaintext never produces the same hash twice.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether plain matches hash. bcrypt's comparison is
// constant-time with respect to the password. A hash bcrypt cannot parse
// returns ErrMalformedHash rather than false-with-nil.
func VerifyPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}
