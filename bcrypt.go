package accounts

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// dummyHash is a valid bcrypt hash of an unguessable value. Login burns a
// compare against it when no local credential exists so the missing-account
// path costs the same as a mismatch.
const dummyHash = "$2a$14$8K1p/a0dL1LXMIgoEDFrwOfMQMGH3LKKsSkTf.WcuZ9N6KlTq7hA6"

// CompareBurn runs a bcrypt comparison that always fails, in the same time
// a real mismatch would take.
func CompareBurn(password string) error {
	bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return ErrMismatchedHashAndPassword
}
