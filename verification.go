package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// VerificationTokenTTL is how long a verification token stays valid.
var VerificationTokenTTL = 24 * time.Hour

// NewVerificationToken returns a hex-encoded token with 256 bits of entropy.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// StampVerification sets a fresh verification token and expiry on the
// account, invalidating any previous token.
func StampVerification(account *Account, token string, now time.Time) {
	expiry := now.Add(VerificationTokenTTL)
	account.VerificationToken = &token
	account.VerificationExpiry = &expiry
	account.IsEmailVerified = false
}

// VerificationWindowOpen reports whether an expiry stamp is still in the
// future. A nil expiry counts as closed.
func VerificationWindowOpen(expiry *time.Time, now time.Time) bool {
	return expiry != nil && expiry.After(now)
}

// VerificationURL builds the public callback link embedded in verification
// emails, e.g. https://api.example.com/auth/verify-email?token=abc.
func VerificationURL(baseURL, token string) string {
	return fmt.Sprintf(
		"%s/auth/verify-email?token=%s",
		strings.TrimRight(baseURL, "/"),
		url.QueryEscape(token),
	)
}
