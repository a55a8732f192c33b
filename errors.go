package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateAccount      = "DUPLICATE_ACCOUNT"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	TextCodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeNotFoundOrVerified    = "NOT_FOUND_OR_ALREADY_VERIFIED"
	TextCodeUnauthenticated       = "UNAUTHENTICATED"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	TextCodeEmptyPassword         = "EMPTY_PASSWORD"
	TextCodeUnsupportedProvider   = "UNSUPPORTED_PROVIDER"
)

// ErrDuplicateAccount is returned when registration collides with an
// existing email. The store's unique constraint is authoritative.
var ErrDuplicateAccount = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials collapses unknown-email, non-local origin, and
// password mismatch into a single variant so callers cannot enumerate
// accounts.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified is returned when a local account logs in before
// completing email verification.
var ErrEmailNotVerified = errors.New("email address not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidOrExpiredToken collapses unknown, expired, and already-consumed
// verification tokens into a single variant.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidOrExpiredToken).
	WithCode(errors.CodeBadRequest)

// ErrNotFoundOrAlreadyVerified collapses unknown-email and already-verified
// outcomes of a resend request.
var ErrNotFoundOrAlreadyVerified = errors.New("no unverified account matches this email", errors.CategoryValidation).
	WithTextCode(TextCodeNotFoundOrVerified).
	WithCode(errors.CodeBadRequest)

// ErrUnauthenticated is returned when a protected route receives no bearer token.
var ErrUnauthenticated = errors.New("no authentication token provided", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for session tokens past their validity window.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks.
var ErrTokenMalformed = errors.New("authentication token invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned when a valid token resolves to an account
// that no longer exists. Surfaced as 401, not 404, so deletion timing does
// not leak.
var ErrAccountNotFound = errors.New("account no longer exists", errors.CategoryAuth).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrUnsupportedProvider is returned for OAuth logins naming a provider
// outside {google, github}.
var ErrUnsupportedProvider = errors.New("unsupported oauth provider", errors.CategoryValidation).
	WithTextCode(TextCodeUnsupportedProvider).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the hasher-level mismatch error.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
