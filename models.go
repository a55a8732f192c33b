package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthOrigin identifies how an account authenticates
type AuthOrigin = string

const (
	// OriginLocal accounts hold a password hash and go through email verification
	OriginLocal AuthOrigin = "local"
	// OriginGoogle accounts were asserted by Google
	OriginGoogle AuthOrigin = "google"
	// OriginGitHub accounts were asserted by GitHub
	OriginGitHub AuthOrigin = "github"
)

// FederatedOrigin reports whether origin names a supported external provider
func FederatedOrigin(origin string) bool {
	switch origin {
	case OriginGoogle, OriginGitHub:
		return true
	default:
		return false
	}
}

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID       uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName string    `bun:"full_name,notnull" json:"full_name,omitempty"`
	// Email is stored lowercased; uniqueness is enforced by the store
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	AuthOrigin   AuthOrigin `bun:"auth_origin,notnull" json:"auth_origin,omitempty"`
	IsFederated  bool       `bun:"is_federated" json:"is_federated"`

	IsEmailVerified    bool       `bun:"is_email_verified" json:"is_email_verified"`
	VerificationToken  *string    `bun:"verification_token,nullzero,unique" json:"-"`
	VerificationExpiry *time.Time `bun:"verification_expiry,nullzero" json:"-"`

	DateOfBirth        *time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	FacebookProfileURL string     `bun:"facebook_profile_url" json:"facebook_profile_url,omitempty"`
	LinkedInProfileURL string     `bun:"linkedin_profile_url" json:"linkedin_profile_url,omitempty"`
	Bio                string     `bun:"bio" json:"bio,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Verified reports whether the account may log in: federated accounts are
// always treated as verified
func (a *Account) Verified() bool {
	if a == nil {
		return false
	}
	return a.IsFederated || a.IsEmailVerified
}

// RequiresCredential reports whether the account must carry a password hash
func (a *Account) RequiresCredential() bool {
	return a != nil && a.AuthOrigin == OriginLocal
}

// Sanitize returns a copy safe to hand to callers; credential and
// verification fields are zeroed on top of their json:"-" tags so the copy
// is inert even outside JSON encoding
func (a *Account) Sanitize() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.PasswordHash = ""
	out.VerificationToken = nil
	out.VerificationExpiry = nil
	return &out
}

// NormalizeEmail lowercases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
