package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose tags a token with the single operation it authorizes.
// A token minted for one purpose never satisfies another: the claim is
// checked on every validation, not just the signature.
type TokenPurpose string

const (
	// PurposeAccess authorizes individual requests. Short lived.
	PurposeAccess TokenPurpose = "access"
	// PurposeRefresh only mints new access/refresh pairs. Long lived.
	PurposeRefresh TokenPurpose = "refresh"
	// PurposeVerifyEmail is the single-use email verification token.
	PurposeVerifyEmail TokenPurpose = "verify-email"
	// PurposeResetPassword is the single-use password reset token.
	PurposeResetPassword TokenPurpose = "reset-password"
)

// IsValid checks the purpose is one of the known tags.
func (p TokenPurpose) IsValid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeVerifyEmail, PurposeResetPassword:
		return true
	default:
		return false
	}
}

// IsAction reports whether the purpose names a single-use action token.
func (p TokenPurpose) IsAction() bool {
	return p == PurposeVerifyEmail || p == PurposeResetPassword
}

// SessionClaims is the claim set carried by every token this module
// issues: registered claims plus the purpose tag.
type SessionClaims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"purpose,omitempty"`
}

// AccountID returns the subject claim, which holds the account id for
// session tokens and the claimed subject for action tokens.
func (c *SessionClaims) AccountID() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time, zero when absent.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issuance time, zero when absent.
func (c *SessionClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// HasPurpose checks the purpose claim against an expected tag.
func (c *SessionClaims) HasPurpose(purpose TokenPurpose) bool {
	return c.Purpose == purpose
}
