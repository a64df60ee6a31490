package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationState is the email verification lifecycle state.
type VerificationState = string

const (
	// StateUnverified is every account's initial state.
	StateUnverified VerificationState = "unverified"
	// StateVerified is terminal; the transition happens exactly once.
	StateVerified VerificationState = "verified"
)

// verificationTransitions is the legal state table. Verified is one-way.
var verificationTransitions = map[VerificationState]map[VerificationState]struct{}{
	StateUnverified: {
		StateVerified: {},
	},
}

// CanTransitionVerification reports whether the state change is legal.
func CanTransitionVerification(from, to VerificationState) bool {
	if allowed, ok := verificationTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// Account is the identity record. Email and mobile are each globally
// unique; the password column only ever holds a bcrypt digest. The token
// columns mirror the currently valid action token for each purpose, the
// double-check that makes those tokens single-use.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Mobile            string     `bun:"mobile,notnull,unique" json:"mobile,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Verified          bool       `bun:"is_verified" json:"is_verified,omitempty"`
	VerificationToken *string    `bun:"verification_token,nullzero" json:"-"`
	ResetToken        *string    `bun:"reset_token,nullzero" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// VerificationState derives the lifecycle state from the record.
func (a *Account) VerificationState() VerificationState {
	if a != nil && a.Verified {
		return StateVerified
	}
	return StateUnverified
}

// HasPendingReset reports whether a reset token is outstanding.
func (a *Account) HasPendingReset() bool {
	return a != nil && a.ResetToken != nil && *a.ResetToken != ""
}

// HasPendingVerification reports whether a verification token is outstanding.
func (a *Account) HasPendingVerification() bool {
	return a != nil && a.VerificationToken != nil && *a.VerificationToken != ""
}
