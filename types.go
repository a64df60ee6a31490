package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds credential subsystem options. The signing key is loaded
// once at start-up and treated as read-only for the life of the process.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetActionTokenTTL() time.Duration
	GetVerificationURL() string
	GetPasswordResetURL() string
}

// Directory is the persistence surface the credential flows depend on.
// The conditional consume/swap primitives must be implemented as single
// atomic updates so concurrent consumption of a single-use token is
// serialized by the store and only one caller observes success.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByMobile(ctx context.Context, mobile string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ExistsAny(ctx context.Context, email, mobile string) (bool, error)
	Register(ctx context.Context, account *Account) (*Account, error)

	StoreVerificationToken(ctx context.Context, id uuid.UUID, token string) error
	StoreResetToken(ctx context.Context, id uuid.UUID, token string) error
	ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (*Account, error)
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string) (*Account, error)
	SwapPasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (*Account, error)
}

// Notifier delivers verification and reset links. Delivery is
// fire-and-forget relative to state transitions: tokens are persisted
// before the send, and a failed send never invalidates them.
type Notifier interface {
	Send(ctx context.Context, to, subject, link string) error
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, to, subject, link string) error

func (f NotifierFunc) Send(ctx context.Context, to, subject, link string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, link)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
