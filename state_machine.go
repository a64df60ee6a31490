package accounts

import (
	"context"
	"fmt"
	"net/url"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountFlow owns the verification and password-reset lifecycle for
// accounts: it mints single-use action tokens, stores them on the
// account, hands them to the Notifier, and consumes them exactly once.
//
// A presented token is valid only when its signature verifies, it is
// unexpired, and it equals the copy stored on the account. Consumption
// clears the stored copy in the same atomic update, so a replayed token
// fails the equality check even before it expires.
type AccountFlow struct {
	directory Directory
	tokens    *TokenService
	notifier  Notifier
	logger    Logger
	actionTTL time.Duration
	verifyURL string
	resetURL  string
}

type AccountFlowOption func(*AccountFlow)

// WithFlowNotifier sets the Notifier used to deliver action links.
func WithFlowNotifier(n Notifier) AccountFlowOption {
	return func(f *AccountFlow) {
		f.notifier = normalizeNotifier(n)
	}
}

// WithFlowLogger overrides the logger used by the flow.
func WithFlowLogger(logger Logger) AccountFlowOption {
	return func(f *AccountFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewAccountFlow creates the lifecycle flow backed by the directory.
func NewAccountFlow(directory Directory, tokens *TokenService, cfg Config, opts ...AccountFlowOption) *AccountFlow {
	f := &AccountFlow{
		directory: directory,
		tokens:    tokens,
		notifier:  noopNotifier{},
		logger:    defLogger{},
		actionTTL: cfg.GetActionTokenTTL(),
		verifyURL: cfg.GetVerificationURL(),
		resetURL:  cfg.GetPasswordResetURL(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// RequestVerification mints a verify-email token, stores it on the
// account, and hands the link to the Notifier. Calling it again before
// verification completes replaces the stored token; the previous one
// stops matching and becomes unusable.
func (f *AccountFlow) RequestVerification(ctx context.Context, account *Account) (string, error) {
	if account == nil {
		return "", goerrors.New("account is required", goerrors.CategoryBadInput)
	}

	if !CanTransitionVerification(account.VerificationState(), StateVerified) {
		return "", ErrAlreadyVerified
	}

	token, err := f.tokens.IssueAction(account.ID.String(), PurposeVerifyEmail, f.actionTTL)
	if err != nil {
		return "", err
	}

	if err := f.directory.StoreVerificationToken(ctx, account.ID, token); err != nil {
		return "", err
	}
	account.VerificationToken = &token

	// The token is already persisted and resend is idempotent, so a
	// delivery failure is logged and swallowed.
	f.deliver(ctx, account.Email, SubjectVerification, f.actionLink(f.verifyURL, token))

	return token, nil
}

// ConsumeVerification validates the presented token and flips the
// account to verified in one conditional update. The loser of a
// concurrent double-consume gets ErrTokenMismatch.
func (f *AccountFlow) ConsumeVerification(ctx context.Context, token string) (*Account, error) {
	claims, err := f.tokens.ValidatePurpose(token, PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"subject": claims.AccountID(),
		})
	}

	return f.directory.ConsumeVerificationToken(ctx, id, token)
}

// RequestPasswordReset mints a reset-password token for the account
// matching email. Issuing a new token always supersedes any outstanding
// one. An unknown email returns ErrAccountNotFound to the caller; the
// transport boundary decides whether to hide that. Both paths sign a
// token so their work profile stays the same and timing does not reveal
// account existence.
func (f *AccountFlow) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := f.directory.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			if _, signErr := f.tokens.IssueAction(uuid.NewString(), PurposeResetPassword, f.actionTTL); signErr != nil {
				f.logger.Error("failed to sign decoy reset token: %v", signErr)
			}
			return "", ErrAccountNotFound
		}
		return "", err
	}

	token, err := f.tokens.IssueAction(account.ID.String(), PurposeResetPassword, f.actionTTL)
	if err != nil {
		return "", err
	}

	if err := f.directory.StoreResetToken(ctx, account.ID, token); err != nil {
		return "", err
	}

	f.deliver(ctx, account.Email, SubjectPasswordReset, f.actionLink(f.resetURL, token))

	return token, nil
}

// ConsumePasswordReset validates the presented token, hashes the new
// password, and swaps both hash and token in one conditional update.
// Session tokens issued before the reset stay valid until their own
// expiry; this subsystem keeps no revocation list.
func (f *AccountFlow) ConsumePasswordReset(ctx context.Context, token, newPassword string) (*Account, error) {
	claims, err := f.tokens.ValidatePurpose(token, PurposeResetPassword)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"subject": claims.AccountID(),
		})
	}

	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	return f.directory.ConsumeResetToken(ctx, id, token, hash)
}

func (f *AccountFlow) deliver(ctx context.Context, to, subject, link string) {
	if err := f.notifier.Send(ctx, to, subject, link); err != nil {
		f.logger.Warn("notifier delivery to %s failed: %v", to, err)
	}
}

func (f *AccountFlow) actionLink(base, token string) string {
	if base == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", base, url.QueryEscape(token))
}
