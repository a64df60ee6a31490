package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the access/refresh pair held by the client as opaque
// bearer values. The server keeps no session table; validity is a
// function of signature, expiry, and (for refresh) the account still
// existing. Revocation is not supported short of account deletion.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Account *Account
	Tokens  TokenPair
}

// decoyHash is a syntactically valid bcrypt digest that matches no
// password. Unknown identifiers are compared against it so the failed
// path costs one bcrypt verify either way and response timing does not
// reveal whether the account exists.
var decoyHash = "$2a$14$uCoFIXRUTpX1JUEBkLroCOTzgdUcPYXnkHlC0WFVDjSB6dIk9JQUO"

// SessionManager orchestrates login, logout, refresh, and password
// change on top of the Directory and TokenService.
type SessionManager struct {
	directory Directory
	tokens    *TokenService
	logger    Logger
}

type SessionManagerOption func(*SessionManager)

// WithSessionLogger overrides the logger used by the manager.
func WithSessionLogger(logger Logger) SessionManagerOption {
	return func(s *SessionManager) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(directory Directory, tokens *TokenService, opts ...SessionManagerOption) *SessionManager {
	s := &SessionManager{
		directory: directory,
		tokens:    tokens,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Login verifies the credentials and issues a fresh token pair. Unknown
// email and wrong password return the identical ErrInvalidCredentials;
// the verification gate only fires after the password has matched, so
// an unverified response never confirms an account to a guesser.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword([]byte(decoyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, WrapDependencyFailure(err, "failed to look up account during login")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, err
	}

	if !account.Verified {
		return nil, ErrAccountNotVerified
	}

	pair, err := s.issuePair(account.ID.String())
	if err != nil {
		return nil, err
	}

	return &LoginResult{Account: account, Tokens: pair}, nil
}

// Refresh validates a refresh token and rotates the pair: every use
// issues a fresh access and refresh token. The previous refresh token
// is not blacklisted; its claims stay individually valid until expiry.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidatePurpose(refreshToken, PurposeRefresh)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"subject": claims.AccountID(),
		})
	}

	if _, err := s.directory.FindByID(ctx, id); err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, WrapDependencyFailure(err, "failed to look up account during refresh")
	}

	pair, err := s.issuePair(claims.AccountID())
	if err != nil {
		return nil, err
	}

	return &pair, nil
}

// ChangePassword replaces the account's password after re-checking the
// current one. A wrong old password fails before anything else is
// looked at and never mutates state. Outstanding session tokens remain
// valid until their own expiry.
func (s *SessionManager) ChangePassword(ctx context.Context, accountID uuid.UUID, oldPassword, newPassword, confirmPassword string) error {
	account, err := s.directory.FindByID(ctx, accountID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		return WrapDependencyFailure(err, "failed to look up account during password change")
	}

	if err := ComparePasswordAndHash(oldPassword, account.PasswordHash); err != nil {
		return err
	}

	if newPassword != confirmPassword {
		return ErrPasswordConfirmation
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := s.directory.SwapPasswordHash(ctx, accountID, account.PasswordHash, newHash); err != nil {
		return err
	}

	return nil
}

// Logout names the cookies the transport layer must clear. The core
// holds no server-side session state to tear down.
func (s *SessionManager) Logout() []string {
	return []string{AccessTokenCookie, RefreshTokenCookie}
}

func (s *SessionManager) issuePair(accountID string) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(accountID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.tokens.IssueRefresh(accountID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}
