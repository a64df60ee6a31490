package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and verifies the three token classes: access,
// refresh, and single-use action tokens. All share one HS256 signing
// key, set once at construction and never mutated.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
	now        func() time.Time
}

type TokenServiceOption func(*TokenService)

// WithTokenLogger overrides the logger used by the service.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// NewTokenService creates a TokenService from cfg.
func NewTokenService(cfg Config, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// IssueAccess mints a short-lived request token for the account.
func (ts *TokenService) IssueAccess(accountID string) (string, error) {
	return ts.issue(accountID, PurposeAccess, ts.accessTTL)
}

// IssueRefresh mints the long-lived rotation token for the account.
func (ts *TokenService) IssueRefresh(accountID string) (string, error) {
	return ts.issue(accountID, PurposeRefresh, ts.refreshTTL)
}

// IssueAction mints a single-use token for email verification or
// password reset. The purpose is checked on consumption, so a token
// minted here cannot satisfy any other operation.
func (ts *TokenService) IssueAction(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if !purpose.IsAction() {
		return "", goerrors.New("purpose is not an action token purpose", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}
	if ttl <= 0 {
		return "", goerrors.New("action token TTL must be positive", goerrors.CategoryBadInput)
	}
	return ts.issue(subject, purpose, ttl)
}

func (ts *TokenService) issue(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", goerrors.New("token subject is required", goerrors.CategoryBadInput)
	}

	now := ts.now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Validate parses and verifies a token string. Expired tokens surface as
// ErrTokenExpired so callers can offer re-issuance; every other failure
// collapses into ErrTokenMalformed.
func (ts *TokenService) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, ErrTokenMalformed
}

// ValidatePurpose verifies the token and checks the purpose claim. A
// structurally valid token carrying the wrong purpose fails with
// ErrTokenMismatch.
func (ts *TokenService) ValidatePurpose(tokenString string, purpose TokenPurpose) (*SessionClaims, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if !claims.HasPurpose(purpose) {
		return nil, ErrTokenMismatch.Clone().WithMetadata(map[string]any{
			"expected_purpose": string(purpose),
			"actual_purpose":   string(claims.Purpose),
		})
	}

	return claims, nil
}
