package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes are the stable, enumerable identifiers surfaced to API
// consumers. Diagnostic detail travels in error metadata, never in the
// user visible message.
const (
	TextCodeValidation         = "VALIDATION_ERROR"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeAccountExists      = "ACCOUNT_EXISTS"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenMismatch      = "TOKEN_MISMATCH"
	TextCodeNotVerified        = "ACCOUNT_NOT_VERIFIED"
	TextCodeCorruptCredential  = "CORRUPT_CREDENTIAL"
	TextCodeDependencyFailure  = "DEPENDENCY_FAILURE"
)

// ErrAccountNotFound is returned when no account matches the identifier.
// Transport boundaries that must not leak account existence should map
// this to the same response shape as ErrInvalidCredentials.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAccountExists is returned when the email or mobile number is taken.
var ErrAccountExists = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the shared failure for unknown identifiers and
// password mismatches. Both paths return this exact error so the response
// never reveals whether the account exists.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotVerified blocks login until the email has been verified.
var ErrAccountNotVerified = goerrors.New("account email is not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned for structurally valid tokens past their
// expiry. Callers can use it to offer re-issuance.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, truncated tokens, and any
// other parse failure.
var ErrTokenMalformed = goerrors.New("token is invalid or malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMismatch is returned when a presented action token does not
// match the copy stored on the account. It covers already-used, stale,
// superseded, and forged tokens alike.
var ErrTokenMismatch = goerrors.New("token does not match any pending request", goerrors.CategoryConflict).
	WithTextCode(TextCodeTokenMismatch).
	WithCode(goerrors.CodeConflict)

// ErrCorruptCredential signals a stored password digest that bcrypt could
// not parse. This is an operational fault, not user error.
var ErrCorruptCredential = goerrors.New("stored credential is corrupt", goerrors.CategoryInternal).
	WithTextCode(TextCodeCorruptCredential).
	WithCode(goerrors.CodeInternal)

// ErrAlreadyVerified is returned when requesting verification for an
// account that completed the transition. Verified is one-way.
var ErrAlreadyVerified = goerrors.New("account is already verified", goerrors.CategoryConflict).
	WithTextCode("ACCOUNT_ALREADY_VERIFIED").
	WithCode(goerrors.CodeConflict)

// ErrEmptyPassword rejects empty plaintext before it reaches the hasher.
var ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordConfirmation is returned when new and confirm passwords differ.
var ErrPasswordConfirmation = goerrors.New("password confirmation does not match", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingSession is returned when the request carries no session cookie.
var ErrMissingSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode("MISSING_SESSION").
	WithCode(goerrors.CodeUnauthorized)

// WrapDependencyFailure converts a directory or notifier I/O error into
// the generic failure exposed to callers. The cause stays attached for
// logging, the message does not expose internals.
func WrapDependencyFailure(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeDependencyFailure).
		WithCode(goerrors.CodeInternal)
}

// IsTokenExpiredError reports whether err is the expiry failure.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return false
}

// IsTokenMismatchError reports whether err is the single-use/replay failure.
func IsTokenMismatchError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenMismatch
	}
	return false
}
