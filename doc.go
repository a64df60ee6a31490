// Package accounts implements the account and session credential
// subsystem for a marketplace backend: sign-up, email verification,
// login, token refresh, password reset, and password change.
//
// Sessions are stateless signed token pairs (short-lived access,
// long-lived refresh); verification and reset ride single-use action
// tokens that must match the copy stored on the account. Persistence
// is abstracted behind Directory, delivery behind Notifier.
//
// Known limitation: because no server-side session table exists,
// issued tokens cannot be revoked before expiry. Logout only clears
// client cookies, and a password change or reset does not invalidate
// session tokens issued earlier.
package accounts
