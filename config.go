package accounts

import "time"

// Default token lifetimes. Access tokens bound the blast radius of a
// leaked bearer value, refresh tokens bound how long a client can stay
// signed in without re-authenticating, action tokens bound how long an
// emailed link stays usable.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultActionTokenTTL  = time.Hour
)

// ConfigValues is a concrete Config for wiring and tests.
type ConfigValues struct {
	SigningKey       string
	Issuer           string
	Audience         []string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	ActionTokenTTL   time.Duration
	VerificationURL  string
	PasswordResetURL string
}

var _ Config = (*ConfigValues)(nil)

func (c *ConfigValues) GetSigningKey() string { return c.SigningKey }

func (c *ConfigValues) GetIssuer() string { return c.Issuer }

func (c *ConfigValues) GetAudience() []string { return c.Audience }

func (c *ConfigValues) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c *ConfigValues) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c *ConfigValues) GetActionTokenTTL() time.Duration {
	if c.ActionTokenTTL <= 0 {
		return DefaultActionTokenTTL
	}
	return c.ActionTokenTTL
}

func (c *ConfigValues) GetVerificationURL() string { return c.VerificationURL }

func (c *ConfigValues) GetPasswordResetURL() string { return c.PasswordResetURL }
