package auth

import (
	"log"

	validation "github.com/go-ozzo/ozzo-validation"
)

// AuthConfig is a plain struct implementation of Config.
type AuthConfig struct {
	SigningKey                  string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod               string   `json:"signing_method" koanf:"signing_method"`
	ContextKey                  string   `json:"context_key" koanf:"context_key"`
	AccessTokenExpiration       int      `json:"access_token_expiration" koanf:"access_token_expiration"`
	RefreshTokenExpiration      int      `json:"refresh_token_expiration" koanf:"refresh_token_expiration"`
	VerificationTokenExpiration int      `json:"verification_token_expiration" koanf:"verification_token_expiration"`
	TokenLookup                 string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme                  string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer                      string   `json:"issuer" koanf:"issuer"`
	Audience                    []string `json:"audience" koanf:"audience"`
}

var _ Config = (*AuthConfig)(nil)

// NewConfig returns an AuthConfig with defaults filled in for everything but
// the signing key, which has no safe default.
func NewConfig(signingKey string) *AuthConfig {
	cfg := &AuthConfig{SigningKey: signingKey}
	cfg.EnsureDefaults()
	return cfg
}

// EnsureDefaults backfills zero values with sane defaults.
func (c *AuthConfig) EnsureDefaults() *AuthConfig {
	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}
	if c.ContextKey == "" {
		c.ContextKey = "user"
	}
	if c.AccessTokenExpiration == 0 {
		c.AccessTokenExpiration = 24
	}
	if c.RefreshTokenExpiration == 0 {
		c.RefreshTokenExpiration = 24 * 7
	}
	if c.VerificationTokenExpiration == 0 {
		c.VerificationTokenExpiration = 24
	}
	if c.TokenLookup == "" {
		c.TokenLookup = "header:Authorization"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	return c
}

// Validate rejects configurations the process must not start with. The
// signing key is the one value with no fallback.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SigningKey, validation.Required),
		validation.Field(&c.AccessTokenExpiration, validation.Min(1)),
		validation.Field(&c.RefreshTokenExpiration, validation.Min(1)),
		validation.Field(&c.VerificationTokenExpiration, validation.Min(1)),
	)
}

// MustValidate panics when the configuration is unusable.
func (c *AuthConfig) MustValidate() *AuthConfig {
	if err := c.Validate(); err != nil {
		log.Panicf("auth config invalid: %v", err)
	}
	return c
}

func (c *AuthConfig) GetSigningKey() string { return c.SigningKey }

func (c *AuthConfig) GetSigningMethod() string { return c.SigningMethod }

func (c *AuthConfig) GetContextKey() string { return c.ContextKey }

func (c *AuthConfig) GetAccessTokenExpiration() int { return c.AccessTokenExpiration }

func (c *AuthConfig) GetRefreshTokenExpiration() int { return c.RefreshTokenExpiration }

func (c *AuthConfig) GetVerificationTokenExpiration() int { return c.VerificationTokenExpiration }

func (c *AuthConfig) GetTokenLookup() string { return c.TokenLookup }

func (c *AuthConfig) GetAuthScheme() string { return c.AuthScheme }

func (c *AuthConfig) GetIssuer() string { return c.Issuer }

func (c *AuthConfig) GetAudience() []string { return c.Audience }
