package accounts

import (
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config holds the account service options
type Config struct {
	SigningKey         string   `yaml:"signing_key"`
	TokenExpiration    int      `yaml:"token_expiration"`
	Issuer             string   `yaml:"issuer"`
	Audience           []string `yaml:"audience"`
	BaselineAuthority  string   `yaml:"baseline_authority"`
	KnownAuthorities   []string `yaml:"known_authorities"`
	ProtectedUsernames []string `yaml:"protected_usernames"`
	BcryptCost         int      `yaml:"bcrypt_cost"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TokenExpiration:    24,
		Issuer:             "go-accounts",
		Audience:           []string{"go-accounts"},
		BaselineAuthority:  AuthorityUser,
		KnownAuthorities:   []string{AuthorityUser, AuthorityAdmin},
		ProtectedUsernames: []string{"MMESANDER"},
	}
}

// Normalize fills empty values from DefaultConfig and canonicalizes
// usernames and authority names.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.TokenExpiration <= 0 {
		c.TokenExpiration = def.TokenExpiration
	}
	if c.Issuer == "" {
		c.Issuer = def.Issuer
	}
	if len(c.Audience) == 0 {
		c.Audience = def.Audience
	}
	if strings.TrimSpace(c.BaselineAuthority) == "" {
		c.BaselineAuthority = def.BaselineAuthority
	}
	c.BaselineAuthority = CanonicalAuthority(c.BaselineAuthority)
	if c.KnownAuthorities == nil {
		c.KnownAuthorities = def.KnownAuthorities
	}
	if c.ProtectedUsernames == nil {
		c.ProtectedUsernames = def.ProtectedUsernames
	}

	known := make([]string, 0, len(c.KnownAuthorities)+1)
	for _, name := range append(slices.Clone(c.KnownAuthorities), c.BaselineAuthority) {
		name = CanonicalAuthority(name)
		if name != "" && !slices.Contains(known, name) {
			known = append(known, name)
		}
	}
	c.KnownAuthorities = known

	protected := make([]string, 0, len(c.ProtectedUsernames))
	for _, name := range c.ProtectedUsernames {
		if name = CanonicalUsername(name); name != "" {
			protected = append(protected, name)
		}
	}
	c.ProtectedUsernames = protected
	return c
}

// Validate checks the settings needed to issue tokens.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.TokenExpiration, validation.Min(1)),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.BcryptCost, validation.Min(0), validation.Max(31)),
	)
}

// IsProtected reports whether username can never be deleted.
func (c Config) IsProtected(username string) bool {
	return slices.Contains(c.ProtectedUsernames, CanonicalUsername(username))
}

func (c Config) GetSigningKey() string {
	return c.SigningKey
}

func (c Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c Config) GetIssuer() string {
	return c.Issuer
}

func (c Config) GetAudience() []string {
	return c.Audience
}
