package accounts

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccountClaims are the JWT claims issued at login. The subject is the
// canonical username.
type AccountClaims struct {
	jwt.RegisteredClaims
	UID         string   `json:"uid,omitempty"`
	Email       string   `json:"email,omitempty"`
	Authorities []string `json:"authorities"`
}

// Username returns the canonical username carried in the subject.
func (c *AccountClaims) Username() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// HasAuthority checks the authorities claim, ignoring case.
func (c *AccountClaims) HasAuthority(name string) bool {
	if c == nil {
		return false
	}
	return HasAuthority(c.Authorities, name)
}

// IsOwner reports whether the token was issued to username.
func (c *AccountClaims) IsOwner(username string) bool {
	if c == nil || c.Subject == "" {
		return false
	}
	return strings.EqualFold(c.Subject, CanonicalUsername(username))
}
