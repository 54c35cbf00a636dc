package accounts

import "strings"

const (
	// AuthorityUser is the baseline authority granted at registration.
	AuthorityUser = "ROLE_USER"
	// AuthorityAdmin grants access to the directory administration routes.
	AuthorityAdmin = "ROLE_ADMIN"
)

// authorityCatalog holds the names that can be granted regardless of
// whether any user holds them yet.
type authorityCatalog map[string]struct{}

func newAuthorityCatalog(names ...string) authorityCatalog {
	c := authorityCatalog{}
	for _, name := range names {
		name = CanonicalAuthority(name)
		if name == "" {
			continue
		}
		c[name] = struct{}{}
	}
	return c
}

func (c authorityCatalog) Contains(name string) bool {
	_, ok := c[CanonicalAuthority(name)]
	return ok
}

// HasAuthority checks a list of authority names, ignoring case.
func HasAuthority(authorities []string, name string) bool {
	for _, a := range authorities {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
