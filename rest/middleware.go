package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
)

const claimsKey = "accounts.claims"

// RequireToken validates the bearer token and stores its claims.
func (h *Controller) RequireToken(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return errMissingToken
	}

	claims, err := h.Auth.Session(header)
	if err != nil {
		return err
	}

	c.Locals(claimsKey, claims)
	c.SetUserContext(accounts.WithClaimsContext(c.UserContext(), claims))
	return c.Next()
}

// RequireAuthority passes when the token holds any of names.
func (h *Controller) RequireAuthority(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		for _, name := range names {
			if claims.HasAuthority(name) {
				return c.Next()
			}
		}
		return accounts.ErrForbidden
	}
}

// RequireOwner passes when the token was issued to the :username param.
func (h *Controller) RequireOwner(c *fiber.Ctx) error {
	if err := h.Auth.CheckOwner(Claims(c), c.Params("username")); err != nil {
		return err
	}
	return c.Next()
}

// Claims returns the claims stored by RequireToken.
func Claims(c *fiber.Ctx) *accounts.AccountClaims {
	claims, _ := c.Locals(claimsKey).(*accounts.AccountClaims)
	return claims
}

func chain(middleware []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, handler)
}
