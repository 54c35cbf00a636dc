// Package rest exposes the account directory over HTTP.
package rest

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
)

const batchSuffix = "-list"

// Controller serves the /users routes
type Controller struct {
	Directory *accounts.Directory
	Auth      *accounts.Authenticator
	Logger    accounts.Logger
}

func NewController(directory *accounts.Directory, auth *accounts.Authenticator, logger accounts.Logger) *Controller {
	if logger == nil {
		logger = accounts.DefaultLogger()
	}
	return &Controller{
		Directory: directory,
		Auth:      auth,
		Logger:    logger,
	}
}

// NewApp returns a fiber app with the controller routes and error handler.
func NewApp(h *Controller) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(h.Logger),
		DisableStartupMessage: true,
	})
	h.Register(app)
	return app
}

// Register mounts the routes. Owner routes live under /users/auth and
// require a token issued to the path username. Every other protected
// route requires the admin authority.
func (h *Controller) Register(app fiber.Router) {
	users := app.Group("/users")

	users.Post("/register", h.RegisterUser)
	users.Post("/authenticate", h.Authenticate)

	owner := []fiber.Handler{
		h.RequireToken,
		h.RequireAuthority(accounts.AuthorityUser, accounts.AuthorityAdmin),
		h.RequireOwner,
	}
	users.Get("/auth/:username", chain(owner, h.GetUser)...)
	users.Put("/auth/:username/:category/:list", chain(owner, h.AssignToList)...)
	users.Delete("/auth/:username/:category/:list", chain(owner, h.RemoveFromList)...)

	admin := []fiber.Handler{
		h.RequireToken,
		h.RequireAuthority(accounts.AuthorityAdmin),
	}
	users.Get("/", chain(admin, h.ListUsers)...)
	users.Get("/search", chain(admin, h.SearchUsers)...)
	users.Get("/:username", chain(admin, h.GetUser)...)
	users.Delete("/:username", chain(admin, h.DeleteUser)...)
	users.Get("/:username/authorities", chain(admin, h.GetAuthorities)...)
	users.Put("/:username/authorities", chain(admin, h.AssignAuthority)...)
	users.Delete("/:username/authorities", chain(admin, h.RemoveAuthority)...)
	users.Put("/:username/:category/:list", chain(admin, h.AssignToList)...)
	users.Delete("/:username/:category/:list", chain(admin, h.RemoveFromList)...)
}

func (h *Controller) RegisterUser(c *fiber.Ctx) error {
	payload := new(RegisterPayload)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Error("register user parse payload", "error", err)
		return accounts.ErrInvalidInput("invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	user, err := h.Directory.Register(c.UserContext(), accounts.RegisterUserInput{
		Username: payload.Username,
		Password: payload.Password,
		Email:    payload.Email,
	})
	if err != nil {
		return err
	}

	c.Location("/users/" + url.PathEscape(user.Username))
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Controller) Authenticate(c *fiber.Ctx) error {
	payload := new(AuthenticatePayload)
	if err := c.BodyParser(payload); err != nil {
		return accounts.ErrInvalidInput("invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	token, err := h.Auth.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"jwt": token})
}

func (h *Controller) ListUsers(c *fiber.Ctx) error {
	users, err := h.Directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *Controller) SearchUsers(c *fiber.Ctx) error {
	filter := accounts.UserFilter{}
	if v := strings.TrimSpace(c.Query("username")); v != "" {
		filter.Username = &v
	}
	if v := strings.TrimSpace(c.Query("email")); v != "" {
		filter.Email = &v
	}

	users, err := h.Directory.SearchUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *Controller) GetUser(c *fiber.Ctx) error {
	user, err := h.Directory.GetUser(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Controller) DeleteUser(c *fiber.Ctx) error {
	msg, err := h.Directory.DeleteUser(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msg})
}

func (h *Controller) GetAuthorities(c *fiber.Ctx) error {
	authorities, err := h.Directory.GetUserAuthorities(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"authorities": authorities})
}

func (h *Controller) AssignAuthority(c *fiber.Ctx) error {
	payload, err := parseAuthority(c)
	if err != nil {
		return err
	}

	user, err := h.Directory.AssignAuthority(c.UserContext(), c.Params("username"), payload.Authority)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *Controller) RemoveAuthority(c *fiber.Ctx) error {
	payload, err := parseAuthority(c)
	if err != nil {
		return err
	}

	msg, err := h.Directory.RemoveAuthority(c.UserContext(), c.Params("username"), payload.Authority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msg})
}

func (h *Controller) AssignToList(c *fiber.Ctx) error {
	return h.mutateList(c, true)
}

func (h *Controller) RemoveFromList(c *fiber.Ctx) error {
	return h.mutateList(c, false)
}

func (h *Controller) mutateList(c *fiber.Ctx, add bool) error {
	username := c.Params("username")

	category, err := accounts.ParseCategory(c.Params("category"))
	if err != nil {
		return err
	}

	list := c.Params("list")
	batch := strings.HasSuffix(list, batchSuffix)
	kind, err := accounts.ParseListKind(strings.TrimSuffix(list, batchSuffix))
	if err != nil {
		return err
	}

	var user *accounts.UserDTO
	if batch {
		payload := new(IDsPayload)
		if err := c.BodyParser(payload); err != nil {
			return accounts.ErrInvalidInput("invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return validationError(err)
		}
		if add {
			user, err = h.Directory.AssignManyToList(c.UserContext(), username, payload.IDs, kind, category)
		} else {
			user, err = h.Directory.RemoveManyFromList(c.UserContext(), username, payload.IDs, kind, category)
		}
	} else {
		payload := new(IDPayload)
		if err := c.BodyParser(payload); err != nil {
			return accounts.ErrInvalidInput("invalid request body")
		}
		if err := payload.Validate(); err != nil {
			return validationError(err)
		}
		req := accounts.ListMembershipRequest{
			Username: username,
			ID:       *payload.ID,
			Kind:     kind,
			Category: category,
		}
		if add {
			user, err = h.Directory.AssignToList(c.UserContext(), req)
		} else {
			user, err = h.Directory.RemoveFromList(c.UserContext(), req)
		}
	}
	if err != nil {
		return err
	}

	return c.JSON(user)
}

func parseAuthority(c *fiber.Ctx) (*AuthorityPayload, error) {
	payload := new(AuthorityPayload)
	if err := c.BodyParser(payload); err != nil {
		return nil, accounts.ErrInvalidInput("invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return nil, validationError(err)
	}
	return payload, nil
}
