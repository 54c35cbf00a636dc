package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// Authorities are granted with the baseline authority. The user is not
	// created when any of them is unknown.
	Authorities []string `json:"authorities,omitempty"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler executes RegisterUserMessage against a Directory.
type RegisterUserHandler struct {
	directory *Directory
	timeout   time.Duration
}

func NewRegisterUserHandler(directory *Directory) *RegisterUserHandler {
	return &RegisterUserHandler{directory: directory, timeout: 10 * time.Second}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	_, err := h.directory.Register(ctx, RegisterUserInput{
		Username:    event.Username,
		Email:       event.Email,
		Password:    event.Password,
		Authorities: event.Authorities,
	})
	return err
}
