package rest

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
)

var (
	lettersOnly      = regexp.MustCompile(`^[a-zA-Z]+$`)
	passwordSpecials = "@#$%^&+=!?"
)

// RegisterPayload is the registration request body
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required,
			validation.Match(lettersOnly).Error("must contain letters only"),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 20),
			validation.By(ValidatePasswordStrength),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// AuthenticatePayload is the login request body
type AuthenticatePayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r AuthenticatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// AuthorityPayload names an authority to assign or remove
type AuthorityPayload struct {
	Authority string `json:"authority"`
}

func (r AuthorityPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Authority, validation.Required, validation.Length(1, 100)),
	)
}

// IDPayload carries a single media id
type IDPayload struct {
	ID *int64 `json:"id"`
}

func (r IDPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.NotNil),
	)
}

// IDsPayload carries a batch of media ids
type IDsPayload struct {
	IDs []int64 `json:"ids"`
}

func (r IDsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required),
	)
}

// ValidatePasswordStrength requires a digit, a lower case letter, an upper
// case letter and one of the special characters.
func ValidatePasswordStrength(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	var digit, lower, upper, special bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		case r == ' ' || r == '\t':
			return errors.New("must not contain whitespace")
		}
	}

	switch {
	case !digit:
		return errors.New("must contain at least one digit")
	case !lower:
		return errors.New("must contain at least one lower case letter")
	case !upper:
		return errors.New("must contain at least one upper case letter")
	case !special:
		return errors.New("must contain at least one of " + passwordSpecials)
	}
	return nil
}

// validationError turns ozzo errors into an InvalidInput error with a
// field map in its metadata.
func validationError(err error) error {
	if err == nil {
		return nil
	}

	fields := map[string]any{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}
	return accounts.ErrInvalidInput("invalid payload: "+err.Error(), fields)
}
