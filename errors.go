package accounts

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUsernameNotFound = "USERNAME_NOT_FOUND"
	TextCodeRecordNotFound   = "RECORD_NOT_FOUND"
	TextCodeInvalidInput     = "INVALID_INPUT"
	TextCodeBadRequest       = "BAD_REQUEST"
	TextCodeIllegalArgument  = "ILLEGAL_ARGUMENT"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeForbidden        = "FORBIDDEN"
)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password can't be an empty string", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a token is past its expiration.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token can not be parsed or verified.
var ErrTokenMalformed = errors.New("token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a valid token lacks the required authority.
var ErrForbidden = errors.New("insufficient authority", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrUsernameNotFound reports a missing user aggregate.
func ErrUsernameNotFound(username string) error {
	return errors.New(fmt.Sprintf("username: %s not found", username), errors.CategoryNotFound).
		WithTextCode(TextCodeUsernameNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{
			"username": username,
		})
}

// ErrRecordNotFound reports an empty lookup or listing.
func ErrRecordNotFound(message string) error {
	return errors.New(message, errors.CategoryNotFound).
		WithTextCode(TextCodeRecordNotFound).
		WithCode(errors.CodeNotFound)
}

// ErrInvalidInput reports a field level or business input failure.
func ErrInvalidInput(message string, fields ...map[string]any) error {
	err := errors.New(message, errors.CategoryValidation).
		WithTextCode(TextCodeInvalidInput).
		WithCode(errors.CodeBadRequest)
	if len(fields) > 0 && fields[0] != nil {
		err = err.WithMetadata(fields[0])
	}
	return err
}

// ErrBadRequest reports a business rule violation.
func ErrBadRequest(message string) error {
	return errors.New(message, errors.CategoryBadInput).
		WithTextCode(TextCodeBadRequest).
		WithCode(errors.CodeBadRequest)
}

// ErrIllegalArgument reports an argument outside a closed set of values.
func ErrIllegalArgument(message string) error {
	return errors.New(message, errors.CategoryBadInput).
		WithTextCode(TextCodeIllegalArgument).
		WithCode(errors.CodeBadRequest)
}

func IsUsernameNotFound(err error) bool { return hasTextCode(err, TextCodeUsernameNotFound) }

func IsRecordNotFound(err error) bool { return hasTextCode(err, TextCodeRecordNotFound) }

func IsInvalidInput(err error) bool { return hasTextCode(err, TextCodeInvalidInput) }

func IsBadRequest(err error) bool { return hasTextCode(err, TextCodeBadRequest) }

func IsIllegalArgument(err error) bool { return hasTextCode(err, TextCodeIllegalArgument) }

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

func wrapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return err
	}
	return errors.Wrap(err, errors.CategoryInternal, message)
}
