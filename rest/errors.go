package rest

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

var errMissingToken = errors.New("missing bearer token", errors.CategoryAuth).
	WithTextCode("UNAUTHORIZED").
	WithCode(errors.CodeUnauthorized)

// ErrorHandler maps errors to HTTP responses. Not found errors become 404,
// input and business rule errors 400.
func ErrorHandler(logger accounts.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := StatusFor(richErr)
		if status >= fiber.StatusInternalServerError {
			logger.Error(
				"request failed",
				"path", c.OriginalURL(),
				"error", err,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			return c.Status(status).JSON(ErrorResponse{
				Error: "An unexpected server error occurred",
			})
		}

		logger.Debug("request rejected", "path", c.OriginalURL(), "status", status, "error", richErr.Message)

		res := ErrorResponse{
			Error: richErr.Message,
			Code:  richErr.TextCode,
		}
		if richErr.Category == errors.CategoryValidation && len(richErr.Metadata) > 0 {
			res.Details = richErr.Metadata
		}
		return c.Status(status).JSON(res)
	}
}

// StatusFor returns the HTTP status of a rich error.
func StatusFor(richErr *errors.Error) int {
	if richErr == nil {
		return fiber.StatusInternalServerError
	}

	switch richErr.Code {
	case errors.CodeNotFound:
		return fiber.StatusNotFound
	case errors.CodeBadRequest:
		return fiber.StatusBadRequest
	case errors.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case errors.CodeForbidden:
		return fiber.StatusForbidden
	case errors.CodeConflict:
		return fiber.StatusConflict
	}

	switch richErr.Category {
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
