package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"material-search-be/pkg/search"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/search/orchestrator"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so controllers
// and services can return bare errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, search.ErrInvalidQuery):
			code = fiber.StatusBadRequest
			message = err.Error()
		case errors.Is(err, access.ErrPermissionDenied):
			code = fiber.StatusForbidden
			message = err.Error()
		case errors.Is(err, orchestrator.ErrAllBackendsFailed):
			code = fiber.StatusBadGateway
			message = err.Error()
		}

		return ctx.Status(code).JSON(ErrorBody{
			Code:    code,
			Message: message,
		})
	}
}
