package serverutils

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

func ErrorHandlerMiddleware(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("stack", string(debug.Stack())).
					Msgf("panic recovered: %v", r)
				_ = c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(
					fiber.StatusInternalServerError, fmt.Sprintf("%v", r),
				))
			}
		}()

		err := c.Next()
		if err == nil {
			return nil
		}

		// Not-found is an expected outcome, never logged as an error.
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
		}
		if errors.Is(err, ErrStoreClosed) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(fiber.StatusServiceUnavailable, err.Error()))
		}
		if errors.Is(err, ErrBadRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, err.Error()))
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse(ve.ToErrorDetails()))
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return c.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(
			fiber.StatusInternalServerError, ErrInternal.Error(),
		))
	}
}
