package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers further down the
// chain into the response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message := classify(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// ErrorHandler is the fiber.Config hook for errors that escape middleware.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code, message := classify(err)
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fieldErrs := make([]string, 0, len(ve))
		for _, f := range ve {
			fieldErrs = append(fieldErrs, fmt.Sprintf("%s failed on %s", f.Field(), f.Tag()))
		}
		return fiber.StatusBadRequest, strings.Join(fieldErrs, "; ")
	}

	return fiber.StatusInternalServerError, err.Error()
}
