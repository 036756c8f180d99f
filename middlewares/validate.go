package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ErrInvalidBody is returned for request bodies that cannot be parsed;
// ErrorHandler renders it with the same fail envelope as field errors.
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// BindAndValidate parses the request body into dst and validates it.
// Returns ErrInvalidBody for parse errors and a validator.ValidationErrors for validation issues.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return ErrInvalidBody
	}
	return validate.Struct(dst)
}

// ValidateStruct validates any struct value using the shared validator instance.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
