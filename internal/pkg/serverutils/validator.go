package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks the validate tags of a parsed request body. The
// returned validator.ValidationErrors is turned into a 400 by the error handler.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
