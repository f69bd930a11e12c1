package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens binding errors into field -> message,
// so the API can report every bad field at once.
func ProcessValidationErrors(err error) map[string]string {
	errors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors[fieldError.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldError.Tag())
		}
	}
	return errors
}

func NewTrue() *bool {
	b := true
	return &b
}
