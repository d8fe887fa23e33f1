package server

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator.
type CustomValidator struct {
	v *validator.Validate
}

// NewValidator creates a CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{v: validator.New()}
}

// Validate performs struct validation.
func (cv *CustomValidator) Validate(i any) error {
	return cv.v.Struct(i)
}
