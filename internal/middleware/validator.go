package middleware

import (
	"github.com/go-playground/validator/v10"
)

// Validator plugs go-playground/validator into echo's Context.Validate
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the request validator
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the validate tags of i
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
