// Package validation plugs go-playground/validator into echo's Validator
// hook so handlers can run the `validate` tags on bound request payloads
// (RegisterReq, BookReq, the borrow-request DTOs) with c.Validate.
package validation

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

// Validate satisfies echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}
