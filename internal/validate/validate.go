package validate

import "github.com/go-playground/validator/v10"

// Single shared validator; validator instances cache struct metadata, so one
// per process is the intended usage.
var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	return v.Struct(s)
}
