package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/pkg/roles"
)

// requestValidator lets handlers call c.Validate(req). Field names in messages
// are the JSON names the client sent.
type requestValidator struct {
	v *validator.Validate
}

func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	// "role" accepts any label roles.Parse understands.
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := roles.Parse(fl.Field().String())
		return err == nil
	})
	return &requestValidator{v: v}
}

// Validate wraps failures in domain.ErrValidation.
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	problems := make([]string, len(fields))
	for i, fe := range fields {
		problems[i] = describe(fe)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "min":
		return name + " must not be empty"
	case "role":
		return fmt.Sprintf("%s %q is not a known role", name, fe.Value())
	}
	return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
}
