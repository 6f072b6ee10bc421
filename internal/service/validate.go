package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rules for fields checked one at a time. They match the tags on the request DTOs.
const (
	emailRule    = "required,email,max=120"
	usernameRule = "required,notblank,max=120"
	passwordRule = "required"
	avatarRule   = "max=255"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// checkStruct validates a request DTO by its validate tags.
func checkStruct(req any) error {
	return validationError("", validate.Struct(req))
}

func checkVar(field string, value any, rules string) error {
	return validationError(field, validate.Var(value, rules))
}

// validationError turns the first failed rule into a ValidationError with a
// message naming the field.
func validationError(field string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fail(ErrValidation, "invalid input")
	}

	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required", "notblank":
		return fail(ErrValidation, "%s is required", field)
	case "max":
		return fail(ErrValidation, "%s is too long", field)
	case "http_url":
		return fail(ErrValidation, "%s must be an absolute http(s) URL", field)
	default:
		return fail(ErrValidation, "%s is malformed", field)
	}
}
