package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var claimNumberPattern = regexp.MustCompile(`^CLM-\d{4}-\d{4}$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report failures under the JSON field name the client sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("claimnumber", func(fl validator.FieldLevel) bool {
		return IsClaimNumber(strings.TrimSpace(fl.Field().String()))
	})
}

// IsClaimNumber reports whether s has the CLM-<year>-<4 digits> shape.
func IsClaimNumber(s string) bool {
	return claimNumberPattern.MatchString(s)
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["_"] = err.Error()
		return errors
	}
	for _, err := range verrs {
		errors[err.Field()] = err.Tag()
	}
	return errors
}
