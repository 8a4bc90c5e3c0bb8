package validation

import (
	"reflect"
	"strings"

	"boutique/internal/users"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports json field names and knows the
// phone_fr rule.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone_fr", func(fl validator.FieldLevel) bool {
		return users.IsFrenchPhone(fl.Field().String())
	})

	return v
}
