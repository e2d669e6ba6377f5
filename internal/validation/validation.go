// Package validation binds and validates request payloads.
//
// Payload types carry go-playground/validator tags and implement
// Validatable. The registry-specific tags (taxid, postalcode, regioncode,
// sex) are registered once on the shared validator returned by Validator.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/civil-registry/internal/lib/taxid"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator with the registry tags
// registered. Field names in errors follow the json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Errors name fields as the client sent them: the json key, or
		// the query or path parameter for fields that are not in the body.
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "query", "param"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})

		mustRegister(v, "taxid", func(fl validator.FieldLevel) bool {
			return taxid.IsValid(fl.Field().String())
		})
		mustRegister(v, "postalcode", func(fl validator.FieldLevel) bool {
			return len(model.NormalizePostalCode(fl.Field().String())) == model.PostalCodeLength
		})
		mustRegister(v, "regioncode", func(fl validator.FieldLevel) bool {
			return model.RegionCode(fl.Field().String()).IsValid()
		})
		mustRegister(v, "sex", func(fl validator.FieldLevel) bool {
			return model.Sex(fl.Field().String()).IsValid()
		})

		instance = v
	})
	return instance
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Validator().Struct(s)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}
