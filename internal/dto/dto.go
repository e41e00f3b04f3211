package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/litigo/ediscovery-api/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// A Bates prefix must survive sanitization with at least one character.
	_ = v.RegisterValidation("bates_prefix", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return true
			}
		}
		return false
	})
	return v
}

// Validate checks a request struct and converts field failures into the
// shared validation error.
func Validate(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		if len(fields) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "invalid fields: "+strings.Join(fields, ", "))
		}
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return nil
}
