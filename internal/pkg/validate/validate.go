package validate

import (
	"fmt"
	"strings"

	"github.com/credential-relay/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New()

func init() {
	_ = v.RegisterValidation("subject_type", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseSubjectType(fl.Field().String())
		return ok
	})
	// numeric code of at most six digits; shorter codes are zero-padded later
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || len(s) > 6 {
			return false
		}
		return strings.Trim(s, "0123456789") == ""
	})
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
