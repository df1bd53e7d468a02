package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/houseplants-app/plants-api/interfaces"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput reports missing required fields as ErrValidation.
func validateInput(v *validator.Validate, in any) error {
	if in == nil {
		return fmt.Errorf("%w: empty body", interfaces.ErrValidation)
	}
	if rv := reflect.ValueOf(in); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Errorf("%w: empty body", interfaces.ErrValidation)
	}

	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return fmt.Errorf("%w: missing or invalid %s", interfaces.ErrValidation, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: %v", interfaces.ErrValidation, err)
}
