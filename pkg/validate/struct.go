package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates the struct tags of s.
func Struct(s any) error {
	return v.Struct(s)
}

// Details flattens a validation error into field -> failed rule.
func Details(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			details[fe.Namespace()] = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
			continue
		}
		details[fe.Namespace()] = fmt.Sprintf("failed on '%s'", fe.Tag())
	}
	return details
}
