package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata.
var validate = validator.New()

// ValidateConfig runs struct-tag validation on a configuration snapshot and
// maps failures to EINVALID. Malformed configuration fails fast rather than
// being coerced downstream.
func ValidateConfig(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Internal(err, "domain.validate_config", "configuration validation failed")
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return Invalid("domain.validate_config", "invalid configuration: "+strings.Join(fields, ", "))
}
