package config

import (
	"errors"
	"fmt"
	"net/netip"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wesleywu/winroute/internal/logger"
)

// ValidationError describes one invalid field
type ValidationError struct {
	FieldPath string
	Message   string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("route_destination", validateRouteDestination); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
		return logger.ValidLevel(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	// Report fields by their file name rather than the Go name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"toml", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// validateRouteDestination accepts a CIDR prefix or a bare address
func validateRouteDestination(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if _, err := netip.ParsePrefix(value); err == nil {
		return true
	}
	_, err := netip.ParseAddr(value)
	return err == nil
}

func convertValidatorErrors(err error, fieldPrefix string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return ValidationErrors{{FieldPath: fieldPrefix, Message: err.Error()}}
	}
	for _, e := range validatorErrs {
		// Namespace is "Struct.field[0].sub"; drop the struct name.
		fieldPath := e.Namespace()
		if _, rest, ok := strings.Cut(fieldPath, "."); ok {
			fieldPath = rest
		}
		if fieldPrefix != "" {
			fieldPath = fieldPrefix + "." + fieldPath
		}
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: fieldPath,
			Message:   validationMessage(e),
		})
	}
	return validationErrors
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "ip":
		return fmt.Sprintf("invalid IP address %q", e.Value())
	case "log_level":
		return fmt.Sprintf("unknown log level %q, want debug, info, warn or error", e.Value())
	case "route_destination":
		return fmt.Sprintf("invalid destination %q, want CIDR or address", e.Value())
	default:
		return fmt.Sprintf("failed on '%s' validation", e.Tag())
	}
}
