package data

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "mautic-installer/internal/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)
)

// validatorInstance returns the shared validator. Field errors are keyed by
// the `key` struct tag so they line up with the CLI option names.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			if key := field.Tag.Get("key"); key != "" {
				return key
			}
			return field.Name
		})

		_ = v.RegisterValidation("db_identifier", func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("db_driver", func(fl validator.FieldLevel) bool {
			_, ok := DialectFor(fl.Field().String())
			return ok
		})

		_ = v.RegisterValidation("port", func(fl validator.FieldLevel) bool {
			port, err := strconv.Atoi(fl.Field().String())
			return err == nil && port > 0 && port <= 65535
		})

		_ = v.RegisterValidation("max_bytes", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= limit
		})

		validateInst = v
	})
	return validateInst
}

// validateStruct runs the validator and converts failures into FieldErrors.
func validateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.FieldErrors{"parameters": err.Error()}
	}

	fields := apperrors.FieldErrors{}
	for _, fe := range ves {
		fields.Add(fe.Field(), describe(fe))
	}
	return fields
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "port":
		return "must be a port number between 1 and 65535"
	case "max_bytes":
		return fmt.Sprintf("must be at most %s bytes long", fe.Param())
	case "db_identifier":
		return "may only contain letters, digits and underscores"
	case "db_driver":
		return fmt.Sprintf("unsupported driver %q", fe.Value())
	case "hostname_rfc1123", "ip", "hostname_rfc1123|ip":
		return "must be a hostname or IP address"
	case "printascii":
		return "may only contain printable ASCII characters"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
