package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance that reports JSON field names
	Validate *validator.Validate
)

func init() {
	Validate = New("json")
}

// New creates a validator that names fields after the given struct tag and knows the custom rules
func New(tagName string) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(tagName), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("ratelimit", validateRate); err != nil {
		panic(fmt.Sprintf("failed to register ratelimit validator: %v", err))
	}
	return v
}

// validateRate validates a limiter rate such as "10-M" or "1000-H"
func validateRate(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// Describe turns validator errors into a readable error listing every failing field
func Describe(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s is required", fe.Field()))
		case "url":
			errs = append(errs, fmt.Errorf("%s must be a valid URL", fe.Field()))
		case "email":
			errs = append(errs, fmt.Errorf("%s must be a valid email address", fe.Field()))
		case "ratelimit":
			errs = append(errs, fmt.Errorf("%s must be a rate such as 10-M, got %q", fe.Field(), fe.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.Join(errs...)
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
