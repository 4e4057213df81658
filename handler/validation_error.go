package handler

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps field names to their validation messages.
type ValidationError map[string][]string

// NewValidationError returns an empty ValidationError.
func NewValidationError() ValidationError {
	return ValidationError{}
}

// Add appends a message for field.
func (e ValidationError) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether field has at least one message.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

// Get returns the first message for field.
func (e ValidationError) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// IsEmpty reports whether no messages were added.
func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Error returns the first message of every field in field order.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "Validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if msg := e.Get(f); msg != "" {
			parts = append(parts, f+": "+msg)
		}
	}
	return "validation error: " + strings.Join(parts, "; ")
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate runs `validate` struct tags on v and converts failures into a
// ValidationError keyed by JSON field names.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), validationMessage(fe))
	}
	return verr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}
