// Package validation wraps go-playground/validator for the client's option
// structs and turns its errors into field-level messages.
package validation

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HTTPMethodTag is the custom tag accepted by the request options.
const HTTPMethodTag = "http_method"

var allowedMethods = map[string]struct{}{
	nethttp.MethodGet:     {},
	nethttp.MethodPost:    {},
	nethttp.MethodPut:     {},
	nethttp.MethodPatch:   {},
	nethttp.MethodDelete:  {},
	nethttp.MethodHead:    {},
	nethttp.MethodOptions: {},
}

// Validator validates structs using `validate` tags.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom tags registered. Field names in
// errors come from the `json` tag when present, otherwise the lowercased Go
// field name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation(HTTPMethodTag, validateHTTPMethod)
	return &Validator{validate: v}
}

// Validate checks s and returns an *Error listing every failed field.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return newError(fieldErrs)
	}
	return err
}

// Error lists the fields that failed validation.
type Error struct {
	Fields []FieldError
}

// FieldError describes one failed field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func newError(errs validator.ValidationErrors) *Error {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return &Error{Fields: fields}
}

func (e *Error) Error() string {
	switch len(e.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + e.Fields[0].Message
	default:
		return fmt.Sprintf("validation failed: %d errors", len(e.Fields))
	}
}

// First returns the first failed field, if any.
func (e *Error) First() (FieldError, bool) {
	if len(e.Fields) == 0 {
		return FieldError{}, false
	}
	return e.Fields[0], true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case HTTPMethodTag:
		return fmt.Sprintf("%s %q is not a supported HTTP method", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())
	}
}

func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

func validateHTTPMethod(fl validator.FieldLevel) bool {
	_, ok := allowedMethods[strings.ToUpper(fl.Field().String())]
	return ok
}
