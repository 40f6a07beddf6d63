package serverutils

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Categorical error codes. Clients branch on the code; the message text is
// advisory only.
const (
	CodeInvalidType   = "invalid-type"
	CodeTooShort      = "too-short"
	CodeTooLong       = "too-long"
	CodeTooSmall      = "too-small"
	CodeTooLarge      = "too-large"
	CodeInvalidFormat = "invalid-format"
	CodeInvalidEnum   = "invalid-enum"
	CodeRequired      = "required"
	CodeCustom        = "custom"
)

// ErrorDetail is one field-scoped validation violation.
type ErrorDetail struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError collects every violation found in one request. It renders
// as "[<code>] <field>: <message>" entries joined with "; ".
type ValidationError struct {
	details []ErrorDetail
}

func NewValidationError(details ...ErrorDetail) *ValidationError {
	return &ValidationError{details: details}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.details))
	for _, d := range e.details {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", d.Code, d.Field, d.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) ToErrorDetails() []ErrorDetail {
	return e.details
}

// Sanitizer normalizes raw request input (trimming, etc.) before the rules
// run. Validation output is therefore already sanitized and must not be
// re-trimmed downstream.
type Sanitizer interface {
	Sanitize()
}

// CrossValidator reports violations that span more than one field.
type CrossValidator interface {
	CrossValidate() []ErrorDetail
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateRequest sanitizes req, runs every rule and collects all
// violations; it never stops at the first one. req must be a pointer so
// sanitization sticks.
func ValidateRequest(req any) error {
	if s, ok := req.(Sanitizer); ok {
		s.Sanitize()
	}

	var details []ErrorDetail

	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		switch typed := err.(type) {
		case validator.ValidationErrors:
			fieldErrors = typed
		case *validator.InvalidValidationError:
			return NewValidationError(ErrorDetail{
				Field:   "request",
				Code:    CodeInvalidType,
				Message: "request has an unexpected shape",
			})
		default:
			return err
		}

		for _, fe := range fieldErrors {
			details = append(details, toErrorDetail(fe))
		}
	}

	if cv, ok := req.(CrossValidator); ok {
		details = append(details, cv.CrossValidate()...)
	}

	if len(details) > 0 {
		return NewValidationError(details...)
	}
	return nil
}

func toErrorDetail(fe validator.FieldError) ErrorDetail {
	d := ErrorDetail{Field: fe.Field(), Value: fe.Value()}

	switch fe.Tag() {
	case "required":
		d.Code = CodeRequired
		d.Message = "is required"
	case "max":
		if fe.Kind() == reflect.String {
			d.Code = CodeTooLong
			d.Message = fmt.Sprintf("must be at most %s characters", fe.Param())
		} else {
			d.Code = CodeTooLarge
			d.Message = fmt.Sprintf("must be at most %s", fe.Param())
		}
	case "min":
		if fe.Kind() == reflect.String {
			d.Code = CodeTooShort
			d.Message = fmt.Sprintf("must be at least %s characters", fe.Param())
		} else {
			d.Code = CodeTooSmall
			d.Message = fmt.Sprintf("must be at least %s", fe.Param())
		}
	case "oneof":
		d.Code = CodeInvalidEnum
		d.Message = fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid", "uuid4", "email", "url", "datetime":
		d.Code = CodeInvalidFormat
		d.Message = fmt.Sprintf("is not a valid %s", fe.Tag())
	default:
		d.Code = CodeCustom
		d.Message = fmt.Sprintf("failed rule %q", fe.Tag())
	}
	return d
}
