package errors

import "fmt"

// Category groups error codes.
type Category string

const (
	CategoryUsage      Category = "usage"
	CategoryValidation Category = "validation"
	CategoryStorage    Category = "storage"
	CategoryTransport  Category = "transport"
	CategoryConfig     Category = "config"
)

// ThemeError is a coded error with an optional explanation and hint.
type ThemeError struct {
	// Code is a registered identifier such as "T001".
	Code string

	Category Category

	// Message is a one-line description.
	Message string

	// Detail explains the error further.
	Detail string

	// Suggestion hints at a fix.
	Suggestion string

	// Wrapped is the underlying cause.
	Wrapped error
}

// Error implements the error interface.
func (e *ThemeError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is and errors.As.
func (e *ThemeError) Unwrap() error {
	return e.Wrapped
}

// Is matches another ThemeError with the same code.
func (e *ThemeError) Is(target error) bool {
	t, ok := target.(*ThemeError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithDetail sets Detail.
func (e *ThemeError) WithDetail(d string) *ThemeError {
	e.Detail = d
	return e
}

// WithSuggestion sets Suggestion.
func (e *ThemeError) WithSuggestion(s string) *ThemeError {
	e.Suggestion = s
	return e
}

// Wrap sets the underlying cause.
func (e *ThemeError) Wrap(err error) *ThemeError {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code.
func New(code string) *ThemeError {
	tmpl, ok := registry[code]
	if !ok {
		return &ThemeError{Code: code, Message: "Unknown error"}
	}
	return &ThemeError{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *ThemeError {
	return &ThemeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is a ThemeError.
func FromError(err error, code string) *ThemeError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*ThemeError); ok {
		return te
	}
	return New(code).Wrap(err)
}
