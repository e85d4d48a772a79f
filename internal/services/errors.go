package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hospital-admin-server/internal/store"
)

// ErrorKind classifies a DomainError for the presentation layer.
type ErrorKind string

const (
	KindInvalid      ErrorKind = "invalid"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindInternal     ErrorKind = "internal"
)

// DomainError is a service failure carrying a message safe to show users.
type DomainError struct {
	Op      string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func newDomainError(op string, kind ErrorKind, message string) *DomainError {
	return &DomainError{Op: op, Kind: kind, Message: message}
}

// storageFailure turns a store error into a DomainError. notFound is the
// message used when the row is missing.
func storageFailure(op, notFound, message string, err error) error {
	kind := KindInternal
	switch {
	case store.IsNotFound(err):
		kind, message = KindNotFound, notFound
	case store.IsConstraint(err):
		kind = KindConflict
	}
	return &DomainError{Op: op, Kind: kind, Message: message, Err: err}
}

// ValidationError reports bad input. It is returned before storage is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// KindOf returns the kind of a service error; validation errors are
// KindInvalid and anything unrecognised is KindInternal.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindInvalid
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Message returns the user facing text of a service error.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "An unexpected error occurred"
}

// fromValidator converts the first failing field into a ValidationError.
func fromValidator(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return invalid("", err.Error())
	}
	e := errs[0]
	return invalid(e.Field(), describe(e))
}

func describe(e validator.FieldError) string {
	name := label(e.Field())
	switch e.Tag() {
	case "required":
		return name + " is required"
	case "email", "mail":
		return "Invalid email format"
	case "phone":
		return "Phone number must be between 10 and 15 digits"
	case "ymd":
		return name + " must be in YYYY-MM-DD format"
	case "hhmm":
		return name + " must be in HH:MM format"
	case "bloodgroup":
		return "Invalid blood group. Must be one of: " + strings.Join(BloodGroups, ", ")
	case "oneof":
		return name + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", name, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", name, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", name, e.Param())
	}
	return name + " is invalid"
}

// label turns a json field name into "Field name".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return "Field"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
