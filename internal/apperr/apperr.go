package apperr

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeAuthentication Code = "AUTHENTICATION_FAILURE"
	CodeNotFound       Code = "NOT_FOUND"
	CodeInvariant      Code = "INVARIANT_VIOLATION"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeGateway        Code = "GATEWAY_FAILURE"
	CodePersistence    Code = "PERSISTENCE_FAILURE"
)

type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeAuthentication: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "invalid username or password"},
	CodeNotFound:       {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeInvariant:      {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "operation rejected"},
	CodeValidation:     {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed"},
	CodeGateway:        {HTTPStatus: http.StatusBadGateway, PublicMessage: "error processing request"},
	CodePersistence:    {HTTPStatus: http.StatusInternalServerError, PublicMessage: "storage error"},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodePersistence]
}

// Error is a classified failure whose message is safe to show to the user.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodePersistence
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the classification of err. Unclassified errors are
// persistence faults.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodePersistence
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Classify keeps classified errors as they are and wraps anything else as a
// persistence fault.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return Wrap(CodePersistence, err, message)
}

// MessageOf returns the user-facing message of err, falling back to the
// error text for unclassified errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if typed := As(err); typed != nil {
		return typed.message
	}
	return err.Error()
}
