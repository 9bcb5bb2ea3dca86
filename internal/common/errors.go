package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried by AppError.
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeExtraction    = "EXTRACTION_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeTimeout       = "TIMEOUT_ERROR"
	CodeTransport     = "TRANSPORT_ERROR"
	CodeTypeMismatch  = "TYPE_MISMATCH"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
	ErrConfiguration = errors.New("component not configured")
	ErrExtraction    = errors.New("extraction failed")
	ErrValidation    = errors.New("validation failed")
	ErrTimeout       = errors.New("operation timed out")
	ErrTransport     = errors.New("transport failure")
	ErrTypeMismatch  = errors.New("unsupported document type")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func ConfigurationError(component string) *AppError {
	return NewAppError(CodeConfiguration, component+" is not configured", ErrConfiguration)
}

func ExtractionError(message string, cause error) *AppError {
	return NewAppError(CodeExtraction, message, joinCause(ErrExtraction, cause))
}

func ValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, ErrValidation)
}

func TimeoutError(message string) *AppError {
	return NewAppError(CodeTimeout, message, ErrTimeout)
}

func TransportError(message string, cause error) *AppError {
	return NewAppError(CodeTransport, message, joinCause(ErrTransport, cause))
}

func TypeMismatchError(mimeType string) *AppError {
	return NewAppError(CodeTypeMismatch, fmt.Sprintf("only PDF documents are supported, got %q", mimeType), ErrTypeMismatch)
}

func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the AppError code anywhere in err's chain, or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage is the human-readable string surfaced in ExtractionResult.Error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// GRPCError maps an AppError code onto a gRPC status.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	msg := UserMessage(err)
	switch CodeOf(err) {
	case CodeTypeMismatch:
		return InvalidArgumentError(msg)
	case CodeValidation, CodeExtraction:
		return status.Error(codes.FailedPrecondition, msg)
	case CodeTimeout:
		return status.Error(codes.DeadlineExceeded, msg)
	case CodeTransport:
		return status.Error(codes.Unavailable, msg)
	case CodeConfiguration:
		return status.Error(codes.Unimplemented, msg)
	}
	if errors.Is(err, ErrNotFound) {
		return NotFoundError(msg)
	}
	return InternalError(msg)
}
