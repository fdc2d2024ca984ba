package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/zsiec/abxclient/internal/abx/frame"
	"github.com/zsiec/abxclient/internal/abx/packet"
	"github.com/zsiec/abxclient/internal/abx/session"
)

// Kind classifies an error by how the run reacts to it.
type Kind string

const (
	KindDecode      Kind = "DECODE_ERROR"
	KindTruncated   Kind = "TRUNCATED_FRAME"
	KindConnection  Kind = "CONNECTION_ERROR"
	KindEndOfStream Kind = "CLEAN_END_OF_STREAM"
	KindStore       Kind = "STORE_ERROR"
	KindCanceled    Kind = "CANCELED"
	KindInternal    Kind = "INTERNAL_ERROR"
)

// Label returns the lower-case form used for metric labels.
func (k Kind) Label() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindTruncated:
		return "truncated"
	case KindConnection:
		return "connection"
	case KindEndOfStream:
		return "eof"
	case KindStore:
		return "store"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// AppError represents an application error with additional context.
type AppError struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap wraps an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// WrapStoreError wraps a packet store failure.
func WrapStoreError(err error, message string) *AppError {
	return Wrap(err, KindStore, message)
}

// WrapInternalError wraps an unexpected failure.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, KindInternal, message)
}

// GetAppError extracts the outermost AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// Classify maps any error to its Kind. A nil error has the empty Kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	// An explicit kind wins over whatever cause it wraps, so a store write
	// that failed with io.EOF is still a store failure.
	if appErr, ok := GetAppError(err); ok {
		return appErr.Kind
	}
	switch {
	case stderrors.Is(err, io.EOF):
		return KindEndOfStream
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case stderrors.Is(err, packet.ErrInvalidPacket):
		return KindDecode
	case stderrors.Is(err, frame.ErrTruncated):
		return KindTruncated
	case stderrors.Is(err, session.ErrConnection):
		return KindConnection
	}
	return KindInternal
}

// Recoverable reports whether an error of this kind is absorbed at a
// session boundary instead of ending the run.
func Recoverable(err error) bool {
	switch Classify(err) {
	case "", KindDecode, KindTruncated, KindConnection, KindEndOfStream:
		return true
	default:
		return false
	}
}
