package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can surface them distinctly.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindStorage
	KindRemoteService
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindStorage:
		return "storage_error"
	case KindRemoteService:
		return "remote_service_error"
	default:
		return "internal_error"
	}
}

var (
	ErrMissingAmount      = errors.New("missing required field: amount")
	ErrMissingCategory    = errors.New("missing required field: category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrModelNotConfigured = errors.New("chat model is not configured (set GEMINI_API_KEY)")
)

// Error carries a kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation wraps err as a KindValidation error.
func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Storage wraps err as a KindStorage error.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// RemoteService wraps err as a KindRemoteService error.
func RemoteService(op string, err error) error {
	return &Error{Kind: KindRemoteService, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
