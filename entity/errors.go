package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrMalformedRecord = errors.New("malformed bridge operation record")
	ErrSuperseded      = errors.New("response superseded by a newer request")
	ErrBusy            = errors.New("another fetch is in flight")
)

type ErrorKind string

const (
	ErrorKindTransport     ErrorKind = "transport"
	ErrorKindProtocol      ErrorKind = "protocol"
	ErrorKindNormalization ErrorKind = "normalization"
)

// SyncError tags a failed fetch with the stage that produced it.
type SyncError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the same request may succeed.
func (e *SyncError) IsRetryable() bool {
	return e.Kind == ErrorKindTransport
}

func NewTransportError(op string, err error) error {
	return &SyncError{Kind: ErrorKindTransport, Op: op, Err: err}
}

func NewProtocolError(op string, err error) error {
	return &SyncError{Kind: ErrorKindProtocol, Op: op, Err: err}
}

func NewNormalizationError(op string, err error) error {
	return &SyncError{Kind: ErrorKindNormalization, Op: op, Err: err}
}

// ErrorKindOf returns the kind of the first SyncError in err's chain.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Kind, true
	}
	return "", false
}

func IsRetryable(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr) && syncErr.IsRetryable()
}
