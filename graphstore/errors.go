package graphstore

import (
	"errors"
	"strings"
)

// ErrorKind classifies a store-level failure into one of the categories the
// retry helper and circuit breakers reason about.
type ErrorKind string

const (
	KindLockClientStopped ErrorKind = "LockClientStopped"
	KindDeadlockDetected  ErrorKind = "DeadlockDetected"
	KindOutdated          ErrorKind = "Outdated"
	KindConnection        ErrorKind = "Connection"
	KindNotConnected      ErrorKind = "NotConnected"
	KindOther             ErrorKind = "Other"
)

// StoreError wraps a store failure with its classification.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with an explicit classification.
func NewStoreError(kind ErrorKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// ErrNotConnected is the sentinel for an operation attempted without a live
// store connection.
var ErrNotConnected = errors.New("graphstore: not connected")

// defaultRetryableKinds is the transient-kind set the retry helper falls
// back to when no explicit predicate is supplied.
var defaultRetryableKinds = map[ErrorKind]bool{
	KindLockClientStopped: true,
	KindDeadlockDetected:  true,
	KindOutdated:          true,
}

// IsRetryable is a pluggable predicate over errors. The package-level default
// classifies by StoreError.Kind against the documented transient-kind set;
// callers needing driver-specific classification (e.g. Neo4j error codes)
// can supply their own.
type IsRetryable func(err error) bool

// DefaultIsRetryable classifies err using StoreError.Kind when present.
func DefaultIsRetryable(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return defaultRetryableKinds[se.Kind]
	}
	return false
}

// ClassifyNeo4jCode maps a Neo4j server error code (e.g.
// "Neo.TransientError.Transaction.DeadlockDetected") to an ErrorKind.
func ClassifyNeo4jCode(code string) ErrorKind {
	switch {
	case strings.Contains(code, "LockClientStopped"):
		return KindLockClientStopped
	case strings.Contains(code, "DeadlockDetected"):
		return KindDeadlockDetected
	case strings.Contains(code, "Outdated"):
		return KindOutdated
	case strings.Contains(code, "ServiceUnavailable"), strings.Contains(code, "SessionExpired"):
		return KindConnection
	default:
		return KindOther
	}
}
