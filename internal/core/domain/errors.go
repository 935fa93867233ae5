package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so that callers can decide how to react to it
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindIntegrity    Kind = "integrity"
	KindCapacity     Kind = "capacity"
	KindDependency   Kind = "dependency"
)

// Error is a domain error carrying its Kind
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the kind of the error
func (e *Error) Kind() Kind {
	return e.kind
}

// DependencyError wraps a failure of an external collaborator (storage, cache, broker)
type DependencyError struct {
	Op  string
	Err error
}

// NewDependencyError wraps err as a dependency failure of op
func NewDependencyError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Op: op, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first domain error found in err's chain
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.kind
	}
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return KindDependency
	}
	return KindUnknown
}

// IsRetryable reports whether retrying the failed call may succeed
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindDependency, KindUnknown:
		return err != nil
	default:
		return false
	}
}

// validation

// ErrInvalidArgument is an error thrown when an input is malformed
var ErrInvalidArgument = newError(KindValidation, "invalid argument")

// ErrInvalidFileName is an error thrown when the file name is blank
var ErrInvalidFileName = newError(KindValidation, "invalid file name")

// ErrInvalidFileSize is an error thrown when the file size is not positive
var ErrInvalidFileSize = newError(KindValidation, "invalid file size")

// ErrInvalidContentType is an error thrown when the content type cannot be parsed or is unknown
var ErrInvalidContentType = newError(KindValidation, "invalid content type")

// ErrInvalidChecksum is an error thrown when the declared checksum is malformed or uses an unsupported algorithm
var ErrInvalidChecksum = newError(KindValidation, "invalid checksum")

// ErrInvalidPartNumber is an error thrown when a part number is outside 1..totalParts
var ErrInvalidPartNumber = newError(KindValidation, "invalid part number")

// ErrPartSizeMismatch is an error thrown when a reported part size differs from the planned one
var ErrPartSizeMismatch = newError(KindValidation, "part size does not match the plan")

// ErrNotMultipart is an error thrown when a multipart operation targets a single upload session
var ErrNotMultipart = newError(KindValidation, "session is not a multipart upload")

// not found

// ErrSessionNotFound is an error thrown when session is not found
var ErrSessionNotFound = newError(KindNotFound, "session not found")

// ErrMultipartNotFound is an error thrown when the multipart upload of a session is not found
var ErrMultipartNotFound = newError(KindNotFound, "multipart upload not found")

// ErrFileNotFoundInStorage is an error thrown when the object is absent from storage
var ErrFileNotFoundInStorage = newError(KindNotFound, "file not found in storage")

// ErrFileAssetNotFound is an error thrown when file asset is not found
var ErrFileAssetNotFound = newError(KindNotFound, "file asset not found")

// invalid state

// ErrInvalidStateTransition is an error thrown when a session cannot move to the requested status
var ErrInvalidStateTransition = newError(KindInvalidState, "invalid state transition")

// ErrCannotComplete is an error thrown when a multipart upload still misses parts
var ErrCannotComplete = newError(KindInvalidState, "multipart upload cannot be completed")

// ErrSessionExpired is an error thrown when the session deadline has passed
var ErrSessionExpired = newError(KindInvalidState, "session expired")

// ErrIdempotencyKeyReused is an error thrown when an idempotency key points to a finished session
var ErrIdempotencyKeyReused = newError(KindInvalidState, "idempotency key already used by a finished session")

// ErrConcurrentUpdate is an error thrown when a conditional update lost against another writer
var ErrConcurrentUpdate = newError(KindInvalidState, "concurrent update")

// ErrAlreadyExists is an error thrown when entity already exists
var ErrAlreadyExists = newError(KindInvalidState, "already exists")

// integrity

// ErrChecksumMismatch is an error thrown when checksums or etags mismatch
var ErrChecksumMismatch = newError(KindIntegrity, "checksum mismatch")

// ErrAlgorithmMismatch is an error thrown when storage reports a checksum of another algorithm
var ErrAlgorithmMismatch = newError(KindIntegrity, "checksum algorithm mismatch")

// ErrChecksumMetadataMissing is an error thrown when storage reports no checksum
var ErrChecksumMetadataMissing = newError(KindIntegrity, "checksum metadata missing")

// ErrSizeMismatch is an error thrown when sizes mismatch
var ErrSizeMismatch = newError(KindIntegrity, "size mismatch")

// capacity

// ErrRateLimitExceeded is an error thrown when a tenant has too many active sessions
var ErrRateLimitExceeded = newError(KindCapacity, "rate limit exceeded")

// ErrTooManyPartsRequired is an error thrown when a file needs more parts than the provider allows
var ErrTooManyPartsRequired = newError(KindCapacity, "too many parts required")

// ErrTooSmallForMultipart is an error thrown when a file is smaller than the minimum part size
var ErrTooSmallForMultipart = newError(KindCapacity, "file too small for multipart upload")

// ErrFileSizeTooBig is an error thrown when file size is too big
var ErrFileSizeTooBig = newError(KindCapacity, "file size too big")
