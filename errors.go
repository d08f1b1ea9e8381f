package simpledb

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is against *ParamError and *StorageError.
var (
	// ErrInvalidParam matches every *ParamError.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrNotFound matches a *StorageError with code StorageNotFound.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt matches a *StorageError with code StorageCorrupt.
	ErrCorrupt = errors.New("database broken")
)

// ParamCode classifies a ParamError.
type ParamCode int

const (
	// ParamMissing is a missing required parameter.
	ParamMissing ParamCode = 0
	// ParamInvalidPayload is a missing or wrong-typed mutation payload.
	ParamInvalidPayload ParamCode = 1
	// ParamInvalidNested is a wrong-typed value nested inside a payload.
	ParamInvalidNested ParamCode = 2
)

// ParamError reports an invalid argument. It is always returned before any
// I/O or mutation happens.
type ParamError struct {
	Code    ParamCode
	Message string
}

func (e *ParamError) Error() string {
	return e.Message
}

// Is implements errors.Is support for ErrInvalidParam.
func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParam
}

func missingParam(name string) *ParamError {
	return &ParamError{Code: ParamMissing, Message: fmt.Sprintf("missing parameter %q", name)}
}

// StorageCode classifies a StorageError.
type StorageCode int

const (
	// StorageIO is a failure reading or writing the store file.
	StorageIO StorageCode = -1
	// StorageNotFound is a targeted removal that matched nothing.
	StorageNotFound StorageCode = 2
	// StorageCorrupt is unparsable file content or a vanished collection.
	StorageCorrupt StorageCode = 3
)

// StorageError reports a failure tied to the store file or its content.
type StorageError struct {
	Code    StorageCode
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ErrNotFound and ErrCorrupt.
func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == StorageNotFound
	case ErrCorrupt:
		return e.Code == StorageCorrupt
	}
	return false
}

func ioError(msg string, err error) *StorageError {
	return &StorageError{Code: StorageIO, Message: msg, Err: err}
}

func corruptError(msg string, err error) *StorageError {
	return &StorageError{Code: StorageCorrupt, Message: msg, Err: err}
}
