package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist. Service code
// checks it via IsNotFoundError and maps it to its own taxonomy.
var ErrNotFound = errors.New("record not found")

// StorageError wraps an underlying persistence failure. It is propagated
// unmodified to callers; no retries happen at this layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for operation op.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsNotFoundError reports whether err represents a missing row, either as
// our sentinel or the raw gorm error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsStorageError reports whether err is a persistence failure.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
