package wallet

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrLimitExceeded     = errors.New("top-up limit reached")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrPersistence       = errors.New("balance not persisted")
	ErrInvalidConfig     = errors.New("invalid wallet config")
	ErrInvalidOwner      = errors.New("invalid wallet owner")
)

// PersistenceError reports a balance that was applied in memory but could not
// be written to the store.
type PersistenceError struct {
	Key      string
	Value    int64
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s=%d after %d attempt(s): %v", e.Key, e.Value, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
