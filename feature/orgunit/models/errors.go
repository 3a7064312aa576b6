package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the sync error kinds. Typed errors below match them
// through errors.Is.
var (
	// ErrConnectivity is returned when the store cannot be reached or authenticated against.
	ErrConnectivity = errors.New("store unreachable")

	// ErrStore is returned when a read or write statement fails.
	ErrStore = errors.New("store operation failed")

	// ErrFormat is returned when a snapshot is missing or structurally invalid.
	ErrFormat = errors.New("invalid snapshot")

	// ErrDuplicateKey is returned when a collection holds two records with the same key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrRollback is returned when rolling back a failed sync itself fails.
	// The store state is unknown after it.
	ErrRollback = errors.New("rollback failed")
)

// ConnectivityError wraps a failure to open or use a store connection.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("store unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Is implements errors.Is support
func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// StoreError wraps a failed store statement.
type StoreError struct {
	// Op is the store operation (fetch, insert, update, delete, commit).
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// FormatError reports a missing, unreadable or malformed snapshot.
type FormatError struct {
	// Source names the snapshot (file path, object key, request).
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid snapshot %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is implements errors.Is support
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// DuplicateKeyError reports the first repeated key found in a collection.
type DuplicateKeyError struct {
	Key    Key
	Source string
}

func (e *DuplicateKeyError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("duplicate key %s", e.Key)
	}
	return fmt.Sprintf("duplicate key %s in %s", e.Key, e.Source)
}

// Is implements errors.Is support
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// RollbackError reports a rollback failure after Cause had already aborted the sync.
// errors.Is matches ErrRollback, the rollback failure and the original cause.
type RollbackError struct {
	Cause error
	Err   error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed, store state unknown: %v (after: %v)", e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() []error { return []error{e.Err, e.Cause} }

// Is implements errors.Is support
func (e *RollbackError) Is(target error) bool { return target == ErrRollback }
