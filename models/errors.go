package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvitationNotFoundError represents when an invitation is not found.
type InvitationNotFoundError struct {
	Code string
}

func (e InvitationNotFoundError) Error() string {
	return fmt.Sprintf("Invitation not found: %q", e.Code)
}

// StatusConflictError is returned by a store when a conditional update lost against a
// concurrent writer: the stored status no longer matched the expected one.
type StatusConflictError struct {
	Code     string
	Expected Status
}

func (e StatusConflictError) Error() string {
	return fmt.Sprintf("invitation %q is no longer %s", e.Code, e.Expected)
}

// StoreError wraps a record store failure surfaced to callers of the lifecycle.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("invitation store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Cause() error {
	return e.Err
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError annotates err with a stack trace and the failed operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: errors.WithStack(err)}
}

// IsNotFoundError returns whether an error represents a not found error.
func IsNotFoundError(err error) bool {
	switch errors.Cause(err).(type) {
	case InvitationNotFoundError, *InvitationNotFoundError:
		return true
	}
	return false
}

// IsConflictError returns whether an error represents a lost conditional update.
func IsConflictError(err error) bool {
	switch errors.Cause(err).(type) {
	case StatusConflictError, *StatusConflictError:
		return true
	}
	return false
}
