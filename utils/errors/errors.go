// Copyright 2025 NetApp, Inc. All Rights Reserved.

package errors

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ///////////////////////////////////////////////////////////////////////////
// Wrappers for standard library errors package
// ///////////////////////////////////////////////////////////////////////////

func New(message string) error {
	return errors.New(message)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Combine merges any number of errors into a single error, discarding nils.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// ///////////////////////////////////////////////////////////////////////////
// notFoundError
// ///////////////////////////////////////////////////////////////////////////

type notFoundError struct {
	inner   error
	message string
}

func (e *notFoundError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *notFoundError) Unwrap() error { return e.inner }

func NotFoundError(message string, a ...any) error {
	if len(a) == 0 {
		return &notFoundError{message: message}
	}
	return &notFoundError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithNotFoundError(err error, message string, a ...any) error {
	return &notFoundError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *notFoundError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// alreadyExistsError
// ///////////////////////////////////////////////////////////////////////////

type alreadyExistsError struct {
	inner   error
	message string
}

func (e *alreadyExistsError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *alreadyExistsError) Unwrap() error { return e.inner }

func AlreadyExistsError(message string, a ...any) error {
	if len(a) == 0 {
		return &alreadyExistsError{message: message}
	}
	return &alreadyExistsError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithAlreadyExistsError(err error, message string, a ...any) error {
	return &alreadyExistsError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *alreadyExistsError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// alreadyMappedError - volume is mapped to a different host or host group
// ///////////////////////////////////////////////////////////////////////////

type alreadyMappedError struct {
	inner   error
	message string
}

func (e *alreadyMappedError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *alreadyMappedError) Unwrap() error { return e.inner }

func AlreadyMappedError(message string, a ...any) error {
	if len(a) == 0 {
		return &alreadyMappedError{message: message}
	}
	return &alreadyMappedError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithAlreadyMappedError(err error, message string, a ...any) error {
	return &alreadyMappedError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsAlreadyMappedError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *alreadyMappedError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// noCapacityError - all LUN slots on the target are occupied
// ///////////////////////////////////////////////////////////////////////////

type noCapacityError struct {
	message string
}

func (e *noCapacityError) Error() string { return e.message }

func NoCapacityError(message string, a ...any) error {
	if len(a) == 0 {
		return &noCapacityError{message: message}
	}
	return &noCapacityError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsNoCapacityError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *noCapacityError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// notMappedError - volume has no mapping to the resolved host
// ///////////////////////////////////////////////////////////////////////////

type notMappedError struct {
	message string
}

func (e *notMappedError) Error() string { return e.message }

func NotMappedError(message string, a ...any) error {
	if len(a) == 0 {
		return &notMappedError{message: message}
	}
	return &notMappedError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsNotMappedError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *notMappedError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// raceConditionError - a concurrent writer changed array state between our
// read and write; always handled internally by re-checking live state
// ///////////////////////////////////////////////////////////////////////////

type raceConditionError struct {
	inner   error
	message string
}

func (e *raceConditionError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *raceConditionError) Unwrap() error { return e.inner }

func RaceConditionError(message string, a ...any) error {
	if len(a) == 0 {
		return &raceConditionError{message: message}
	}
	return &raceConditionError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithRaceConditionError(err error, message string, a ...any) error {
	return &raceConditionError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsRaceConditionError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *raceConditionError
	return errors.As(err, &errPtr)
}
