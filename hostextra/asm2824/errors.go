// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asm2824

import (
	"fmt"

	"github.com/pkg/errors"
)

// Failure classes. Use errors.Is to classify an error returned by this
// package.
var (
	// ErrNoAdapterAvailable means every I²C adapter number in the configured
	// range is taken.
	ErrNoAdapterAvailable = errors.New("asm2824: no I²C adapter number available")
	// ErrAllocation means a resource could not be created.
	ErrAllocation = errors.New("asm2824: allocation failed")
	// ErrRegistration means a registry rejected a chip, bus or lookup table.
	ErrRegistration = errors.New("asm2824: registration failed")
	// ErrRegisterAccess means the configuration space access failed.
	ErrRegisterAccess = errors.New("asm2824: register access failed")
	// ErrInvalidLine means a line index other than 0 or 1 was used.
	ErrInvalidLine = errors.New("asm2824: invalid line")
)

// kindError is an error of one of the failure classes above, with its cause.
type kindError struct {
	kind  error
	cause error
	msg   string
}

func (k *kindError) Error() string {
	if k.cause == nil {
		return k.kind.Error() + ": " + k.msg
	}
	return k.kind.Error() + ": " + k.msg + ": " + k.cause.Error()
}

// Is makes errors.Is(err, ErrRegistration) work.
func (k *kindError) Is(target error) bool {
	return target == k.kind
}

func (k *kindError) Unwrap() error {
	return k.cause
}

// fail returns an error of class kind. cause may be nil.
func fail(kind, cause error, format string, args ...interface{}) error {
	return &kindError{kind: kind, cause: cause, msg: fmt.Sprintf(format, args...)}
}
