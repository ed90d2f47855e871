// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iperf

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every *MalformedInputError.
var ErrMalformed = errors.New("malformed iperf record")

// A MalformedInputError reports a record that lacks a required field
// or has a value of the wrong shape. It applies to a single source;
// callers processing several records should report it and continue
// with the rest.
type MalformedInputError struct {
	Source string // source identifier, if known
	Field  string // dotted path of the offending field
	Err    error  // underlying error, if any
}

func (e *MalformedInputError) Error() string {
	msg := "missing or invalid " + e.Field
	if e.Err != nil {
		msg = fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	if e.Source != "" {
		return e.Source + ": " + msg
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(source, field string) error {
	return &MalformedInputError{Source: source, Field: field}
}

type unknownProtocolError Protocol

func (e unknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol %q", string(e))
}
