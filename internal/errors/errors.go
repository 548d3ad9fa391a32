// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package errors implements functions to manipulate decompression errors.
//
// Unlike the standard library errors package, errors produced here carry a
// code describing the class of failure so that callers can tell a corrupted
// stream apart from a misuse of the API.
package errors

import (
	"fmt"
	"io"
	"runtime"
)

const (
	Unknown = iota
	Internal
	Invalid
	Unsupported
	Corrupted
	Closed
)

var codeMap = map[int]string{
	Unknown:     "unknown error",
	Internal:    "internal error",
	Invalid:     "invalid argument",
	Unsupported: "unsupported format",
	Corrupted:   "corrupted input",
	Closed:      "closed handler",
}

type Error struct {
	Code int    // The error type
	Pkg  string // Name of the package where the error originated
	Msg  string // Descriptive message about the error (optional)
}

func (e Error) Error() string {
	var ss []string
	for _, s := range []string{e.Pkg, codeMap[e.Code], e.Msg} {
		if s != "" {
			ss = append(ss, s)
		}
	}
	switch len(ss) {
	case 0:
		return "unknown error"
	case 1:
		return ss[0]
	case 2:
		return ss[0] + ": " + ss[1]
	default:
		return ss[0] + ": " + ss[1] + ": " + ss[2]
	}
}

func (e Error) CompressError()      {}
func (e Error) IsInternal() bool    { return e.Code == Internal }
func (e Error) IsInvalid() bool     { return e.Code == Invalid }
func (e Error) IsUnsupported() bool { return e.Code == Unsupported }
func (e Error) IsCorrupted() bool   { return e.Code == Corrupted }
func (e Error) IsClosed() bool      { return e.Code == Closed }

func IsInternal(err error) bool    { return isCode(err, Internal) }
func IsInvalid(err error) bool     { return isCode(err, Invalid) }
func IsUnsupported(err error) bool { return isCode(err, Unsupported) }
func IsCorrupted(err error) bool   { return isCode(err, Corrupted) }
func IsClosed(err error) bool      { return isCode(err, Closed) }

func isCode(err error, code int) bool {
	if cerr, ok := err.(Error); ok && cerr.Code == code {
		return true
	}
	return false
}

// Errorf returns an Error with the given code and formatted message.
func Errorf(code int, pkg string, f string, a ...interface{}) error {
	return Error{Code: code, Pkg: pkg, Msg: fmt.Sprintf(f, a...)}
}

// Panic panics with err if it is non-nil.
func Panic(err error) {
	if err != nil {
		panic(err)
	}
}

// Recover recovers a panicked error and stores it in err.
// Runtime errors and non-error values are re-panicked.
//
// io.EOF is never an acceptable mid-stream outcome, so it is promoted to
// io.ErrUnexpectedEOF.
func Recover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		if ex == io.EOF {
			ex = io.ErrUnexpectedEOF
		}
		*err = ex
	default:
		panic(ex)
	}
}
