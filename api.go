// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package compress is a collection of decompression libraries for the
// formats found in XNA content packages.
package compress

import (
	"bufio"
	"io"
)

// The Error interface identifies all compression related errors.
//
// Errors returned by the lzx and xnb packages satisfy this interface, so that
// callers can distinguish misuse of the API from damaged input:
//
//	if cerr, ok := err.(compress.Error); ok && cerr.IsCorrupted() {
//		// The payload is damaged; discard the decoder.
//	}
type Error interface {
	error
	CompressError()

	// IsInvalid reports whether the error was caused by an invalid argument,
	// such as an out of range window size.
	IsInvalid() bool

	// IsUnsupported reports whether the input uses a feature that is
	// recognised but not supported, such as the LZ4 variant of XNB.
	IsUnsupported() bool

	// IsCorrupted reports whether the input stream was corrupted.
	IsCorrupted() bool
}

var _ Error = internalError{}

// ByteReader is an interface accepted by all decompression Readers.
// It guarantees that the decompressor never reads more data than is necessary
// from the underlying io.Reader.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

var _ ByteReader = (*bufio.Reader)(nil)
