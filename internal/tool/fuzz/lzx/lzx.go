// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build gofuzz
// +build gofuzz

package lzx

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/dsnet/xnbcompress/internal/errors"
	"github.com/dsnet/xnbcompress/internal/testutil"
	"github.com/dsnet/xnbcompress/lzx"
	"github.com/dsnet/xnbcompress/xnb"
)

func Fuzz(data []byte) int {
	ok := testDecoder(data)
	testXNB(data)
	testRoundTrip(data)
	if ok {
		return 1 // Favor valid inputs
	}
	return 0
}

// testDecoder decodes the input as a single LZX frame. Any failure must be
// reported as a corrupted stream or a truncated input, never a panic.
func testDecoder(data []byte) bool {
	d, err := lzx.NewDecoder(16, nil)
	if err != nil {
		panic(err)
	}
	out, err := d.DecompressFrame(data, 1<<15)
	switch {
	case err == nil:
		if len(out) != 1<<15 {
			panic("wrong output size")
		}
		return true
	case errors.IsCorrupted(err), err == io.ErrUnexpectedEOF:
		return false
	default:
		panic(err)
	}
}

// testXNB decodes the input as a whole XNB file.
func testXNB(data []byte) {
	xr, err := xnb.NewReader(bytes.NewReader(data), &xnb.ReaderConfig{MaxSize: 1 << 24})
	if err != nil {
		return
	}
	b, err := ioutil.ReadAll(xr)
	if err == nil && int64(len(b)) != int64(xr.Header().DecompressedSize) {
		panic("size mismatch")
	}
}

// testRoundTrip encodes the input data and then decodes it, checking that the
// output matches.
func testRoundTrip(want []byte) {
	const frameSize = 1 << 12
	d, err := lzx.NewDecoder(15, nil)
	if err != nil {
		panic(err)
	}
	var got []byte
	remain := len(want)
	for _, f := range testutil.EncodeLZX(want, 15, frameSize, 1000) {
		n := remain
		if n > frameSize {
			n = frameSize
		}
		out, err := d.DecompressFrame(f, n)
		if err != nil {
			panic(err)
		}
		got = append(got, out...)
		remain -= n
	}
	if !bytes.Equal(got, want) {
		panic("mismatching bytes")
	}
}
