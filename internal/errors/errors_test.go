// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package errors

import (
	"io"
	"testing"
)

func TestError(t *testing.T) {
	var vectors = []struct {
		err  error
		want string
	}{
		{Error{}, "unknown error"},
		{Error{Code: Corrupted}, "corrupted input"},
		{Error{Pkg: "lzx"}, "lzx: unknown error"},
		{Error{Code: Invalid, Pkg: "lzx"}, "lzx: invalid argument"},
		{Error{Code: Corrupted, Pkg: "lzx", Msg: "bad block type: 7"}, "lzx: corrupted input: bad block type: 7"},
		{Errorf(Unsupported, "xnb", "lz4 content"), "xnb: unsupported format: lz4 content"},
	}

	for i, v := range vectors {
		if got := v.err.Error(); got != v.want {
			t.Errorf("test %d, Error() mismatch: got %q, want %q", i, got, v.want)
		}
	}
}

func TestCodes(t *testing.T) {
	err := Errorf(Corrupted, "lzx", "oversubscribed table")
	if !IsCorrupted(err) {
		t.Errorf("IsCorrupted(%v) = false, want true", err)
	}
	if IsInvalid(err) || IsClosed(err) || IsInternal(err) || IsUnsupported(err) {
		t.Errorf("unexpected code match for %v", err)
	}
	if IsCorrupted(io.EOF) {
		t.Errorf("IsCorrupted(io.EOF) = true, want false")
	}
}

func TestRecover(t *testing.T) {
	run := func(f func()) (err error) {
		defer Recover(&err)
		f()
		return nil
	}

	want := Error{Code: Corrupted, Pkg: "lzx"}
	if err := run(func() { Panic(want) }); err != want {
		t.Errorf("Recover mismatch: got %v, want %v", err, want)
	}
	if err := run(func() { Panic(io.EOF) }); err != io.ErrUnexpectedEOF {
		t.Errorf("Recover mismatch: got %v, want %v", err, io.ErrUnexpectedEOF)
	}
	if err := run(func() { Panic(nil) }); err != nil {
		t.Errorf("Recover mismatch: got %v, want nil", err)
	}

	defer func() {
		if ex := recover(); ex == nil {
			t.Errorf("runtime error was not re-panicked")
		}
	}()
	run(func() {
		var b []byte
		_ = b[1]
	})
}
