// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/xnbcompress/internal/testutil"
)

func TestCallFilterHeader(t *testing.T) {
	vectors := []struct {
		input string
		want  uint32
	}{
		{input: ">>>16 > 0", want: 0},
		{input: ">>>16 > 1 D16:1 D16:2", want: 0x10002},
		{input: ">>>16 > 1 H16:00c0 H16:0000", want: 12582912},
	}
	for i, v := range vectors {
		var cf callFilter
		var br bitReader
		br.Init(testutil.MustDecodeBitGen(v.input))
		cf.ReadHeader(&br)
		if cf.fileSize != v.want {
			t.Errorf("test %d, file size mismatch: got %d, want %d", i, cf.fileSize, v.want)
		}
	}
}

func TestCallFilterProcess(t *testing.T) {
	frame := func() []byte {
		b := make([]byte, 32)
		b[0], b[5], b[22] = 0xe8, 0xe8, 0xe8 // The last one is too close to the end
		return b
	}

	vectors := []struct {
		cf    callFilter
		frame uint32
		want  CallFilterState
	}{{
		cf:   callFilter{},
		want: CallFilterState{},
	}, {
		cf:   callFilter{fileSize: 1000},
		want: CallFilterState{FileSize: 1000, CurPos: 32},
	}, {
		cf:   callFilter{fileSize: 1000, started: true, curPos: 64},
		want: CallFilterState{FileSize: 1000, CurPos: 96, Started: true, CallSites: 2},
	}, {
		cf:    callFilter{fileSize: 1000, started: true, curPos: 64},
		frame: maxCallFrames,
		want:  CallFilterState{FileSize: 1000, CurPos: 64, Started: true},
	}}

	for i, v := range vectors {
		out := frame()
		v.cf.Process(out, v.frame)
		if diff := cmp.Diff(v.want, v.cf.State()); diff != "" {
			t.Errorf("test %d, state mismatch (-want +got):\n%s", i, diff)
		}
		if !bytes.Equal(out, frame()) {
			t.Errorf("test %d, output modified without translation", i)
		}
	}
}

func TestCallFilterTranslate(t *testing.T) {
	cf := callFilter{fileSize: 1000, started: true, translate: true}
	out := []byte{
		0x00, 0x00, 0xe8, 0x64, 0x00, 0x00, 0x00, // Absolute 100 at 2
		0xe8, 0xfd, 0xff, 0xff, 0xff, // Absolute -3 at 7
		0xe8, 0xd0, 0x07, 0x00, 0x00, // Absolute 2000 at 12 is out of range
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	want := []byte{
		0x00, 0x00, 0xe8, 0x62, 0x00, 0x00, 0x00, // Relative 98
		0xe8, 0xe5, 0x03, 0x00, 0x00, // Relative 997
		0xe8, 0xd0, 0x07, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	cf.Process(out, 0)
	if !bytes.Equal(out, want) {
		t.Errorf("output mismatch:\ngot  %x\nwant %x", out, want)
	}
	if got := cf.State(); got.CallSites != 3 || got.CurPos != uint32(len(out)) {
		t.Errorf("state mismatch: got %+v", got)
	}
}
