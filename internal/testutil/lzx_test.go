// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompleteLengths(t *testing.T) {
	vectors := []struct {
		n    int
		want map[uint8]int // Count of symbols per length
	}{
		{n: 0, want: map[uint8]int{}},
		{n: 1, want: map[uint8]int{0: 1}},
		{n: 2, want: map[uint8]int{1: 2}},
		{n: 8, want: map[uint8]int{3: 8}},
		{n: 20, want: map[uint8]int{4: 12, 5: 8}},
		{n: 249, want: map[uint8]int{7: 7, 8: 242}},
		{n: 496, want: map[uint8]int{8: 16, 9: 480}},
		{n: 512, want: map[uint8]int{9: 512}},
	}
	for _, v := range vectors {
		got := make(map[uint8]int)
		for _, l := range CompleteLengths(v.n) {
			got[l]++
		}
		if diff := cmp.Diff(v.want, got); diff != "" {
			t.Errorf("CompleteLengths(%d) mismatch (-want +got):\n%s", v.n, diff)
		}
	}
}

func TestCanonicalCodes(t *testing.T) {
	got := CanonicalCodes([]uint8{3, 3, 3, 3, 3, 2, 4, 4})
	want := []PrefixCode{
		{Val: 0x2, Len: 3}, {Val: 0x3, Len: 3}, {Val: 0x4, Len: 3}, {Val: 0x5, Len: 3},
		{Val: 0x6, Len: 3}, {Val: 0x0, Len: 2}, {Val: 0xe, Len: 4}, {Val: 0xf, Len: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CanonicalCodes() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLZXFrames(t *testing.T) {
	data := NewRand(0).Repeats(100000, 1<<16)
	frames := EncodeLZX(data, 16, 1<<15, 40000)
	if got, want := len(frames), 4; got != want {
		t.Fatalf("number of frames mismatch: got %d, want %d", got, want)
	}
	for i, f := range frames {
		if len(f) == 0 {
			t.Errorf("frame %d is empty", i)
		}
	}
}
