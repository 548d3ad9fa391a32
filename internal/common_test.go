// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package internal

import "testing"

func TestReverse(t *testing.T) {
	var vectors = []struct {
		v, want uint64
		n       uint
	}{
		{0x0, 0x0, 0},
		{0x1, 0x1, 1},
		{0x1, 0x8, 4},
		{0x3, 0x6, 3},
		{0x0123, 0xc480, 16},
		{0xdeadbeef, 0xf77db57b, 32},
		{0x1, 0x8000000000000000, 64},
	}

	for i, v := range vectors {
		if got := ReverseUint64N(v.v, v.n); got != v.want {
			t.Errorf("test %d, ReverseUint64N(%#x, %d) = %#x, want %#x", i, v.v, v.n, got, v.want)
		}
	}
	for i := range ReverseLUT {
		if int(ReverseLUT[ReverseLUT[i]]) != i {
			t.Fatalf("ReverseLUT is not an involution at %d", i)
		}
	}
}
