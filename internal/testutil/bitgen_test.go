// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"encoding/hex"
	"testing"
)

func TestDecodeBitGen(t *testing.T) {
	vectors := []struct {
		input  string
		output string // Hex encoded; empty means an error is expected
	}{{
		input:  "<<< < 0 00 0*5 < H16:0004 H16:fffb X:deadcafe",
		output: "000400fbffdeadcafe",
	}, {
		input:  ">>> > 1 0*7 D8:3",
		output: "8003",
	}, {
		input: `>>>16 # LZX uses BE bit-packing within LE halfwords

			> 0                     # No call translation
			> D3:3 D16:0 D8:3 0000  # Uncompressed block of 3 bytes, padding
			X:010000000100000001000000 # R0: 1, R1: 1, R2: 1
			X:deadca X:00           # Raw data, padding
		`,
		output: "00303000010000000100000001000000deadca00",
	}, {
		input:  ">>>16 > 1",
		output: "0080",
	}, {
		input:  ">>>16 X:ab X:cd > D16:1",
		output: "abcd0100",
	}, {
		input:  ">>>16 X:ab X:cdef",
		output: "abcdef00",
	}, {
		input:  ">>>16 > D8:1 X:ff",
		output: "",
	}, {
		input:  ">>>16 X:ff > 1",
		output: "",
	}, {
		input:  "<<< D4:16",
		output: "",
	}, {
		input:  "<> 1",
		output: "",
	}}

	for i, v := range vectors {
		got, err := DecodeBitGen(v.input)
		if v.output == "" {
			if err == nil {
				t.Errorf("test %d, DecodeBitGen() = %x, want error", i, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d, unexpected error: %v", i, err)
			continue
		}
		if gotHex := hex.EncodeToString(got); gotHex != v.output {
			t.Errorf("test %d, output mismatch:\ngot  %s\nwant %s", i, gotHex, v.output)
		}
	}
}
