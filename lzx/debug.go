// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"fmt"
	"strings"
)

func padBase2(v, n uint, m int) string {
	var s string
	if n > 0 {
		s = fmt.Sprintf(fmt.Sprintf("%%0%db", n), v)
	}
	if pad := m - len(s); pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

func (e prefixEntry) String() string {
	switch e.kind {
	case entryLeaf:
		return fmt.Sprintf("sym: %3d", e.val)
	case entryNode:
		return fmt.Sprintf("idx: %3d", e.val)
	default:
		return "empty"
	}
}

func (pd *prefixDecoder) String() string {
	var ss []string
	ss = append(ss, "{")
	if len(pd.chunks) > 0 {
		ss = append(ss, "\tchunks: {")
		for i, e := range pd.chunks {
			var l uint8
			if e.kind == entryLeaf {
				l = pd.lens[e.val]
			}
			ss = append(ss, fmt.Sprintf("\t\t%s:  {%v, len: %2d},",
				padBase2(uint(i), pd.chunkBits, int(pd.chunkBits)), e, l))
		}
		ss = append(ss, "\t},")
		for j, link := range pd.links {
			ss = append(ss, fmt.Sprintf("\tlinks[%d]: {0: {%v}, 1: {%v}},", j, link[0], link[1]))
		}
	}
	ss = append(ss, fmt.Sprintf("\tchunkBits: %d,", pd.chunkBits))
	ss = append(ss, fmt.Sprintf("\tnumSyms: %d,", len(pd.lens)))
	ss = append(ss, "}")
	return strings.Join(ss, "\n")
}
