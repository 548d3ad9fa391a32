// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"github.com/dsnet/xnbcompress/internal/errors"
)

// The window starts out filled with this value, so that matches reaching
// before the start of the stream produce it.
const windowFill = 0xdc

// The dictDecoder implements the LZX sliding window and the three most
// recently used match offsets (R0, R1, R2).
//
// Unlike DEFLATE, the whole window is the output buffer: each frame's output
// is the run of bytes most recently written, copied out with ReadLast.
type dictDecoder struct {
	hist  []byte    // Sliding window history; the length is a power of two
	wrPos int       // Current output position in hist, always less than len(hist)
	lru   [3]uint32 // Repeated offset registers R0, R1, R2
}

func (dd *dictDecoder) Init(size int) {
	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	dd.hist = dd.hist[:size]
	for i := range dd.hist {
		dd.hist[i] = windowFill
	}
	dd.wrPos = 0
	dd.lru = [3]uint32{1, 1, 1}
}

// HistSize reports the capacity of the window.
func (dd *dictDecoder) HistSize() int {
	return len(dd.hist)
}

// AvailSize reports the number of bytes that can be written before the
// output position wraps back to the start of the window.
func (dd *dictDecoder) AvailSize() int {
	return len(dd.hist) - dd.wrPos
}

// WriteLiteral appends a single byte to the window.
func (dd *dictDecoder) WriteLiteral(c byte) {
	dd.hist[dd.wrPos] = c
	dd.wrPos = (dd.wrPos + 1) & (len(dd.hist) - 1)
}

// WriteCopy copies length bytes starting dist bytes behind the current
// position. The copy proceeds one byte at a time so that overlapping matches
// replicate the most recent bytes, and the source wraps around the window.
func (dd *dictDecoder) WriteCopy(dist, length int) {
	if dist <= 0 || dist > len(dd.hist) {
		panicf(errors.Corrupted, "invalid match offset: %d", dist)
	}
	mask := len(dd.hist) - 1
	src := (dd.wrPos - dist) & mask
	for i := 0; i < length; i++ {
		dd.hist[dd.wrPos] = dd.hist[src]
		dd.wrPos = (dd.wrPos + 1) & mask
		src = (src + 1) & mask
	}
}

// WriteSlice returns the free space up to the end of the window.
// The caller must call WriteMark with the number of bytes filled in.
func (dd *dictDecoder) WriteSlice() []byte {
	return dd.hist[dd.wrPos:]
}

func (dd *dictDecoder) WriteMark(cnt int) {
	dd.wrPos = (dd.wrPos + cnt) & (len(dd.hist) - 1)
}

// ReadLast appends the n most recently written bytes to dst.
func (dd *dictDecoder) ReadLast(dst []byte, n int) []byte {
	start := dd.wrPos - n
	if start >= 0 {
		return append(dst, dd.hist[start:dd.wrPos]...)
	}
	dst = append(dst, dd.hist[len(dd.hist)+start:]...)
	return append(dst, dd.hist[:dd.wrPos]...)
}

// RepeatOffset returns the offset held in register i (0 to 2) and swaps it
// into R0. Selecting R0 leaves the registers unchanged.
func (dd *dictDecoder) RepeatOffset(i int) uint32 {
	dist := dd.lru[i]
	dd.lru[i] = dd.lru[0]
	dd.lru[0] = dist
	return dist
}

// PushOffset records a newly coded offset, shifting out R2.
func (dd *dictDecoder) PushOffset(dist uint32) {
	dd.lru[2] = dd.lru[1]
	dd.lru[1] = dd.lru[0]
	dd.lru[0] = dist
}
