// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package lzx implements a frame decoder for the LZX compressed data format
// as it is embedded in XNA content (XNB) files.
//
// LZX is a sliding window LZ77 scheme whose literals, match lengths and
// match positions are coded with canonical prefix codes. The stream is a
// sequence of blocks (verbatim, aligned offset, or uncompressed) that may span
// many frames. A Decoder keeps the window, the repeated offset registers, and
// the prefix tables across calls, so frames must be fed to it in order.
package lzx

import (
	"fmt"

	"github.com/dsnet/xnbcompress/internal/errors"
)

const (
	MinWindowBits = 15
	MaxWindowBits = 21
)

const (
	numChars         = 256
	numPrimaryLens   = 7  // Length headers 0..6 are complete lengths
	numPretreeSyms   = 20 // Pretree alphabet used to send code lengths
	numAlignedSyms   = 8
	numLengthSyms    = 249 // Symbols sent for the length tree
	numLengthTable   = numLengthSyms + 1
	numPositionSlots = 51
	maxMainSyms      = numChars + (numPositionSlots-1)*8
	minMatch         = 2

	pretreeBits  = 6
	mainBits     = 12
	lengthBits   = 12
	alignedBits  = 7
	maxCodeBits  = 16
	lenFieldBits = 4 // Width of each raw pretree length
)

// Call translation is only attempted within the first 32768 frames.
const maxCallFrames = 32768

type blockType uint8

const (
	blockNone blockType = iota
	blockVerbatim
	blockAligned
	blockUncompressed
)

func (bt blockType) String() string {
	switch bt {
	case blockNone:
		return "none"
	case blockVerbatim:
		return "verbatim"
	case blockAligned:
		return "aligned"
	case blockUncompressed:
		return "uncompressed"
	default:
		return fmt.Sprintf("blockType(%d)", uint8(bt))
	}
}

func errorf(c int, f string, a ...interface{}) error {
	return errors.Error{Code: c, Pkg: "lzx", Msg: fmt.Sprintf(f, a...)}
}

func panicf(c int, f string, a ...interface{}) {
	errors.Panic(errorf(c, f, a...))
}

// extraBits and positionBase are indexed by position slot. A match with slot
// s >= 3 has a formatted offset of positionBase[s] plus extraBits[s] bits read
// from the stream; the real offset is two less than the formatted one.
var (
	extraBits    [numPositionSlots]uint8
	positionBase [numPositionSlots]uint32
)

func init() { initLUTs() }

func initLUTs() {
	for i, n := 0, 0; i < numPositionSlots; i += 2 {
		extraBits[i] = uint8(n)
		if i+1 < numPositionSlots {
			extraBits[i+1] = uint8(n)
		}
		if i != 0 && n < 17 {
			n++
		}
	}
	var base uint32
	for i := range positionBase {
		positionBase[i] = base
		base += 1 << extraBits[i]
	}
}

// numSlots reports the number of position slots used by a window of the
// given size. The largest two windows do not use all slots of the table.
func numSlots(windowBits uint) int {
	switch windowBits {
	case 20:
		return 42
	case 21:
		return 50
	default:
		return int(windowBits) << 1
	}
}

// ReaderConfig configures a Decoder. A nil *ReaderConfig means the defaults.
type ReaderConfig struct {
	// TranslateCalls enables conversion of E8 call operands in the output
	// from absolute back to relative form when the stream header declares a
	// translation file size. By default the filter only tracks its position.
	TranslateCalls bool

	_ struct{} // Blank field to prevent unkeyed struct literals
}
