// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"encoding/binary"
)

// CallFilterState is a snapshot of the x86 call translation bookkeeping.
type CallFilterState struct {
	FileSize  uint32 // Translation size declared by the stream; zero if disabled
	CurPos    uint32 // Logical position of the next frame's first byte
	Started   bool   // Set once a block may contain E8 opcodes
	CallSites int64  // Number of E8 bytes seen in the scanned frame regions
}

// The callFilter tracks the state of the E8 call preprocessing that LZX
// encoders may apply to x86 code. Encoders replace the relative operand of
// each CALL instruction with an absolute target, which compresses better.
//
// By default the output is left untouched and only the position is tracked.
// With translate set, absolute operands are turned back into relative ones.
type callFilter struct {
	fileSize  uint32
	curPos    uint32
	started   bool
	callSites int64
	translate bool
}

func (cf *callFilter) Init(translate bool) {
	*cf = callFilter{translate: translate}
}

// ReadHeader reads the one-time stream header: a flag bit and, if set, the
// 32-bit translation size sent as two 16-bit fields, high half first.
func (cf *callFilter) ReadHeader(br *bitReader) {
	if br.ReadBits(1) != 0 {
		hi := uint32(br.ReadBits(16))
		lo := uint32(br.ReadBits(16))
		cf.fileSize = hi<<16 | lo
	}
}

// Process updates the filter with the output of frame number frame (starting
// at zero) and translates the output in place if enabled.
func (cf *callFilter) Process(out []byte, frame uint32) {
	if frame >= maxCallFrames || cf.fileSize == 0 {
		return
	}
	if len(out) > 6 && cf.started {
		end := len(out) - 10
		for i := 0; i < end; i++ {
			if out[i] != 0xe8 {
				continue
			}
			cf.callSites++
			if cf.translate {
				cf.translateAt(out[i+1:i+5], int32(cf.curPos)+int32(i))
				i += 4
			}
		}
	}
	cf.curPos += uint32(len(out))
}

// translateAt rewrites a single operand that follows an E8 byte at the given
// logical position. Operands outside the translation range are left alone.
func (cf *callFilter) translateAt(b []byte, pos int32) {
	abs := int32(binary.LittleEndian.Uint32(b))
	if abs < -pos || abs >= int32(cf.fileSize) {
		return
	}
	rel := abs - pos
	if abs < 0 {
		rel = abs + int32(cf.fileSize)
	}
	binary.LittleEndian.PutUint32(b, uint32(rel))
}

func (cf *callFilter) State() CallFilterState {
	return CallFilterState{
		FileSize:  cf.fileSize,
		CurPos:    cf.curPos,
		Started:   cf.started,
		CallSites: cf.callSites,
	}
}
