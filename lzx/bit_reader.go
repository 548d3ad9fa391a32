// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"io"

	"github.com/dsnet/xnbcompress/internal/errors"
)

// The bitReader reads bits from the compressed bytes of a single frame.
//
// LZX packs bits into 16-bit little-endian words, where the first bit of the
// stream is the most significant bit of the first word. The reader keeps up to
// 32 bits in an accumulator, with the next bit to be consumed in bit 31.
//
// Halfwords fetched beyond the end of the frame read as zero, but consuming any
// such bit is an error. A valid stream never consumes the implicit padding.
type bitReader struct {
	buf     []byte // Compressed bytes of the current frame
	pos     int    // Offset of the next halfword in buf; may run past len(buf)
	bufBits uint32 // Accumulator; the next bit is the MSB
	numBits uint   // Number of valid bits in bufBits
}

func (br *bitReader) Init(buf []byte) {
	*br = bitReader{buf: buf}
}

// BitsRead reports the number of bits consumed from the frame.
func (br *bitReader) BitsRead() int64 {
	return 8*int64(br.pos) - int64(br.numBits)
}

func (br *bitReader) byteAt(i int) byte {
	if i < len(br.buf) {
		return br.buf[i]
	}
	return 0
}

// FeedBits ensures that at least nb bits exist in the accumulator.
// The value of nb must not exceed 16.
func (br *bitReader) FeedBits(nb uint) {
	for br.numBits < nb {
		hw := uint32(br.byteAt(br.pos+1))<<8 | uint32(br.byteAt(br.pos))
		br.pos += 2
		br.bufBits |= hw << (16 - br.numBits)
		br.numBits += 16
	}
}

// PeekBits returns the next nb bits without consuming them.
// FeedBits(nb) must have been called beforehand.
func (br *bitReader) PeekBits(nb uint) uint {
	return uint(br.bufBits >> (32 - nb))
}

// RemoveBits consumes nb bits that are already in the accumulator.
func (br *bitReader) RemoveBits(nb uint) {
	br.bufBits <<= nb
	br.numBits -= nb
	if br.BitsRead() > 8*int64(len(br.buf)) {
		errors.Panic(io.ErrUnexpectedEOF)
	}
}

// ReadBits reads nb bits in MSB-first order, where nb is at most 16.
func (br *bitReader) ReadBits(nb uint) uint {
	if nb == 0 {
		return 0
	}
	br.FeedBits(nb)
	val := br.PeekBits(nb)
	br.RemoveBits(nb)
	return val
}

// ReadBitsWide reads up to 32 bits by composing two narrower reads.
func (br *bitReader) ReadBitsWide(nb uint) uint32 {
	if nb <= 16 {
		return uint32(br.ReadBits(nb))
	}
	hi := uint32(br.ReadBits(nb - 16))
	return hi<<16 | uint32(br.ReadBits(16))
}

// ReadSymbol reads the next prefix symbol using the given table.
func (br *bitReader) ReadSymbol(pd *prefixDecoder) uint {
	br.FeedBits(maxCodeBits)
	e := pd.chunks[br.bufBits>>(32-pd.chunkBits)]
	for mask := uint32(1) << (31 - pd.chunkBits); e.kind == entryNode; mask >>= 1 {
		if mask == 0 {
			panicf(errors.Corrupted, "prefix code exceeds %d bits", maxCodeBits)
		}
		var bit uint32
		if br.bufBits&mask != 0 {
			bit = 1
		}
		e = pd.links[e.val][bit]
	}
	if e.kind != entryLeaf {
		panicf(errors.Corrupted, "invalid prefix code")
	}
	br.RemoveBits(uint(pd.lens[e.val]))
	return uint(e.val)
}

// ReadAligned discards bits so that the next read is byte aligned on a
// halfword boundary. If the accumulator holds a partially consumed halfword,
// only its remainder is dropped; otherwise one whole halfword of padding is.
func (br *bitReader) ReadAligned() {
	br.FeedBits(16)
	if br.numBits > 16 {
		br.pos -= 2
	}
	br.ResetBits()
}

// ResetBits drops the accumulator without moving the byte position.
func (br *bitReader) ResetBits() {
	br.bufBits, br.numBits = 0, 0
}

// ReadRaw returns the next n bytes of the frame unaligned from the bit stream.
// The accumulator must be empty.
func (br *bitReader) ReadRaw(n int) []byte {
	if br.pos < 0 || n > len(br.buf)-br.pos {
		errors.Panic(io.ErrUnexpectedEOF)
	}
	b := br.buf[br.pos : br.pos+n]
	br.pos += n
	return b
}

// ReadUint32 reads a raw little-endian 32-bit integer.
func (br *bitReader) ReadUint32() uint32 {
	b := br.ReadRaw(4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// SkipByte moves past a single padding byte, which may lie past the end.
func (br *bitReader) SkipByte() {
	br.pos++
}
