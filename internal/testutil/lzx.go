// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"bytes"
	"encoding/binary"

	"github.com/icza/bitio"
)

// LZX stream constants shared with the decoder.
const (
	lzxNumChars      = 256
	lzxNumPretree    = 20
	lzxNumLengthSyms = 249
	lzxNumAligned    = 8
	lzxMaxMatch      = 257
	lzxMainTableSize = 256 + 50*8
	lzxLengthTable   = lzxNumLengthSyms + 1
)

var (
	lzxExtraBits    [51]uint
	lzxPositionBase [51]uint32
)

func init() {
	for i, n := 0, uint(0); i < len(lzxExtraBits); i += 2 {
		lzxExtraBits[i] = n
		if i+1 < len(lzxExtraBits) {
			lzxExtraBits[i+1] = n
		}
		if i != 0 && n < 17 {
			n++
		}
	}
	var base uint32
	for i := range lzxPositionBase {
		lzxPositionBase[i] = base
		base += 1 << lzxExtraBits[i]
	}
}

// LZXSlots reports the number of position slots for a window size.
func LZXSlots(windowBits uint) int {
	switch windowBits {
	case 20:
		return 42
	case 21:
		return 50
	default:
		return int(windowBits) * 2
	}
}

// CompleteLengths returns code lengths for n symbols that form a complete
// prefix code with lengths as equal as possible.
func CompleteLengths(n int) []uint8 {
	lens := make([]uint8, n)
	if n < 2 {
		return lens // No complete code exists
	}
	var l uint
	for 1<<l < n {
		l++
	}
	short := 1<<l - n // Symbols that get one bit less
	for i := range lens {
		lens[i] = uint8(l)
		if i < short {
			lens[i] = uint8(l - 1)
		}
	}
	return lens
}

// PrefixCode is a canonical code with Len bits stored in the low bits of Val,
// to be written MSB-first.
type PrefixCode struct {
	Val uint32
	Len uint
}

// CanonicalCodes assigns canonical prefix codes to the given code lengths,
// ordered by length and then by symbol.
func CanonicalCodes(lens []uint8) []PrefixCode {
	var counts [17]uint32
	for _, l := range lens {
		counts[l]++
	}
	counts[0] = 0
	var next [17]uint32
	var code uint32
	for l := 1; l < len(next); l++ {
		code = (code + counts[l-1]) << 1
		next[l] = code
	}
	codes := make([]PrefixCode, len(lens))
	for sym, l := range lens {
		if l > 0 {
			codes[sym] = PrefixCode{Val: next[l], Len: uint(l)}
			next[l]++
		}
	}
	return codes
}

// LZXEncoder produces LZX streams for tests. It is not a compressor: callers
// choose every literal, match, block and frame boundary, and the code lengths
// of every tree. The encoder only takes care of the bit-level format.
//
// Each frame is returned by EndFrame, padded to a halfword.
type LZXEncoder struct {
	WindowBits uint

	frame []byte        // Completed bytes of the current frame
	bits  *bytes.Buffer // Pending bit-coded bytes before halfword swapping
	bw    *bitio.Writer
	nbits int64

	hdrDone bool
	padRaw  bool // An odd length uncompressed block needs a pad byte
	lru     [3]uint32

	aligned     bool
	mainLens    [lzxMainTableSize]uint8
	lengthLens  [lzxLengthTable]uint8
	alignedCode []PrefixCode
	mainCode    []PrefixCode
	lengthCode  []PrefixCode

	FileSize uint32 // Translation size written in the stream header
}

func NewLZXEncoder(windowBits uint) *LZXEncoder {
	e := &LZXEncoder{WindowBits: windowBits, lru: [3]uint32{1, 1, 1}}
	e.startBits()
	return e
}

func (e *LZXEncoder) mainSyms() int {
	return lzxNumChars + LZXSlots(e.WindowBits)*8
}

func (e *LZXEncoder) startBits() {
	e.bits = new(bytes.Buffer)
	e.bw = bitio.NewWriter(e.bits)
	e.nbits = 0
}

// WriteBits writes the low n bits of v, most-significant bit first.
func (e *LZXEncoder) WriteBits(v uint64, n uint) {
	if n == 0 {
		return
	}
	if err := e.bw.WriteBits(v, uint8(n)); err != nil {
		panic(err)
	}
	e.nbits += int64(n)
}

// flushBits pads the pending bits to a halfword and moves them into the frame
// in LZX byte order.
func (e *LZXEncoder) flushBits() {
	if r := e.nbits % 16; r != 0 {
		e.WriteBits(0, uint(16-r))
	}
	if err := e.bw.Close(); err != nil {
		panic(err)
	}
	b := e.bits.Bytes()
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	e.frame = append(e.frame, b...)
	e.startBits()
}

func (e *LZXEncoder) writeCode(c PrefixCode) {
	if c.Len == 0 {
		panic("testutil: symbol has no code")
	}
	e.WriteBits(uint64(c.Val), c.Len)
}

func (e *LZXEncoder) startBlock(typ uint, size int) {
	if e.padRaw {
		e.frame = append(e.frame, 0x00)
		e.padRaw = false
	}
	if !e.hdrDone {
		if e.FileSize != 0 {
			e.WriteBits(1, 1)
			e.WriteBits(uint64(e.FileSize>>16), 16)
			e.WriteBits(uint64(e.FileSize&0xffff), 16)
		} else {
			e.WriteBits(0, 1)
		}
		e.hdrDone = true
	}
	e.WriteBits(uint64(typ), 3)
	e.WriteBits(uint64(size>>8), 16)
	e.WriteBits(uint64(size&0xff), 8)
}

// StartVerbatim starts a verbatim block of size bytes. A nil mainLens or
// lengthLens selects a complete code over all symbols of that tree.
func (e *LZXEncoder) StartVerbatim(size int, mainLens, lengthLens []uint8) {
	e.startBlock(1, size)
	e.aligned = false
	e.writeTrees(mainLens, lengthLens)
}

// StartAligned starts an aligned offset block of size bytes. A nil
// alignedLens selects 3-bit codes for all aligned symbols.
func (e *LZXEncoder) StartAligned(size int, alignedLens, mainLens, lengthLens []uint8) {
	e.startBlock(2, size)
	if alignedLens == nil {
		alignedLens = CompleteLengths(lzxNumAligned)
	}
	for _, l := range alignedLens {
		e.WriteBits(uint64(l), 3)
	}
	e.aligned = true
	e.alignedCode = CanonicalCodes(alignedLens)
	e.writeTrees(mainLens, lengthLens)
}

func (e *LZXEncoder) writeTrees(mainLens, lengthLens []uint8) {
	n := e.mainSyms()
	if mainLens == nil {
		mainLens = CompleteLengths(n)
	}
	if lengthLens == nil {
		lengthLens = CompleteLengths(lzxNumLengthSyms)
	}
	next := make([]uint8, lzxMainTableSize)
	copy(next, mainLens[:n])
	e.writeLengths(e.mainLens[:], next, 0, lzxNumChars)
	e.writeLengths(e.mainLens[:], next, lzxNumChars, n)
	e.mainCode = CanonicalCodes(e.mainLens[:n])

	next = make([]uint8, lzxLengthTable)
	copy(next, lengthLens)
	e.writeLengths(e.lengthLens[:], next, 0, lzxNumLengthSyms)
	e.lengthCode = CanonicalCodes(e.lengthLens[:])
}

type pretreeSym struct {
	sym   uint
	extra uint64 // Raw bits following the symbol
	nbits uint
	delta uint // Second pretree symbol of a same-length run
}

// writeLengths sends next[first:last] as deltas against prev[first:last] and
// updates prev. Runs of zeros and runs of equal lengths are coded with the
// pretree run symbols.
func (e *LZXEncoder) writeLengths(prev, next []uint8, first, last int) {
	delta := func(i int) uint {
		return uint((17 + int(prev[i]) - int(next[i])) % 17)
	}
	var syms []pretreeSym
	for i := first; i < last; {
		run := 1
		for i+run < last && next[i+run] == next[i] {
			run++
		}
		switch {
		case next[i] == 0 && run >= 20:
			if run > 51 {
				run = 51
			}
			syms = append(syms, pretreeSym{sym: 18, extra: uint64(run - 20), nbits: 5})
		case next[i] == 0 && run >= 4:
			syms = append(syms, pretreeSym{sym: 17, extra: uint64(run - 4), nbits: 4})
		case run >= 4:
			if run > 5 {
				run = 5
			}
			syms = append(syms, pretreeSym{sym: 19, extra: uint64(run - 4), nbits: 1, delta: delta(i)})
		default:
			run = 1
			syms = append(syms, pretreeSym{sym: delta(i)})
		}
		i += run
	}
	copy(prev[first:last], next[first:last])

	// Build a pretree over the symbols in use.
	var used [lzxNumPretree]bool
	for _, s := range syms {
		used[s.sym] = true
		if s.sym == 19 {
			used[s.delta] = true
		}
	}
	var alphabet []int
	for sym, ok := range used {
		if ok {
			alphabet = append(alphabet, sym)
		}
	}
	if len(alphabet) == 1 {
		alphabet = append(alphabet, (alphabet[0]+1)%lzxNumPretree)
	}
	lens := make([]uint8, lzxNumPretree)
	for i, l := range CompleteLengths(len(alphabet)) {
		lens[alphabet[i]] = l
	}
	for _, l := range lens {
		e.WriteBits(uint64(l), 4)
	}
	codes := CanonicalCodes(lens)
	for _, s := range syms {
		e.writeCode(codes[s.sym])
		e.WriteBits(s.extra, s.nbits)
		if s.sym == 19 {
			e.writeCode(codes[s.delta])
		}
	}
}

// Literal writes a single literal byte.
func (e *LZXEncoder) Literal(c byte) {
	e.writeCode(e.mainCode[c])
}

// Literals writes each byte of b as a literal.
func (e *LZXEncoder) Literals(b []byte) {
	for _, c := range b {
		e.Literal(c)
	}
}

// Match writes a match of the given offset and length, using a repeated
// offset register whenever one holds the offset.
func (e *LZXEncoder) Match(offset uint32, length int) {
	if length < 2 || length > lzxMaxMatch {
		panic("testutil: invalid match length")
	}
	var slot int
	switch offset {
	case e.lru[0]:
		slot = 0
	case e.lru[1]:
		slot = 1
		e.lru[1], e.lru[0] = e.lru[0], offset
	case e.lru[2]:
		slot = 2
		e.lru[2], e.lru[0] = e.lru[0], offset
	default:
		fo := offset + 2
		slot = 3
		for slot+1 < len(lzxPositionBase) && lzxPositionBase[slot+1] <= fo {
			slot++
		}
		e.lru[2], e.lru[1], e.lru[0] = e.lru[1], e.lru[0], offset
	}

	hdr := length - 2
	if hdr > 7 {
		hdr = 7
	}
	e.writeCode(e.mainCode[lzxNumChars+slot*8+hdr])
	if hdr == 7 {
		e.writeCode(e.lengthCode[length-9])
	}
	if slot < 3 {
		return
	}
	extra := lzxExtraBits[slot]
	v := uint64(offset + 2 - lzxPositionBase[slot])
	if e.aligned && extra >= 3 {
		e.WriteBits(v>>3, extra-3)
		e.writeCode(e.alignedCode[v&7])
	} else {
		e.WriteBits(v, extra)
	}
}

// Uncompressed writes a whole uncompressed block, loading the registers
// with r0, r1, and r2 before the data. The data may be split across frames
// with later calls to Raw by passing only the first part here and setting
// size to the total length.
func (e *LZXEncoder) Uncompressed(size int, data []byte, r0, r1, r2 uint32) {
	e.startBlock(3, size)
	if e.nbits%16 == 0 {
		e.WriteBits(0, 16)
	}
	e.flushBits()
	var regs [12]byte
	binary.LittleEndian.PutUint32(regs[0:], r0)
	binary.LittleEndian.PutUint32(regs[4:], r1)
	binary.LittleEndian.PutUint32(regs[8:], r2)
	e.frame = append(e.frame, regs[:]...)
	e.lru = [3]uint32{r0, r1, r2}
	e.padRaw = size%2 != 0
	e.Raw(data)
}

// Raw appends raw bytes of the current uncompressed block.
func (e *LZXEncoder) Raw(data []byte) {
	e.frame = append(e.frame, data...)
}

// EndFrame returns the compressed bytes of the current frame and starts a
// new frame.
func (e *LZXEncoder) EndFrame() []byte {
	e.flushBits()
	b := e.frame
	e.frame = nil
	return b
}

// EncodeLZX compresses data into frames of frameSize bytes using a greedy
// matcher, alternating between verbatim, aligned, and uncompressed blocks
// that may span frames. Matches never cross a frame boundary.
func EncodeLZX(data []byte, windowBits uint, frameSize, blockSize int) [][]byte {
	e := NewLZXEncoder(windowBits)
	window := 1 << windowBits
	last := make(map[uint32]int)
	hash := func(i int) uint32 {
		return uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16
	}

	var frames [][]byte
	var pos, blkRemain, blkNum, frameRemain int
	var raw bool
	frameRemain = frameSize
	for pos < len(data) {
		if blkRemain == 0 {
			blkRemain = blockSize
			if n := len(data) - pos; n < blkRemain {
				blkRemain = n
			}
			switch blkNum % 3 {
			case 0:
				e.StartVerbatim(blkRemain, nil, nil)
				raw = false
			case 1:
				e.StartAligned(blkRemain, nil, nil, nil)
				raw = false
			case 2:
				e.Uncompressed(blkRemain, nil, e.lru[0], e.lru[1], e.lru[2])
				raw = true
			}
			blkNum++
		}

		n := blkRemain
		if n > frameRemain {
			n = frameRemain
		}
		end := pos + n
		if raw {
			e.Raw(data[pos:end])
			for ; pos < end; pos++ {
				if pos+3 <= len(data) {
					last[hash(pos)] = pos
				}
			}
		}
		for pos < end {
			length := 0
			var off int
			if pos+3 <= end {
				if p, ok := last[hash(pos)]; ok && pos-p <= window-3 {
					off = pos - p
					for length < lzxMaxMatch && pos+length < end && data[p+length] == data[pos+length] {
						length++
					}
				}
				last[hash(pos)] = pos
			}
			if length >= 3 {
				e.Match(uint32(off), length)
				for i := 1; i < length; i++ {
					if pos+i+3 <= len(data) {
						last[hash(pos+i)] = pos + i
					}
				}
				pos += length
			} else {
				e.Literal(data[pos])
				pos++
			}
		}
		blkRemain -= n
		frameRemain -= n
		if frameRemain == 0 || pos == len(data) {
			frames = append(frames, e.EndFrame())
			frameRemain = frameSize
		}
	}
	return frames
}
