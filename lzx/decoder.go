// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"io"

	"github.com/dsnet/xnbcompress/internal"
	"github.com/dsnet/xnbcompress/internal/errors"
)

// A Decoder decompresses an LZX stream one frame at a time.
//
// A stream is split into frames by its container, each with a known compressed
// and decompressed size. Blocks, the window, and the repeated offsets carry
// over from one frame to the next, so a Decoder must see every frame of a
// stream in order. It is not safe for concurrent use.
type Decoder struct {
	InputOffset  int64 // Total number of compressed bytes consumed
	OutputOffset int64 // Total number of decompressed bytes produced

	rd   bitReader   // Input source for the current frame
	dict dictDecoder // Sliding window and repeated offsets
	call callFilter  // E8 call translation state
	err  error       // Persistent error

	conf       ReaderConfig
	windowBits uint
	mainSyms   int    // Number of main tree symbols for this window size
	numSlots   int    // Number of position slots for this window size
	frames     uint32 // Number of frames decoded so far

	hdrRead   bool      // Whether the stream header has been read
	blkType   blockType // Type of the current block
	blkLen    int       // Declared length of the current block
	blkRemain int       // Bytes left to produce in the current block

	pretreeLens [numPretreeSyms]uint8
	mainLens    [maxMainSyms]uint8
	lengthLens  [numLengthTable]uint8
	alignedLens [numAlignedSyms]uint8

	pretree, mainTree, lengthTree, alignedTree prefixDecoder

	inBuf  []byte // Compressed bytes of the current frame for Decompress
	outBuf []byte // Decompressed output of the last frame
}

// NewDecoder returns a Decoder for a stream using a window of 1<<windowBits
// bytes, where windowBits is within [MinWindowBits, MaxWindowBits].
func NewDecoder(windowBits int, conf *ReaderConfig) (*Decoder, error) {
	if windowBits < MinWindowBits || windowBits > MaxWindowBits {
		return nil, errorf(errors.Invalid, "invalid window size: %d", windowBits)
	}
	d := &Decoder{windowBits: uint(windowBits)}
	if conf != nil {
		d.conf = *conf
	}
	d.Reset()
	return d, nil
}

// Reset discards all state so that d may decode a new stream with the same
// window size. The window buffer is reused.
func (d *Decoder) Reset() error {
	*d = Decoder{
		conf:        d.conf,
		windowBits:  d.windowBits,
		dict:        d.dict,
		pretree:     d.pretree,
		mainTree:    d.mainTree,
		lengthTree:  d.lengthTree,
		alignedTree: d.alignedTree,
		inBuf:       d.inBuf,
		outBuf:      d.outBuf,
	}
	d.call.Init(d.conf.TranslateCalls)
	d.dict.Init(1 << d.windowBits)
	d.numSlots = numSlots(d.windowBits)
	d.mainSyms = numChars + d.numSlots*8
	return nil
}

// Decompress reads exactly inLen compressed bytes from r, decodes them into a
// frame of outLen bytes, and writes the frame to w.
func (d *Decoder) Decompress(r io.Reader, inLen int, w io.Writer, outLen int) error {
	if d.err != nil {
		return d.err
	}
	if inLen < 0 {
		return errorf(errors.Invalid, "invalid input size: %d", inLen)
	}
	if cap(d.inBuf) < inLen {
		d.inBuf = make([]byte, inLen)
	}
	d.inBuf = d.inBuf[:inLen]
	if _, err := io.ReadFull(r, d.inBuf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	out, err := d.DecompressFrame(d.inBuf, outLen)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// DecompressFrame decodes the compressed bytes of a single frame into outLen
// bytes of output. The returned slice is only valid until the next call.
//
// Once a frame fails to decode, every later call returns the same error
// until Reset is called.
func (d *Decoder) DecompressFrame(in []byte, outLen int) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if outLen < 0 || outLen > d.dict.HistSize() {
		return nil, errorf(errors.Invalid, "invalid frame size: %d", outLen)
	}

	func() {
		defer errors.Recover(&d.err)
		d.rd.Init(in)
		d.decodeFrame(outLen)
	}()
	if d.err != nil {
		return nil, d.err
	}

	d.outBuf = d.dict.ReadLast(d.outBuf[:0], outLen)
	if internal.Debug && (len(d.outBuf) != outLen || d.blkRemain < 0) {
		panic("lzx: inconsistent frame state")
	}
	d.call.Process(d.outBuf, d.frames)
	d.frames++
	d.InputOffset += int64(len(in))
	d.OutputOffset += int64(outLen)
	return d.outBuf, nil
}

// Frames reports the number of frames decoded since the last Reset.
func (d *Decoder) Frames() int { return int(d.frames) }

// CallFilter reports the state of the E8 call translation bookkeeping.
func (d *Decoder) CallFilter() CallFilterState { return d.call.State() }

// decodeFrame produces the next n bytes of output into the window.
func (d *Decoder) decodeFrame(n int) {
	for n > 0 {
		if d.blkRemain == 0 {
			d.readBlockHeader()
		}

		run := d.blkRemain
		if run > n {
			run = n
		}
		if run > d.dict.AvailSize() {
			panicf(errors.Corrupted, "frame crosses the end of the window")
		}
		switch d.blkType {
		case blockVerbatim, blockAligned:
			d.readBlock(run)
		case blockUncompressed:
			d.readRawData(run)
		}
		d.blkRemain -= run
		n -= run
	}
}

// readBlockHeader reads the header of the next block along with any prefix
// code lengths or raw registers that precede the block data.
func (d *Decoder) readBlockHeader() {
	if !d.hdrRead {
		d.call.ReadHeader(&d.rd)
		d.hdrRead = true
	}

	// The data of an uncompressed block is padded to an even length, and the
	// bit stream restarts after it.
	if d.blkType == blockUncompressed {
		if d.blkLen&1 != 0 {
			d.rd.SkipByte()
		}
		d.rd.ResetBits()
	}

	bt := blockType(d.rd.ReadBits(3))
	d.blkLen = int(d.rd.ReadBits(16))<<8 | int(d.rd.ReadBits(8))
	d.blkRemain = d.blkLen

	switch bt {
	case blockAligned:
		for i := range d.alignedLens {
			d.alignedLens[i] = uint8(d.rd.ReadBits(3))
		}
		d.alignedTree.Init(d.alignedLens[:], alignedBits)
		fallthrough
	case blockVerbatim:
		d.readLengths(d.mainLens[:], 0, numChars)
		d.readLengths(d.mainLens[:], numChars, d.mainSyms)
		d.mainTree.Init(d.mainLens[:d.mainSyms], mainBits)
		if d.mainLens[0xe8] != 0 {
			d.call.started = true
		}
		d.readLengths(d.lengthLens[:], 0, numLengthSyms)
		d.lengthTree.Init(d.lengthLens[:], lengthBits)
	case blockUncompressed:
		d.call.started = true
		d.rd.ReadAligned()
		for i := range d.dict.lru {
			d.dict.lru[i] = d.rd.ReadUint32()
		}
	default:
		panicf(errors.Corrupted, "invalid block type: %d", bt)
	}
	d.blkType = bt
}

// readLengths updates lens[first:last] with code lengths sent as deltas
// against the previous values, coded with a freshly read pretree.
func (d *Decoder) readLengths(lens []uint8, first, last int) {
	for i := range d.pretreeLens {
		d.pretreeLens[i] = uint8(d.rd.ReadBits(lenFieldBits))
	}
	d.pretree.Init(d.pretreeLens[:], pretreeBits)

	for i := first; i < last; {
		var cnt int
		var val uint8
		switch sym := d.rd.ReadSymbol(&d.pretree); sym {
		case 17: // Short run of zeros
			cnt = 4 + int(d.rd.ReadBits(4))
		case 18: // Long run of zeros
			cnt = 20 + int(d.rd.ReadBits(5))
		case 19: // Short run of a single length
			cnt = 4 + int(d.rd.ReadBits(1))
			delta := d.rd.ReadSymbol(&d.pretree)
			if delta > 16 {
				panicf(errors.Corrupted, "invalid length delta: %d", delta)
			}
			val = deltaLen(lens[i], delta)
		default:
			lens[i] = deltaLen(lens[i], sym)
			i++
			continue
		}
		if i+cnt > last {
			panicf(errors.Corrupted, "length run overflows table: %d > %d", i+cnt, last)
		}
		for j := i; j < i+cnt; j++ {
			lens[j] = val
		}
		i += cnt
	}
}

// deltaLen applies a pretree delta symbol to a previous code length.
func deltaLen(prev uint8, delta uint) uint8 {
	v := int(prev) - int(delta)
	if v < 0 {
		v += 17
	}
	return uint8(v)
}

// readBlock decodes n bytes of a verbatim or aligned offset block.
func (d *Decoder) readBlock(n int) {
	aligned := d.blkType == blockAligned
	for n > 0 {
		sym := d.rd.ReadSymbol(&d.mainTree)
		if sym < numChars {
			d.dict.WriteLiteral(byte(sym))
			n--
			continue
		}

		sym -= numChars
		length := int(sym & 7)
		if length == numPrimaryLens {
			length += int(d.rd.ReadSymbol(&d.lengthTree))
		}
		length += minMatch

		var dist uint32
		switch slot := int(sym >> 3); {
		case slot < 3:
			dist = d.dict.RepeatOffset(slot)
		case slot < d.numSlots:
			dist = d.readOffset(slot, aligned)
			d.dict.PushOffset(dist)
		default:
			panicf(errors.Corrupted, "invalid position slot: %d", slot)
		}

		if length > n {
			panicf(errors.Corrupted, "match length exceeds block: %d > %d", length, n)
		}
		d.dict.WriteCopy(int(dist), length)
		n -= length
	}
}

// readOffset reads the extra bits of a position slot and returns the offset.
// In aligned offset blocks, the low 3 bits of larger offsets are coded with
// the aligned tree instead of verbatim.
func (d *Decoder) readOffset(slot int, aligned bool) uint32 {
	extra := uint(extraBits[slot])
	dist := positionBase[slot] - 2
	switch {
	case extra == 0:
		return 1
	case aligned && extra > 3:
		dist += d.rd.ReadBitsWide(extra-3) << 3
		dist += uint32(d.rd.ReadSymbol(&d.alignedTree))
	case aligned && extra == 3:
		dist += uint32(d.rd.ReadSymbol(&d.alignedTree))
	default:
		dist += d.rd.ReadBitsWide(extra)
	}
	return dist
}

// readRawData copies n bytes of an uncompressed block into the window.
func (d *Decoder) readRawData(n int) {
	buf := d.dict.WriteSlice()[:n]
	copy(buf, d.rd.ReadRaw(n))
	d.dict.WriteMark(n)
}
