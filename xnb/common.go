// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package xnb implements a reader for XNA content (XNB) files.
//
// An XNB file starts with a small header describing the target platform, the
// format version, and whether the payload is compressed. Compressed payloads
// are a sequence of LZX frames, each preceded by its compressed size and,
// optionally, its decompressed size. The Reader parses the header and yields
// the decompressed payload, which holds the serialized asset.
package xnb

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dsnet/xnbcompress/internal/errors"
)

const (
	magic = "XNB"

	hdrSize           = 10 // Size of the header of an uncompressed file
	hdrSizeCompressed = 14 // Size of the header of a compressed file

	flagHiDef = 0x01
	flagLZ4   = 0x40
	flagLZX   = 0x80

	windowBits       = 16
	defaultFrameSize = 1 << 15
)

// platforms is the set of target platform identifiers accepted in headers.
var platforms = map[byte]bool{
	'w': true, 'x': true, 'm': true, 'i': true, 'a': true,
	'd': true, 'X': true, 'W': true, 'n': true, 'M': true,
	'r': true, 'P': true, 'v': true, 'O': true, 'S': true,
	'G': true, 'b': true, 'p': true, 'g': true, 'l': true,
}

func errorf(c int, f string, a ...interface{}) error {
	return errors.Error{Code: c, Pkg: "xnb", Msg: fmt.Sprintf(f, a...)}
}

func panicf(c int, f string, a ...interface{}) {
	errors.Panic(errorf(c, f, a...))
}

var errClosed = errors.Error{Code: errors.Closed, Pkg: "xnb"}

// Header is the fixed header at the start of every XNB file.
type Header struct {
	Platform byte   // Target platform identifier
	Version  byte   // Format version; either 4 or 5
	Flags    byte   // Bit set of HiDef and compression flags
	FileSize uint32 // Size of the whole file, including the header

	// DecompressedSize is the size of the payload after decompression.
	// For uncompressed files it is the size of the stored payload.
	DecompressedSize uint32
}

func (h Header) HiDef() bool { return h.Flags&flagHiDef != 0 }
func (h Header) LZX() bool { return h.Flags&flagLZX != 0 }

// LZ4 reports whether the payload is LZ4 compressed. The LZX flag takes
// precedence when both are set.
func (h Header) LZ4() bool { return h.Flags&flagLZ4 != 0 && !h.LZX() }

// Compressed reports whether the payload is compressed with either scheme.
func (h Header) Compressed() bool { return h.LZX() || h.LZ4() }

// Size reports the size of the header itself.
func (h Header) Size() int {
	if h.Compressed() {
		return hdrSizeCompressed
	}
	return hdrSize
}

// PayloadSize reports the number of stored bytes following the header.
func (h Header) PayloadSize() int64 {
	return int64(h.FileSize) - int64(h.Size())
}

func (h Header) String() string {
	comp := "none"
	switch {
	case h.LZX():
		comp = "lzx"
	case h.LZ4():
		comp = "lz4"
	}
	return fmt.Sprintf("xnb{platform: %q, version: %d, hidef: %v, compression: %s, size: %d, decompressed: %d}",
		h.Platform, h.Version, h.HiDef(), comp, h.FileSize, h.DecompressedSize)
}

// readHeader reads and validates the header.
func readHeader(r io.Reader) (h Header, err error) {
	var buf [hdrSizeCompressed]byte
	if _, err := io.ReadFull(r, buf[:hdrSize]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return h, err
	}
	if string(buf[:3]) != magic {
		return h, errorf(errors.Corrupted, "invalid magic: %q", buf[:3])
	}
	h.Platform, h.Version, h.Flags = buf[3], buf[4], buf[5]
	h.FileSize = binary.LittleEndian.Uint32(buf[6:])
	if !platforms[h.Platform] {
		return h, errorf(errors.Corrupted, "unknown target platform: %q", h.Platform)
	}
	if h.Version != 4 && h.Version != 5 {
		return h, errorf(errors.Unsupported, "unknown version: %d", h.Version)
	}

	if h.Compressed() {
		if _, err := io.ReadFull(r, buf[hdrSize:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return h, err
		}
		h.DecompressedSize = binary.LittleEndian.Uint32(buf[hdrSize:])
	}
	if h.PayloadSize() < 0 {
		return h, errorf(errors.Corrupted, "file size too small: %d", h.FileSize)
	}
	if !h.Compressed() {
		h.DecompressedSize = uint32(h.PayloadSize())
	}
	return h, nil
}
