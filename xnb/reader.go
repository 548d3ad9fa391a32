// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package xnb

import (
	"bufio"
	"bytes"
	"hash/crc32"
	"io"
	"io/ioutil"

	"github.com/dsnet/golib/hashmerge"
	"github.com/sirupsen/logrus"

	compress "github.com/dsnet/xnbcompress"
	"github.com/dsnet/xnbcompress/internal/errors"
	"github.com/dsnet/xnbcompress/lzx"
)

type Reader struct {
	InputOffset  int64 // Total number of bytes read from underlying io.Reader
	OutputOffset int64 // Total number of bytes emitted from Read

	rd     compress.ByteReader // Input source
	hdr    Header              // Header of the current file
	toRead []byte              // Uncompressed data ready to be emitted from Read
	inLeft int64               // Stored payload bytes not yet consumed
	outLen int64               // Payload bytes not yet produced
	crc    uint32              // CRC-32 of all bytes produced so far
	frames int                 // Number of frames decoded
	err    error               // Persistent error

	step func(*Reader) // Single step of decompression work (can panic)

	conf   ReaderConfig
	log    logrus.FieldLogger
	dec    *lzx.Decoder
	buf    bytes.Buffer // Output of the current frame
	rawBuf []byte       // Scratch space for uncompressed payloads
}

type ReaderConfig struct {
	// Logger receives per-frame debug traces. By default nothing is logged.
	Logger logrus.FieldLogger

	// TranslateCalls enables E8 call translation in the LZX decoder.
	TranslateCalls bool

	// MaxSize rejects files whose payload would decompress to more than this
	// many bytes. Zero means no limit.
	MaxSize int64

	_ struct{} // Blank field to prevent unkeyed struct literals
}

// NewReader reads the XNB header from r and returns a Reader that yields the
// decompressed payload.
func NewReader(r io.Reader, conf *ReaderConfig) (*Reader, error) {
	xr := new(Reader)
	if conf != nil {
		xr.conf = *conf
	}
	xr.log = xr.conf.Logger
	if xr.log == nil {
		l := logrus.New()
		l.Out = ioutil.Discard
		xr.log = l
	}
	if err := xr.Reset(r); err != nil {
		return nil, err
	}
	return xr, nil
}

// Reset discards the Reader's state and reads the header of a new file from r.
func (xr *Reader) Reset(r io.Reader) error {
	*xr = Reader{
		conf:   xr.conf,
		log:    xr.log,
		dec:    xr.dec,
		buf:    xr.buf,
		rawBuf: xr.rawBuf,
	}
	xr.buf.Reset()
	if br, ok := r.(compress.ByteReader); ok {
		xr.rd = br
	} else {
		xr.rd = bufio.NewReader(r)
	}

	xr.hdr, xr.err = readHeader(xr.rd)
	if xr.err != nil {
		return xr.err
	}
	xr.InputOffset = int64(xr.hdr.Size())
	xr.inLeft = xr.hdr.PayloadSize()
	xr.outLen = int64(xr.hdr.DecompressedSize)
	if xr.conf.MaxSize > 0 && xr.outLen > xr.conf.MaxSize {
		xr.err = errorf(errors.Invalid, "decompressed size %d exceeds limit %d", xr.outLen, xr.conf.MaxSize)
		return xr.err
	}

	switch {
	case xr.hdr.LZ4():
		xr.err = errorf(errors.Unsupported, "lz4 compressed payload")
		return xr.err
	case xr.hdr.LZX():
		if xr.dec == nil {
			conf := &lzx.ReaderConfig{TranslateCalls: xr.conf.TranslateCalls}
			if xr.dec, xr.err = lzx.NewDecoder(windowBits, conf); xr.err != nil {
				return xr.err
			}
		} else {
			xr.dec.Reset()
		}
		xr.step = (*Reader).readFrame
	default:
		xr.step = (*Reader).readRaw
	}
	xr.log.WithField("header", xr.hdr).Debug("read xnb header")
	return nil
}

// Header returns the header of the file being read.
func (xr *Reader) Header() Header {
	return xr.hdr
}

// Checksum returns the CRC-32 (IEEE) of all payload bytes produced so far.
// Once Read reports io.EOF, it is the checksum of the whole payload.
func (xr *Reader) Checksum() uint32 {
	return xr.crc
}

// Frames reports the number of LZX frames decoded so far.
func (xr *Reader) Frames() int {
	return xr.frames
}

func (xr *Reader) Read(buf []byte) (int, error) {
	for {
		if len(xr.toRead) > 0 {
			cnt := copy(buf, xr.toRead)
			xr.toRead = xr.toRead[cnt:]
			xr.OutputOffset += int64(cnt)
			return cnt, nil
		}
		if xr.err != nil {
			return 0, xr.err
		}

		// Perform next step in decompression process.
		func() {
			defer errors.Recover(&xr.err)
			xr.step(xr)
		}()
	}
}

func (xr *Reader) Close() error {
	xr.toRead = nil // Make sure future reads fail
	if xr.err == io.EOF || xr.err == errClosed {
		xr.err = errClosed
		return nil
	}
	return xr.err // Return the persistent error
}

// emit makes b the next data returned by Read.
func (xr *Reader) emit(b []byte) {
	xr.crc = hashmerge.CombineCRC32(crc32.IEEE, xr.crc, crc32.ChecksumIEEE(b), int64(len(b)))
	xr.outLen -= int64(len(b))
	xr.toRead = b
}

// finish ends the stream, which must have produced the declared size.
func (xr *Reader) finish() {
	if xr.outLen != 0 {
		panicf(errors.Corrupted, "payload ended %d bytes short", xr.outLen)
	}
	xr.err = io.EOF
}

func (xr *Reader) readByte() byte {
	c, err := xr.rd.ReadByte()
	errors.Panic(err)
	return c
}

// readFrame reads the size prefix of the next LZX frame and decodes it.
//
// Each frame starts with a big-endian 16-bit compressed size, and decodes to
// 32 KiB. If the first byte is 0xff, the frame instead starts with the
// decompressed size followed by the compressed size, both 16-bit.
func (xr *Reader) readFrame() {
	if xr.outLen == 0 || xr.inLeft <= 0 {
		xr.finish()
		return
	}

	hdrLen := 2
	hi, lo := xr.readByte(), xr.readByte()
	frameSize, blockSize := defaultFrameSize, int(hi)<<8|int(lo)
	if hi == 0xff {
		frameSize = int(lo)<<8 | int(xr.readByte())
		blockSize = int(xr.readByte())<<8 | int(xr.readByte())
		hdrLen = 5
	}
	xr.inLeft -= int64(hdrLen)
	xr.InputOffset += int64(hdrLen)
	if blockSize == 0 || frameSize == 0 {
		xr.finish()
		return
	}
	if int64(blockSize) > xr.inLeft {
		panicf(errors.Corrupted, "frame of %d bytes exceeds remaining input of %d bytes", blockSize, xr.inLeft)
	}
	if int64(frameSize) > xr.outLen {
		panicf(errors.Corrupted, "frame of %d bytes exceeds remaining output of %d bytes", frameSize, xr.outLen)
	}

	xr.buf.Reset()
	errors.Panic(xr.dec.Decompress(xr.rd, blockSize, &xr.buf, frameSize))
	xr.inLeft -= int64(blockSize)
	xr.InputOffset += int64(blockSize)
	xr.frames++
	xr.log.WithFields(logrus.Fields{
		"frame":      xr.frames,
		"compressed": blockSize,
		"size":       frameSize,
	}).Debug("decoded lzx frame")
	xr.emit(xr.buf.Bytes())
}

// readRaw passes through the payload of an uncompressed file.
func (xr *Reader) readRaw() {
	if xr.inLeft == 0 {
		xr.finish()
		return
	}
	if xr.rawBuf == nil {
		xr.rawBuf = make([]byte, defaultFrameSize)
	}
	buf := xr.rawBuf
	if int64(len(buf)) > xr.inLeft {
		buf = buf[:xr.inLeft]
	}
	_, err := io.ReadFull(xr.rd, buf)
	errors.Panic(err)
	xr.inLeft -= int64(len(buf))
	xr.InputOffset += int64(len(buf))
	xr.emit(buf)
}
