// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package xnb

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"hash/crc32"
	"io"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsnet/xnbcompress/internal/errors"
	"github.com/dsnet/xnbcompress/internal/testutil"
)

// makeXNB builds an XNB file holding data. If frames is nil, the payload is
// stored uncompressed. If explicit is set, every frame declares its size.
func makeXNB(data []byte, frames [][]byte, explicit bool) []byte {
	var payload []byte
	remain := len(data)
	for _, f := range frames {
		n := remain
		if n > defaultFrameSize {
			n = defaultFrameSize
		}
		if n != defaultFrameSize || explicit {
			payload = append(payload, 0xff, byte(n>>8), byte(n))
		}
		payload = append(payload, byte(len(f)>>8), byte(len(f)))
		payload = append(payload, f...)
		remain -= n
	}

	var hdr []byte
	hdr = append(hdr, "XNBw\x05"...)
	if frames == nil {
		hdr = append(hdr, 0x00)
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(hdrSize+len(data)))
		return append(hdr, data...)
	}
	hdr = append(hdr, flagLZX|flagHiDef)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(hdrSizeCompressed+len(payload)))
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(data)))
	return append(hdr, payload...)
}

func TestReader(t *testing.T) {
	data := testutil.NewRand(0).Repeats(100000, 1<<windowBits)
	frames := testutil.EncodeLZX(data, windowBits, defaultFrameSize, 50001)

	vectors := []struct {
		desc   string
		input  []byte
		frames int
	}{
		{desc: "lzx", input: makeXNB(data, frames, false), frames: len(frames)},
		{desc: "lzx with explicit frame sizes", input: makeXNB(data, frames, true), frames: len(frames)},
		{desc: "uncompressed", input: makeXNB(data, nil, false)},
	}

	for _, v := range vectors {
		t.Run(v.desc, func(t *testing.T) {
			xr, err := NewReader(bytes.NewReader(v.input), nil)
			require.NoError(t, err)
			assert.Equal(t, byte('w'), xr.Header().Platform)
			assert.Equal(t, uint32(len(v.input)), xr.Header().FileSize)
			assert.Equal(t, uint32(len(data)), xr.Header().DecompressedSize)

			got, err := ioutil.ReadAll(xr)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, got), "output mismatch")
			assert.Equal(t, crc32.ChecksumIEEE(data), xr.Checksum())
			assert.Equal(t, v.frames, xr.Frames())
			assert.Equal(t, int64(len(v.input)), xr.InputOffset)
			assert.Equal(t, int64(len(data)), xr.OutputOffset)

			assert.NoError(t, xr.Close())
			_, err = xr.Read(make([]byte, 1))
			assert.True(t, errors.IsClosed(err), "Read after Close: got %v", err)
		})
	}
}

func TestReaderReset(t *testing.T) {
	rand := testutil.NewRand(1)
	data1 := rand.Repeats(40000, 1<<windowBits)
	data2 := rand.Repeats(70000, 1<<windowBits)
	file1 := makeXNB(data1, testutil.EncodeLZX(data1, windowBits, defaultFrameSize, 1<<15), false)
	file2 := makeXNB(data2, testutil.EncodeLZX(data2, windowBits, defaultFrameSize, 1<<15), false)

	xr, err := NewReader(bytes.NewReader(file1), nil)
	require.NoError(t, err)
	got, err := ioutil.ReadAll(xr)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data1, got), "output mismatch")

	require.NoError(t, xr.Reset(bytes.NewReader(file2)))
	got, err = ioutil.ReadAll(xr)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data2, got), "output mismatch")
	assert.Equal(t, crc32.ChecksumIEEE(data2), xr.Checksum())
}

func TestReaderHeader(t *testing.T) {
	vectors := []struct {
		desc  string
		input string
		errf  func(error) bool
	}{{
		desc:  "short header",
		input: "XNBw\x05\x00\x0a\x00",
		errf:  func(err error) bool { return err == io.ErrUnexpectedEOF },
	}, {
		desc:  "short compressed header",
		input: "XNBw\x05\x80\x0e\x00\x00\x00\x00",
		errf:  func(err error) bool { return err == io.ErrUnexpectedEOF },
	}, {
		desc:  "invalid magic",
		input: "XNCw\x05\x00\x0a\x00\x00\x00",
		errf:  errors.IsCorrupted,
	}, {
		desc:  "unknown platform",
		input: "XNBq\x05\x00\x0a\x00\x00\x00",
		errf:  errors.IsCorrupted,
	}, {
		desc:  "unknown version",
		input: "XNBw\x03\x00\x0a\x00\x00\x00",
		errf:  errors.IsUnsupported,
	}, {
		desc:  "lzx flag takes precedence over lz4",
		input: "XNBw\x05\xc1\x0e\x00\x00\x00\x00\x00\x00\x00",
	}, {
		desc:  "file size too small",
		input: "XNBw\x05\x80\x0d\x00\x00\x00\x00\x00\x00\x00",
		errf:  errors.IsCorrupted,
	}, {
		desc:  "lz4 payload",
		input: "XNBw\x05\x40\x0e\x00\x00\x00\x00\x00\x00\x00",
		errf:  errors.IsUnsupported,
	}, {
		desc:  "empty uncompressed payload",
		input: "XNBx\x04\x01\x0a\x00\x00\x00",
	}}

	for _, v := range vectors {
		xr, err := NewReader(bytes.NewReader([]byte(v.input)), nil)
		if v.errf != nil {
			assert.True(t, v.errf(err), "%s: unexpected error: %v", v.desc, err)
			continue
		}
		require.NoError(t, err, v.desc)
		assert.True(t, xr.Header().HiDef(), v.desc)
		assert.False(t, xr.Header().LZ4(), v.desc)
		n, err := xr.Read(make([]byte, 1))
		assert.Equal(t, 0, n, v.desc)
		assert.Equal(t, io.EOF, err, v.desc)
	}
}

func TestReaderErrors(t *testing.T) {
	data := testutil.NewRand(2).Repeats(80000, 1<<windowBits)
	frames := testutil.EncodeLZX(data, windowBits, defaultFrameSize, 1<<15)
	file := makeXNB(data, frames, false)

	t.Run("truncated", func(t *testing.T) {
		xr, err := NewReader(bytes.NewReader(file[:len(file)-100]), nil)
		require.NoError(t, err)
		_, err = ioutil.ReadAll(xr)
		assert.Equal(t, io.ErrUnexpectedEOF, err)
		assert.Equal(t, io.ErrUnexpectedEOF, xr.Close())
	})

	t.Run("missing frames", func(t *testing.T) {
		short := makeXNB(data, frames[:1], false)
		xr, err := NewReader(bytes.NewReader(short), nil)
		require.NoError(t, err)
		_, err = ioutil.ReadAll(xr)
		assert.True(t, errors.IsCorrupted(err), "unexpected error: %v", err)
	})

	t.Run("corrupted frame", func(t *testing.T) {
		bad := append([]byte(nil), file...)
		bad[hdrSizeCompressed+3] ^= 0x70 // Block type 6 instead of 1
		xr, err := NewReader(bytes.NewReader(bad), nil)
		require.NoError(t, err)
		_, err = ioutil.ReadAll(xr)
		assert.True(t, errors.IsCorrupted(err), "unexpected error: %v", err)
	})

	t.Run("reader error", func(t *testing.T) {
		errBroken := stderrors.New("broken pipe")
		rd := &testutil.BuggyReader{R: bytes.NewReader(file), N: 2000, Err: errBroken}
		xr, err := NewReader(rd, nil)
		require.NoError(t, err)
		_, err = ioutil.ReadAll(xr)
		assert.Equal(t, errBroken, err)
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(file), &ReaderConfig{MaxSize: 1 << 16})
		assert.True(t, errors.IsInvalid(err), "unexpected error: %v", err)
		_, err = NewReader(bytes.NewReader(file), &ReaderConfig{MaxSize: 1 << 17})
		assert.NoError(t, err)
	})
}

func TestReaderLogger(t *testing.T) {
	data := testutil.NewRand(3).Repeats(70000, 1<<windowBits)
	frames := testutil.EncodeLZX(data, windowBits, defaultFrameSize, 1<<15)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	xr, err := NewReader(bytes.NewReader(makeXNB(data, frames, false)), &ReaderConfig{Logger: logger})
	require.NoError(t, err)
	_, err = io.Copy(ioutil.Discard, xr)
	require.NoError(t, err)

	// One entry for the header and one per frame.
	require.Len(t, hook.AllEntries(), 1+len(frames))
	last := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, last.Level)
	assert.Equal(t, len(frames), last.Data["frame"])
}
