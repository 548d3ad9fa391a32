// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsnet/xnbcompress/internal/errors"
	"github.com/dsnet/xnbcompress/internal/testutil"
)

func TestDictDecoderOverlap(t *testing.T) {
	var dd dictDecoder
	dd.Init(1 << MinWindowBits)

	dd.WriteLiteral('a')
	dd.WriteLiteral('b')
	dd.WriteCopy(2, 6)
	dd.WriteLiteral('c')
	dd.WriteCopy(1, 3)
	assert.Equal(t, "ababababcccc", string(dd.ReadLast(nil, 12)))

	// Bytes before the start of the stream come from the initial fill.
	dd.Init(1 << MinWindowBits)
	dd.WriteCopy(3, 2)
	assert.Equal(t, []byte{windowFill, windowFill}, dd.ReadLast(nil, 2))
}

func TestDictDecoderWrap(t *testing.T) {
	const size = 1 << MinWindowBits
	var dd dictDecoder
	dd.Init(size)

	// Compare the window against a linear history for several window lengths.
	var want []byte
	rand := testutil.NewRand(0)
	for len(want) < 3*size {
		switch rand.Intn(4) {
		case 0:
			c := byte(rand.Int())
			dd.WriteLiteral(c)
			want = append(want, c)
		case 1:
			n := 1 + rand.Intn(100)
			if n > dd.AvailSize() {
				n = dd.AvailSize()
			}
			b := rand.Bytes(n)
			copy(dd.WriteSlice(), b)
			dd.WriteMark(n)
			want = append(want, b...)
		default:
			if len(want) == 0 {
				continue
			}
			dist := 1 + rand.Intn(len(want))
			if dist > size {
				dist = size
			}
			length := minMatch + rand.Intn(300)
			dd.WriteCopy(dist, length)
			for i := 0; i < length; i++ {
				want = append(want, want[len(want)-dist])
			}
		}

		n := rand.Intn(size + 1)
		if n > len(want) {
			n = len(want)
		}
		if got := dd.ReadLast(nil, n); !bytes.Equal(got, want[len(want)-n:]) {
			t.Fatalf("window mismatch after %d bytes, ReadLast(%d)", len(want), n)
		}
	}
}

func TestDictDecoderInvalidOffset(t *testing.T) {
	var dd dictDecoder
	dd.Init(1 << MinWindowBits)
	for _, dist := range []int{0, -1, 1<<MinWindowBits + 1} {
		err := catch(func() { dd.WriteCopy(dist, 4) })
		assert.True(t, errors.IsCorrupted(err), "WriteCopy(%d): got %v, want corruption", dist, err)
	}
	assert.NoError(t, catch(func() { dd.WriteCopy(1<<MinWindowBits, 4) }))
}

func TestDictDecoderRegisters(t *testing.T) {
	var dd dictDecoder
	dd.Init(1 << MinWindowBits)
	assert.Equal(t, [3]uint32{1, 1, 1}, dd.lru)

	dd.PushOffset(10)
	dd.PushOffset(20)
	dd.PushOffset(30)
	assert.Equal(t, [3]uint32{30, 20, 10}, dd.lru)

	assert.Equal(t, uint32(30), dd.RepeatOffset(0))
	assert.Equal(t, [3]uint32{30, 20, 10}, dd.lru)

	assert.Equal(t, uint32(20), dd.RepeatOffset(1))
	assert.Equal(t, [3]uint32{20, 30, 10}, dd.lru)

	assert.Equal(t, uint32(30), dd.RepeatOffset(1))
	assert.Equal(t, [3]uint32{30, 20, 10}, dd.lru)

	assert.Equal(t, uint32(10), dd.RepeatOffset(2))
	assert.Equal(t, [3]uint32{10, 20, 30}, dd.lru)
}
