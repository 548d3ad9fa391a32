// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Rand implements a deterministic pseudo-random number generator.
// This differs from the math.Rand in that the exact output will be consistent
// across different versions of Go.
type Rand struct {
	cipher.Block
	blk [aes.BlockSize]byte
}

func NewRand(seed int) *Rand {
	var key [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	r, _ := aes.NewCipher(key[:])
	return &Rand{Block: r}
}

func (r *Rand) Int() (x int) {
	r.Encrypt(r.blk[:], r.blk[:])
	x |= int(r.blk[0]) << 0
	x |= int(r.blk[1]) << 8
	x |= int(r.blk[2]) << 16
	x |= int(r.blk[3]) << 24
	x |= int(r.blk[4]) << 32
	x |= int(r.blk[5]) << 40
	x |= int(r.blk[6]) << 48
	x |= int(r.blk[7]&0x3f) << 56
	return x
}

func (r *Rand) Intn(n int) int {
	return r.Int() % n
}

func (r *Rand) Bytes(n int) []byte {
	b := make([]byte, n)
	bb := b
	for len(bb) > 0 {
		r.Encrypt(r.blk[:], r.blk[:])
		cnt := copy(bb, r.blk[:])
		bb = bb[cnt:]
	}
	return b
}

func (r *Rand) Perm(n int) []int {
	m := make([]int, n)
	for i := 0; i < n; i++ {
		j := r.Intn(i + 1)
		m[i] = m[j]
		m[j] = i
	}
	return m
}

// Repeats returns n bytes of mostly random data where the bulk of the bytes
// are copies from some distance ago. Such data heavily favors LZ77 schemes
// while giving prefix coding little to gain.
func (r *Rand) Repeats(n, maxDist int) []byte {
	randLen := func() int {
		lo := 4 << uint(r.Intn(7)) // 4..256
		return lo + r.Intn(lo)
	}
	randDist := func(limit int) int {
		if limit > maxDist {
			limit = maxDist
		}
		hi := 2 << uint(r.Intn(15)) // 2..32768
		d := hi/2 + r.Intn(hi/2)
		if d > limit {
			d = 1 + r.Intn(limit)
		}
		return d
	}

	b := make([]byte, 0, n+512)
	b = append(b, r.Bytes(randLen())...)
	for len(b) < n {
		switch p := r.Intn(10); {
		case p == 0:
			b = append(b, r.Bytes(randLen())...)
		default:
			d, l := randDist(len(b)), randLen()
			for i := 0; i < l; i++ {
				b = append(b, b[len(b)-d])
			}
		}
	}
	return b[:n]
}
