// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzx

import (
	"github.com/dsnet/xnbcompress/internal/errors"
)

type entryKind uint8

const (
	entryEmpty entryKind = iota // No code maps to this entry
	entryLeaf                   // val is a symbol
	entryNode                   // val indexes into prefixDecoder.links
)

// prefixEntry is a single slot of a decode table.
type prefixEntry struct {
	kind entryKind
	val  uint16
}

// The prefixDecoder decodes canonical prefix codes.
//
// Codes no longer than chunkBits are resolved by a single lookup into chunks,
// which is indexed by the next chunkBits bits of the stream. Longer codes land
// on a node entry, and the remaining bits are resolved one at a time by
// walking binary nodes stored in links.
type prefixDecoder struct {
	lens      []uint8          // Code length of each symbol; owned by the caller
	chunks    []prefixEntry    // Direct lookup table of 1<<chunkBits entries
	links     [][2]prefixEntry // Overflow nodes, indexed by entryNode values
	chunkBits uint
}

// Init builds the decode table for the canonical code described by lens.
// It panics with a corruption error if the lengths over-subscribe the code
// space or if they describe an incomplete code. All-zero lengths are valid and
// produce an empty table where every lookup fails.
func (pd *prefixDecoder) Init(lens []uint8, chunkBits uint) {
	numChunks := 1 << chunkBits
	if cap(pd.chunks) < numChunks {
		pd.chunks = make([]prefixEntry, numChunks)
	} else {
		pd.chunks = pd.chunks[:numChunks]
		for i := range pd.chunks {
			pd.chunks[i] = prefixEntry{}
		}
	}
	pd.lens, pd.links, pd.chunkBits = lens, pd.links[:0], chunkBits

	// Assign codes in canonical order: by length, then by symbol.
	// The value of pos is the next free code left-aligned to chunkBits.
	var pos uint32
	for n := uint(1); n <= chunkBits; n++ {
		fill := uint32(1) << (chunkBits - n)
		for sym, l := range lens {
			if uint(l) != n {
				continue
			}
			if pos+fill > uint32(numChunks) {
				panicf(errors.Corrupted, "over-subscribed prefix code")
			}
			for i := pos; i < pos+fill; i++ {
				pd.chunks[i] = prefixEntry{kind: entryLeaf, val: uint16(sym)}
			}
			pos += fill
		}
	}

	// Codes longer than chunkBits track 16 more bits of precision.
	full := uint32(numChunks) << 16
	pos <<= 16
	for n := chunkBits + 1; n <= maxCodeBits; n++ {
		fill := uint32(1) << (16 + chunkBits - n)
		for sym, l := range lens {
			if uint(l) != n {
				continue
			}
			if pos+fill > full {
				panicf(errors.Corrupted, "over-subscribed prefix code")
			}
			pd.insertLong(pos, n, uint16(sym))
			pos += fill
		}
	}

	if pos != full {
		for _, l := range lens {
			if l != 0 {
				panicf(errors.Corrupted, "incomplete prefix code")
			}
		}
	}
}

// insertLong places sym, whose n-bit code is the prefix of pos, by walking
// (and creating) the nodes below its direct table entry.
func (pd *prefixDecoder) insertLong(pos uint32, n uint, sym uint16) {
	parent, slot := -1, pos>>16
	for k := uint(0); k < n-pd.chunkBits; k++ {
		e := pd.entry(parent, slot)
		switch e.kind {
		case entryEmpty:
			pd.links = append(pd.links, [2]prefixEntry{})
			e = prefixEntry{kind: entryNode, val: uint16(len(pd.links) - 1)}
			pd.setEntry(parent, slot, e)
		case entryLeaf:
			panicf(errors.Corrupted, "over-subscribed prefix code")
		}
		parent, slot = int(e.val), (pos>>(15-k))&1
	}
	if pd.entry(parent, slot).kind != entryEmpty {
		panicf(errors.Corrupted, "over-subscribed prefix code")
	}
	pd.setEntry(parent, slot, prefixEntry{kind: entryLeaf, val: sym})
}

func (pd *prefixDecoder) entry(parent int, slot uint32) prefixEntry {
	if parent < 0 {
		return pd.chunks[slot]
	}
	return pd.links[parent][slot]
}

func (pd *prefixDecoder) setEntry(parent int, slot uint32, e prefixEntry) {
	if parent < 0 {
		pd.chunks[slot] = e
	} else {
		pd.links[parent][slot] = e
	}
}
