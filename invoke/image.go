// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package invoke implements the PVM's invocation wrapper Ψ_M (C7):
// parsing a program image, laying out memory and registers, running
// the execution core with a caller-supplied mutator, and collapsing
// the result into a gas-consumed/result/Implications triple.
package invoke

import (
	"encoding/binary"
	"fmt"
)

// ImageLayout is the decoded form of a program image: everything
// needed to build a program.Program and an initial memory.Memory.
type ImageLayout struct {
	HeapPad   uint64
	ROData    []byte
	RWData    []byte
	StackSize uint64
	JumpTable []uint32
	Code      []byte
	Mask      []bool
}

// ErrTruncatedImage is returned when the blob ends before a length
// field it declared promises.
var ErrTruncatedImage = fmt.Errorf("invoke: truncated program image")

// ErrInvalidJumpEntrySize is returned when the image's jump-table
// entry width is not one of 1, 2, 3, or 4 bytes.
var ErrInvalidJumpEntrySize = fmt.Errorf("invoke: invalid jump table entry size")

type reader struct {
	b   []byte
	pos int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.b) {
		return ErrTruncatedImage
	}
	return nil
}

func (r *reader) uint24() (uint64, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	v := uint64(r.b[r.pos]) | uint64(r.b[r.pos+1])<<8 | uint64(r.b[r.pos+2])<<16
	r.pos += 3
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ParseImage decodes the normative program-image byte layout (§6):
//
//	heap_pad        uint64 LE             (8 bytes)
//	ro_len          uint24 LE              (3 bytes)
//	rw_len          uint24 LE               (3 bytes)
//	stack_size      uint24 LE               (3 bytes)
//	ro_data         [ro_len]byte
//	rw_data         [rw_len]byte
//	jump_entry_size uint8                   (1, 2, 3, or 4)
//	jump_entry_count uint32 LE
//	jump_table      [jump_entry_count]uintN LE (N = jump_entry_size)
//	code_len        uint32 LE
//	code            [code_len]byte
//	bitmask_len     uint32 LE
//	bitmask         [bitmask_len]byte, bit i of byte i/8 (LSB first)
func ParseImage(blob []byte) (*ImageLayout, error) {
	r := &reader{b: blob}

	heapPad, err := r.uint64()
	if err != nil {
		return nil, err
	}
	roLen, err := r.uint24()
	if err != nil {
		return nil, err
	}
	rwLen, err := r.uint24()
	if err != nil {
		return nil, err
	}
	stackSize, err := r.uint24()
	if err != nil {
		return nil, err
	}
	roData, err := r.take(int(roLen))
	if err != nil {
		return nil, err
	}
	rwData, err := r.take(int(rwLen))
	if err != nil {
		return nil, err
	}
	entrySize, err := r.uint8()
	if err != nil {
		return nil, err
	}
	if entrySize < 1 || entrySize > 4 {
		return nil, ErrInvalidJumpEntrySize
	}
	entryCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	jumpTable := make([]uint32, entryCount)
	for i := range jumpTable {
		raw, err := r.take(int(entrySize))
		if err != nil {
			return nil, err
		}
		var v uint32
		for j, b := range raw {
			v |= uint32(b) << (8 * uint(j))
		}
		jumpTable[i] = v
	}
	codeLen, err := r.uint32()
	if err != nil {
		return nil, err
	}
	code, err := r.take(int(codeLen))
	if err != nil {
		return nil, err
	}
	bitmaskLen, err := r.uint32()
	if err != nil {
		return nil, err
	}
	packed, err := r.take(int(bitmaskLen))
	if err != nil {
		return nil, err
	}
	mask := unpackBits(packed, int(codeLen))

	return &ImageLayout{
		HeapPad:   heapPad,
		ROData:    append([]byte(nil), roData...),
		RWData:    append([]byte(nil), rwData...),
		StackSize: stackSize,
		JumpTable: jumpTable,
		Code:      append([]byte(nil), code...),
		Mask:      mask,
	}, nil
}

func unpackBits(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		if byteIdx < len(packed) {
			out[i] = packed[byteIdx]&(1<<bitIdx) != 0
		}
	}
	return out
}

// packBits is the inverse of unpackBits, used by test fixtures.
func packBits(mask []bool) []byte {
	out := make([]byte, (len(mask)+7)/8)
	for i, set := range mask {
		if set {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
