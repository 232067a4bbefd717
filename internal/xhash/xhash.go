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

// Package xhash provides the Keccak256 hashing this module uses to
// key its program-image cache and, for the reference accumulate
// mutator, its yield-hash host call. It is the Keccak slice of the
// teacher's crypto package with the ECDSA/address half removed — this
// module has no account machinery to hash against.
package xhash

import "golang.org/x/crypto/sha3"

// Size is the length in bytes of a Keccak256 digest.
const Size = 32

// KeccakState wraps sha3.state; beyond the usual hash.Hash methods it
// supports Read, which is faster than Sum because it doesn't copy the
// internal state.
type KeccakState interface {
	Write(p []byte) (n int, err error)
	Read(p []byte) (n int, err error)
	Reset()
}

// NewKeccakState returns a fresh Keccak256 sponge.
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 hashes the concatenation of data into a 32-byte digest.
func Keccak256(data ...[]byte) [Size]byte {
	var out [Size]byte
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(out[:])
	return out
}
