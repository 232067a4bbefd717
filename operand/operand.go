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

// Package operand implements the PVM's variable-length operand
// decoder (§4.4): given the opcode at the current PC and the number
// of trailing operand bytes (Fskip), it splits those bytes into
// register fields and sign-extended immediates according to one of
// six formats, plus the host-call-id decode ECALLI uses.
package operand

import "github.com/probechain/pvm/ints"

// Format selects which of the operand-byte layouts a given opcode
// uses. The format is a property of the opcode (looked up in the
// program catalog), not something derived at decode time.
type Format uint8

const (
	// NoOperands is used by opcodes with no operand bytes (TRAP,
	// FALLTHROUGH).
	NoOperands Format = iota
	// OneOffset is the static-jump format: no registers, a single
	// PC-relative offset of length min(4, ell).
	OneOffset
	// OneRegOneImm decodes r_A from the low nibble of the first
	// operand byte and a sign-extended immediate from the rest.
	OneRegOneImm
	// TwoRegsOneImm decodes r_A (low nibble) and r_B (high nibble)
	// from the first operand byte and a sign-extended immediate from
	// the rest. Individual opcodes reassign the meaning of the three
	// fields (e.g. treating the immediate as a clamped register index
	// for three-register arithmetic — see vm's handler table).
	TwoRegsOneImm
	// OneRegTwoImm decodes r_A from the low nibble of the first byte,
	// then two sign-extended immediates whose lengths are themselves
	// encoded in the high nibble of the first byte (l_X, bounded by the
	// ell-1 bytes that follow it) and derived from what remains (l_Y).
	OneRegTwoImm
	// TwoImm decodes two sign-extended immediates with no registers;
	// l_X comes from the low 3 bits of the first operand byte.
	TwoImm
	// TwoRegsTwoImm decodes r_A/r_B from the first operand byte and
	// two sign-extended immediates following, with l_X derived from
	// the low 3 bits of the second operand byte.
	TwoRegsTwoImm
	// TwoRegsOffset decodes r_A/r_B from the first operand byte and a
	// PC-relative offset from the rest.
	TwoRegsOffset
	// ECalliImm is ECALLI's own format: an unsigned little-endian
	// host-call id of length min(4, ell), zero when ell=0.
	ECalliImm
)

// Operands is the decoded view a C5 handler consumes. Which fields
// are meaningful depends on the opcode's Format; see the per-format
// decode functions below for exactly what each populates.
type Operands struct {
	RegA, RegB uint8
	ImmX, ImmY uint64
	LenX, LenY int
	Offset     int64 // populated by OneOffset / TwoRegsOffset only
	HostCallID uint64
}

// regClamp maps a raw 4-bit nibble (or a small immediate used as a
// register index) to a valid register index: min(12, raw).
func regClamp(raw uint8) uint8 {
	if raw > 12 {
		return 12
	}
	return raw
}

// signfunc is the n-byte two's complement reinterpretation the spec
// defines for PC-relative offsets (§4.4): result is x if x is below
// the n-byte sign bit, else x - 2^(8n). For n=0 the result is 0.
func signfunc(x uint64, n int) int64 {
	if n == 0 {
		return 0
	}
	bitsN := uint(n * 8)
	signBit := uint64(1) << (bitsN - 1)
	if x < signBit {
		return int64(x)
	}
	return int64(x) - int64(uint64(1)<<bitsN)
}

// little decodes the first n bytes of b as an unsigned little-endian
// integer; n may be 0..8 and b must have at least n bytes.
func little(b []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}

// sextN decodes the first n bytes of b little-endian then sign
// extends the 8n-bit result to 64 bits. n=0 yields 0.
func sextN(b []byte, n int) uint64 {
	if n == 0 {
		return 0
	}
	return ints.Sext(little(b, n), uint(n))
}

// Decode splits op (the ell operand bytes following an opcode) per
// format. op must have at least ell bytes; callers derive ell from
// program.Program.Fskip. Register and length fields read from the
// first one or two operand bytes even when ell is smaller; any such
// byte past the end of op reads as zero. Immediate lengths are bounded
// so that the decoded fields never extend past ell.
func Decode(format Format, op []byte, ell int) Operands {
	if len(op) < ell+2 {
		op = append(append(make([]byte, 0, ell+2), op...), make([]byte, ell+2-len(op))...)
	}
	switch format {
	case NoOperands:
		return Operands{}

	case OneOffset:
		lx := min(4, ell)
		return Operands{Offset: signfunc(little(op, lx), lx), LenX: lx}

	case OneRegOneImm:
		regA := regClamp(op[0] & 0x0F)
		lx := min(4, max0(ell-1))
		imm := sextN(op[1:], lx)
		return Operands{RegA: regA, ImmX: imm, LenX: lx}

	case TwoRegsOneImm:
		regA := regClamp(op[0] & 0x0F)
		regB := regClamp((op[0] >> 4) & 0x0F)
		lx := min(4, max0(ell-1))
		imm := sextN(op[1:], lx)
		return Operands{RegA: regA, RegB: regB, ImmX: imm, LenX: lx}

	case OneRegTwoImm:
		regA := regClamp(op[0] & 0x0F)
		lx := min(4, min(int((op[0]>>4)&0x07), max0(ell-1)))
		ly := min(4, max0(ell-lx-1))
		immX := sextN(op[1:], lx)
		immY := sextN(op[1+lx:], ly)
		return Operands{RegA: regA, ImmX: immX, ImmY: immY, LenX: lx, LenY: ly}

	case TwoImm:
		lx := min(4, min(int(op[0]&0x07), max0(ell-1)))
		ly := min(4, max0(ell-lx-1))
		immX := sextN(op[1:], lx)
		immY := sextN(op[1+lx:], ly)
		return Operands{ImmX: immX, ImmY: immY, LenX: lx, LenY: ly}

	case TwoRegsTwoImm:
		regA := regClamp(op[0] & 0x0F)
		regB := regClamp((op[0] >> 4) & 0x0F)
		lx := min(4, min(int(op[1]&0x07), max0(ell-2)))
		ly := min(4, max0(ell-lx-2))
		immX := sextN(op[2:], lx)
		immY := sextN(op[2+lx:], ly)
		return Operands{RegA: regA, RegB: regB, ImmX: immX, ImmY: immY, LenX: lx, LenY: ly}

	case TwoRegsOffset:
		regA := regClamp(op[0] & 0x0F)
		regB := regClamp((op[0] >> 4) & 0x0F)
		lx := min(4, max0(ell-1))
		return Operands{RegA: regA, RegB: regB, Offset: signfunc(little(op[1:], lx), lx), LenX: lx}

	case ECalliImm:
		lx := min(4, ell)
		return Operands{HostCallID: little(op, lx), LenX: lx}
	}
	return Operands{}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max0(a int) int {
	if a < 0 {
		return 0
	}
	return a
}
