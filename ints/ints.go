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

// Package ints implements the fixed-width integer primitives the PVM
// instruction handlers build on: sign-extension, the div/rem special
// cases, shifts, rotations, widening multiplies and bit-counting.
// Every function here is pure and operates on raw 64-bit bit patterns;
// signedness is always an explicit conversion at the call site, never
// implicit.
package ints

import "math/bits"

// Sext sign-extends the low 8*n bits of x to a full 64-bit two's
// complement value. n must be one of {1, 2, 3, 4, 8}; n=8 is the
// identity on the low 64 bits.
func Sext(x uint64, n uint) uint64 {
	if n >= 8 {
		return x
	}
	bitsN := n * 8
	shift := 64 - bitsN
	return uint64(int64(x<<shift) >> shift)
}

// Signed reinterprets a 64-bit unsigned bit pattern as signed 64-bit.
func Signed(x uint64) int64 { return int64(x) }

// Unsigned reinterprets a signed 64-bit value as its 64-bit unsigned
// bit pattern. It is the exact inverse of Signed.
func Unsigned(s int64) uint64 { return uint64(s) }

// DivU32 implements unsigned 32-bit division with the spec's
// division-by-zero convention: quotient = 2^32-1.
func DivU32(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}
	return a / b
}

// RemU32 implements unsigned 32-bit remainder; division by zero
// returns the dividend unchanged.
func RemU32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

// DivS32 implements signed 32-bit division with the spec's special
// cases: division by zero yields -1 (all-ones); the overflow case
// (MinInt32 / -1) yields the dividend reinterpreted as unsigned.
func DivS32(a, b int32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}
	if a == -2147483648 && b == -1 {
		return uint32(a)
	}
	return uint32(a / b)
}

// RemS32 implements signed 32-bit remainder (truncation toward zero).
// Division by zero returns the dividend; the MinInt32/-1 overflow case
// returns 0.
func RemS32(a, b int32) uint32 {
	if b == 0 {
		return uint32(a)
	}
	if a == -2147483648 && b == -1 {
		return 0
	}
	return uint32(a % b)
}

// DivU64 is the 64-bit counterpart of DivU32.
func DivU64(a, b uint64) uint64 {
	if b == 0 {
		return 0xFFFFFFFFFFFFFFFF
	}
	return a / b
}

// RemU64 is the 64-bit counterpart of RemU32.
func RemU64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

// DivS64 is the 64-bit counterpart of DivS32.
func DivS64(a, b int64) uint64 {
	if b == 0 {
		return 0xFFFFFFFFFFFFFFFF
	}
	if a == -9223372036854775808 && b == -1 {
		return uint64(a)
	}
	return uint64(a / b)
}

// RemS64 is the 64-bit counterpart of RemS32.
func RemS64(a, b int64) uint64 {
	if b == 0 {
		return uint64(a)
	}
	if a == -9223372036854775808 && b == -1 {
		return 0
	}
	return uint64(a % b)
}

// ShlU32 shifts the low 32 bits of x left by shift mod 32, writing the
// result sign-extended from bit 31.
func ShlU32(x uint64, shift uint64) uint64 {
	s := uint(shift % 32)
	r := uint32(x) << s
	return Sext(uint64(r), 4)
}

// ShrU32 logically shifts the low 32 bits of x right by shift mod 32.
func ShrU32(x uint64, shift uint64) uint64 {
	s := uint(shift % 32)
	r := uint32(x) >> s
	return Sext(uint64(r), 4)
}

// ShrS32 arithmetically shifts the low 32 bits of x (as signed) right
// by shift mod 32.
func ShrS32(x uint64, shift uint64) uint64 {
	s := uint(shift % 32)
	r := int32(uint32(x)) >> s
	return Sext(uint64(uint32(r)), 4)
}

// ShlU64 shifts x left by shift mod 64.
func ShlU64(x uint64, shift uint64) uint64 { return x << (shift % 64) }

// ShrU64 logically shifts x right by shift mod 64.
func ShrU64(x uint64, shift uint64) uint64 { return x >> (shift % 64) }

// ShrS64 arithmetically shifts x (as signed) right by shift mod 64.
func ShrS64(x uint64, shift uint64) uint64 {
	return uint64(int64(x) >> (shift % 64))
}

// RotlU32 rotates the low 32 bits of x left by shift mod 32.
func RotlU32(x uint64, shift uint64) uint64 {
	return Sext(uint64(bits.RotateLeft32(uint32(x), int(shift%32))), 4)
}

// RotrU32 rotates the low 32 bits of x right by shift mod 32.
func RotrU32(x uint64, shift uint64) uint64 {
	return Sext(uint64(bits.RotateLeft32(uint32(x), -int(shift%32))), 4)
}

// RotlU64 rotates x left by shift mod 64.
func RotlU64(x uint64, shift uint64) uint64 {
	return bits.RotateLeft64(x, int(shift%64))
}

// RotrU64 rotates x right by shift mod 64.
func RotrU64(x uint64, shift uint64) uint64 {
	return bits.RotateLeft64(x, -int(shift%64))
}

// MulhU computes the high 64 bits of the 128-bit unsigned product a*b.
func MulhU(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// MulhS computes the high 64 bits of the 128-bit signed product a*b,
// both operands signed.
func MulhS(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	// Correct the unsigned product's high word for the sign of each
	// operand (the standard "signed high multiply from unsigned Mul64"
	// correction).
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi
}

// MulhSU computes the high 64 bits of the 128-bit product of a signed
// operand a and an unsigned operand b.
func MulhSU(a int64, b uint64) uint64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return hi
}

// Popcount32 counts the set bits in the low 32 bits of x.
func Popcount32(x uint64) uint64 { return uint64(bits.OnesCount32(uint32(x))) }

// Popcount64 counts the set bits of x.
func Popcount64(x uint64) uint64 { return uint64(bits.OnesCount64(x)) }

// Clz32 counts leading zero bits in the low 32 bits of x.
func Clz32(x uint64) uint64 { return uint64(bits.LeadingZeros32(uint32(x))) }

// Clz64 counts leading zero bits of x.
func Clz64(x uint64) uint64 { return uint64(bits.LeadingZeros64(x)) }

// Ctz32 counts trailing zero bits in the low 32 bits of x; an
// all-zero 32-bit value reports 32 (matching bits.TrailingZeros32).
func Ctz32(x uint64) uint64 { return uint64(bits.TrailingZeros32(uint32(x))) }

// Ctz64 counts trailing zero bits of x.
func Ctz64(x uint64) uint64 { return uint64(bits.TrailingZeros64(x)) }

// Bswap64 reverses the byte order of x.
func Bswap64(x uint64) uint64 { return bits.ReverseBytes64(x) }
