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

package ints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSextIdempotent(t *testing.T) {
	cases := []struct {
		x uint64
		n uint
	}{
		{0x7F, 1}, {0x80, 1}, {0xFFFF, 2}, {0x8000, 2}, {0x12345678, 4},
	}
	for _, c := range cases {
		once := Sext(c.x, c.n)
		twice := Sext(once, c.n)
		assert.Equal(t, once, twice, "Sext(%x,%d) not idempotent", c.x, c.n)
	}
}

func TestSignedUnsignedRoundTrip(t *testing.T) {
	vals := []int64{0, 1, -1, 9223372036854775807, -9223372036854775808, 42, -42}
	for _, s := range vals {
		assert.Equal(t, s, Signed(Unsigned(s)), "round trip failed for %d", s)
	}
}

func TestDivU32ByZero(t *testing.T) {
	if got := DivU32(5, 0); got != 0xFFFFFFFF {
		t.Errorf("DivU32 by zero = %x, want all-ones", got)
	}
	if got := RemU32(5, 0); got != 5 {
		t.Errorf("RemU32 by zero = %d, want dividend", got)
	}
}

func TestDivS32Overflow(t *testing.T) {
	got := DivS32(-2147483648, -1)
	if got != uint32(-2147483648) {
		t.Errorf("DivS32 overflow = %x, want dividend as unsigned", got)
	}
	if rem := RemS32(-2147483648, -1); rem != 0 {
		t.Errorf("RemS32 overflow = %d, want 0", rem)
	}
}

func TestRemSTruncatesTowardZero(t *testing.T) {
	// -7 % 2 == -1 (truncation toward zero), not 1 (floor division).
	got := int32(RemS32(-7, 2))
	if got != -1 {
		t.Errorf("RemS32(-7,2) = %d, want -1", got)
	}
}

func TestDivS32ByZero(t *testing.T) {
	if got := DivS32(7, 0); got != 0xFFFFFFFF {
		t.Errorf("DivS32 by zero = %x, want all-ones", got)
	}
	if got := RemS32(7, 0); got != 7 {
		t.Errorf("RemS32 by zero = %d, want dividend", got)
	}
}

func TestShiftsWrap(t *testing.T) {
	// Shift amount is taken mod word width.
	a := ShlU64(1, 64)
	b := ShlU64(1, 0)
	if a != b {
		t.Errorf("ShlU64 shift not reduced mod 64: %x vs %x", a, b)
	}
}

func TestShrS32SignExtends(t *testing.T) {
	// 0x8000_0000 >> 1 arithmetically = 0xC000_0000, sign-extended to 64.
	got := ShrS32(0x80000000, 1)
	want := Sext(0xC0000000, 4)
	if got != want {
		t.Errorf("ShrS32 = %x, want %x", got, want)
	}
}

func TestRotateRoundTrip(t *testing.T) {
	x := uint64(0x0123456789ABCDEF)
	if got := RotrU64(RotlU64(x, 13), 13); got != x {
		t.Errorf("rotate round trip failed: %x", got)
	}
	y := uint64(0xDEADBEEF)
	if got := RotrU32(RotlU32(y, 7), 7); got != Sext(y, 4) {
		t.Errorf("32-bit rotate round trip failed: %x", got)
	}
}

func TestMulhU(t *testing.T) {
	// 2^63 * 2 overflows into the high word.
	got := MulhU(1<<63, 2)
	if got != 1 {
		t.Errorf("MulhU(2^63,2) = %d, want 1", got)
	}
}

func TestMulhSNegative(t *testing.T) {
	// (-1) * (-1) = 1; high word must be 0.
	got := MulhS(-1, -1)
	if got != 0 {
		t.Errorf("MulhS(-1,-1) high = %d, want 0", got)
	}
}

func TestMulhSU(t *testing.T) {
	got := MulhSU(-1, 1)
	if got != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("MulhSU(-1,1) = %x, want all-ones", got)
	}
}

func TestPopcountBswapInvariant(t *testing.T) {
	x := uint64(0x0102030405060708)
	if Popcount64(Bswap64(x)) != Popcount64(x) {
		t.Errorf("popcount changed under bswap")
	}
}

func TestClzCtzBound(t *testing.T) {
	x := uint64(0x0000000100000000)
	if Clz64(x)+Ctz64(x) > 64 {
		t.Errorf("clz+ctz exceeds 64")
	}
}

func TestPopcount32Masks(t *testing.T) {
	if got := Popcount32(0xFFFFFFFF00000000 | 0xF); got != 4 {
		t.Errorf("Popcount32 did not mask to low 32 bits: got %d", got)
	}
}
