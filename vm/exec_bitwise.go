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

package vm

import (
	"github.com/probechain/pvm/ints"
	"github.com/probechain/pvm/operand"
	"github.com/probechain/pvm/program"
)

// dispatchBitwise handles bitwise ops, shifts, and rotations: the
// three-register forms, the register+immediate-amount forms, and the
// rotate-immediate-by-register "alt" forms.
func (m *VM) dispatchBitwise(op program.Opcode, ops operand.Operands) (Termination, bool) {
	switch op {
	case program.OpAnd:
		a, b, d := m.reg3(ops)
		return m.arith64(d, a&b)
	case program.OpOr:
		a, b, d := m.reg3(ops)
		return m.arith64(d, a|b)
	case program.OpXor:
		a, b, d := m.reg3(ops)
		return m.arith64(d, a^b)
	case program.OpAndInv:
		a, b, d := m.reg3(ops)
		return m.arith64(d, a&^b)
	case program.OpOrInv:
		a, b, d := m.reg3(ops)
		return m.arith64(d, a|^b)
	case program.OpXnor:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ^(a ^ b))

	// Shifts/rotations, reg,reg,reg: the second source register (b)
	// supplies the shift/rotate amount. The ints helpers already
	// return a 64-bit, sign-extended-where-applicable result, so these
	// go through arith64 rather than arith32.
	case program.OpShloL32:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShlU32(a, b))
	case program.OpShloR32:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShrU32(a, b))
	case program.OpSharR32:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShrS32(a, b))
	case program.OpShloL64:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShlU64(a, b))
	case program.OpShloR64:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShrU64(a, b))
	case program.OpSharR64:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.ShrS64(a, b))

	case program.OpRotL32:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.RotlU32(a, b))
	case program.OpRotR32:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.RotrU32(a, b))
	case program.OpRotL64:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.RotlU64(a, b))
	case program.OpRotR64:
		a, b, d := m.reg3(ops)
		return m.arith64(d, ints.RotrU64(a, b))

	// Shifts/rotations, reg,reg,imm: RegA source, RegB dest, ImmX the
	// literal shift/rotate amount.
	case program.OpShloLImm32:
		return m.arith64(ops.RegB, ints.ShlU32(m.reg(ops.RegA), ops.ImmX))
	case program.OpShloRImm32:
		return m.arith64(ops.RegB, ints.ShrU32(m.reg(ops.RegA), ops.ImmX))
	case program.OpSharRImm32:
		return m.arith64(ops.RegB, ints.ShrS32(m.reg(ops.RegA), ops.ImmX))
	case program.OpShloLImm64:
		return m.arith64(ops.RegB, ints.ShlU64(m.reg(ops.RegA), ops.ImmX))
	case program.OpShloRImm64:
		return m.arith64(ops.RegB, ints.ShrU64(m.reg(ops.RegA), ops.ImmX))
	case program.OpSharRImm64:
		return m.arith64(ops.RegB, ints.ShrS64(m.reg(ops.RegA), ops.ImmX))

	case program.OpRotLImm32:
		return m.arith64(ops.RegB, ints.RotlU32(m.reg(ops.RegA), ops.ImmX))
	case program.OpRotRImm32:
		return m.arith64(ops.RegB, ints.RotrU32(m.reg(ops.RegA), ops.ImmX))
	case program.OpRotLImm64:
		return m.arith64(ops.RegB, ints.RotlU64(m.reg(ops.RegA), ops.ImmX))
	case program.OpRotRImm64:
		return m.arith64(ops.RegB, ints.RotrU64(m.reg(ops.RegA), ops.ImmX))

	// Rotate-immediate-by-register "alt" forms: RegA holds the
	// rotate amount, ImmX is the value being rotated, RegB is the
	// destination.
	case program.OpRotLImmAlt32:
		return m.arith64(ops.RegB, ints.RotlU32(ops.ImmX, m.reg(ops.RegA)))
	case program.OpRotRImmAlt32:
		return m.arith64(ops.RegB, ints.RotrU32(ops.ImmX, m.reg(ops.RegA)))
	case program.OpRotLImmAlt64:
		return m.arith64(ops.RegB, ints.RotlU64(ops.ImmX, m.reg(ops.RegA)))
	case program.OpRotRImmAlt64:
		return m.arith64(ops.RegB, ints.RotrU64(ops.ImmX, m.reg(ops.RegA)))
	}
	return Termination{}, false
}
