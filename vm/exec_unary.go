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

// dispatchUnary handles the two-register instructions: sign/zero
// extension, byte reversal, and bit counting. These reuse the
// TwoRegsOneImm format but, unlike the three-register arithmetic
// group, need only the two register fields the format already
// decodes directly (RegA=source, RegB=destination) — the immediate
// field is unused.
func (m *VM) dispatchUnary(op program.Opcode, ops operand.Operands) (Termination, bool) {
	src := m.reg(ops.RegA)
	switch op {
	case program.OpSext8:
		return m.arith64(ops.RegB, ints.Sext(src, 1))
	case program.OpSext16:
		return m.arith64(ops.RegB, ints.Sext(src, 2))
	case program.OpZext8:
		return m.arith64(ops.RegB, src&0xFF)
	case program.OpZext16:
		return m.arith64(ops.RegB, src&0xFFFF)
	case program.OpRev:
		return m.arith64(ops.RegB, ints.Bswap64(src))
	case program.OpPopcount32:
		return m.arith64(ops.RegB, ints.Popcount32(src))
	case program.OpPopcount64:
		return m.arith64(ops.RegB, ints.Popcount64(src))
	case program.OpClz32:
		return m.arith64(ops.RegB, ints.Clz32(src))
	case program.OpClz64:
		return m.arith64(ops.RegB, ints.Clz64(src))
	case program.OpCtz32:
		return m.arith64(ops.RegB, ints.Ctz32(src))
	case program.OpCtz64:
		return m.arith64(ops.RegB, ints.Ctz64(src))
	}
	return Termination{}, false
}
