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
	"fmt"

	"github.com/probechain/pvm/ints"
	"github.com/probechain/pvm/operand"
	"github.com/probechain/pvm/program"
)

// jumpIndHaltAddr is the reserved JUMP_IND address (2^32 − 2^16) that
// always terminates the invocation with Halt, regardless of the jump
// table's contents (§4.5, §8 property 6).
const jumpIndHaltAddr = 1<<32 - 1<<16

// pcRelative adds a signed offset to the address an instruction was
// fetched from, producing the target the basic-block set is checked
// against. Every jump/branch offset in this module is relative to the
// start of the instruction itself, not its successor.
func pcRelative(pc uint32, offset int64) uint32 {
	return uint32(int64(pc) + offset)
}

// dispatchControl handles unconditional jumps, the load-immediate
// jump combinations, and all conditional branches. pc is the address
// the instruction itself starts at.
func (m *VM) dispatchControl(op program.Opcode, ops operand.Operands, pc uint32) (Termination, bool) {
	switch op {
	case program.OpJump:
		return m.branchTo(pcRelative(pc, ops.Offset)), true

	case program.OpJumpInd:
		return m.jumpIndirect(m.reg(ops.RegA), ops.ImmX), true

	case program.OpLoadImmJump:
		m.setReg(ops.RegA, ops.ImmX)
		return m.branchTo(pcRelative(pc, int64(ops.ImmY))), true

	case program.OpLoadImmJumpInd:
		// §4.5: the indirect base (r_B) must be read before r_A is
		// written, since an encoding with RegA == RegB would otherwise
		// observe the just-written immediate instead of the original
		// base value.
		base := m.reg(ops.RegB)
		m.setReg(ops.RegA, ops.ImmX)
		return m.jumpIndirect(base, ops.ImmY), true

	case program.OpBranchEq:
		return m.branchIf(pc, ops, m.reg(ops.RegA) == m.reg(ops.RegB))
	case program.OpBranchNe:
		return m.branchIf(pc, ops, m.reg(ops.RegA) != m.reg(ops.RegB))
	case program.OpBranchLtU:
		return m.branchIf(pc, ops, m.reg(ops.RegA) < m.reg(ops.RegB))
	case program.OpBranchLtS:
		return m.branchIf(pc, ops, ints.Signed(m.reg(ops.RegA)) < ints.Signed(m.reg(ops.RegB)))
	case program.OpBranchGeU:
		return m.branchIf(pc, ops, m.reg(ops.RegA) >= m.reg(ops.RegB))
	case program.OpBranchGeS:
		return m.branchIf(pc, ops, ints.Signed(m.reg(ops.RegA)) >= ints.Signed(m.reg(ops.RegB)))

	case program.OpBranchEqImm:
		return m.branchImmIf(pc, ops, m.reg(ops.RegA) == ops.ImmX)
	case program.OpBranchNeImm:
		return m.branchImmIf(pc, ops, m.reg(ops.RegA) != ops.ImmX)
	case program.OpBranchLtUImm:
		return m.branchImmIf(pc, ops, m.reg(ops.RegA) < ops.ImmX)
	case program.OpBranchLtSImm:
		return m.branchImmIf(pc, ops, ints.Signed(m.reg(ops.RegA)) < ints.Signed(ops.ImmX))
	case program.OpBranchGeUImm:
		return m.branchImmIf(pc, ops, m.reg(ops.RegA) >= ops.ImmX)
	case program.OpBranchGeSImm:
		return m.branchImmIf(pc, ops, ints.Signed(m.reg(ops.RegA)) >= ints.Signed(ops.ImmX))
	}
	return Termination{}, false
}

// jumpIndirect implements JUMP_IND / LOAD_IMM_JUMP_IND's shared
// addressing rule (§4.5): a = (baseVal + offset) mod 2^32. a equal to
// the halt sentinel always halts, independent of the jump table; a
// zero, odd, or out-of-range a panics; otherwise the target is
// j[a/2 − 1], which must still land in B.
func (m *VM) jumpIndirect(baseVal, offset uint64) Termination {
	a := uint32((baseVal + offset) & 0xFFFFFFFF)
	if a == jumpIndHaltAddr {
		return Termination{Kind: Halt}
	}
	jumpLen := uint64(m.Prog.JumpTableLen())
	if a == 0 || uint64(a) > 2*jumpLen || a%2 != 0 {
		return Termination{Kind: Panic, Reason: fmt.Sprintf("jump_ind address 0x%x invalid for jump table of length %d", a, jumpLen)}
	}
	target, ok := m.Prog.JumpTarget(a/2 - 1)
	if !ok {
		return Termination{Kind: Panic, Reason: fmt.Sprintf("jump_ind index %d out of range", a/2-1)}
	}
	return m.branchTo(target)
}

// branchIf handles the reg,reg+offset branch family (TwoRegsOffset):
// taken branches jump pc-relative by ops.Offset; not-taken branches
// simply fall through (m.PC already holds the successor).
func (m *VM) branchIf(pc uint32, ops operand.Operands, taken bool) (Termination, bool) {
	if !taken {
		return Termination{Kind: cont}, true
	}
	return m.branchTo(pcRelative(pc, ops.Offset)), true
}

// branchImmIf handles the reg,imm+offset branch family (OneRegTwoImm):
// ImmX is the comparison immediate, ImmY the pc-relative offset.
func (m *VM) branchImmIf(pc uint32, ops operand.Operands, taken bool) (Termination, bool) {
	if !taken {
		return Termination{Kind: cont}, true
	}
	return m.branchTo(pcRelative(pc, int64(ops.ImmY))), true
}
