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

	"github.com/probechain/pvm/operand"
	"github.com/probechain/pvm/program"
)

// dispatch executes one already-decoded instruction. pc is the
// address the opcode itself was fetched from (branch/jump offsets are
// relative to it); m.PC already holds the fallthrough successor and
// handlers that branch overwrite it via branchTo.
func (m *VM) dispatch(op program.Opcode, ops operand.Operands, pc uint32) Termination {
	switch op {
	case program.OpTrap:
		return Termination{Kind: Panic, Reason: "trap"}
	case program.OpFallthrough:
		return Termination{Kind: cont}
	case program.OpEcalli:
		return Termination{Kind: Host, HostCallID: ops.HostCallID}
	}

	if t, ok := m.dispatchArith(op, ops); ok {
		return t
	}
	if t, ok := m.dispatchBitwise(op, ops); ok {
		return t
	}
	if t, ok := m.dispatchUnary(op, ops); ok {
		return t
	}
	if t, ok := m.dispatchMemory(op, ops); ok {
		return t
	}
	if t, ok := m.dispatchControl(op, ops, pc); ok {
		return t
	}

	return Termination{Kind: Panic, Reason: fmt.Sprintf("unhandled opcode %s", op)}
}
