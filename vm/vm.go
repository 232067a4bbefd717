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

// Package vm implements the PVM's execution core (C5/C6): the
// register file, gas-metered fetch/decode/execute loop, and the
// termination classification the invocation wrapper collapses into a
// final result.
package vm

import (
	"fmt"

	"github.com/probechain/pvm/memory"
	"github.com/probechain/pvm/operand"
	"github.com/probechain/pvm/program"
)

// NumRegisters is the size of the register file; register indices are
// clamped to [0,12] by the operand decoder (regClamp), so 13 registers
// cover every addressable index.
const NumRegisters = 13

// coreGasPerInstruction is the flat cost Step charges for decoding and
// executing any instruction (§3, §4.6 step 3). Host calls may incur an
// additional mutator-specific surcharge on top of this via
// hostcall.Handler.RequiredGas / VM.ChargeGas; nothing else varies the
// per-instruction cost by opcode.
const coreGasPerInstruction int64 = 1

// Kind classifies how an invocation stopped.
type Kind uint8

const (
	// Halt is a clean stop: JUMP_IND reached the halt-sentinel address,
	// or a HostFunc returned ErrHostHalt.
	Halt Kind = iota
	// Panic is an abnormal stop: TRAP, an invalid branch/jump target, an
	// undefined opcode, or a host call that reported failure.
	Panic
	// Fault is a memory access that was denied by the paged memory
	// model; Addr names the first offending byte.
	Fault
	// Host is a paused state: ECALLI was reached and is waiting on the
	// supplied HostFunc before resuming.
	Host
	// OutOfGas is a stop caused by exhausting the gas budget.
	OutOfGas
	// cont is an internal-only marker meaning "this instruction
	// completed normally; fetch the next one". It never escapes Run.
	cont
)

func (k Kind) String() string {
	switch k {
	case Halt:
		return "halt"
	case Panic:
		return "panic"
	case Fault:
		return "fault"
	case Host:
		return "host"
	case OutOfGas:
		return "out-of-gas"
	case cont:
		return "continue"
	default:
		return "unknown"
	}
}

// Termination is the outcome of a single Step, or of a full Run.
type Termination struct {
	Kind       Kind
	Addr       uint64 // populated for Fault
	HostCallID uint64 // populated for Host
	Reason     string // human-readable detail for Panic/Fault
}

func (t Termination) String() string {
	switch t.Kind {
	case Fault:
		return fmt.Sprintf("fault at 0x%x: %s", t.Addr, t.Reason)
	case Panic:
		return fmt.Sprintf("panic: %s", t.Reason)
	case Host:
		return fmt.Sprintf("host call %d", t.HostCallID)
	default:
		return t.Kind.String()
	}
}

// ErrHostHalt is a sentinel a HostFunc may return to force the
// invocation to stop cleanly (as opposed to returning nil to resume
// execution, or any other error to force a Panic).
var ErrHostHalt = fmt.Errorf("vm: host requested halt")

// ErrHostOutOfGas is a sentinel a HostFunc returns when it could not
// afford its own gas surcharge; Run classifies this as OutOfGas rather
// than Panic.
var ErrHostOutOfGas = fmt.Errorf("vm: host call ran out of gas")

// HostFunc is invoked synchronously when ECALLI is decoded. It may
// read and mutate the VM's registers and memory directly. Returning
// nil resumes execution at the next instruction; returning
// ErrHostHalt stops the invocation cleanly; any other error collapses
// the invocation into Panic.
type HostFunc func(id uint64, m *VM) error

// VM holds all mutable execution state for a single invocation.
//
// The zero value is not directly usable; construct with New.
type VM struct {
	Regs [NumRegisters]uint64
	PC   uint32
	Gas  int64

	Mem  *memory.Memory
	Prog *program.Program
	Host HostFunc

	// MaxSteps defensively bounds the number of fetch/decode/execute
	// iterations regardless of the gas limit, guarding against a gas
	// model that undercharges some opcode. Zero means unbounded.
	MaxSteps uint64

	steps uint64
}

// New constructs a VM ready to begin execution at PC 0 with the given
// gas budget.
func New(prog *program.Program, mem *memory.Memory, gasLimit int64, host HostFunc) *VM {
	return &VM{
		Gas:  gasLimit,
		Mem:  mem,
		Prog: prog,
		Host: host,
	}
}

// chargeGas deducts cost from the remaining gas budget. It reports
// false (and leaves Gas at exactly the point of exhaustion) if the
// budget would go negative, mirroring the teacher's useGas contract of
// refusing to let gas go below zero.
func (m *VM) chargeGas(cost int64) bool {
	if m.Gas < cost {
		m.Gas = 0
		return false
	}
	m.Gas -= cost
	return true
}

// ChargeGas deducts cost from the remaining gas budget, for use by
// host-call handlers that need to charge their own surcharge on top
// of ECALLI's fixed dispatch cost. It reports false if the budget
// would go negative.
func (m *VM) ChargeGas(cost int64) bool { return m.chargeGas(cost) }

// reg reads register i (already clamped to [0,12] by the decoder).
func (m *VM) reg(i uint8) uint64 { return m.Regs[i] }

// setReg writes register i.
func (m *VM) setReg(i uint8, v uint64) { m.Regs[i] = v }

// Run steps the VM until it reaches any non-Host termination, a host
// call that ErrHostHalt or another error collapses into a final
// state, or MaxSteps is exceeded (classified as Panic: the gas model
// should have stopped it first, so this only fires if gas accounting
// itself is inconsistent with the step count, which is always a bug).
func (m *VM) Run() Termination {
	for {
		t := m.Step()
		switch t.Kind {
		case cont:
			continue
		case Host:
			if m.Host == nil {
				return Termination{Kind: Panic, Reason: "ECALLI with no host bound"}
			}
			err := m.Host(t.HostCallID, m)
			if err == nil {
				continue
			}
			if err == ErrHostHalt {
				return Termination{Kind: Halt}
			}
			if err == ErrHostOutOfGas {
				return Termination{Kind: OutOfGas}
			}
			return Termination{Kind: Panic, Reason: err.Error()}
		default:
			return t
		}
	}
}

// Step decodes and executes exactly one instruction at the current
// PC, returning its termination. A Host termination means the caller
// (normally Run) must invoke the bound HostFunc and then call Step
// again to resume; any other Kind means the VM has stopped for good
// and further Step calls are undefined.
func (m *VM) Step() Termination {
	if m.MaxSteps != 0 && m.steps >= m.MaxSteps {
		return Termination{Kind: Panic, Reason: "step budget exceeded"}
	}
	m.steps++

	pc := m.PC
	// §4.6 step 1: PC must index a 1-bit in the *padded* bitmask k, not
	// the raw code length. A program that falls off the end of its real
	// code without an explicit terminator decodes the implicit TRAP byte
	// in ζ's zero-padded tail and panics, exactly like any other TRAP;
	// it does not silently halt.
	if !m.Prog.IsOpcodeStart(pc) {
		return Termination{Kind: Panic, Reason: fmt.Sprintf("pc 0x%x is not an instruction boundary", pc)}
	}

	op := m.Prog.OpcodeAt(pc)
	if !op.IsValid() {
		return Termination{Kind: Panic, Reason: fmt.Sprintf("undefined opcode 0x%02x at 0x%x", byte(op), pc)}
	}

	if !m.chargeGas(coreGasPerInstruction) {
		return Termination{Kind: OutOfGas}
	}

	ell := m.Prog.Fskip(pc)
	opBytes := m.Prog.Operand(pc)
	ops := operand.Decode(op.Format(), opBytes, ell)

	// Default successor: fall through to the next instruction. Branch
	// and jump handlers overwrite m.PC explicitly via branchTo when
	// their condition is taken (or unconditionally, for JUMP/JUMP_IND).
	m.PC = pc + 1 + uint32(ell)

	return m.dispatch(op, ops, pc)
}

// branchTo validates target against the basic-block set B (§4.3:
// every branch and jump must land on a valid block start, else the
// invocation panics) and, if valid, makes it the VM's new PC.
func (m *VM) branchTo(target uint32) Termination {
	if !m.Prog.IsBasicBlockStart(target) {
		return Termination{Kind: Panic, Reason: fmt.Sprintf("branch target 0x%x is not a basic block start", target)}
	}
	m.PC = target
	return Termination{Kind: cont}
}
