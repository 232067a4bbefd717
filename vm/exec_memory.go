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
	"errors"
	"fmt"

	"github.com/probechain/pvm/ints"
	"github.com/probechain/pvm/memory"
	"github.com/probechain/pvm/operand"
	"github.com/probechain/pvm/program"
)

// addrOf truncates a 64-bit register value to the PVM's 32-bit
// address space before it is ever used as a memory address.
func addrOf(v uint64) uint64 { return v & 0xFFFFFFFF }

// dispatchMemory handles every load/store form: direct (address is a
// literal immediate), indirect (address is a base register plus a
// literal offset), store-immediate (address and value both literal),
// and store-immediate-indirect (address is base+offset, value
// literal).
func (m *VM) dispatchMemory(op program.Opcode, ops operand.Operands) (Termination, bool) {
	switch op {
	// Direct: OneRegOneImm. RegA is dest for loads / source for
	// stores; ImmX is the absolute address.
	case program.OpLoadU8:
		return m.load(ops.RegA, addrOf(ops.ImmX), 1, false)
	case program.OpLoadI8:
		return m.load(ops.RegA, addrOf(ops.ImmX), 1, true)
	case program.OpLoadU16:
		return m.load(ops.RegA, addrOf(ops.ImmX), 2, false)
	case program.OpLoadI16:
		return m.load(ops.RegA, addrOf(ops.ImmX), 2, true)
	case program.OpLoadU32:
		return m.load(ops.RegA, addrOf(ops.ImmX), 4, false)
	case program.OpLoadI32:
		return m.load(ops.RegA, addrOf(ops.ImmX), 4, true)
	case program.OpLoadU64:
		return m.load(ops.RegA, addrOf(ops.ImmX), 8, false)
	case program.OpStoreU8:
		return m.store(addrOf(ops.ImmX), m.reg(ops.RegA), 1)
	case program.OpStoreU16:
		return m.store(addrOf(ops.ImmX), m.reg(ops.RegA), 2)
	case program.OpStoreU32:
		return m.store(addrOf(ops.ImmX), m.reg(ops.RegA), 4)
	case program.OpStoreU64:
		return m.store(addrOf(ops.ImmX), m.reg(ops.RegA), 8)

	// Indirect: TwoRegsOneImm. RegA is dest/source, RegB is the base
	// register, ImmX is the literal offset added to it.
	case program.OpLoadIndU8:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 1, false)
	case program.OpLoadIndI8:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 1, true)
	case program.OpLoadIndU16:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 2, false)
	case program.OpLoadIndI16:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 2, true)
	case program.OpLoadIndU32:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 4, false)
	case program.OpLoadIndI32:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 4, true)
	case program.OpLoadIndU64:
		return m.load(ops.RegA, addrOf(m.reg(ops.RegB)+ops.ImmX), 8, false)
	case program.OpStoreIndU8:
		return m.store(addrOf(m.reg(ops.RegB)+ops.ImmX), m.reg(ops.RegA), 1)
	case program.OpStoreIndU16:
		return m.store(addrOf(m.reg(ops.RegB)+ops.ImmX), m.reg(ops.RegA), 2)
	case program.OpStoreIndU32:
		return m.store(addrOf(m.reg(ops.RegB)+ops.ImmX), m.reg(ops.RegA), 4)
	case program.OpStoreIndU64:
		return m.store(addrOf(m.reg(ops.RegB)+ops.ImmX), m.reg(ops.RegA), 8)

	// Store-immediate: TwoImm. ImmX is the address, ImmY the value.
	case program.OpStoreImmU8:
		return m.store(addrOf(ops.ImmX), ops.ImmY, 1)
	case program.OpStoreImmU16:
		return m.store(addrOf(ops.ImmX), ops.ImmY, 2)
	case program.OpStoreImmU32:
		return m.store(addrOf(ops.ImmX), ops.ImmY, 4)
	case program.OpStoreImmU64:
		return m.store(addrOf(ops.ImmX), ops.ImmY, 8)

	// Store-immediate-indirect: TwoRegsTwoImm. RegA is the base
	// register, ImmX the offset, ImmY the value; RegB is unused.
	case program.OpStoreImmIndU8:
		return m.store(addrOf(m.reg(ops.RegA)+ops.ImmX), ops.ImmY, 1)
	case program.OpStoreImmIndU16:
		return m.store(addrOf(m.reg(ops.RegA)+ops.ImmX), ops.ImmY, 2)
	case program.OpStoreImmIndU32:
		return m.store(addrOf(m.reg(ops.RegA)+ops.ImmX), ops.ImmY, 4)
	case program.OpStoreImmIndU64:
		return m.store(addrOf(m.reg(ops.RegA)+ops.ImmX), ops.ImmY, 8)
	}
	return Termination{}, false
}

// load reads width bytes at addr, sign- or zero-extends them, and
// stores the result in register dst. Per §3/§4.5, any access into the
// low guard zone panics outright — it is a structural violation, not
// an ordinary page-rights fault, and is never subject to
// Options.ReportFaultAddr's fault/panic collapse.
func (m *VM) load(dst uint8, addr uint64, width int, signed bool) (Termination, bool) {
	if addr < memory.GuardZoneEnd {
		return guardZonePanic(addr), true
	}
	data, err := m.Mem.Read(addr, uint64(width))
	if err != nil {
		return faultFrom(err), true
	}
	raw := littleEndian(data)
	if signed {
		m.setReg(dst, ints.Sext(raw, uint(width)))
	} else {
		m.setReg(dst, raw)
	}
	return Termination{Kind: cont}, true
}

// store writes the low width bytes of value to addr, subject to the
// same guard-zone panic as load.
func (m *VM) store(addr, value uint64, width int) (Termination, bool) {
	if addr < memory.GuardZoneEnd {
		return guardZonePanic(addr), true
	}
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(value >> (8 * uint(i)))
	}
	if err := m.Mem.Write(addr, buf); err != nil {
		return faultFrom(err), true
	}
	return Termination{Kind: cont}, true
}

func littleEndian(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * uint(i))
	}
	return v
}

func guardZonePanic(addr uint64) Termination {
	return Termination{Kind: Panic, Reason: fmt.Sprintf("access to guard zone at 0x%x", addr)}
}

// faultFrom converts a memory error into the VM's termination. A
// guard-zone violation (which load/store above already intercept
// before ever calling into m.Mem, but which checkRange itself is also
// capable of reporting for any path that reaches it directly) always
// panics; every other denial is an ordinary page-rights Fault.
func faultFrom(err error) Termination {
	var f *memory.Fault
	if errors.As(err, &f) {
		if errors.Is(f.Err, memory.ErrGuardZone) {
			return guardZonePanic(f.Addr)
		}
		return Termination{Kind: Fault, Addr: f.Addr, Reason: f.Error()}
	}
	return Termination{Kind: Fault, Reason: err.Error()}
}
