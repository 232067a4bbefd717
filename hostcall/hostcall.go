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

// Package hostcall bridges the PVM's ECALLI instruction to external
// mutators. A host call id dispatches to a handler the same way the
// teacher's precompiled contracts dispatch on a fixed address: each
// handler reports its own gas cost before running and can read or
// mutate the calling VM's registers and memory directly.
package hostcall

import (
	"fmt"

	"github.com/probechain/pvm/vm"
)

// Handler is one host call's implementation, looked up by id. It
// mirrors the teacher's precompiled-contract shape
// (RequiredGas(input)/Run(input)) generalized to operate on the live
// VM rather than a byte-string input/output pair, since host calls
// read and write the caller's registers and memory in place rather
// than exchanging an opaque buffer.
type Handler interface {
	// RequiredGas reports the additional gas this call costs, on top
	// of the flat 1-gas instruction cost ECALLI itself already charged
	// in vm.Step before the bridge ever runs.
	RequiredGas(m *vm.VM) int64
	// Call performs the host call's effect. Returning vm.ErrHostHalt
	// stops the invocation cleanly; any other non-nil error collapses
	// it into Panic.
	Call(m *vm.VM) error
}

// Mutator is a table of host call handlers keyed by id. It holds no
// Implications itself; a stateful mutator such as RefMutator embeds it
// next to the Implications its handlers read and write.
type Mutator struct {
	handlers map[uint64]Handler
}

// NewMutator builds an empty dispatch table; register handlers with
// Register before binding it to a VM via Bridge.
func NewMutator() *Mutator {
	return &Mutator{handlers: make(map[uint64]Handler)}
}

// Register binds a handler to a host call id.
func (d *Mutator) Register(id uint64, h Handler) {
	d.handlers[id] = h
}

// Bridge adapts d into a vm.HostFunc suitable for vm.New.
func (d *Mutator) Bridge() vm.HostFunc {
	return func(id uint64, m *vm.VM) error {
		h, ok := d.handlers[id]
		if !ok {
			return fmt.Errorf("hostcall: no handler registered for id %d", id)
		}
		if !m.ChargeGas(h.RequiredGas(m)) {
			return vm.ErrHostOutOfGas
		}
		return h.Call(m)
	}
}
