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

package hostcall

import (
	"testing"

	"github.com/probechain/pvm/memory"
	"github.com/probechain/pvm/program"
	"github.com/probechain/pvm/vm"
)

func newTestVM(t *testing.T, host vm.HostFunc) *vm.VM {
	t.Helper()
	code := []byte{byte(program.OpEcalli), 0x00, byte(program.OpTrap)}
	mask := []bool{true, false, true}
	p, err := program.New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	mem := memory.New(0)
	m := vm.New(p, mem, 1_000_000, host)
	return m
}

func TestIsAuthorizedGrantsThenTraps(t *testing.T) {
	im := NewImplications(1)
	rm, err := NewRefMutator(im)
	if err != nil {
		t.Fatal(err)
	}
	defer rm.Close()

	m := newTestVM(t, rm.Bridge())
	term := m.Run()
	if term.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic (falls through to TRAP)", term)
	}
	if m.Regs[0] != 1 {
		t.Errorf("r0 = %d, want 1 (authorized)", m.Regs[0])
	}
}

func TestIsAuthorizedRejectionStillResumes(t *testing.T) {
	im := NewImplications(1)
	rm, err := NewRefMutator(im)
	if err != nil {
		t.Fatal(err)
	}
	defer rm.Close()
	rm.SetAuthorized(false)

	m := newTestVM(t, rm.Bridge())
	term := m.Run()
	if term.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic", term)
	}
	if m.Regs[0] != 0 {
		t.Errorf("r0 = %d, want 0 (rejected)", m.Regs[0])
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	code := []byte{
		byte(program.OpEcalli), 0x02, 0x00, // HostWrite
		byte(program.OpEcalli), 0x03, 0x00, // HostRead
		byte(program.OpTrap),
	}
	mask := []bool{true, false, false, true, false, false, true}
	p, err := program.New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	mem := memory.New(0)
	if err := mem.MapRange(uint64(memory.GuardZoneEnd), memory.PageSize, memory.Write); err != nil {
		t.Fatal(err)
	}
	base := uint64(memory.GuardZoneEnd)
	mem.WriteInit(base, []byte("key"))
	mem.WriteInit(base+8, []byte("value"))

	im := NewImplications(1)
	rm, err := NewRefMutator(im)
	if err != nil {
		t.Fatal(err)
	}
	defer rm.Close()

	m := vm.New(p, mem, 1_000_000, rm.Bridge())
	// key addr/len, value addr/len for HostWrite; key addr/len, dst addr
	// for HostRead share r0-r3 (write uses all four, read reuses r0/r1
	// for the key and r2 as the destination).
	m.Regs[0] = base
	m.Regs[1] = 3
	m.Regs[2] = base + 8
	m.Regs[3] = 5

	term := m.Run()
	if term.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic (falls through to TRAP)", term)
	}
	if m.Regs[0] != 5 {
		t.Errorf("read length = %d, want 5", m.Regs[0])
	}
	got, err := mem.Read(base+8, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "value" {
		t.Errorf("round-tripped value = %q, want %q", got, "value")
	}
	if string(im.Provisions["key"]) != "value" {
		t.Errorf("Provisions[key] = %q, want %q", im.Provisions["key"], "value")
	}
}

func TestYieldHashRecordedOnImplications(t *testing.T) {
	code := []byte{byte(program.OpEcalli), 0x01, 0x00, byte(program.OpTrap)}
	mask := []bool{true, false, false, true}
	p, err := program.New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	mem := memory.New(0)
	base := uint64(memory.GuardZoneEnd)
	if err := mem.MapRange(base, memory.PageSize, memory.Write); err != nil {
		t.Fatal(err)
	}
	mem.WriteInit(base, []byte("hello"))

	im := NewImplications(1)
	rm, err := NewRefMutator(im)
	if err != nil {
		t.Fatal(err)
	}
	defer rm.Close()

	m := vm.New(p, mem, 1_000_000, rm.Bridge())
	m.Regs[0] = base
	m.Regs[1] = 5
	m.Regs[2] = base + 64

	term := m.Run()
	if term.Kind != vm.Panic {
		t.Fatalf("termination = %v, want Panic", term)
	}
	var zero [32]byte
	if im.YieldHash == zero {
		t.Error("YieldHash was never recorded")
	}
	written, err := mem.Read(base+64, 32)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range written {
		if b != im.YieldHash[i] {
			t.Fatalf("memory copy of yield hash does not match Implications.YieldHash at byte %d", i)
		}
	}
}
