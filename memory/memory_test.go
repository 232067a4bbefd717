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

package memory

import "testing"

func TestGuardZoneAlwaysFaults(t *testing.T) {
	m := New(0)
	if _, err := m.Read(0x0FFF, 1); err == nil {
		t.Fatal("expected guard zone read to fault")
	}
	if err := m.Write(0x0FFF, []byte{1}); err == nil {
		t.Fatal("expected guard zone write to fault")
	}
	if err := m.MapPage(0x1000-PageSize, Write); err == nil {
		t.Fatal("expected MapPage below guard zone end to fail")
	}
}

func TestWriteRequiresRights(t *testing.T) {
	m := New(0)
	addr := uint64(GuardZoneEnd)
	if err := m.MapRange(addr, PageSize, Read); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(addr, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected write to a read-only page to fault")
	}
	if _, err := m.Read(addr, 3); err != nil {
		t.Fatalf("read of a readable page should succeed: %v", err)
	}
}

func TestWriteIsAtomicOnFault(t *testing.T) {
	m := New(0)
	addr := uint64(GuardZoneEnd)
	if err := m.MapRange(addr, PageSize, Write); err != nil {
		t.Fatal(err)
	}
	// Spans into the next (unmapped) page; must fault and leave the
	// first page untouched.
	data := make([]byte, PageSize+8)
	for i := range data {
		data[i] = 0xAA
	}
	if err := m.Write(addr, data); err == nil {
		t.Fatal("expected write spanning an unmapped page to fault")
	}
	got, err := m.Read(addr, 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range got {
		if b != 0 {
			t.Fatalf("write was not atomic: found partial write %v", got)
		}
	}
}

func TestFaultReportsFirstOffendingByte(t *testing.T) {
	m := New(0)
	base := uint64(GuardZoneEnd)
	if err := m.MapRange(base, PageSize, Write); err != nil {
		t.Fatal(err)
	}
	_, err := m.Read(base, PageSize+16)
	f, ok := err.(*Fault)
	if !ok {
		t.Fatalf("expected *Fault, got %T", err)
	}
	if f.Addr != base+PageSize {
		t.Errorf("fault addr = 0x%x, want 0x%x", f.Addr, base+PageSize)
	}
}

func TestSbrkGrowsAndMaps(t *testing.T) {
	m := New(0)
	m.SetHeapBase(uint64(GuardZoneEnd))
	hp := m.Sbrk(10)
	if hp != uint64(GuardZoneEnd)+10 {
		t.Fatalf("sbrk returned %x", hp)
	}
	if err := m.Write(uint64(GuardZoneEnd), []byte{1, 2, 3}); err != nil {
		t.Fatalf("expected sbrk'd page to be writable: %v", err)
	}
}

func TestSbrkZeroDeltaNoop(t *testing.T) {
	m := New(0)
	m.SetHeapBase(uint64(GuardZoneEnd))
	before := m.HeapPointer()
	if got := m.Sbrk(0); got != before {
		t.Errorf("Sbrk(0) = %x, want unchanged %x", got, before)
	}
}

func TestSbrkRejectsOverMax(t *testing.T) {
	m := New(uint64(GuardZoneEnd) + PageSize)
	m.SetHeapBase(uint64(GuardZoneEnd))
	if got := m.Sbrk(PageSize * 2); got != 0 {
		t.Errorf("Sbrk past max = %x, want 0", got)
	}
	if m.HeapPointer() != uint64(GuardZoneEnd) {
		t.Error("heap pointer advanced despite rejection")
	}
}

func TestInitLayoutRegions(t *testing.T) {
	m := New(0)
	ro := []byte("readonly-data")
	rw := []byte("readwrite-data")
	layout, err := m.InitLayout(ro, rw, 4096, 4096)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Read(layout.ROBase, uint64(len(ro)))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(ro) {
		t.Errorf("RO region mismatch: %q", got)
	}
	if err := m.Write(layout.ROBase, []byte{0}); err == nil {
		t.Error("expected RO region to reject writes")
	}
	if err := m.Write(layout.RWBase, []byte{1, 2}); err != nil {
		t.Errorf("expected RW region to accept writes: %v", err)
	}
	if err := m.Write(layout.StackBase, []byte{1}); err != nil {
		t.Errorf("expected stack region to accept writes: %v", err)
	}
	if layout.HeapBase <= layout.RWBase {
		t.Error("heap base should be past RW region")
	}
}
