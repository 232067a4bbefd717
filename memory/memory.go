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

// Package memory implements the PVM's paged linear address space: 4
// KiB pages each carrying NONE/READ/WRITE rights, a low guard zone
// that is never mappable, and sbrk-style heap growth.
package memory

import "fmt"

// Rights describes what an instruction may do to a page.
type Rights uint8

const (
	None Rights = iota
	Read
	Write
)

const (
	// PageSize is the fixed page granularity.
	PageSize = 4096

	// GuardZoneEnd is the first address that may ever be mapped;
	// everything below it is permanently unmapped.
	GuardZoneEnd = 1 << 16

	// MaxAddress is the highest addressable byte (addresses are
	// 32-bit).
	MaxAddress = 1<<32 - 1
)

// ErrGuardZone is returned when an access falls (even partially) in
// the low unmapped guard region.
var ErrGuardZone = fmt.Errorf("memory: access to guard zone")

// ErrNoRights is the sentinel wrapped by Fault when a page lacks the
// rights an access requires.
var ErrNoRights = fmt.Errorf("memory: insufficient page rights")

// Fault reports the address of the first byte an access was denied
// on, and why.
type Fault struct {
	Addr uint64
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("memory fault at 0x%x: %v", f.Addr, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

type page struct {
	bytes  [PageSize]byte
	rights Rights
}

// Memory is the PVM's sparse paged address space.
//
// The zero value is not directly usable; construct with New.
type Memory struct {
	pages map[uint64]*page // page index -> page
	heap  uint64           // current sbrk pointer
	maxHP uint64           // highest address sbrk may reach
}

// New creates an empty address space. maxHeap bounds how far Sbrk may
// grow the heap pointer (it must not exceed MaxAddress+1).
func New(maxHeap uint64) *Memory {
	if maxHeap == 0 || maxHeap > MaxAddress+1 {
		maxHeap = MaxAddress + 1
	}
	return &Memory{pages: make(map[uint64]*page), maxHP: maxHeap}
}

func pageIndex(addr uint64) uint64 { return addr / PageSize }

// MapPage creates (or updates the rights of) the page covering addr.
// It is a setup-time operation used to build the initial RO/RW/stack
// layout; it never scrubs existing page contents on a rights-only
// change in the same call.
func (m *Memory) MapPage(addr uint64, rights Rights) error {
	if addr < GuardZoneEnd {
		return ErrGuardZone
	}
	idx := pageIndex(addr)
	p, ok := m.pages[idx]
	if !ok {
		p = &page{}
		m.pages[idx] = p
	}
	p.rights = rights
	return nil
}

// MapRange maps every page overlapping [addr, addr+size) with the
// given rights, zero-filling freshly created pages.
func (m *Memory) MapRange(addr, size uint64, rights Rights) error {
	if size == 0 {
		return nil
	}
	start := pageIndex(addr)
	end := pageIndex(addr + size - 1)
	for idx := start; idx <= end; idx++ {
		if err := m.MapPage(idx*PageSize, rights); err != nil {
			return err
		}
	}
	return nil
}

// WriteInit copies data into memory bypassing rights checks, for use
// only while laying out the initial RO/RW/args regions. Every touched
// page must already be mapped (by MapRange) or WriteInit panics.
func (m *Memory) WriteInit(addr uint64, data []byte) {
	for i, b := range data {
		a := addr + uint64(i)
		p, ok := m.pages[pageIndex(a)]
		if !ok {
			panic(fmt.Sprintf("memory: WriteInit to unmapped page at 0x%x", a))
		}
		p.bytes[a%PageSize] = b
	}
}

// checkRange verifies every byte of [addr, addr+size) is mapped with
// at least the given rights, returning the first offending address.
func (m *Memory) checkRange(addr, size uint64, need Rights) error {
	if size == 0 {
		return nil
	}
	if addr < GuardZoneEnd {
		return &Fault{Addr: addr, Err: ErrGuardZone}
	}
	last := addr + size - 1
	if last > MaxAddress || last < addr {
		return &Fault{Addr: addr, Err: fmt.Errorf("memory: access beyond max address")}
	}
	for a := addr; a <= last; {
		idx := pageIndex(a)
		p, ok := m.pages[idx]
		if !ok || p.rights < need {
			return &Fault{Addr: a, Err: ErrNoRights}
		}
		// Advance to the start of the next page (or past last, whichever
		// first) without per-byte overhead.
		next := (idx + 1) * PageSize
		if next > last {
			break
		}
		a = next
	}
	return nil
}

// Read returns size bytes starting at addr, or a *Fault naming the
// first denied byte. Every byte in range must carry at least Read
// rights.
func (m *Memory) Read(addr, size uint64) ([]byte, error) {
	if err := m.checkRange(addr, size, Read); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	for i := uint64(0); i < size; i++ {
		a := addr + i
		p := m.pages[pageIndex(a)]
		out[i] = p.bytes[a%PageSize]
	}
	return out, nil
}

// Write stores data at addr, or returns a *Fault naming the first
// denied byte. On fault no bytes are written (the check runs over the
// whole range before any byte is touched).
func (m *Memory) Write(addr uint64, data []byte) error {
	if err := m.checkRange(addr, uint64(len(data)), Write); err != nil {
		return err
	}
	for i, b := range data {
		a := addr + uint64(i)
		m.pages[pageIndex(a)].bytes[a%PageSize] = b
	}
	return nil
}

// Sbrk grows the heap pointer by delta bytes, mapping any newly
// covered pages with Write rights, and returns the new heap pointer.
// delta=0 returns the current pointer unchanged. If the new pointer
// would exceed the configured maximum, Sbrk leaves the heap pointer
// unchanged and returns 0.
func (m *Memory) Sbrk(delta uint64) uint64 {
	if delta == 0 {
		return m.heap
	}
	newHP := m.heap + delta
	if newHP < m.heap || newHP > m.maxHP {
		return 0
	}
	if err := m.MapRange(roundDownPage(m.heap), newHP-roundDownPage(m.heap), Write); err != nil {
		return 0
	}
	m.heap = newHP
	return m.heap
}

// HeapPointer returns the current sbrk pointer.
func (m *Memory) HeapPointer() uint64 { return m.heap }

// SetHeapBase initializes the heap pointer (used once, during layout).
func (m *Memory) SetHeapBase(base uint64) { m.heap = base }

func roundDownPage(addr uint64) uint64 { return (addr / PageSize) * PageSize }

// Layout records the addresses chosen for each region by InitLayout.
type Layout struct {
	ROBase    uint64
	RWBase    uint64
	HeapBase  uint64
	StackBase uint64 // lowest address of the stack region
	StackTop  uint64 // one past the highest usable stack address
}

// pageAlignUp rounds n up to the next page boundary.
func pageAlignUp(n uint64) uint64 { return roundUpTo(n, PageSize) }

func roundUpTo(n, align uint64) uint64 { return (n + align - 1) &^ (align - 1) }

// InitLayout lays out the read-only, read-write, and stack regions of
// a fresh address space and maps the guard zone as unmapped (None),
// per §4.2's init_layout contract. roData/rwData are written
// verbatim into their regions; stackSize bytes (rounded up to whole
// pages) are reserved (Write rights, zero-filled) at the top of the
// address space, ending at the heap limit given to New, which is the
// conventional PolkaVM-style arrangement (low addresses: guard,
// RO, RW, heap-growth gap, stack, high addresses). heapPad extends the
// heap's starting point past the end of RW data, leaving room for a
// program to immediately sbrk without colliding with RW.
func (m *Memory) InitLayout(roData, rwData []byte, stackSize, heapPad uint64) (*Layout, error) {
	// The guard zone is never present in m.pages, so it already reads as
	// unmapped (None); there is nothing to map here.

	roBase := uint64(GuardZoneEnd)
	roLen := pageAlignUp(uint64(len(roData)))
	if roLen > 0 {
		if err := m.MapRange(roBase, roLen, Write); err != nil {
			return nil, err
		}
		m.WriteInit(roBase, roData)
		if err := m.MapRange(roBase, roLen, Read); err != nil {
			return nil, err
		}
	}

	rwBase := roBase + roLen
	rwLen := pageAlignUp(uint64(len(rwData)))
	if rwLen > 0 {
		if err := m.MapRange(rwBase, rwLen, Write); err != nil {
			return nil, err
		}
		m.WriteInit(rwBase, rwData)
	}

	heapBase := rwBase + rwLen + pageAlignUp(heapPad)
	m.SetHeapBase(heapBase)

	stackTop := m.maxHP
	stackBase := stackTop - pageAlignUp(stackSize)
	if stackSize > 0 {
		if err := m.MapRange(stackBase, stackTop-stackBase, Write); err != nil {
			return nil, err
		}
	}

	return &Layout{
		ROBase:    roBase,
		RWBase:    rwBase,
		HeapBase:  heapBase,
		StackBase: stackBase,
		StackTop:  stackTop,
	}, nil
}
