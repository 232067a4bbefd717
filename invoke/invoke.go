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

package invoke

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/probechain/pvm/internal/obslog"
	"github.com/probechain/pvm/internal/xhash"
	"github.com/probechain/pvm/memory"
	"github.com/probechain/pvm/program"
	"github.com/probechain/pvm/vm"
)

// defaultProgramCacheSize bounds the parsed-program LRU; accumulate
// invocations of the same service's code within a block are the
// common case this amortizes (§ ambient-stack rationale in
// SPEC_FULL.md).
const defaultProgramCacheSize = 256

// programCache memoizes program.Program by the Keccak256 hash of its
// raw image bytes, so repeat invocations of the same code skip
// re-deriving the basic-block set.
var programCache, _ = lru.New[[xhash.Size]byte, *program.Program](defaultProgramCacheSize)

// resultAddrReg and resultLenReg are the registers a Halt-ed program
// holds its result blob's address and length in (§4.7 item 4: r7/r8).
const (
	resultAddrReg = 7
	resultLenReg  = 8
)

// Result is Ψ_M's output: how much gas the invocation consumed, how
// it terminated, and (for loads, via Mem) the final memory state a
// caller may want to inspect. Output carries the Ok(blob) payload
// read from r7/r8 on Halt; it is nil for every other termination.
type Result struct {
	GasConsumed int64
	Termination vm.Termination
	Mem         *memory.Memory
	Regs        [vm.NumRegisters]uint64
	Output      []byte
}

// Options configures a single invocation.
type Options struct {
	GasLimit int64
	Host     vm.HostFunc
	// Args is appended to the image's RW data before execution begins,
	// so it is laid out directly after that data in the RW region.
	Args []byte
	// MaxSteps defensively bounds step count; zero derives it from
	// GasLimit (at least 1 gas per step, so it can never fire before
	// gas would) per SPEC_FULL.md's step-count cap.
	MaxSteps uint64
	// ReportFaultAddr keeps a memory-access Fault distinguished from
	// Panic in the returned Result. Refine-style callers that want the
	// denied address set this; accumulate callers leave it false so a
	// Fault collapses to Panic, per spec.md's resolution of the
	// refine-vs-accumulate Fault-reporting question.
	ReportFaultAddr bool
}

// Invoke parses image, builds the initial address space and register
// file, and runs the execution core to completion with opts.Host
// bridging any ECALLI. It caches the parsed program by image hash so
// repeat calls with identical bytes skip re-parsing.
func Invoke(image []byte, opts Options) (*Result, error) {
	hash := xhash.Keccak256(image)
	log := obslog.With("image_hash", fmt.Sprintf("%x", hash))

	prog, ok := programCache.Get(hash)
	if !ok {
		layout, err := ParseImage(image)
		if err != nil {
			log.Warn("failed to parse program image", "err", err)
			return nil, err
		}
		prog, err = program.New(layout.Code, layout.Mask, layout.JumpTable)
		if err != nil {
			return nil, err
		}
		programCache.Add(hash, prog)

		mem, initErr := buildMemory(layout, opts.Args)
		if initErr != nil {
			return nil, initErr
		}
		return run(prog, mem, opts, log)
	}

	// Cache hit: the program's control-flow structure is reusable, but
	// memory layout depends on this call's own image bytes (RO/RW data,
	// stack/heap sizing), so it's still parsed fresh per invocation.
	layout, err := ParseImage(image)
	if err != nil {
		return nil, err
	}
	mem, err := buildMemory(layout, opts.Args)
	if err != nil {
		return nil, err
	}
	return run(prog, mem, opts, log)
}

func buildMemory(layout *ImageLayout, args []byte) (*memory.Memory, error) {
	mem := memory.New(0)
	rw := append(append([]byte(nil), layout.RWData...), args...)
	const defaultStackSize = 64 * 1024
	stackSize := layout.StackSize
	if stackSize == 0 {
		stackSize = defaultStackSize
	}
	if _, err := mem.InitLayout(layout.ROData, rw, stackSize, layout.HeapPad); err != nil {
		return nil, err
	}
	return mem, nil
}

func run(prog *program.Program, mem *memory.Memory, opts Options, log *obslog.Logger) (*Result, error) {
	maxSteps := opts.MaxSteps
	if maxSteps == 0 && opts.GasLimit > 0 {
		maxSteps = uint64(opts.GasLimit)
	}
	m := vm.New(prog, mem, opts.GasLimit, opts.Host)
	m.MaxSteps = maxSteps

	term := m.Run()
	if term.Kind == vm.Fault && !opts.ReportFaultAddr {
		term = vm.Termination{Kind: vm.Panic, Reason: term.Reason}
	}

	var output []byte
	if term.Kind == vm.Halt {
		addr := m.Regs[resultAddrReg]
		length := m.Regs[resultLenReg]
		blob, err := mem.Read(addr, length)
		if err != nil {
			// The program claimed a result blob it cannot actually back
			// with readable memory; the collapse itself failed, so the
			// invocation did not produce Ok(blob) and is reported as Panic
			// rather than a Halt with a missing payload.
			log.Warn("failed to read halt result blob", "addr", addr, "len", length, "err", err)
			term = vm.Termination{Kind: vm.Panic, Reason: fmt.Sprintf("halt result blob unreadable: %v", err)}
		} else {
			output = blob
		}
	}

	gasConsumed := opts.GasLimit - m.Gas
	log.Info("invocation finished", "termination", term.Kind.String(), "gas_consumed", gasConsumed)

	return &Result{
		GasConsumed: gasConsumed,
		Termination: term,
		Mem:         mem,
		Regs:        m.Regs,
		Output:      output,
	}, nil
}
