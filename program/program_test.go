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

package program

import (
	"strings"
	"testing"
)

// buildMask derives a flat bitmask from instruction (opcode, operand-length)
// pairs, for tests that want to assemble small programs without hand-writing
// the mask bit by bit.
func buildMask(lengths []int) []bool {
	total := 0
	for _, l := range lengths {
		total += 1 + l
	}
	mask := make([]bool, total)
	pos := 0
	for _, l := range lengths {
		mask[pos] = true
		pos += 1 + l
	}
	return mask
}

func TestFskipMatchesGapToNextOpcode(t *testing.T) {
	// ADD_32 r,r,r (3 operand bytes) then TRAP (0 operand bytes).
	code := []byte{byte(OpAdd32), 0x21, 0x00, 0x00, byte(OpTrap)}
	mask := buildMask([]int{3, 0})
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Fskip(0); got != 3 {
		t.Errorf("Fskip(0) = %d, want 3", got)
	}
	if got := p.Fskip(4); got != 0 {
		t.Errorf("Fskip(4) = %d, want 0", got)
	}
}

func TestBasicBlockStartsAtZeroAndAfterTerminator(t *testing.T) {
	// JUMP (1-byte offset, terminator) then ADD_32.
	code := []byte{byte(OpJump), 0x02, byte(OpAdd32), 0x00, 0x00, 0x00}
	mask := buildMask([]int{1, 3})
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsBasicBlockStart(0) {
		t.Error("offset 0 must always start a basic block")
	}
	if !p.IsBasicBlockStart(2) {
		t.Error("offset immediately after a terminator must start a basic block")
	}
	if p.IsBasicBlockStart(1) {
		t.Error("mid-instruction offset must not be a basic block start")
	}
}

func TestBasicBlockExcludesMidTerminatorOperand(t *testing.T) {
	// BRANCH_EQ (terminator) whose operand byte, if misread as an
	// opcode start, must not count as a block boundary since k is 0
	// there.
	code := []byte{byte(OpBranchEq), 0x21, 0x05, byte(OpTrap)}
	mask := buildMask([]int{2, 0})
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.IsBasicBlockStart(2) {
		t.Error("operand byte must never be a basic block start")
	}
	if !p.IsBasicBlockStart(3) {
		t.Error("instruction following the terminator must be a basic block start")
	}
}

func TestBasicBlockRequiresValidOpcodeAtTarget(t *testing.T) {
	// Terminator immediately followed by the end of code: the implicit
	// landing spot (codeLn) is still a valid block, since ζ's zero
	// padding decodes there as the defined opcode TRAP.
	code := []byte{byte(OpTrap)}
	mask := buildMask([]int{0})
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsBasicBlockStart(1) {
		t.Error("offset at end of code following a terminator should be a valid block boundary (padding decodes as TRAP)")
	}
}

func TestJumpTargetOutOfRange(t *testing.T) {
	p, err := New([]byte{byte(OpTrap)}, buildMask([]int{0}), []uint32{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.JumpTarget(5); ok {
		t.Error("expected out-of-range jump index to report !ok")
	}
	got, ok := p.JumpTarget(1)
	if !ok || got != 20 {
		t.Errorf("JumpTarget(1) = %d,%v want 20,true", got, ok)
	}
}

func TestOperandAtCodeTailStaysWithinPadding(t *testing.T) {
	// The operand slice of the final opcode in the original code is cut
	// from ζ's zero-padded tail and must stay within that padding, never
	// panic. k's one-padding ends the instruction right after the code,
	// so Fskip(0) is 0 here.
	code := []byte{byte(OpAdd32)}
	mask := []bool{true}
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	op := p.Operand(0)
	if len(op) > zeroPad {
		t.Errorf("operand slice length %d exceeds zero padding budget", len(op))
	}
}

func TestDisassembleMarksBasicBlocks(t *testing.T) {
	code := []byte{byte(OpJump), 0x01, byte(OpTrap)}
	mask := buildMask([]int{1, 0})
	p, err := New(code, mask, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := p.Disassemble()
	if out == "" {
		t.Fatal("expected non-empty disassembly")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "*") || !strings.HasPrefix(lines[1], "*") {
		t.Errorf("expected both instructions (offsets 0 and 2) marked as block starts, got:\n%s", out)
	}
}

func TestMaskShorterThanCodeRejected(t *testing.T) {
	if _, err := New([]byte{1, 2, 3}, []bool{true}, nil); err == nil {
		t.Fatal("expected error for undersized mask")
	}
}
