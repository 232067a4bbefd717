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
	"fmt"
	"strings"
)

// zeroPad is the number of zero bytes appended past the end of the
// raw code so that an opcode near the tail may still decode up to 24
// trailing operand bytes without a bounds check (§3).
const zeroPad = 24

// onePad is the number of 1-bits appended to the opcode bitmask past
// the end of the code, so Fskip computed at the tail always resolves
// against a defined bit (§3).
const onePad = 25

// Program is the C3 representation built once per invocation: the
// zero-padded code ζ, the opcode bitmask k, the precomputed Fskip
// table, the jump table j, and the basic-block set B every branch and
// indirect-jump target is checked against.
type Program struct {
	zeta   []byte // code, zero-padded by zeroPad bytes
	k      []bool // one bit per byte of zeta; true where an opcode begins
	fskip  []int  // fskip[n] = bytes between n+1 and the next opcode (or end)
	jump   []uint32
	blocks map[uint32]bool // basic-block set B, keyed by bit offset into zeta
	codeLn int             // length of the original (un-padded) code
}

// New builds a Program from raw instruction bytes and a bitmask with
// one bit per byte (true marking the start of an instruction). mask
// must have at least len(code) entries; jumpTable is the program's
// static jump table j, copied verbatim.
func New(code []byte, mask []bool, jumpTable []uint32) (*Program, error) {
	if len(mask) < len(code) {
		return nil, fmt.Errorf("program: mask shorter than code (%d < %d)", len(mask), len(code))
	}
	p := &Program{codeLn: len(code)}

	p.zeta = make([]byte, len(code)+zeroPad)
	copy(p.zeta, code)

	p.k = make([]bool, len(p.zeta)+onePad)
	copy(p.k, mask[:len(code)])
	for i := len(code); i < len(p.k); i++ {
		p.k[i] = true
	}

	p.jump = append([]uint32(nil), jumpTable...)

	p.fskip = buildFskip(p.k, len(code))
	p.blocks = p.buildBlocks()

	return p, nil
}

// buildFskip computes, for every bit position n < codeLn, the number
// of bytes strictly between n and the next position carrying a 1 bit
// in k, capped at 24 (§3), so Fskip never needs to look past index
// n+25.
func buildFskip(k []bool, codeLn int) []int {
	fskip := make([]int, codeLn)
	for n := 0; n < codeLn; n++ {
		skip := 0
		for m := n + 1; m < len(k) && !k[m] && skip < zeroPad; m++ {
			skip++
		}
		fskip[n] = skip
	}
	return fskip
}

// Len returns the number of bytes in the original (un-padded) code.
func (p *Program) Len() int { return p.codeLn }

// OpcodeAt returns the opcode at byte offset n. Callers must first
// confirm k[n] via IsOpcodeStart.
func (p *Program) OpcodeAt(n uint32) Opcode { return Opcode(p.zeta[n]) }

// IsOpcodeStart reports whether bit n of the mask marks the start of
// an instruction.
func (p *Program) IsOpcodeStart(n uint32) bool {
	if int(n) >= len(p.k) {
		return false
	}
	return p.k[n]
}

// Fskip returns the number of operand bytes following the opcode at
// position n (§3's Fskip function).
func (p *Program) Fskip(n uint32) int {
	if int(n) >= len(p.fskip) {
		return 0
	}
	return p.fskip[n]
}

// Operand returns the Fskip(n) operand bytes following the opcode at
// n, safe to read past the end of the un-padded code thanks to zeta's
// trailing zero padding.
func (p *Program) Operand(n uint32) []byte {
	start := int(n) + 1
	end := start + p.Fskip(n)
	if end > len(p.zeta) {
		end = len(p.zeta)
	}
	return p.zeta[start:end]
}

// JumpTarget resolves a jump-table index (as derived from a
// JUMP_IND/LOAD_IMM_JUMP_IND address, per §4.5) to a code offset. ok
// is false for an out-of-range index.
func (p *Program) JumpTarget(idx uint32) (uint32, bool) {
	if idx >= uint32(len(p.jump)) {
		return 0, false
	}
	return p.jump[idx], true
}

// JumpTableLen returns len(j), the number of entries in the static
// jump table — the bound JUMP_IND's address-validity check (§4.5) is
// computed against.
func (p *Program) JumpTableLen() int { return len(p.jump) }

// buildBlocks derives the basic-block set B per §3:
//
//	B = ({0} ∪ {n+1+Fskip(n) | k[n]=1 ∧ opcode(n) is a terminator})
//	    ∩ {m | k[m]=1 ∧ opcode(m) is a valid initial opcode}
//
// Offset 0 is always a candidate (every program starts a block); every
// other candidate is the instruction immediately following a
// terminator. Both halves must additionally land on a real opcode
// start whose opcode is defined (IsValid), matching "valid initial
// opcode" in the spec's terminology.
func (p *Program) buildBlocks() map[uint32]bool {
	candidates := map[uint32]bool{0: true}

	for n := 0; n < p.codeLn; {
		if !p.k[n] {
			n++
			continue
		}
		op := Opcode(p.zeta[n])
		skip := p.fskip[n]
		if op.IsTerminator() {
			candidates[uint32(n+1+skip)] = true
		}
		n += 1 + skip
	}

	blocks := make(map[uint32]bool, len(candidates))
	for m := range candidates {
		if int(m) >= p.codeLn {
			// The position just past the end of code is always a valid
			// block boundary: ζ's zero padding decodes as TRAP there.
			if int(m) == p.codeLn {
				blocks[m] = true
			}
			continue
		}
		if p.k[m] && Opcode(p.zeta[m]).IsValid() {
			blocks[m] = true
		}
	}
	return blocks
}

// IsBasicBlockStart reports whether offset n is in B — the set of
// addresses a branch, JUMP, or JUMP_IND is allowed to target.
func (p *Program) IsBasicBlockStart(n uint32) bool {
	return p.blocks[n]
}

// Disassemble renders the program as a flat, one-instruction-per-line
// listing (offset, mnemonic, and the raw operand bytes in hex), with a
// leading "*" on lines that start a basic block. Operands are not
// decoded, and ECALLI host-call ids are not named symbolically.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for n := 0; n < p.codeLn; {
		if !p.k[n] {
			n++
			continue
		}
		op := Opcode(p.zeta[n])
		skip := p.fskip[n]
		mark := " "
		if p.blocks[uint32(n)] {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s%6d: %-20s %x\n", mark, n, op.String(), p.zeta[n+1:n+1+skip])
		n += 1 + skip
	}
	return b.String()
}
