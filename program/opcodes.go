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

// Package program builds the PVM's per-invocation program
// representation (§4.3): the zero-padded code, the opcode bitmask,
// Fskip, the jump table, and the basic-block set every branch and
// indirect jump target is validated against.
package program

import "github.com/probechain/pvm/operand"

// Opcode is an 8-bit instruction code for the PVM.
type Opcode uint8

const (
	// ---- Special -------------------------------------------------------

	OpTrap Opcode = iota
	OpFallthrough
	OpEcalli

	// ---- Arithmetic 32-bit, reg,reg,reg -------------------------------

	OpAdd32
	OpSub32
	OpMul32
	OpDivU32
	OpDivS32
	OpRemU32
	OpRemS32

	// ---- Arithmetic 64-bit, reg,reg,reg -------------------------------

	OpAdd64
	OpSub64
	OpMul64
	OpDivU64
	OpDivS64
	OpRemU64
	OpRemS64

	// ---- Arithmetic, reg,reg,imm ---------------------------------------

	OpAddImm32
	OpMulImm32
	OpNegAdd32
	OpAddImm64
	OpMulImm64
	OpNegAdd64

	// ---- Bitwise, reg,reg,reg -------------------------------------------

	OpAnd
	OpOr
	OpXor
	OpAndInv // a & ~b
	OpOrInv  // a | ~b
	OpXnor

	// ---- Shifts, reg,reg,reg (b is the shift-amount register) ----------

	OpShloL32
	OpShloR32
	OpSharR32
	OpShloL64
	OpShloR64
	OpSharR64

	// ---- Shifts, reg,reg,imm (immediate is the shift amount) ------------

	OpShloLImm32
	OpShloRImm32
	OpSharRImm32
	OpShloLImm64
	OpShloRImm64
	OpSharRImm64

	// ---- Rotations, reg,reg,reg (b is the rotate-amount register) ------

	OpRotL32
	OpRotR32
	OpRotL64
	OpRotR64

	// ---- Rotations, reg,reg,imm (immediate is the rotate amount) -------

	OpRotLImm32
	OpRotRImm32
	OpRotLImm64
	OpRotRImm64

	// ---- Rotations, alt form (rotate an immediate value by a register) -

	OpRotLImmAlt32
	OpRotRImmAlt32
	OpRotLImmAlt64
	OpRotRImmAlt64

	// ---- Widening multiply upper, reg,reg,reg ---------------------------

	OpMulhUU
	OpMulhSS
	OpMulhSU

	// ---- Min/Max, reg,reg,reg --------------------------------------------

	OpMinS
	OpMinU
	OpMaxS
	OpMaxU

	// ---- Comparisons, reg,reg,reg -----------------------------------------

	OpSetLtU
	OpSetLtS
	OpSetGtU
	OpSetGtS

	// ---- Conditional moves, reg,reg,reg (rD both read and written) -------

	OpCmovIZ
	OpCmovNZ

	// ---- Sign/zero extend, reg,reg ------------------------------------------

	OpSext8
	OpSext16
	OpZext8
	OpZext16

	// ---- Byte reverse, reg,reg ------------------------------------------------

	OpRev

	// ---- Bit count, reg,reg -----------------------------------------------------

	OpPopcount32
	OpPopcount64
	OpClz32
	OpClz64
	OpCtz32
	OpCtz64

	// ---- Memory direct, reg + imm(address) ---------------------------------------

	OpLoadU8
	OpLoadI8
	OpLoadU16
	OpLoadI16
	OpLoadU32
	OpLoadI32
	OpLoadU64
	OpStoreU8
	OpStoreU16
	OpStoreU32
	OpStoreU64

	// ---- Memory indirect, reg,reg + imm(offset) ------------------------------------

	OpLoadIndU8
	OpLoadIndI8
	OpLoadIndU16
	OpLoadIndI16
	OpLoadIndU32
	OpLoadIndI32
	OpLoadIndU64
	OpStoreIndU8
	OpStoreIndU16
	OpStoreIndU32
	OpStoreIndU64

	// ---- Memory immediate store (addr=imm, value=imm) ----------------------------

	OpStoreImmU8
	OpStoreImmU16
	OpStoreImmU32
	OpStoreImmU64

	// ---- Memory immediate-indirect store (addr=rB+imm, value=imm) -----------------

	OpStoreImmIndU8
	OpStoreImmIndU16
	OpStoreImmIndU32
	OpStoreImmIndU64

	// ---- Control flow -------------------------------------------------------------

	OpJump
	OpJumpInd
	OpLoadImmJump
	OpLoadImmJumpInd

	// ---- Branches, reg,reg + offset -------------------------------------------------

	OpBranchEq
	OpBranchNe
	OpBranchLtU
	OpBranchLtS
	OpBranchGeU
	OpBranchGeS

	// ---- Branches, reg,imm + offset -------------------------------------------------

	OpBranchEqImm
	OpBranchNeImm
	OpBranchLtUImm
	OpBranchLtSImm
	OpBranchGeUImm
	OpBranchGeSImm

	// opcodeCount must stay last: total number of defined opcodes.
	opcodeCount
)

// info groups an opcode's decode format and control-flow
// classification, mirroring the teacher's opcodeTable
// (name/operand-count lookup array) generalized to the PVM's richer
// per-opcode metadata.
type info struct {
	name       string
	format     operand.Format
	terminator bool
}

// catalog maps every defined Opcode to its metadata. An opcode not
// present here (index >= opcodeCount, or any byte value the PVM
// doesn't define) is unknown: not a valid initial position and not
// dispatchable.
var catalog = [opcodeCount]info{
	OpTrap:        {"TRAP", operand.NoOperands, true},
	OpFallthrough: {"FALLTHROUGH", operand.NoOperands, true},
	OpEcalli:      {"ECALLI", operand.ECalliImm, false},

	OpAdd32:  {"ADD_32", operand.TwoRegsOneImm, false},
	OpSub32:  {"SUB_32", operand.TwoRegsOneImm, false},
	OpMul32:  {"MUL_32", operand.TwoRegsOneImm, false},
	OpDivU32: {"DIV_U_32", operand.TwoRegsOneImm, false},
	OpDivS32: {"DIV_S_32", operand.TwoRegsOneImm, false},
	OpRemU32: {"REM_U_32", operand.TwoRegsOneImm, false},
	OpRemS32: {"REM_S_32", operand.TwoRegsOneImm, false},

	OpAdd64:  {"ADD_64", operand.TwoRegsOneImm, false},
	OpSub64:  {"SUB_64", operand.TwoRegsOneImm, false},
	OpMul64:  {"MUL_64", operand.TwoRegsOneImm, false},
	OpDivU64: {"DIV_U_64", operand.TwoRegsOneImm, false},
	OpDivS64: {"DIV_S_64", operand.TwoRegsOneImm, false},
	OpRemU64: {"REM_U_64", operand.TwoRegsOneImm, false},
	OpRemS64: {"REM_S_64", operand.TwoRegsOneImm, false},

	OpAddImm32: {"ADD_IMM_32", operand.TwoRegsOneImm, false},
	OpMulImm32: {"MUL_IMM_32", operand.TwoRegsOneImm, false},
	OpNegAdd32: {"NEG_ADD_32", operand.TwoRegsOneImm, false},
	OpAddImm64: {"ADD_IMM_64", operand.TwoRegsOneImm, false},
	OpMulImm64: {"MUL_IMM_64", operand.TwoRegsOneImm, false},
	OpNegAdd64: {"NEG_ADD_64", operand.TwoRegsOneImm, false},

	OpAnd:    {"AND", operand.TwoRegsOneImm, false},
	OpOr:     {"OR", operand.TwoRegsOneImm, false},
	OpXor:    {"XOR", operand.TwoRegsOneImm, false},
	OpAndInv: {"AND_INV", operand.TwoRegsOneImm, false},
	OpOrInv:  {"OR_INV", operand.TwoRegsOneImm, false},
	OpXnor:   {"XNOR", operand.TwoRegsOneImm, false},

	OpShloL32: {"SHLO_L_32", operand.TwoRegsOneImm, false},
	OpShloR32: {"SHLO_R_32", operand.TwoRegsOneImm, false},
	OpSharR32: {"SHAR_R_32", operand.TwoRegsOneImm, false},
	OpShloL64: {"SHLO_L_64", operand.TwoRegsOneImm, false},
	OpShloR64: {"SHLO_R_64", operand.TwoRegsOneImm, false},
	OpSharR64: {"SHAR_R_64", operand.TwoRegsOneImm, false},

	OpShloLImm32: {"SHLO_L_IMM_32", operand.TwoRegsOneImm, false},
	OpShloRImm32: {"SHLO_R_IMM_32", operand.TwoRegsOneImm, false},
	OpSharRImm32: {"SHAR_R_IMM_32", operand.TwoRegsOneImm, false},
	OpShloLImm64: {"SHLO_L_IMM_64", operand.TwoRegsOneImm, false},
	OpShloRImm64: {"SHLO_R_IMM_64", operand.TwoRegsOneImm, false},
	OpSharRImm64: {"SHAR_R_IMM_64", operand.TwoRegsOneImm, false},

	OpRotL32: {"ROT_L_32", operand.TwoRegsOneImm, false},
	OpRotR32: {"ROT_R_32", operand.TwoRegsOneImm, false},
	OpRotL64: {"ROT_L_64", operand.TwoRegsOneImm, false},
	OpRotR64: {"ROT_R_64", operand.TwoRegsOneImm, false},

	OpRotLImm32: {"ROT_L_IMM_32", operand.TwoRegsOneImm, false},
	OpRotRImm32: {"ROT_R_IMM_32", operand.TwoRegsOneImm, false},
	OpRotLImm64: {"ROT_L_IMM_64", operand.TwoRegsOneImm, false},
	OpRotRImm64: {"ROT_R_IMM_64", operand.TwoRegsOneImm, false},

	OpRotLImmAlt32: {"ROT_L_IMM_ALT_32", operand.TwoRegsOneImm, false},
	OpRotRImmAlt32: {"ROT_R_IMM_ALT_32", operand.TwoRegsOneImm, false},
	OpRotLImmAlt64: {"ROT_L_IMM_ALT_64", operand.TwoRegsOneImm, false},
	OpRotRImmAlt64: {"ROT_R_IMM_ALT_64", operand.TwoRegsOneImm, false},

	OpMulhUU: {"MULH_UU", operand.TwoRegsOneImm, false},
	OpMulhSS: {"MULH_SS", operand.TwoRegsOneImm, false},
	OpMulhSU: {"MULH_SU", operand.TwoRegsOneImm, false},

	OpMinS: {"MIN_S", operand.TwoRegsOneImm, false},
	OpMinU: {"MIN_U", operand.TwoRegsOneImm, false},
	OpMaxS: {"MAX_S", operand.TwoRegsOneImm, false},
	OpMaxU: {"MAX_U", operand.TwoRegsOneImm, false},

	OpSetLtU: {"SET_LT_U", operand.TwoRegsOneImm, false},
	OpSetLtS: {"SET_LT_S", operand.TwoRegsOneImm, false},
	OpSetGtU: {"SET_GT_U", operand.TwoRegsOneImm, false},
	OpSetGtS: {"SET_GT_S", operand.TwoRegsOneImm, false},

	OpCmovIZ: {"CMOV_IZ", operand.TwoRegsOneImm, false},
	OpCmovNZ: {"CMOV_NZ", operand.TwoRegsOneImm, false},

	OpSext8:  {"SEXT_8", operand.TwoRegsOneImm, false},
	OpSext16: {"SEXT_16", operand.TwoRegsOneImm, false},
	OpZext8:  {"ZEXT_8", operand.TwoRegsOneImm, false},
	OpZext16: {"ZEXT_16", operand.TwoRegsOneImm, false},

	OpRev: {"REV", operand.TwoRegsOneImm, false},

	OpPopcount32: {"POPCOUNT_32", operand.TwoRegsOneImm, false},
	OpPopcount64: {"POPCOUNT_64", operand.TwoRegsOneImm, false},
	OpClz32:      {"CLZ_32", operand.TwoRegsOneImm, false},
	OpClz64:      {"CLZ_64", operand.TwoRegsOneImm, false},
	OpCtz32:      {"CTZ_32", operand.TwoRegsOneImm, false},
	OpCtz64:      {"CTZ_64", operand.TwoRegsOneImm, false},

	OpLoadU8:    {"LOAD_U8", operand.OneRegOneImm, false},
	OpLoadI8:    {"LOAD_I8", operand.OneRegOneImm, false},
	OpLoadU16:   {"LOAD_U16", operand.OneRegOneImm, false},
	OpLoadI16:   {"LOAD_I16", operand.OneRegOneImm, false},
	OpLoadU32:   {"LOAD_U32", operand.OneRegOneImm, false},
	OpLoadI32:   {"LOAD_I32", operand.OneRegOneImm, false},
	OpLoadU64:   {"LOAD_U64", operand.OneRegOneImm, false},
	OpStoreU8:   {"STORE_U8", operand.OneRegOneImm, false},
	OpStoreU16:  {"STORE_U16", operand.OneRegOneImm, false},
	OpStoreU32:  {"STORE_U32", operand.OneRegOneImm, false},
	OpStoreU64:  {"STORE_U64", operand.OneRegOneImm, false},

	OpLoadIndU8:   {"LOAD_IND_U8", operand.TwoRegsOneImm, false},
	OpLoadIndI8:   {"LOAD_IND_I8", operand.TwoRegsOneImm, false},
	OpLoadIndU16:  {"LOAD_IND_U16", operand.TwoRegsOneImm, false},
	OpLoadIndI16:  {"LOAD_IND_I16", operand.TwoRegsOneImm, false},
	OpLoadIndU32:  {"LOAD_IND_U32", operand.TwoRegsOneImm, false},
	OpLoadIndI32:  {"LOAD_IND_I32", operand.TwoRegsOneImm, false},
	OpLoadIndU64:  {"LOAD_IND_U64", operand.TwoRegsOneImm, false},
	OpStoreIndU8:  {"STORE_IND_U8", operand.TwoRegsOneImm, false},
	OpStoreIndU16: {"STORE_IND_U16", operand.TwoRegsOneImm, false},
	OpStoreIndU32: {"STORE_IND_U32", operand.TwoRegsOneImm, false},
	OpStoreIndU64: {"STORE_IND_U64", operand.TwoRegsOneImm, false},

	OpStoreImmU8:  {"STORE_IMM_U8", operand.TwoImm, false},
	OpStoreImmU16: {"STORE_IMM_U16", operand.TwoImm, false},
	OpStoreImmU32: {"STORE_IMM_U32", operand.TwoImm, false},
	OpStoreImmU64: {"STORE_IMM_U64", operand.TwoImm, false},

	OpStoreImmIndU8:  {"STORE_IMM_IND_U8", operand.TwoRegsTwoImm, false},
	OpStoreImmIndU16: {"STORE_IMM_IND_U16", operand.TwoRegsTwoImm, false},
	OpStoreImmIndU32: {"STORE_IMM_IND_U32", operand.TwoRegsTwoImm, false},
	OpStoreImmIndU64: {"STORE_IMM_IND_U64", operand.TwoRegsTwoImm, false},

	OpJump:           {"JUMP", operand.OneOffset, true},
	OpJumpInd:        {"JUMP_IND", operand.OneRegOneImm, true},
	OpLoadImmJump:    {"LOAD_IMM_JUMP", operand.OneRegTwoImm, true},
	OpLoadImmJumpInd: {"LOAD_IMM_JUMP_IND", operand.TwoRegsTwoImm, true},

	OpBranchEq:  {"BRANCH_EQ", operand.TwoRegsOffset, true},
	OpBranchNe:  {"BRANCH_NE", operand.TwoRegsOffset, true},
	OpBranchLtU: {"BRANCH_LT_U", operand.TwoRegsOffset, true},
	OpBranchLtS: {"BRANCH_LT_S", operand.TwoRegsOffset, true},
	OpBranchGeU: {"BRANCH_GE_U", operand.TwoRegsOffset, true},
	OpBranchGeS: {"BRANCH_GE_S", operand.TwoRegsOffset, true},

	OpBranchEqImm:  {"BRANCH_EQ_IMM", operand.OneRegTwoImm, true},
	OpBranchNeImm:  {"BRANCH_NE_IMM", operand.OneRegTwoImm, true},
	OpBranchLtUImm: {"BRANCH_LT_U_IMM", operand.OneRegTwoImm, true},
	OpBranchLtSImm: {"BRANCH_LT_S_IMM", operand.OneRegTwoImm, true},
	OpBranchGeUImm: {"BRANCH_GE_U_IMM", operand.OneRegTwoImm, true},
	OpBranchGeSImm: {"BRANCH_GE_S_IMM", operand.OneRegTwoImm, true},
}

// String returns the opcode's mnemonic, or "UNKNOWN" for byte values
// the PVM does not define.
func (op Opcode) String() string {
	if int(op) >= len(catalog) {
		return "UNKNOWN"
	}
	return catalog[op].name
}

// Format reports the operand-decode format for op.
func (op Opcode) Format() operand.Format {
	if int(op) >= len(catalog) {
		return operand.NoOperands
	}
	return catalog[op].format
}

// IsTerminator reports whether op is one of the instructions after
// which a new basic block may begin (§4.3): trap, fallthrough, jump,
// jump-ind, load-imm-jump, load-imm-jump-ind, or any branch.
func (op Opcode) IsTerminator() bool {
	if int(op) >= len(catalog) {
		return false
	}
	return catalog[op].terminator
}

// IsValid reports whether op is a defined opcode — "valid initial
// opcode" in §4.3's basic-block terminology. Unknown opcodes are
// never a legal branch/jump target.
func (op Opcode) IsValid() bool {
	return int(op) < len(catalog)
}
